package docconf

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/logfields"
)

// ConfFile is the name Sphinx looks for in the source directory.
const ConfFile = "conf.py"

// Builder turns a Sphinx source directory into HTML.
type Builder interface {
	Build(ctx context.Context, sourceDir, outDir string) error
}

// SphinxBuilder runs the sphinx-build executable.
type SphinxBuilder struct {
	// Binary defaults to "sphinx-build".
	Binary string
}

// Build runs `sphinx-build -b html`. A missing binary is logged and skipped.
func (s *SphinxBuilder) Build(ctx context.Context, sourceDir, outDir string) error {
	bin := s.Binary
	if bin == "" {
		bin = "sphinx-build"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		slog.Warn("sphinx-build not found, skipping HTML build", "binary", bin)
		return nil
	}

	// #nosec G204 -- path comes from exec.LookPath
	cmd := exec.CommandContext(ctx, path, "-b", "html", sourceDir, outDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking sphinx-build", logfields.Path(sourceDir), "out", outDir)

	err = cmd.Run()
	if outStr := stdout.String(); outStr != "" {
		slog.Debug("sphinx-build stdout", "output", outStr)
	}
	if err != nil {
		output := stderr.String()
		if output == "" {
			output = stdout.String()
		}
		return errors.DocsError("sphinx-build failed").
			WithCause(err).
			WithContext("output", output).
			WithContext("source", sourceDir).
			Build()
	}
	slog.Info("Documentation built", logfields.Path(outDir))
	return nil
}

// NoopBuilder skips the HTML build.
type NoopBuilder struct{}

func (NoopBuilder) Build(_ context.Context, sourceDir, _ string) error {
	slog.Debug("NoopBuilder skipping build", logfields.Path(sourceDir))
	return nil
}

// WriteConf renders c into <sourceDir>/conf.py.
func (c Config) WriteConf(sourceDir string) (string, error) {
	if err := os.MkdirAll(sourceDir, 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "cannot create docs source directory").
			WithContext("path", sourceDir).Build()
	}
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "cannot render conf.py").Build()
	}
	path := filepath.Join(sourceDir, ConfFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "cannot write conf.py").
			WithContext("path", path).Build()
	}
	return path, nil
}

// Build writes conf.py into sourceDir and runs b over it.
func (c Config) Build(ctx context.Context, b Builder, sourceDir, outDir string) error {
	if b == nil {
		b = NoopBuilder{}
	}
	path, err := c.WriteConf(sourceDir)
	if err != nil {
		return err
	}
	slog.Info("Wrote Sphinx configuration", logfields.Path(path), logfields.Version(c.Release))
	return b.Build(ctx, sourceDir, outDir)
}
