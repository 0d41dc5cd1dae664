package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/nbharness/internal/config"
	"git.home.luguber.info/inful/nbharness/internal/docconf"
	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
)

// DocsCmd groups the documentation subcommands.
type DocsCmd struct {
	Conf    DocsConfCmd    `cmd:"" help:"Render conf.py"`
	Version DocsVersionCmd `cmd:"" help:"Print the release label and date derived from git"`
	Build   DocsBuildCmd   `cmd:"" help:"Write conf.py and run sphinx-build"`
}

func prober(cfg *config.Config) docconf.Prober {
	if cfg.Docs.Probe == config.ProbeLibrary {
		return &docconf.RepoProber{Dir: cfg.Docs.RepoDir}
	}
	return &docconf.CLIProber{Dir: cfg.Docs.RepoDir}
}

func docsConfig(ctx context.Context, cfg *config.Config) docconf.Config {
	meta := docconf.Derive(ctx, prober(cfg))
	return docconf.FromSettings(cfg.Docs).WithMetadata(meta)
}

// DocsConfCmd implements 'docs conf'.
type DocsConfCmd struct {
	Output string `short:"o" help:"Write to this file instead of stdout"`
}

func (d *DocsConfCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := docsConfig(context.Background(), cfg).Render(&buf); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot render conf.py").Build()
	}
	if d.Output == "" {
		_, err := g.out().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(d.Output, buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot write conf.py").
			WithContext("path", d.Output).Build()
	}
	return nil
}

// DocsVersionCmd implements 'docs version'.
type DocsVersionCmd struct{}

func (d *DocsVersionCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	meta := docconf.Derive(context.Background(), prober(cfg))
	_, err = fmt.Fprintf(g.out(), "release: %s\ndate: %s\n", meta.Release, meta.Date)
	return err
}

// DocsBuildCmd implements 'docs build'.
type DocsBuildCmd struct {
	Source string `help:"Sphinx source directory (default: docs.source_dir)"`
	Out    string `help:"HTML output directory (default: docs.build_dir)"`
}

func (d *DocsBuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	source, out := d.Source, d.Out
	if source == "" {
		source = cfg.Docs.SourceDir
	}
	if out == "" {
		out = cfg.Docs.BuildDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return docsConfig(ctx, cfg).Build(ctx, &docconf.SphinxBuilder{}, source, out)
}
