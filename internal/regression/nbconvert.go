package regression

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/logfields"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

// NbconvertExecutor executes notebooks with `jupyter nbconvert`.
type NbconvertExecutor struct {
	// Jupyter is the jupyter binary name or path. Defaults to "jupyter".
	Jupyter string
	// Kernel overrides the notebook's kernelspec when set.
	Kernel string
	// Timeout bounds each cell; zero or less disables the limit.
	Timeout time.Duration
}

func (e *NbconvertExecutor) binary() string {
	if e.Jupyter == "" {
		return "jupyter"
	}
	return e.Jupyter
}

func (e *NbconvertExecutor) args(in, out string) []string {
	timeout := -1
	if e.Timeout > 0 {
		timeout = int(math.Ceil(e.Timeout.Seconds()))
	}
	args := []string{
		"nbconvert",
		"--to", "notebook",
		"--execute",
		"--allow-errors",
		fmt.Sprintf("--ExecutePreprocessor.timeout=%d", timeout),
	}
	if e.Kernel != "" {
		args = append(args, "--ExecutePreprocessor.kernel_name="+e.Kernel)
	}
	return append(args,
		"--output-dir="+filepath.Dir(out),
		"--output="+strings.TrimSuffix(filepath.Base(out), notebook.Extension),
		in,
	)
}

// Execute implements Executor.
func (e *NbconvertExecutor) Execute(ctx context.Context, in, out string) error {
	bin := e.binary()
	if _, err := exec.LookPath(bin); err != nil {
		return errors.WrapError(err, errors.CategoryExecution, "jupyter binary not found").
			UserAction().
			WithContext("binary", bin).
			Build()
	}

	cmd := exec.CommandContext(ctx, bin, e.args(in, out)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	slog.Debug("Executing notebook", logfields.Notebook(in), logfields.Kernel(e.Kernel))
	err := cmd.Run()

	if s := stdout.String(); s != "" {
		slog.Debug("nbconvert stdout", "output", s)
	}
	if err != nil {
		output := strings.TrimSpace(stderr.String() + "\n" + stdout.String())
		return errors.WrapError(err, errors.CategoryExecution, "jupyter nbconvert failed").
			Fatal().
			WithContext("notebook", in).
			WithContext("output", output).
			Build()
	}
	slog.Debug("Notebook executed",
		logfields.Notebook(in),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}
