package regression

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/nbharness/internal/logfields"
	"git.home.luguber.info/inful/nbharness/internal/nbdiff"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

// Result is the outcome of one regression check.
type Result struct {
	Diff         nbdiff.Diff
	DiffFiltered nbdiff.Diff
	DiffString   string
	Final        *notebook.Notebook
}

// FilteredTree returns the filtered diff as plain maps and slices.
func (r *Result) FilteredTree() []any {
	return r.DiffFiltered.Tree()
}

// Checker executes the notebook at path and diffs the result against it.
type Checker interface {
	Check(ctx context.Context, path string) (*Result, error)
}

// Executor runs the notebook at in and writes the executed document to out.
type Executor interface {
	Execute(ctx context.Context, in, out string) error
}

// KernelChecker is the Checker backed by an Executor. Errors raised inside
// cells do not fail Check; they show up as outputs in the diff, and cells
// after the first failing one are treated as never executed.
type KernelChecker struct {
	executor Executor
	ignore   []string
}

// NewKernelChecker returns a checker that filters the given paths out of
// every diff. A nil ignore list selects nbdiff.DefaultIgnore.
func NewKernelChecker(executor Executor, ignore []string) *KernelChecker {
	if ignore == nil {
		ignore = nbdiff.DefaultIgnore
	}
	return &KernelChecker{executor: executor, ignore: ignore}
}

// Check implements Checker.
func (c *KernelChecker) Check(ctx context.Context, path string) (*Result, error) {
	initial, err := notebook.Read(path)
	if err != nil {
		return nil, err
	}

	out := strings.TrimSuffix(path, notebook.Extension) + ".executed" + notebook.Extension
	defer func() {
		if rmErr := os.Remove(out); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("Failed to remove executed notebook", logfields.Path(out), logfields.Error(rmErr))
		}
	}()

	if err := c.executor.Execute(ctx, path, out); err != nil {
		return nil, err
	}

	final, err := notebook.Read(out)
	if err != nil {
		return nil, err
	}

	if idx := haltAtFirstError(initial, final); idx >= 0 {
		slog.Debug("Execution halted at failing cell", logfields.Notebook(path), slog.Int("cell", idx))
	}

	raw := nbdiff.Notebooks(initial, final)
	filtered := nbdiff.Filter(raw, c.ignore)
	slog.Debug("Notebook diffed",
		logfields.Notebook(path),
		slog.Int("entries", len(raw)),
		slog.Int("filtered_entries", len(filtered)))

	return &Result{
		Diff:         raw,
		DiffFiltered: filtered,
		DiffString:   nbdiff.Render(initial.Generic(), filtered),
		Final:        final,
	}, nil
}
