package harness

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/history"
	"git.home.luguber.info/inful/nbharness/internal/logfields"
	"git.home.luguber.info/inful/nbharness/internal/metrics"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
	"git.home.luguber.info/inful/nbharness/internal/notify"
	"git.home.luguber.info/inful/nbharness/internal/regression"
	"git.home.luguber.info/inful/nbharness/internal/sentinel"
	"git.home.luguber.info/inful/nbharness/internal/workspace"
)

// Stage names used for logging and metrics.
const (
	StageLocate     = "locate"
	StageInject     = "inject"
	StageStage      = "stage"
	StageCheck      = "check"
	StageVerify     = "verify"
	StageRegenerate = "regenerate"
)

// Outcome is the final state of one tutorial run.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	// OutcomeFailed means the notebook ran but the sentinel was not reached.
	OutcomeFailed Outcome = "failed"
	// OutcomeError means the run could not be completed at all.
	OutcomeError Outcome = "error"
)

// Report describes one tutorial run.
type Report struct {
	RunID       string
	Name        string
	Path        string
	Cells       int
	Outcome     Outcome
	Duration    time.Duration
	Regenerated bool
	// Diff holds the rendered diff when verification failed.
	Diff string
	Err  error
}

// Harness runs tutorials from one directory.
type Harness struct {
	dir         string
	checker     regression.Checker
	regenerate  bool
	stagingBase string
	recorder    metrics.Recorder
	store       history.Store
	publisher   notify.Publisher
}

// Option configures a Harness.
type Option func(*Harness)

// WithRegenerate makes successful runs write the executed notebook back.
func WithRegenerate(on bool) Option {
	return func(h *Harness) { h.regenerate = on }
}

// WithStagingDir sets the directory staging workspaces are created in.
func WithStagingDir(dir string) Option {
	return func(h *Harness) { h.stagingBase = dir }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Harness) {
		if r != nil {
			h.recorder = r
		}
	}
}

// WithHistory records every run in store.
func WithHistory(store history.Store) Option {
	return func(h *Harness) { h.store = store }
}

// WithPublisher publishes every run to p.
func WithPublisher(p notify.Publisher) Option {
	return func(h *Harness) {
		if p != nil {
			h.publisher = p
		}
	}
}

// New returns a harness for the tutorials in dir.
func New(dir string, checker regression.Checker, opts ...Option) *Harness {
	h := &Harness{
		dir:       dir,
		checker:   checker,
		recorder:  metrics.NoopRecorder{},
		publisher: notify.NoopPublisher{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dir returns the tutorials directory.
func (h *Harness) Dir() string { return h.dir }

// RunTutorial runs the tutorial called name. The returned report is never
// nil; its Err matches the returned error.
func (h *Harness) RunTutorial(ctx context.Context, name string) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Name: name}
	logger := slog.With(logfields.RunID(report.RunID), logfields.Tutorial(name))
	logger.Info("Running tutorial")

	start := time.Now()
	err := h.run(ctx, logger, report)
	report.Duration = time.Since(start)
	report.Err = err

	switch {
	case err == nil:
		report.Outcome = OutcomePassed
	case errors.HasCategory(err, errors.CategoryVerification):
		report.Outcome = OutcomeFailed
	default:
		report.Outcome = OutcomeError
	}
	h.finish(ctx, logger, report, start)
	return report, err
}

func (h *Harness) run(ctx context.Context, logger *slog.Logger, report *Report) error {
	var path string
	err := h.stage(logger, StageLocate, func() error {
		var err error
		path, err = Locate(h.dir, report.Name)
		return err
	})
	if err != nil {
		return err
	}
	report.Path = path

	var nb *notebook.Notebook
	err = h.stage(logger, StageInject, func() error {
		var err error
		if nb, err = notebook.Read(path); err != nil {
			return err
		}
		report.Cells = nb.Len()
		sentinel.Inject(nb)
		return nil
	})
	if err != nil {
		return err
	}

	ws := workspace.NewManager(h.stagingBase, report.Name)
	if err := ws.Create(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create staging directory").Build()
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			logger.Warn("Failed to remove staging directory", logfields.Error(cerr))
		}
	}()

	staged := ws.File(filepath.Base(path))
	if err := h.stage(logger, StageStage, func() error { return notebook.Write(staged, nb) }); err != nil {
		return err
	}

	var result *regression.Result
	err = h.stage(logger, StageCheck, func() error {
		var err error
		result, err = h.checker.Check(ctx, staged)
		return err
	})
	if err != nil {
		return err
	}

	if err := h.stage(logger, StageVerify, func() error { return sentinel.Verify(result) }); err != nil {
		report.Diff = result.DiffString
		return err
	}

	if !h.regenerate {
		return nil
	}
	err = h.stage(logger, StageRegenerate, func() error { return Regenerate(result.Final, path, true) })
	if err != nil {
		return err
	}
	report.Regenerated = true
	return nil
}

func (h *Harness) stage(logger *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	h.recorder.ObserveStageDuration(name, d)
	logger.Debug("Stage finished",
		logfields.Stage(name),
		logfields.DurationMS(float64(d.Milliseconds())),
		logfields.Error(err))
	return err
}

func (h *Harness) finish(ctx context.Context, logger *slog.Logger, r *Report, start time.Time) {
	// History and notifications still see runs cut short by cancellation.
	ctx = context.WithoutCancel(ctx)
	attrs := []any{
		logfields.Outcome(string(r.Outcome)),
		logfields.Cells(r.Cells),
		logfields.DurationMS(float64(r.Duration.Milliseconds())),
	}
	switch r.Outcome {
	case OutcomePassed:
		logger.Info("Tutorial passed", append(attrs, slog.Bool("regenerated", r.Regenerated))...)
	case OutcomeFailed:
		logger.Warn("Tutorial did not reach its last cell", attrs...)
	default:
		logger.Error("Tutorial run failed", append(attrs, logfields.Error(r.Err))...)
	}

	h.recorder.ObserveTutorialDuration(r.Name, r.Duration)
	h.recorder.IncTutorialOutcome(r.Name, metrics.OutcomeLabel(r.Outcome))
	if r.Regenerated {
		h.recorder.IncRegenerated(r.Name)
	}
	h.recorder.SetLastRun(r.Name, start.Add(r.Duration))

	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	if h.store != nil {
		run := history.Run{
			RunID:       r.RunID,
			Tutorial:    r.Name,
			Outcome:     string(r.Outcome),
			Cells:       r.Cells,
			Regenerated: r.Regenerated,
			Duration:    r.Duration,
			StartedAt:   start,
			Error:       errText,
		}
		if err := h.store.Record(ctx, run); err != nil {
			logger.Warn("Failed to record run history", logfields.Error(err))
		}
	}

	ev := notify.Event{
		RunID:       r.RunID,
		Tutorial:    r.Name,
		Outcome:     string(r.Outcome),
		Cells:       r.Cells,
		Regenerated: r.Regenerated,
		DurationMS:  r.Duration.Milliseconds(),
		FinishedAt:  start.Add(r.Duration).UTC(),
		Error:       errText,
	}
	if err := h.publisher.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to publish run event", logfields.Error(err))
	}
}

// RunAll runs each tutorial in turn, continuing past failures. The error
// joins every failed run's error.
func (h *Harness) RunAll(ctx context.Context, names []string) ([]*Report, error) {
	reports := make([]*Report, 0, len(names))
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := h.RunTutorial(ctx, name)
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return reports, stderrors.Join(errs...)
}
