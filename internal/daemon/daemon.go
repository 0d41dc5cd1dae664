package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/harness"
	"git.home.luguber.info/inful/nbharness/internal/logfields"
)

// Runner runs tutorials. *harness.Harness implements it.
type Runner interface {
	RunTutorial(ctx context.Context, name string) (*harness.Report, error)
	RunAll(ctx context.Context, names []string) ([]*harness.Report, error)
}

// Options configures a Daemon.
type Options struct {
	Runner Runner
	// Tutorials returns the names to run on each scheduled pass.
	Tutorials func() ([]string, error)
	Every     time.Duration
	// Cron, when set, schedules passes on a cron expression instead of Every.
	Cron string
	// WatchDir enables re-running a tutorial when its notebook changes.
	WatchDir string
	Debounce time.Duration
	// Regenerate must be off; rewriting notebooks would retrigger the watcher.
	Regenerate bool
}

// Daemon drives periodic and change-triggered tutorial runs.
type Daemon struct {
	opts      Options
	scheduler *Scheduler
	watcher   *TutorialWatcher

	runMu sync.Mutex
	runs  int
}

// New validates opts and builds a daemon.
func New(opts Options) (*Daemon, error) {
	if opts.Regenerate {
		return nil, errors.DaemonError("regenerate is not supported in daemon mode").
			WithSeverity(errors.SeverityError).
			UserAction().
			Build()
	}
	if opts.Runner == nil || opts.Tutorials == nil {
		return nil, errors.InternalError("daemon requires a runner and a tutorial source").Build()
	}
	if opts.Cron == "" && opts.Every <= 0 {
		return nil, errors.ValidationError("daemon interval must be positive").
			WithContext("every", opts.Every.String()).Build()
	}
	s, err := NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create scheduler").Build()
	}
	return &Daemon{opts: opts, scheduler: s}, nil
}

// Run blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	suite := func() { d.runSuite(ctx) }
	var err error
	if d.opts.Cron != "" {
		_, err = d.scheduler.ScheduleCron("tutorial-suite", d.opts.Cron, suite)
	} else {
		_, err = d.scheduler.ScheduleEvery("tutorial-suite", d.opts.Every, suite)
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to schedule tutorial runs").Build()
	}

	if d.opts.WatchDir != "" {
		w, err := NewTutorialWatcher(d.opts.WatchDir, d.opts.Debounce, func(name string) { d.runOne(ctx, name) })
		if err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to create tutorial watcher").Build()
		}
		if err := w.Start(ctx); err != nil {
			_ = w.watcher.Close()
			return errors.WrapError(err, errors.CategoryDaemon, "failed to start tutorial watcher").Build()
		}
		d.watcher = w
	}

	d.scheduler.Start()
	slog.Info("Daemon started", "every", d.opts.Every.String(), "cron", d.opts.Cron, "watch", d.opts.WatchDir != "")

	<-ctx.Done()
	slog.Info("Daemon stopping")

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			slog.Warn("Error closing tutorial watcher", logfields.Error(err))
		}
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.scheduler.stopContext(stopCtx); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "scheduler did not stop cleanly").Build()
	}
	return nil
}

// Runs returns how many passes (scheduled or triggered) have completed.
func (d *Daemon) Runs() int {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	return d.runs
}

func (d *Daemon) runSuite(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	d.runMu.Lock()
	defer d.runMu.Unlock()
	defer func() { d.runs++ }()

	names, err := d.opts.Tutorials()
	if err != nil {
		slog.Error("Cannot list tutorials", logfields.Error(err))
		return
	}
	reports, err := d.opts.Runner.RunAll(ctx, names)
	passed := 0
	for _, r := range reports {
		if r.Outcome == harness.OutcomePassed {
			passed++
		}
	}
	attrs := []any{slog.Int("tutorials", len(reports)), slog.Int("passed", passed)}
	if err != nil {
		slog.Warn("Scheduled tutorial run finished with failures", append(attrs, logfields.Error(err))...)
		return
	}
	slog.Info("Scheduled tutorial run passed", attrs...)
}

func (d *Daemon) runOne(ctx context.Context, name string) {
	if ctx.Err() != nil {
		return
	}
	d.runMu.Lock()
	defer d.runMu.Unlock()
	defer func() { d.runs++ }()

	if _, err := d.opts.Runner.RunTutorial(ctx, name); err != nil {
		slog.Warn("Triggered tutorial run failed", logfields.Tutorial(name), logfields.Error(err))
	}
}
