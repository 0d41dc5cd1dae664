package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/nbharness/internal/config"
	"git.home.luguber.info/inful/nbharness/internal/harness"
	"git.home.luguber.info/inful/nbharness/internal/history"
	"git.home.luguber.info/inful/nbharness/internal/logfields"
	"git.home.luguber.info/inful/nbharness/internal/metrics"
	"git.home.luguber.info/inful/nbharness/internal/notify"
	"git.home.luguber.info/inful/nbharness/internal/regression"
)

// environment holds a harness and the optional sinks it reports to.
type environment struct {
	harness     *harness.Harness
	recorder    *metrics.PrometheusRecorder
	metricsFile string
	store       *history.SQLiteStore
	publisher   notify.Publisher
}

// newEnvironment wires a harness from cfg. History, metrics and notification
// sinks are best effort: a sink that cannot be set up is logged and skipped.
func newEnvironment(cfg *config.Config, regenerate bool, metricsFile string) *environment {
	env := &environment{publisher: notify.NoopPublisher{}}

	executor := &regression.NbconvertExecutor{
		Jupyter: cfg.Executor.Jupyter,
		Kernel:  cfg.Executor.Kernel,
		Timeout: cfg.Executor.Timeout.Std(),
	}
	opts := []harness.Option{harness.WithRegenerate(regenerate)}

	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}
	if metricsFile != "" {
		env.recorder = metrics.NewPrometheusRecorder(nil)
		env.metricsFile = metricsFile
		opts = append(opts, harness.WithRecorder(env.recorder))
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			slog.Warn("Run history disabled", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			env.store = store
			opts = append(opts, harness.WithHistory(store))
		}
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Run notifications disabled", logfields.Error(err))
		} else {
			env.publisher = pub
			opts = append(opts, harness.WithPublisher(pub))
		}
	}

	checker := regression.NewKernelChecker(executor, cfg.Diff.Ignore)
	env.harness = harness.New(cfg.Tutorials.Dir, checker, opts...)
	return env
}

// Close flushes metrics and releases the sinks.
func (e *environment) Close() {
	if e.recorder != nil {
		if err := e.recorder.WriteTextfile(e.metricsFile); err != nil {
			slog.Warn("Failed to write metrics", logfields.Path(e.metricsFile), logfields.Error(err))
		} else {
			slog.Debug("Wrote metrics", logfields.Path(e.metricsFile))
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			slog.Warn("Failed to close run history", logfields.Error(err))
		}
	}
	if err := e.publisher.Close(); err != nil {
		slog.Warn("Failed to close notification connection", logfields.Error(err))
	}
}
