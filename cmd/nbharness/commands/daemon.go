package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/nbharness/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Every      time.Duration `help:"Interval between full runs (default: daemon.every)"`
	Cron       string        `help:"Cron expression for full runs; overrides --every (default: daemon.cron)"`
	Watch      bool          `help:"Also re-run a tutorial when its notebook changes"`
	Regenerate bool          `help:"Not supported in daemon mode" hidden:""`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	every := d.Every
	if every == 0 {
		every = cfg.Daemon.Every.Std()
	}
	cron := d.Cron
	if cron == "" {
		cron = cfg.Daemon.Cron
	}
	watchDir := ""
	if d.Watch || cfg.Daemon.Watch {
		watchDir = cfg.Tutorials.Dir
	}

	env := newEnvironment(cfg, false, "")
	defer env.Close()

	dm, err := daemon.New(daemon.Options{
		Runner:     env.harness,
		Tutorials:  func() ([]string, error) { return tutorialNames(cfg, nil) },
		Every:      every,
		Cron:       cron,
		WatchDir:   watchDir,
		Regenerate: d.Regenerate,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	slog.Info("Starting daemon mode", "every", every.String(), "watch", watchDir != "")
	return dm.Run(ctx)
}
