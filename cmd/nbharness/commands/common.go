package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/nbharness/internal/config"
	"git.home.luguber.info/inful/nbharness/internal/harness"
)

// Global carries state shared by every subcommand.
type Global struct {
	// Out receives command output meant for the user.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"nbharness.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Check   CheckCmd   `cmd:"" help:"Run tutorial notebooks and verify they execute to completion"`
	List    ListCmd    `cmd:"" help:"List tutorials with their cell counts and titles"`
	Docs    DocsCmd    `cmd:"" help:"Render the Sphinx configuration and build the docs"`
	History HistoryCmd `cmd:"" help:"Show recent tutorial runs"`
	Daemon  DaemonCmd  `cmd:"" help:"Re-run the tutorials periodically and on change"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LoadConfig loads the configuration named by --config, falling back to
// defaults when the file does not exist.
func (c *CLI) LoadConfig() (*config.Config, error) {
	return config.LoadOrDefault(c.Config)
}

// tutorialNames returns explicit names when given, then the configured
// names, then every notebook in the tutorials directory.
func tutorialNames(cfg *config.Config, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if len(cfg.Tutorials.Names) > 0 {
		return cfg.Tutorials.Names, nil
	}
	return harness.Discover(cfg.Tutorials.Dir)
}
