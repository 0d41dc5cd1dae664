package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/nbharness/internal/harness"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Names       []string `arg:"" optional:"" help:"Tutorials to run (default: configured or all)"`
	Regenerate  bool     `help:"Write executed notebooks back to disk when they pass"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics to this textfile"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	names, err := tutorialNames(cfg, c.Names)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := newEnvironment(cfg, c.Regenerate, c.MetricsFile)
	defer env.Close()

	reports, err := env.harness.RunAll(ctx, names)
	printReports(g.out(), reports)
	return err
}

func printReports(w io.Writer, reports []*harness.Report) {
	passed := 0
	for _, r := range reports {
		line := fmt.Sprintf("%-6s %s (%d cells, %s)", r.Outcome, r.Name, r.Cells, r.Duration.Round(time.Millisecond))
		if r.Regenerated {
			line += " regenerated"
		}
		_, _ = fmt.Fprintln(w, line)
		if r.Outcome == harness.OutcomePassed {
			passed++
		}
	}
	_, _ = fmt.Fprintf(w, "%d/%d tutorials passed\n", passed, len(reports))
}
