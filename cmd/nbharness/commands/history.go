package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Tutorial string `short:"t" help:"Only show runs of this tutorial"`
	Limit    int    `short:"n" help:"Maximum number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ConfigError("run history is disabled (history.path is empty)").Build()
	}
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		_, _ = fmt.Fprintln(g.out(), "no runs recorded")
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot open run history").
			WithContext("path", cfg.History.Path).Build()
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(context.Background(), h.Tutorial, h.Limit)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot read run history").Build()
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(g.out(), "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tTUTORIAL\tOUTCOME\tCELLS\tDURATION\tREGENERATED\tRUN")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%t\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Tutorial, r.Outcome, r.Cells,
			r.Duration.Round(time.Millisecond), r.Regenerated, r.RunID)
	}
	return tw.Flush()
}
