package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/nbharness/internal/harness"
	"git.home.luguber.info/inful/nbharness/internal/notebook"
)

// ListCmd implements the 'list' command.
type ListCmd struct{}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	names, err := tutorialNames(cfg, nil)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tCELLS\tTITLE")
	for _, name := range names {
		path, err := harness.Locate(cfg.Tutorials.Dir, name)
		if err != nil {
			_, _ = fmt.Fprintf(tw, "%s\t-\t(missing)\n", name)
			continue
		}
		nb, err := notebook.Read(path)
		if err != nil {
			_, _ = fmt.Fprintf(tw, "%s\t-\t(unreadable)\n", name)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", name, nb.Len(), nb.Title())
	}
	return tw.Flush()
}
