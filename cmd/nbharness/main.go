package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/nbharness/cmd/nbharness/commands"
	"git.home.luguber.info/inful/nbharness/internal/foundation/errors"
	"git.home.luguber.info/inful/nbharness/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Out: os.Stdout}

	parser := kong.Parse(&cli,
		kong.Name("nbharness"),
		kong.Description("Runs the tutorial notebooks end to end and builds their documentation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(global, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
