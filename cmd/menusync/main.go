package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/menusync/cmd/menusync/commands"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("menusync"),
		kong.Description("Keep a local copy of blog navigation menus in sync with the remote API."),
		kong.Vars{"version": version.Version},
		kong.UsageOnError(),
	)

	global := &commands.Global{Out: os.Stdout}
	if err := parser.Run(global, &cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
