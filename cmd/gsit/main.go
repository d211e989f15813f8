package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/gsit/cmd/gsit/commands"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("gsit"),
		kong.Description("Crawl and pose attachment sessions on a simulated host."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := parser.Run(global, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
