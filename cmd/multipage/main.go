package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/sleep909/multipage/cmd/multipage/commands"
	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
	"github.com/sleep909/multipage/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Out: os.Stdout, Err: os.Stderr}

	ctx := kong.Parse(&cli,
		kong.Name("multipage"),
		kong.Description("Build and serve multi-page sites with clean page URLs."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, &cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
