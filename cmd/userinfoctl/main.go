package main

import (
	"context"

	"github.com/alecthomas/kong"
)

type cli struct {
	Render renderCmd `cmd:"" help:"Render user info cards from an exported result file."`
	Serve  serveCmd  `cmd:"" help:"Serve the user info page backed by a live or demo search."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Name("userinfoctl"),
		kong.Description("Render and serve user info cards from the user_info_search saved search."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}
