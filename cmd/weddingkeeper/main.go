package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/dmitrijs2005/weddingkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/cli"
)

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(buildinfo.String()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
