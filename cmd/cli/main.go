package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/philcifone/blog/internal/client/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	info := cli.VersionInfo{Version: version, Commit: commit}
	if err := cli.Execute(ctx, info, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}
