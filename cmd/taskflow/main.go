// Package main is the entry point for the taskflow CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskflow/internal/cli"
	"taskflow/internal/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	backends := &cli.Backends{}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, backends.Open, cli.WithMirrorFactory(backends.Mirror))

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	backends.Close()
	cancel()
	os.Exit(code)
}
