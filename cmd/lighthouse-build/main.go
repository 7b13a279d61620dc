package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/melih/lighthouse-builder/internal/config"
)

func main() {
	cfg, err := config.Parse(os.Environ())
	if err != nil {
		fmt.Fprintf(os.Stderr, "lighthouse-build: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	kongCtx := kong.Parse(&cli,
		kong.Name("lighthouse-build"),
		kong.Description("Builds a Gradle or Maven project inside a throwaway Docker container and prints the artifacts it produced."),
		kong.UsageOnError(),
		kong.Vars(cli.vars(cfg)),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(cfg),
	)

	kongCtx.FatalIfErrorf(kongCtx.Run())
}
