package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/viswiz-io/viswiz-go/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
