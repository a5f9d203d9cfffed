// Package main is the digest command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/digest-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

// shutdownTimeout bounds how long running jobs may finish after exit is requested.
const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := wire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "digest: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := app.Close(shutdownCtx); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetServices(app.Services)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
