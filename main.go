package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lisuify/lisuify/internal/lib/misc"
)

func main() {
	app := initApp()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := app.cliCmd.Run(ctx, os.Args)
	stop()
	if err != nil {
		misc.Errorf(app.logger, "Error: %v", err)
		os.Exit(1)
	}
}
