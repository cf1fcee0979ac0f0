package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lisuify/lisuify/internal/api"
	"github.com/lisuify/lisuify/internal/lib/misc"
)

func (ac *LisuifyApp) GetDaemonCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "daemon",
		Aliases: []string{"d"},
		Usage:   "Run as a daemon, updating the stake pool and staking its reserve once per epoch",
		Before:  ac.requirePoolAndSigner,
		Action:  ac.runAsDaemon,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "interval",
				Usage:   "Maximum time between checks",
				Value:   10 * time.Minute,
				Sources: cli.EnvVars("LISUIFY_CRANK_INTERVAL"),
			},
			&cli.BoolFlag{
				Name:  "all-at-once",
				Usage: "Use the single call update instead of updating validators one by one",
			},
			&cli.StringFlag{
				Name:  "validator",
				Usage: "Validator address to stake the reserve with. Defaults to the pool's staking validator",
			},
		},
	}
}

func (ac *LisuifyApp) runAsDaemon(ctx context.Context, command *cli.Command) error {
	var wg sync.WaitGroup

	// never prompt when unattended
	ac.confirm = false

	// the passed context is cancelled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := newDaemon(ac, command.Duration("interval"), command.Bool("all-at-once"), command.String("validator"))
	if err != nil {
		return err
	}
	d.start(ctx, &wg)

	<-ctx.Done()
	misc.Infof(ac.logger, "exiting (%v)", context.Cause(ctx))

	misc.Infof(ac.logger, "waiting on background tasks..")
	wg.Wait()

	misc.Infof(ac.logger, "exited")
	return nil
}

func (ac *LisuifyApp) GetServeCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve stake pool and wallet data, and unsigned transactions, for the web dashboard",
		Before: ac.requirePool,
		Action: ac.serveAPI,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Address to listen on",
				Value:   ":8080",
				Sources: cli.EnvVars("LISUIFY_LISTEN"),
			},
			&cli.StringFlag{
				Name:    "origins",
				Usage:   "Comma separated list of allowed CORS origins",
				Value:   "*",
				Sources: cli.EnvVars("LISUIFY_ORIGINS"),
			},
			&cli.DurationFlag{
				Name:  "state-ttl",
				Usage: "How long pool and wallet state is reused between requests",
				Value: 30 * time.Second,
			},
		},
	}
}

func (ac *LisuifyApp) serveAPI(ctx context.Context, command *cli.Command) error {
	server := api.New(ac.logger, ac.client, ac.ids, api.Options{
		AllowedOrigins: command.String("origins"),
		StateTTL:       command.Duration("state-ttl"),
	})
	if err := server.Serve(ctx, command.String("listen"), command.String("origins")); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	misc.Infof(ac.logger, "api server stopped")
	return nil
}
