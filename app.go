package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"

	"github.com/lisuify/lisuify/internal/api"
	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/misc"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

var logLevel = new(slog.LevelVar) // Info by default

func initApp() *LisuifyApp {
	log.SetFlags(0)
	logger := misc.NewLogger(os.Stdout, logLevel)
	slog.SetDefault(logger)
	if os.Getenv("DEBUG") == "1" {
		logLevel.Set(slog.LevelDebug)
	}

	misc.LoadEnvSettings(logger)

	// We initialize our wrapper instance first, so we can call its methods in the 'Before' lambda func
	// in initialization of cli App instance.
	// clients are set in the initClients method.
	app := &LisuifyApp{logger: logger, stdout: os.Stdout}

	app.cliCmd = &cli.Command{
		Name:    "lisuify",
		Usage:   "Manage and use a lisuify liquid staking pool on Sui",
		Version: misc.GetVersionInfo(),
		Before: func(ctx context.Context, cmd *cli.Command) error {
			// This is further bootstrap of the 'app' but within context of 'cli' helper as it will
			// have access to flags and options (env to use for eg) already set.
			return app.initClients(ctx, cmd)
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if app.client != nil {
				app.client.Close()
			}
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "envfile",
				Usage:   "env file to load",
				Sources: cli.EnvVars("LISUIFY_ENVFILE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Sui client config",
				Value:   sui.DefaultClientConfigPath(),
				Sources: cli.EnvVars("SUI_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Sui environment (alias in the client config). Defaults to the active env",
				Aliases: []string{"e"},
				Sources: cli.EnvVars("SUI_ENV"),
			},
			&cli.StringFlag{
				Name:    "wallet",
				Usage:   "Wallet address to sign with. Defaults to the active address",
				Aliases: []string{"w"},
				Sources: cli.EnvVars("SUI_WALLET"),
			},
			&cli.BoolFlag{
				Name:        "dry",
				Usage:       "Dry run transactions only, don't submit them",
				Sources:     cli.EnvVars("LISUIFY_DRY"),
				Destination: &app.dry,
			},
			&cli.BoolFlag{
				Name:        "confirm",
				Usage:       "Prompt for confirmation before submitting transactions",
				Destination: &app.confirm,
			},
			&cli.StringFlag{
				Name:        "lisuify",
				Usage:       "Lisuify contract package id",
				Sources:     cli.EnvVars("LISUIFY_ID"),
				Destination: &app.ids.LisuifyID,
			},
			&cli.StringFlag{
				Name:        "original-lisuify",
				Usage:       "Original (first published) lisuify package id. Defaults to --lisuify",
				Sources:     cli.EnvVars("ORIGINAL_LISUIFY_ID"),
				Destination: &app.ids.OriginalLisuifyID,
			},
			&cli.StringFlag{
				Name:        "pool-id",
				Usage:       "Stake pool object id",
				Sources:     cli.EnvVars("STAKE_POOL_ID"),
				Destination: &app.ids.PoolID,
			},
		},
		Commands: []*cli.Command{
			app.GetShowPoolCmdOpts(),
			app.GetAddValidatorCmdOpts(),
			app.GetDepositStakeCmdOpts(),
			app.GetDepositSuiCmdOpts(),
			app.GetWithdrawCmdOpts(),
			app.GetSetStakingValidatorCmdOpts(),
			app.GetUpdateCmdOpts(),
			app.GetStakeReserveCmdOpts(),
			app.GetAirdropCmdOpts(),
			app.GetWalletCmdOpts(),
			app.GetDaemonCmdOpts(),
			app.GetServeCmdOpts(),
			app.GetValidatorsCmdOpts(),
		},
	}
	return app
}

// suiNode is everything the commands use of a sui full node.
type suiNode interface {
	lisuify.Node
	api.Node
	Close()
}

// LisuifyApp is the process wide configuration, written once by the root command's Before hook
// and read by every command.
type LisuifyApp struct {
	cliCmd *cli.Command
	logger *slog.Logger
	stdout io.Writer

	env       string
	clientCfg *sui.ClientConfig
	network   sui.NetworkConfig
	client    suiNode
	wallet    string
	signer    *sui.KeyPair

	ids     lisuify.IDs
	dry     bool
	confirm bool
}

// initClients resolves the environment (from the sui client config or built-in network defaults)
// and connects to its full node.
func (ac *LisuifyApp) initClients(ctx context.Context, cmd *cli.Command) error {
	if envfile := cmd.String("envfile"); envfile != "" {
		if err := misc.LoadNamedEnvFile(ac.logger, envfile); err != nil {
			return err
		}
	}

	clientCfg, err := sui.LoadClientConfig(cmd.String("config"))
	if err != nil {
		if !sui.IsKnownNetwork(cmd.String("env")) {
			return err
		}
		// a built-in network can be used without a sui client install
		misc.Debugf(ac.logger, "no sui client config, using defaults for %s: %v", cmd.String("env"), err)
		clientCfg = &sui.ClientConfig{}
	}
	ac.clientCfg = clientCfg

	ac.env = cmd.String("env")
	if ac.env == "" {
		ac.env = clientCfg.ActiveEnv
	}
	if ac.env == "" {
		return errors.New("no sui environment selected, use --env or set active_env in the sui client config")
	}
	// Now load .env.{env} overrides, ie: .env.localnet containing the ids of a local deploy
	misc.LoadEnvForNetwork(ac.logger, ac.env)
	setStringFromEnv(&ac.ids.LisuifyID, "LISUIFY_ID")
	setStringFromEnv(&ac.ids.OriginalLisuifyID, "ORIGINAL_LISUIFY_ID")
	setStringFromEnv(&ac.ids.PoolID, "STAKE_POOL_ID")
	if ac.ids.OriginalLisuifyID == "" {
		ac.ids.OriginalLisuifyID = ac.ids.LisuifyID
	}

	ac.network = sui.ClientNetworkConfig(clientCfg, ac.env)
	if ac.network.FullNodeURL == "" {
		return fmt.Errorf("%w: %s", sui.ErrUnknownEnv, ac.env)
	}

	ac.wallet = cmd.String("wallet")
	if ac.wallet == "" {
		ac.wallet = clientCfg.ActiveAddress
	}

	client, err := sui.Dial(ctx, ac.logger, ac.network.FullNodeURL)
	if err != nil {
		return err
	}
	ac.client = client
	misc.Debugf(ac.logger, "using env:%s, node:%s, ids:[%s]", ac.env, ac.network.FullNodeURL, ac.ids)
	return nil
}

func setStringFromEnv(val *string, envName string) {
	if *val == "" {
		*val = os.Getenv(envName)
	}
}

// requirePool is the Before hook of commands acting on the stake pool.
func (ac *LisuifyApp) requirePool(ctx context.Context, cmd *cli.Command) error {
	if err := ac.ids.Validate(); err != nil {
		return fmt.Errorf("%w - set using --lisuify/--pool-id or LISUIFY_ID/STAKE_POOL_ID", err)
	}
	return nil
}

// requireSigner is the Before hook of commands that sign - it loads the keystore and the
// wallet's key.
func (ac *LisuifyApp) requireSigner(ctx context.Context, cmd *cli.Command) error {
	if ac.signer != nil {
		return nil
	}
	if ac.wallet == "" {
		return fmt.Errorf("no wallet selected, use --wallet or set active_address in the sui client config: %w", sui.ErrUnknownWallet)
	}
	if ac.clientCfg.Keystore.File == "" {
		return errors.New("sui client config has no keystore file")
	}
	keystore, err := sui.LoadKeystore(ac.logger, ac.clientCfg.Keystore.File)
	if err != nil {
		return err
	}
	ac.signer, err = keystore.Signer(ac.wallet)
	return err
}

// requirePoolAndSigner is the Before hook for pool commands that submit transactions.
func (ac *LisuifyApp) requirePoolAndSigner(ctx context.Context, cmd *cli.Command) error {
	if err := ac.requirePool(ctx, cmd); err != nil {
		return err
	}
	return ac.requireSigner(ctx, cmd)
}

func (ac *LisuifyApp) loadPool(ctx context.Context) (*lisuify.StakePool, error) {
	return lisuify.Load(ctx, ac.client, ac.ids)
}

func (ac *LisuifyApp) executor() *lisuify.Executor {
	executor := &lisuify.Executor{
		Logger: ac.logger,
		Node:   ac.client,
		Signer: ac.signer,
		Dry:    ac.dry,
	}
	if ac.confirm {
		executor.Confirm = confirmSubmit
	}
	return executor
}

// execute runs tx and prints the node's response.
func (ac *LisuifyApp) execute(ctx context.Context, tx *sui.Transaction) error {
	result, err := ac.executor().Execute(ctx, tx)
	if err != nil {
		return err
	}
	printResult(ac.stdout, ac.logger, result)
	return nil
}

// printResult logs the digest and status of an executed transaction and prints the node's full
// response to out.
func printResult(out io.Writer, logger *slog.Logger, result json.RawMessage) {
	if result == nil {
		return
	}
	var summary struct {
		Digest  string `json:"digest"`
		Effects struct {
			Status sui.ExecutionStatus `json:"status"`
		} `json:"effects"`
	}
	if err := json.Unmarshal(result, &summary); err == nil && summary.Digest != "" {
		logger.Info("transaction executed", "digest", summary.Digest, "status", summary.Effects.Status.Status)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		misc.Warnf(logger, "node response is not valid json: %v", err)
		fmt.Fprintln(out, string(result))
		return
	}
	fmt.Fprintln(out, pretty.String())
}

func confirmSubmit() (bool, error) {
	_, err := (&promptui.Prompt{
		Label:     "Dry run succeeded. Submit transaction",
		IsConfirm: true,
	}).Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
