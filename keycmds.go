package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/misc"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

func (ac *LisuifyApp) GetWalletCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "wallet",
		Aliases: []string{"w"},
		Usage:   "Keystore wallet related commands",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List the addresses in the keystore",
				Action:  ac.WalletList,
			},
			{
				Name:      "balance",
				Aliases:   []string{"b"},
				Usage:     "Show SUI, liquid token and staked SUI holdings",
				ArgsUsage: "[address] (defaults to the wallet)",
				Before:    ac.requirePool,
				Action:    ac.WalletBalance,
			},
		},
	}
}

func (ac *LisuifyApp) GetAirdropCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "airdrop",
		Usage:  "Request test SUI from the environment's faucet",
		Action: ac.Airdrop,
	}
}

func (ac *LisuifyApp) WalletList(ctx context.Context, command *cli.Command) error {
	if ac.clientCfg.Keystore.File == "" {
		return fmt.Errorf("sui client config has no keystore file")
	}
	keystore, err := sui.LoadKeystore(ac.logger, ac.clientCfg.Keystore.File)
	if err != nil {
		return err
	}
	out := new(strings.Builder)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Address\tScheme\tSelected\t")
	for _, address := range keystore.Addresses() {
		kp, _ := keystore.Signer(address)
		var selected string
		if sui.SameAddress(address, ac.wallet) {
			selected = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", address, kp.Scheme(), selected)
	}
	tw.Flush()
	fmt.Print(out.String())
	return nil
}

func (ac *LisuifyApp) WalletBalance(ctx context.Context, command *cli.Command) error {
	address := command.Args().Get(0)
	if address == "" {
		address = ac.wallet
	}
	if address == "" {
		return fmt.Errorf("no address given: %w", sui.ErrUnknownWallet)
	}
	systemState, err := ac.client.LatestSystemState(ctx)
	if err != nil {
		return err
	}
	portfolio, err := lisuify.GetPortfolio(ctx, ac.client, ac.ids, address, systemState)
	if err != nil {
		return err
	}
	out := new(strings.Builder)
	fmt.Fprintf(out, "Wallet %s\n", portfolio.Address)
	fmt.Fprintf(out, "  SUI: %s\n", sui.FormattedMist(uint64(portfolio.SuiBalance)))
	fmt.Fprintf(out, "  liquid tokens: %s (%d coins)\n", sui.FormattedMist(uint64(portfolio.TokenBalance)), len(portfolio.TokenCoins))
	if len(portfolio.Staked) > 0 {
		fmt.Fprintln(out, "  Staked SUI:")
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "    Object\tValidator\tPrincipal\tActivation Epoch\t")
		for _, staked := range portfolio.Staked {
			validator := staked.ValidatorName
			if validator == "" {
				validator = staked.PoolID
			}
			fmt.Fprintf(tw, "    %s\t%s\t%s\t%d\t\n", staked.ObjectID, validator,
				sui.FormattedMist(uint64(staked.Principal)), staked.StakeActivationEpoch)
		}
		tw.Flush()
	}
	fmt.Print(out.String())
	return nil
}

func (ac *LisuifyApp) Airdrop(ctx context.Context, command *cli.Command) error {
	if ac.wallet == "" {
		return fmt.Errorf("no wallet selected: %w", sui.ErrUnknownWallet)
	}
	resp, err := sui.RequestFromFaucet(ctx, &http.Client{Timeout: 30 * time.Second}, ac.network.FaucetURL, ac.wallet)
	if err != nil {
		return fmt.Errorf("%s: %w", ac.env, err)
	}
	for _, coin := range resp.TransferredGasObjects {
		misc.Infof(ac.logger, "received %s SUI, coin:%s, tx:%s", sui.FormattedMist(coin.Amount), coin.ID, coin.TransferTxDigest)
	}
	return nil
}
