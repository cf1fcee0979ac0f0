package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/misc"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

func (ac *LisuifyApp) GetShowPoolCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "show-sp",
		Aliases: []string{"sp"},
		Usage:   "Show the stake pool",
		Before:  ac.requirePool,
		Action:  ac.ShowStakePool,
	}
}

func (ac *LisuifyApp) GetAddValidatorCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "add-validator",
		Usage:  "Add validator(s) to the stake pool. With neither flag every active validator is added",
		Before: ac.requirePoolAndSigner,
		Action: ac.AddValidator,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "validator",
				Usage: "Validator staking pool id",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Validator address",
			},
		},
	}
}

func (ac *LisuifyApp) GetDepositStakeCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "deposit-stake",
		Usage:  "Deposit a StakedSui object",
		Before: ac.requirePoolAndSigner,
		Action: ac.DepositStake,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "stake",
				Usage:    "StakedSui object id",
				Required: true,
			},
		},
	}
}

func (ac *LisuifyApp) GetDepositSuiCmdOpts() *cli.Command {
	return &cli.Command{
		Name:      "deposit-sui",
		Usage:     "Deposit SUI from the wallet's gas coin",
		ArgsUsage: "<amount in SUI>",
		Before:    ac.requirePoolAndSigner,
		Action:    ac.DepositSui,
	}
}

func (ac *LisuifyApp) GetWithdrawCmdOpts() *cli.Command {
	return &cli.Command{
		Name:      "withdraw",
		Usage:     "Withdraw liquid tokens, receiving StakedSui (or SUI with --sui)",
		ArgsUsage: "<amount of tokens>",
		Before:    ac.requirePoolAndSigner,
		Action:    ac.Withdraw,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "sui",
				Usage: "Withdraw as SUI instead of StakedSui",
			},
		},
	}
}

func (ac *LisuifyApp) GetSetStakingValidatorCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "set-staking-validator",
		Usage:  "Set (or clear) the validator new deposits are staked with",
		Before: ac.requirePoolAndSigner,
		Action: ac.SetStakingValidator,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "validator",
				Usage: "Validator address. Omit to clear",
			},
		},
	}
}

func (ac *LisuifyApp) GetUpdateCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "update",
		Usage:  "Run (or resume) the epoch update of the stake pool",
		Before: ac.requirePoolAndSigner,
		Action: ac.Update,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all-at-once",
				Usage: "Use the single call update instead of updating validators one by one",
			},
		},
	}
}

func (ac *LisuifyApp) GetStakeReserveCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "stake-reserve",
		Usage:  "Stake the pool's reserve",
		Before: ac.requirePoolAndSigner,
		Action: ac.StakeReserve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "validator",
				Usage: "Validator address. Defaults to the pool's staking validator",
			},
		},
	}
}

func (ac *LisuifyApp) ShowStakePool(ctx context.Context, command *cli.Command) error {
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	fmt.Print(formatStakePool(pool))
	return nil
}

func formatStakePool(pool *lisuify.StakePool) string {
	state := pool.State()
	stakingValidator := "(none)"
	if state.StakingValidator != nil {
		stakingValidator = *state.StakingValidator
	}
	out := new(strings.Builder)
	fmt.Fprintf(out, "Stake pool %s\n", pool.ID())
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Admin cap:\t%s\n", state.AdminCapID)
	fmt.Fprintf(tw, "  Validator manager cap:\t%s\n", state.ValidatorManagerCapID)
	fmt.Fprintf(tw, "  Token supply:\t%s\n", sui.FormattedSuiAmount(state.TokenSupply))
	fmt.Fprintf(tw, "  Fees:\t%s\n", sui.FormattedSuiAmount(state.Fees))
	fmt.Fprintf(tw, "  Fresh deposit fee:\t%s%%\n", formatBpc(state.FreshDepositFeeBpc))
	fmt.Fprintf(tw, "  Withdraw fee:\t%s%%\n", formatBpc(state.WithdrawFeeBpc))
	fmt.Fprintf(tw, "  Rewards fee:\t%s%%\n", formatBpc(state.RewardsFeeBpc))
	fmt.Fprintf(tw, "  Last update epoch:\t%s\n", state.LastUpdateEpoch)
	fmt.Fprintf(tw, "  Last update sui balance:\t%s\n", sui.FormattedSuiAmount(state.LastUpdateSuiBalance))
	fmt.Fprintf(tw, "  Last update token supply:\t%s\n", sui.FormattedSuiAmount(state.LastUpdateTokenSupply))
	fmt.Fprintf(tw, "  Current sui balance:\t%s\n", sui.FormattedSuiAmount(state.CurrentSuiBalance))
	if ratio := pool.ExchangeRatio(); ratio != nil {
		fmt.Fprintf(tw, "  Exchange ratio:\t%s\n", ratio.FloatString(sui.SuiDecimals))
	}
	fmt.Fprintf(tw, "  Staking validator:\t%s\n", stakingValidator)
	fmt.Fprintf(tw, "  Reserve:\t%s\n", sui.FormattedSuiAmount(state.Reserve))
	if state.Update != nil {
		fmt.Fprintf(tw, "  Update in progress:\tepoch %s, %s of %d validators updated\n",
			state.Update.UpdatingEpoch, state.Update.UpdatedValidators, len(state.Validators))
	}
	tw.Flush()

	fmt.Fprintln(out, "  Validators:")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "    Pool id\tActive\tLast Update Epoch\tLast Update Balance\t")
	for _, v := range state.Validators {
		fmt.Fprintf(tw, "    %s\t%t\t%s\t%s\t\n", v.ValidatorPoolID, v.IsActive, v.LastUpdateEpoch,
			sui.FormattedSuiAmount(v.LastUpdateSuiBalance))
	}
	tw.Flush()
	return out.String()
}

// formatBpc renders a fee in hundredths of a basis point as a percentage.
func formatBpc(bpc uint32) string {
	return strings.TrimRight(strings.TrimRight(new(big.Rat).SetFrac64(int64(bpc), 10000).FloatString(4), "0"), ".")
}

func (ac *LisuifyApp) AddValidator(ctx context.Context, command *cli.Command) error {
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	params := lisuify.AddValidatorParams{
		ValidatorPool: command.String("validator"),
		Address:       command.String("address"),
	}
	if params.ValidatorPool == "" || params.Address == "" {
		params.SystemState, err = ac.client.LatestSystemState(ctx)
		if err != nil {
			return err
		}
	}
	tx := sui.NewTransaction()
	count, err := pool.AddValidator(tx, params)
	if err != nil {
		return err
	}
	misc.Infof(ac.logger, "adding %d validator(s)", count)
	return ac.execute(ctx, tx)
}

func (ac *LisuifyApp) DepositStake(ctx context.Context, command *cli.Command) error {
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	tx := sui.NewTransaction()
	pool.DepositStake(tx, command.String("stake"))
	return ac.execute(ctx, tx)
}

func (ac *LisuifyApp) DepositSui(ctx context.Context, command *cli.Command) error {
	amount, err := amountArg(command)
	if err != nil {
		return err
	}
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	tx := sui.NewTransaction()
	pool.DepositSui(tx, amount)
	misc.Infof(ac.logger, "depositing %s SUI", sui.FormattedMist(amount))
	return ac.execute(ctx, tx)
}

func (ac *LisuifyApp) Withdraw(ctx context.Context, command *cli.Command) error {
	amount, err := amountArg(command)
	if err != nil {
		return err
	}
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	coins, err := lisuify.TokenCoins(ctx, ac.client, ac.ids, ac.signer.Address())
	if err != nil {
		return err
	}
	tx := sui.NewTransaction()
	if command.Bool("sui") {
		err = pool.WithdrawSui(tx, coins, amount)
	} else {
		err = pool.Withdraw(tx, coins, amount)
	}
	if err != nil {
		return err
	}
	misc.Infof(ac.logger, "withdrawing %s tokens from %d coin(s)", sui.FormattedMist(amount), len(coins))
	return ac.execute(ctx, tx)
}

func (ac *LisuifyApp) SetStakingValidator(ctx context.Context, command *cli.Command) error {
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	var address *string
	if validator := command.String("validator"); validator != "" {
		address = &validator
	}
	tx := sui.NewTransaction()
	pool.SetStakingValidator(tx, address)
	return ac.execute(ctx, tx)
}

func (ac *LisuifyApp) Update(ctx context.Context, command *cli.Command) error {
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	systemState, err := ac.client.LatestSystemState(ctx)
	if err != nil {
		return err
	}
	return updatePool(ctx, ac, pool, uint64(systemState.Epoch), command.Bool("all-at-once"))
}

// updatePool runs the epoch update for pool, if it's behind currentEpoch.
func updatePool(ctx context.Context, ac *LisuifyApp, pool *lisuify.StakePool, currentEpoch uint64, allAtOnce bool) error {
	tx := sui.NewTransaction()
	if allAtOnce {
		if !pool.UpdateAll(tx, currentEpoch) {
			misc.Infof(ac.logger, "stake pool already updated for epoch %d", currentEpoch)
			return nil
		}
	} else {
		if !pool.NeedsUpdate(currentEpoch) {
			misc.Infof(ac.logger, "stake pool already updated for epoch %d", currentEpoch)
			return nil
		}
		count := pool.Update(tx, currentEpoch)
		misc.Infof(ac.logger, "updating %d validator(s) from index %d for epoch %d", count,
			pool.UpdateResumeIndex(currentEpoch), currentEpoch)
	}
	return ac.execute(ctx, tx)
}

func (ac *LisuifyApp) StakeReserve(ctx context.Context, command *cli.Command) error {
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	return stakeReserve(ctx, ac, pool, command.String("validator"))
}

// stakeReserve stakes the pool's reserve, treating a reserve below the minimum stake as nothing
// to do.
func stakeReserve(ctx context.Context, ac *LisuifyApp, pool *lisuify.StakePool, validator string) error {
	reserve := pool.State().Reserve
	if reserve.Cmp(big.NewInt(lisuify.MinReserveToStake)) < 0 {
		misc.Infof(ac.logger, "reserve of %s SUI is below the minimum to stake", sui.FormattedSuiAmount(reserve))
		return nil
	}
	tx := sui.NewTransaction()
	if err := pool.StakeReserve(tx, validator); err != nil {
		return err
	}
	err := ac.execute(ctx, tx)
	if lisuify.IsReserveBelowThreshold(err) {
		misc.Infof(ac.logger, "reserve not staked, below the staking threshold")
		return nil
	}
	return err
}

func amountArg(command *cli.Command) (uint64, error) {
	if command.Args().Len() != 1 {
		return 0, errors.New("a single amount argument is required")
	}
	return sui.ParseSuiAmount(command.Args().Get(0))
}
