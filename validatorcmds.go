package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

func (ac *LisuifyApp) GetValidatorsCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "validators",
		Aliases: []string{"v"},
		Usage:   "List the network's active validators, marking those the stake pool stakes with",
		Before:  ac.requirePool,
		Action:  ac.ListValidators,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pool-only",
				Usage: "Only list validators in the stake pool",
			},
		},
	}
}

func (ac *LisuifyApp) ListValidators(ctx context.Context, command *cli.Command) error {
	pool, err := ac.loadPool(ctx)
	if err != nil {
		return err
	}
	systemState, err := ac.client.LatestSystemState(ctx)
	if err != nil {
		return err
	}
	fmt.Print(formatValidators(pool, systemState, command.Bool("pool-only")))
	return nil
}

// formatValidators lists the active validators by stake, flagging pool members (*) and the pool's
// staking validator (+).  Pool validators that are no longer active are listed at the end.
func formatValidators(pool *lisuify.StakePool, systemState *sui.SystemStateSummary, poolOnly bool) string {
	state := pool.State()
	inPool := map[string]lisuify.ValidatorEntry{}
	for _, entry := range state.Validators {
		inPool[sui.NormalizeAddress(entry.ValidatorPoolID)] = entry
	}

	validators := slices.Clone(systemState.ActiveValidators)
	slices.SortStableFunc(validators, func(a, b sui.ValidatorSummary) int {
		switch {
		case a.StakingPoolSuiBalance > b.StakingPoolSuiBalance:
			return -1
		case a.StakingPoolSuiBalance < b.StakingPoolSuiBalance:
			return 1
		}
		return 0
	})

	out := new(strings.Builder)
	fmt.Fprintf(out, "Epoch %d, %d active validators, %d in stake pool\n",
		uint64(systemState.Epoch), len(validators), len(state.Validators))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tName\tAddress\tStaking pool\tStake (SUI)\tPool balance (SUI)")
	seen := map[string]bool{}
	for _, v := range validators {
		poolID := sui.NormalizeAddress(v.StakingPoolID)
		entry, member := inPool[poolID]
		if poolOnly && !member {
			continue
		}
		seen[poolID] = true
		flags := ""
		if member {
			flags = "*"
		}
		if state.StakingValidator != nil && sui.SameAddress(*state.StakingValidator, v.SuiAddress) {
			flags += "+"
		}
		poolBalance := "-"
		if member {
			poolBalance = sui.FormattedSuiAmount(entry.LastUpdateSuiBalance)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", flags, v.Name, v.SuiAddress, v.StakingPoolID,
			sui.FormattedMist(uint64(v.StakingPoolSuiBalance)), poolBalance)
	}
	for _, entry := range state.Validators {
		if seen[sui.NormalizeAddress(entry.ValidatorPoolID)] {
			continue
		}
		fmt.Fprintf(tw, "*\t(inactive)\t-\t%s\t-\t%s\n", entry.ValidatorPoolID, sui.FormattedSuiAmount(entry.LastUpdateSuiBalance))
	}
	tw.Flush()
	return out.String()
}
