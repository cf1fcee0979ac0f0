package lisuify

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lisuify/lisuify/internal/lib/sui"
)

func TestLoad(t *testing.T) {
	node := newFakeNode(t)
	pool, err := Load(context.Background(), node, testIDs)
	require.NoError(t, err)
	assert.Equal(t, testIDs, pool.IDs())
	assert.Equal(t, testIDs.PoolID, pool.ID())
	assert.Len(t, pool.State().Validators, 3)

	_, err = Load(context.Background(), node, IDs{LisuifyID: "0x11", OriginalLisuifyID: "0x10", PoolID: "0x21"})
	assert.ErrorIs(t, err, ErrNotFound)

	node.fetchErr = errors.New("connection refused")
	_, err = Load(context.Background(), node, testIDs)
	assert.ErrorContains(t, err, "connection refused")
}

func TestUpdateAllValidators(t *testing.T) {
	pool := testPool(t, nil)
	tx := sui.NewTransaction()

	assert.Equal(t, 3, pool.Update(tx, 10))
	assert.Equal(t, []string{"update_validator", "update_validator", "update_validator", "finalize_update"}, functions(tx))

	calls := tx.MoveCalls()
	for i, want := range []string{"0xa", "0xb", "0xc"} {
		require.Len(t, calls[i].Arguments, 3)
		assert.Equal(t, sui.NormalizeAddress(want), pureAddress(t, tx, calls[i].Arguments[2]))
		assert.Equal(t, sui.NormalizeAddress(testIDs.PoolID), objectID(t, tx, calls[i].Arguments[0]))
		assert.Equal(t, sui.SystemStateObjectID, objectID(t, tx, calls[i].Arguments[1]))
	}
	require.Len(t, calls[3].Arguments, 1)
	assert.Equal(t, "0x11::stake_pool::finalize_update", calls[3].Target)
	assert.Equal(t, []string{"0x11::coin::COIN"}, calls[3].TypeArguments)
}

func TestUpdateResumes(t *testing.T) {
	pool := testPool(t, func(fields map[string]any) {
		fields["update"] = map[string]any{"fields": map[string]any{
			"pending_sui_balance": "0",
			"updating_epoch":      "10",
			"updated_validators":  "2",
		}}
	})
	tx := sui.NewTransaction()

	assert.Equal(t, 2, pool.UpdateResumeIndex(10))
	assert.Equal(t, 1, pool.Update(tx, 10))
	assert.Equal(t, []string{"update_validator", "finalize_update"}, functions(tx))
	assert.Equal(t, sui.NormalizeAddress("0xc"), pureAddress(t, tx, tx.MoveCalls()[0].Arguments[2]))

	// a stale update record from an earlier epoch starts over
	assert.Equal(t, 0, pool.UpdateResumeIndex(11))
	assert.Equal(t, 3, pool.Update(sui.NewTransaction(), 11))
}

func TestUpdateAllUpdatedOnlyFinalizes(t *testing.T) {
	pool := testPool(t, func(fields map[string]any) {
		fields["update"] = map[string]any{"fields": map[string]any{
			"pending_sui_balance": "0",
			"updating_epoch":      "10",
			"updated_validators":  "3",
		}}
	})
	tx := sui.NewTransaction()
	assert.Equal(t, 0, pool.Update(tx, 10))
	assert.Equal(t, []string{"finalize_update"}, functions(tx))
}

func TestUpdateUpToDate(t *testing.T) {
	pool := testPool(t, nil)
	for _, epoch := range []uint64{8, 9} {
		tx := sui.NewTransaction()
		assert.False(t, pool.NeedsUpdate(epoch))
		assert.Equal(t, 0, pool.Update(tx, epoch))
		assert.False(t, pool.UpdateAll(tx, epoch))
		assert.Empty(t, tx.Commands())
	}
}

func TestUpdatePagingCoversEveryValidatorOnce(t *testing.T) {
	// however far a previous update got, the remaining calls finish it exactly
	for updated := 0; updated <= 3; updated++ {
		pool := testPool(t, func(fields map[string]any) {
			fields["update"] = map[string]any{"fields": map[string]any{
				"pending_sui_balance": "0",
				"updating_epoch":      "10",
				"updated_validators":  big.NewInt(int64(updated)).String(),
			}}
		})
		tx := sui.NewTransaction()
		n := pool.Update(tx, 10)
		assert.Equal(t, 3-updated, n)
		assert.Len(t, tx.MoveCalls(), n+1)
	}
}

func TestUpdateAllAtOnce(t *testing.T) {
	pool := testPool(t, nil)
	tx := sui.NewTransaction()
	assert.True(t, pool.UpdateAll(tx, 10))
	assert.Equal(t, []string{"update"}, functions(tx))
	arg := tx.MoveCalls()[0].Arguments[2]
	assert.Equal(t, sui.PureU64(^uint64(0)), tx.Inputs()[arg.Index].Pure)
}

func TestWithdraw(t *testing.T) {
	pool := testPool(t, nil)
	coins := []sui.Coin{
		{CoinObjectID: "0x1", Version: 3, Digest: zeroDigest, Balance: 500},
		{CoinObjectID: "0x2", Version: 4, Digest: zeroDigest, Balance: 300},
	}
	tx := sui.NewTransaction()
	require.NoError(t, pool.Withdraw(tx, coins, 600))

	cmds := tx.Commands()
	require.Len(t, cmds, 3)

	require.Equal(t, sui.CommandMergeCoins, cmds[0].Kind)
	assert.Equal(t, sui.NormalizeAddress("0x1"), objectID(t, tx, cmds[0].MergeCoins.Destination))
	require.Len(t, cmds[0].MergeCoins.Sources, 1)
	assert.Equal(t, sui.NormalizeAddress("0x2"), objectID(t, tx, cmds[0].MergeCoins.Sources[0]))

	require.Equal(t, sui.CommandSplitCoins, cmds[1].Kind)
	assert.Equal(t, cmds[0].MergeCoins.Destination, cmds[1].SplitCoins.Coin)
	require.Len(t, cmds[1].SplitCoins.Amounts, 1)
	assert.Equal(t, sui.PureU64(600), tx.Inputs()[cmds[1].SplitCoins.Amounts[0].Index].Pure)

	require.Equal(t, sui.CommandMoveCall, cmds[2].Kind)
	assert.Equal(t, "0x11::stake_pool::withdraw", cmds[2].MoveCall.Target)
	assert.Equal(t, sui.Argument{Kind: sui.ArgNestedResult, Index: 1, Nested: 0}, cmds[2].MoveCall.Arguments[2])

	// owned coins are already resolved
	in := tx.Inputs()[cmds[0].MergeCoins.Destination.Index]
	require.NotNil(t, in.Object)
	assert.Equal(t, sui.ImmOrOwnedObject, in.Object.Kind)
	assert.Equal(t, uint64(3), in.Object.Ref.Version)
}

func TestWithdrawSingleCoin(t *testing.T) {
	pool := testPool(t, nil)
	tx := sui.NewTransaction()
	require.NoError(t, pool.WithdrawSui(tx, []sui.Coin{{CoinObjectID: "0x1", Version: 1, Digest: zeroDigest, Balance: 10}}, 5))

	cmds := tx.Commands()
	require.Len(t, cmds, 2, "no merge for a single coin")
	assert.Equal(t, sui.CommandSplitCoins, cmds[0].Kind)
	assert.Equal(t, "0x11::stake_pool::withdraw_sui", cmds[1].MoveCall.Target)
}

func TestWithdrawMergesAllCoinsOnce(t *testing.T) {
	pool := testPool(t, nil)
	var coins []sui.Coin
	for _, id := range []string{"0x1", "0x2", "0x3", "0x4"} {
		coins = append(coins, sui.Coin{CoinObjectID: id, Version: 1, Digest: zeroDigest, Balance: 1})
	}
	tx := sui.NewTransaction()
	require.NoError(t, pool.Withdraw(tx, coins, 4))

	merges := 0
	for _, cmd := range tx.Commands() {
		if cmd.Kind == sui.CommandMergeCoins {
			merges++
			assert.Len(t, cmd.MergeCoins.Sources, 3)
		}
	}
	assert.Equal(t, 1, merges)
}

func TestWithdrawNoFunds(t *testing.T) {
	pool := testPool(t, nil)
	tx := sui.NewTransaction()
	assert.ErrorIs(t, pool.Withdraw(tx, nil, 1), ErrNoFunds)
	assert.ErrorIs(t, pool.WithdrawSui(tx, []sui.Coin{}, 1), ErrNoFunds)
	assert.Empty(t, tx.Commands())
}

func TestDepositSui(t *testing.T) {
	pool := testPool(t, nil)
	tx := sui.NewTransaction()
	pool.DepositSui(tx, 2_000_000_000)

	cmds := tx.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, sui.Argument{Kind: sui.ArgGasCoin}, cmds[0].SplitCoins.Coin)
	assert.Equal(t, sui.PureU64(2_000_000_000), tx.Inputs()[cmds[0].SplitCoins.Amounts[0].Index].Pure)
	assert.Equal(t, "0x11::stake_pool::deposit_sui", cmds[1].MoveCall.Target)
	assert.Equal(t, sui.Argument{Kind: sui.ArgNestedResult, Index: 0}, cmds[1].MoveCall.Arguments[2])
}

func TestDepositStake(t *testing.T) {
	pool := testPool(t, nil)
	tx := sui.NewTransaction()
	pool.DepositStake(tx, "0x5ea")

	calls := tx.MoveCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "0x11::stake_pool::deposit_stake", calls[0].Target)
	assert.Equal(t, sui.NormalizeAddress("0x5ea"), objectID(t, tx, calls[0].Arguments[2]))
}

func TestSetStakingValidator(t *testing.T) {
	pool := testPool(t, nil)

	tx := sui.NewTransaction()
	address := "0xabc"
	pool.SetStakingValidator(tx, &address)
	call := tx.MoveCalls()[0]
	assert.Equal(t, "0x11::stake_pool::set_staking_validator", call.Target)
	require.Len(t, call.Arguments, 3)
	vec := tx.Inputs()[call.Arguments[1].Index].Pure
	require.Len(t, vec, 1+sui.AddressLength)
	assert.Equal(t, byte(1), vec[0])
	assert.Equal(t, sui.NormalizeAddress("0x31"), objectID(t, tx, call.Arguments[2]), "validator manager cap")

	tx = sui.NewTransaction()
	pool.SetStakingValidator(tx, nil)
	call = tx.MoveCalls()[0]
	assert.Equal(t, []byte{0}, tx.Inputs()[call.Arguments[1].Index].Pure, "empty vector clears")
}

func TestStakeReserve(t *testing.T) {
	t.Run("explicit", func(t *testing.T) {
		pool := testPool(t, nil)
		tx := sui.NewTransaction()
		require.NoError(t, pool.StakeReserve(tx, "0xbeef"))
		call := tx.MoveCalls()[0]
		assert.Equal(t, "0x11::stake_pool::stake_reserve", call.Target)
		require.Len(t, call.Arguments, 4)
		assert.Equal(t, sui.ClockObjectID, objectID(t, tx, call.Arguments[2]))
		assert.Equal(t, sui.NormalizeAddress("0xbeef"), pureAddress(t, tx, call.Arguments[3]))
	})
	t.Run("pool staking validator", func(t *testing.T) {
		pool := testPool(t, func(fields map[string]any) { fields["staking_validator"] = "0xcafe" })
		tx := sui.NewTransaction()
		require.NoError(t, pool.StakeReserve(tx, ""))
		assert.Equal(t, sui.NormalizeAddress("0xcafe"), pureAddress(t, tx, tx.MoveCalls()[0].Arguments[3]))
	})
	t.Run("explicit wins", func(t *testing.T) {
		pool := testPool(t, func(fields map[string]any) { fields["staking_validator"] = "0xcafe" })
		tx := sui.NewTransaction()
		require.NoError(t, pool.StakeReserve(tx, "0xbeef"))
		assert.Equal(t, sui.NormalizeAddress("0xbeef"), pureAddress(t, tx, tx.MoveCalls()[0].Arguments[3]))
	})
	t.Run("none", func(t *testing.T) {
		pool := testPool(t, nil)
		tx := sui.NewTransaction()
		assert.ErrorIs(t, pool.StakeReserve(tx, ""), ErrNoStakingValidator)
		assert.Empty(t, tx.Commands())
	})
}

func TestAddValidator(t *testing.T) {
	systemState := &sui.SystemStateSummary{ActiveValidators: []sui.ValidatorSummary{
		{SuiAddress: "0xa1", StakingPoolID: "0xb1"},
		{SuiAddress: "0xa2", StakingPoolID: "0xb2"},
	}}
	tests := []struct {
		name      string
		params    AddValidatorParams
		wantPools []string
		wantAddrs []string
		wantErr   error
	}{
		{"both given", AddValidatorParams{ValidatorPool: "0xf1", Address: "0xf2"}, []string{"0xf1"}, []string{"0xf2"}, nil},
		{"by pool", AddValidatorParams{ValidatorPool: "0xb2", SystemState: systemState}, []string{"0xb2"}, []string{"0xa2"}, nil},
		{"by address", AddValidatorParams{Address: "0xa1", SystemState: systemState}, []string{"0xb1"}, []string{"0xa1"}, nil},
		{"all active", AddValidatorParams{SystemState: systemState}, []string{"0xb1", "0xb2"}, []string{"0xa1", "0xa2"}, nil},
		{"unknown pool", AddValidatorParams{ValidatorPool: "0xb9", SystemState: systemState}, nil, nil, ErrValidatorNotFound},
		{"unknown address", AddValidatorParams{Address: "0xa9", SystemState: systemState}, nil, nil, ErrValidatorNotFound},
		{"no system state", AddValidatorParams{Address: "0xa1"}, nil, nil, ErrSystemStateRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := testPool(t, nil)
			tx := sui.NewTransaction()
			n, err := pool.AddValidator(tx, tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tx.Commands())
				return
			}
			require.NoError(t, err)
			require.Equal(t, len(tt.wantPools), n)
			calls := tx.MoveCalls()
			require.Len(t, calls, n)
			for i, call := range calls {
				assert.Equal(t, "0x11::stake_pool::add_validator", call.Target)
				assert.Equal(t, sui.NormalizeAddress(tt.wantPools[i]), pureAddress(t, tx, call.Arguments[2]))
				assert.Equal(t, sui.NormalizeAddress(tt.wantAddrs[i]), pureAddress(t, tx, call.Arguments[3]))
				assert.Equal(t, sui.NormalizeAddress("0x31"), objectID(t, tx, call.Arguments[4]))
			}
		})
	}
}

func TestExchangeRatio(t *testing.T) {
	pool := testPool(t, nil)
	ratio := pool.ExchangeRatio()
	require.NotNil(t, ratio)
	assert.Equal(t, "1.034482759", ratio.FloatString(9))

	empty := testPool(t, func(fields map[string]any) { fields["last_update_token_supply"] = "0" })
	assert.Nil(t, empty.ExchangeRatio())
}

func TestTokenCoins(t *testing.T) {
	node := newFakeNode(t)
	node.coins[testIDs.TokenCoinType()] = []sui.Coin{{CoinObjectID: "0x1", Balance: 5}}
	coins, err := TokenCoins(context.Background(), node, testIDs, "0x1")
	require.NoError(t, err)
	assert.Len(t, coins, 1)
	assert.Equal(t, "0x10::coin::COIN", testIDs.TokenCoinType())
}

func TestIDsValidate(t *testing.T) {
	assert.NoError(t, testIDs.Validate())
	assert.ErrorContains(t, IDs{OriginalLisuifyID: "0x1", PoolID: "0x2"}.Validate(), "lisuify id must be set")
	assert.ErrorContains(t, IDs{LisuifyID: "0x1", OriginalLisuifyID: "0x1", PoolID: "pool"}.Validate(), "stake pool id")
	assert.Equal(t, "0x10::stake_pool::StakePool<0x10::coin::COIN>", testIDs.StakePoolType())
}
