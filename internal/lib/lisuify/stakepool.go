package lisuify

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lisuify/lisuify/internal/lib/sui"
)

// ObjectFetcher fetches a single object (with content).
type ObjectFetcher interface {
	GetObject(ctx context.Context, objectID string) (*sui.ObjectResponse, error)
}

type CoinLister interface {
	AllCoins(ctx context.Context, owner, coinType string) ([]sui.Coin, error)
}

// StakePool is a loaded stake pool.  The snapshot is read-only; methods only append calls to the
// caller's transaction, so reload to observe the result of submitting them.  Concurrent use of
// the same transaction isn't coordinated.
type StakePool struct {
	ids   IDs
	state *StakePoolState
}

// Load fetches and decodes the pool.
func Load(ctx context.Context, fetcher ObjectFetcher, ids IDs) (*StakePool, error) {
	obj, err := fetcher.GetObject(ctx, ids.PoolID)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch stake pool %s: %w", ids.PoolID, err)
	}
	state, err := DecodeStakePool(obj, ids.OriginalLisuifyID)
	if err != nil {
		return nil, fmt.Errorf("stake pool %s: %w", ids.PoolID, err)
	}
	pool := NewStakePool(ids, state)
	updateMetrics(pool)
	return pool, nil
}

// NewStakePool wraps an already decoded snapshot.
func NewStakePool(ids IDs, state *StakePoolState) *StakePool {
	return &StakePool{ids: ids, state: state}
}

func (p *StakePool) IDs() IDs               { return p.ids }
func (p *StakePool) ID() string             { return p.ids.PoolID }
func (p *StakePool) State() *StakePoolState { return p.state }

// AddValidatorParams selects the validators to add.  When both ValidatorPool and Address are
// set they're used as-is; otherwise the missing half is looked up in SystemState, and when
// neither is set, every active validator is added.
type AddValidatorParams struct {
	ValidatorPool string
	Address       string
	SystemState   *sui.SystemStateSummary
}

// AddValidator appends one add_validator call per selected validator, returning the count.
func (p *StakePool) AddValidator(tx *sui.Transaction, params AddValidatorParams) (int, error) {
	type validator struct{ pool, address string }
	var validators []validator

	if params.ValidatorPool != "" && params.Address != "" {
		validators = append(validators, validator{params.ValidatorPool, params.Address})
	} else {
		if params.SystemState == nil {
			return 0, ErrSystemStateRequired
		}
		if params.ValidatorPool != "" {
			v, found := params.SystemState.ValidatorByPoolID(params.ValidatorPool)
			if !found {
				return 0, fmt.Errorf("%w by pool id %s", ErrValidatorNotFound, params.ValidatorPool)
			}
			validators = append(validators, validator{v.StakingPoolID, v.SuiAddress})
		}
		if params.Address != "" {
			v, found := params.SystemState.ValidatorByAddress(params.Address)
			if !found {
				return 0, fmt.Errorf("%w by address %s", ErrValidatorNotFound, params.Address)
			}
			validators = append(validators, validator{v.StakingPoolID, v.SuiAddress})
		}
		if len(validators) == 0 {
			for _, v := range params.SystemState.ActiveValidators {
				validators = append(validators, validator{v.StakingPoolID, v.SuiAddress})
			}
		}
	}
	for _, v := range validators {
		AddValidator(tx, p.ids, v.pool, v.address, p.state.ValidatorManagerCapID)
	}
	return len(validators), nil
}

// DepositStake deposits the StakedSui object stakeID.
func (p *StakePool) DepositStake(tx *sui.Transaction, stakeID string) {
	DepositStake(tx, p.ids, tx.Object(stakeID))
}

// DepositSui splits amount (MIST) off the gas coin and deposits it.
func (p *StakePool) DepositSui(tx *sui.Transaction, amount uint64) {
	coins := tx.SplitCoins(tx.Gas(), tx.PureU64(amount))
	DepositSui(tx, p.ids, coins[0])
}

// Withdraw merges the liquid token coins, splits off amount and redeems it for StakedSui.
func (p *StakePool) Withdraw(tx *sui.Transaction, coins []sui.Coin, amount uint64) error {
	token, err := splitTokens(tx, coins, amount)
	if err != nil {
		return err
	}
	Withdraw(tx, p.ids, token)
	return nil
}

// WithdrawSui is Withdraw, redeeming for SUI.
func (p *StakePool) WithdrawSui(tx *sui.Transaction, coins []sui.Coin, amount uint64) error {
	token, err := splitTokens(tx, coins, amount)
	if err != nil {
		return err
	}
	WithdrawSui(tx, p.ids, token)
	return nil
}

// splitTokens merges every coin into the first (when there's more than one) and splits amount
// off of it.
func splitTokens(tx *sui.Transaction, coins []sui.Coin, amount uint64) (sui.Argument, error) {
	if len(coins) == 0 {
		return sui.Argument{}, ErrNoFunds
	}
	primary := tx.OwnedObject(coins[0].Ref())
	if len(coins) > 1 {
		sources := make([]sui.Argument, 0, len(coins)-1)
		for _, coin := range coins[1:] {
			sources = append(sources, tx.OwnedObject(coin.Ref()))
		}
		tx.MergeCoins(primary, sources)
	}
	return tx.SplitCoins(primary, tx.PureU64(amount))[0], nil
}

// SetStakingValidator sets (or with nil, clears) the validator new deposits are staked with.
func (p *StakePool) SetStakingValidator(tx *sui.Transaction, address *string) {
	SetStakingValidator(tx, p.ids, address, p.state.ValidatorManagerCapID)
}

// StakeReserve stakes the reserve with validatorAddress, or with the pool's staking validator
// when empty.
func (p *StakePool) StakeReserve(tx *sui.Transaction, validatorAddress string) error {
	if validatorAddress == "" {
		if p.state.StakingValidator == nil {
			return ErrNoStakingValidator
		}
		validatorAddress = *p.state.StakingValidator
	}
	StakeReserve(tx, p.ids, validatorAddress)
	return nil
}

// NeedsUpdate is true when currentEpoch is past the pool's last update.
func (p *StakePool) NeedsUpdate(currentEpoch uint64) bool {
	return p.state.LastUpdateEpoch.Cmp(new(big.Int).SetUint64(currentEpoch)) < 0
}

// UpdateResumeIndex is the index of the first validator not yet updated for currentEpoch.
func (p *StakePool) UpdateResumeIndex(currentEpoch uint64) int {
	update := p.state.Update
	if update == nil || update.UpdatingEpoch.Cmp(new(big.Int).SetUint64(currentEpoch)) != 0 {
		return 0
	}
	if !update.UpdatedValidators.IsInt64() || update.UpdatedValidators.Int64() > int64(len(p.state.Validators)) {
		return len(p.state.Validators)
	}
	return int(update.UpdatedValidators.Int64())
}

// Update appends the paged epoch update: an update_validator call for every validator not
// yet updated in currentEpoch (in pool order) and a finalize_update.  Nothing is appended when
// the pool is already up to date.  Returns the number of update_validator calls.
func (p *StakePool) Update(tx *sui.Transaction, currentEpoch uint64) int {
	if !p.NeedsUpdate(currentEpoch) {
		return 0
	}
	remaining := p.state.Validators[p.UpdateResumeIndex(currentEpoch):]
	for _, v := range remaining {
		UpdateValidator(tx, p.ids, v.ValidatorPoolID)
	}
	FinalizeUpdate(tx, p.ids)
	return len(remaining)
}

// UpdateAll appends the single call epoch update.
func (p *StakePool) UpdateAll(tx *sui.Transaction, currentEpoch uint64) bool {
	if !p.NeedsUpdate(currentEpoch) {
		return false
	}
	UpdateAll(tx, p.ids)
	return true
}

// ExchangeRatio is SUI per liquid token as of the last update, nil before any tokens exist.
func (p *StakePool) ExchangeRatio() *big.Rat {
	if p.state.LastUpdateTokenSupply == nil || p.state.LastUpdateTokenSupply.Sign() == 0 {
		return nil
	}
	return new(big.Rat).SetFrac(p.state.LastUpdateSuiBalance, p.state.LastUpdateTokenSupply)
}

// TokenCoins returns every liquid token coin held by owner.
func TokenCoins(ctx context.Context, client CoinLister, ids IDs, owner string) ([]sui.Coin, error) {
	return client.AllCoins(ctx, owner, ids.TokenCoinType())
}
