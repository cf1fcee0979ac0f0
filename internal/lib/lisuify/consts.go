package lisuify

import (
	"fmt"
	"math"

	"github.com/lisuify/lisuify/internal/lib/sui"
)

const (
	stakePoolModule = "stake_pool"
	coinModule      = "coin"

	// GasBudget is the fixed gas budget (in MIST) of every submitted transaction.
	GasBudget = 200_000_000

	// MinReserveToStake is the smallest reserve (1 SUI) worth attempting to stake.
	MinReserveToStake = 1_000_000_000

	// ReserveBelowThresholdCode is the stake_reserve abort code for a reserve under the
	// minimum staking amount.
	ReserveBelowThresholdCode = 2006

	// maxValidatorsPerUpdate is passed to the single-call update to process every validator.
	maxValidatorsPerUpdate = math.MaxUint64
)

// IDs identifies a deployed stake pool.  LisuifyID is the package called into (the latest
// upgrade), OriginalLisuifyID the package that first defined the types.
type IDs struct {
	LisuifyID         string
	OriginalLisuifyID string
	PoolID            string
}

func (ids IDs) String() string {
	return fmt.Sprintf("lisuify:%s, original:%s, pool:%s", ids.LisuifyID, ids.OriginalLisuifyID, ids.PoolID)
}

func (ids IDs) Validate() error {
	for _, id := range []struct{ name, value string }{
		{"lisuify", ids.LisuifyID},
		{"original lisuify", ids.OriginalLisuifyID},
		{"stake pool", ids.PoolID},
	} {
		if id.value == "" {
			return fmt.Errorf("%s id must be set", id.name)
		}
		if _, err := sui.ParseAddress(id.value); err != nil {
			return fmt.Errorf("%s id: %w", id.name, err)
		}
	}
	return nil
}

func (ids IDs) target(function string) string {
	return fmt.Sprintf("%s::%s::%s", ids.LisuifyID, stakePoolModule, function)
}

// typeArgs is the single type argument of every stake_pool call.
func (ids IDs) typeArgs() []string {
	return []string{fmt.Sprintf("%s::%s::COIN", ids.LisuifyID, coinModule)}
}

// TokenCoinType is the liquid token coin type, as owned coins report it.
func (ids IDs) TokenCoinType() string {
	return fmt.Sprintf("%s::%s::COIN", ids.OriginalLisuifyID, coinModule)
}

// StakePoolType is the exact move type of the pool object.
func (ids IDs) StakePoolType() string {
	return fmt.Sprintf("%s::%s::StakePool<%s>", ids.OriginalLisuifyID, stakePoolModule, ids.TokenCoinType())
}
