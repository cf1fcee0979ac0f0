package lisuify

import (
	"github.com/lisuify/lisuify/internal/lib/sui"
)

// The stake_pool entry points.  Each appends a single move call to tx and does no node queries.

// AddValidator registers a validator (its staking pool id and address) with the pool.
func AddValidator(tx *sui.Transaction, ids IDs, validatorPool, address, cap string) {
	tx.MoveCall(ids.target("add_validator"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		tx.PureAddress(validatorPool),
		tx.PureAddress(address),
		tx.Object(cap),
	)
}

// DepositStake deposits a StakedSui object.
func DepositStake(tx *sui.Transaction, ids IDs, stake sui.Argument) {
	tx.MoveCall(ids.target("deposit_stake"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		stake,
	)
}

// DepositSui deposits a SUI coin.
func DepositSui(tx *sui.Transaction, ids IDs, coin sui.Argument) {
	tx.MoveCall(ids.target("deposit_sui"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		coin,
	)
}

// Withdraw redeems a liquid token coin for StakedSui.
func Withdraw(tx *sui.Transaction, ids IDs, token sui.Argument) {
	tx.MoveCall(ids.target("withdraw"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		token,
	)
}

// WithdrawSui redeems a liquid token coin for SUI.
func WithdrawSui(tx *sui.Transaction, ids IDs, token sui.Argument) {
	tx.MoveCall(ids.target("withdraw_sui"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		token,
	)
}

// SetStakingValidator sets the validator new deposits are staked with.  A nil address clears it.
func SetStakingValidator(tx *sui.Transaction, ids IDs, address *string, cap string) {
	var addresses []string
	if address != nil {
		addresses = []string{*address}
	}
	tx.MoveCall(ids.target("set_staking_validator"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.PureAddresses(addresses),
		tx.Object(cap),
	)
}

// StakeReserve stakes the pool's reserve with validatorAddress.
func StakeReserve(tx *sui.Transaction, ids IDs, validatorAddress string) {
	tx.MoveCall(ids.target("stake_reserve"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		tx.Clock(),
		tx.PureAddress(validatorAddress),
	)
}

// UpdateValidator accrues the rewards of a single validator for the current epoch update.
func UpdateValidator(tx *sui.Transaction, ids IDs, validatorPoolID string) {
	tx.MoveCall(ids.target("update_validator"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		tx.PureAddress(validatorPoolID),
	)
}

// FinalizeUpdate completes an epoch update once every validator is updated.
func FinalizeUpdate(tx *sui.Transaction, ids IDs) {
	tx.MoveCall(ids.target("finalize_update"), ids.typeArgs(),
		tx.Object(ids.PoolID),
	)
}

// UpdateAll runs the whole epoch update in one call.
func UpdateAll(tx *sui.Transaction, ids IDs) {
	tx.MoveCall(ids.target("update"), ids.typeArgs(),
		tx.Object(ids.PoolID),
		tx.SystemState(),
		tx.PureU64(maxValidatorsPerUpdate),
	)
}
