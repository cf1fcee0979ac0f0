package sui

import (
	"encoding/json"
	"fmt"
)

// StakedSui is a 0x3::staking_pool::StakedSui object.
type StakedSui struct {
	ObjectID             string `json:"objectId"`
	PoolID               string `json:"poolId"`
	StakeActivationEpoch U64    `json:"stakeActivationEpoch"`
	Principal            U64    `json:"principal"`
}

func ParseStakedSui(obj ObjectResponse) (StakedSui, error) {
	if obj.Data == nil || obj.Data.Content == nil {
		return StakedSui{}, ErrObjectNotFound
	}
	var fields struct {
		PoolID               string `json:"pool_id"`
		StakeActivationEpoch U64    `json:"stake_activation_epoch"`
		Principal            U64    `json:"principal"`
	}
	if err := json.Unmarshal(obj.Data.Content.Fields, &fields); err != nil {
		return StakedSui{}, fmt.Errorf("invalid StakedSui %s: %w", obj.Data.ObjectID, err)
	}
	return StakedSui{
		ObjectID:             obj.Data.ObjectID,
		PoolID:               fields.PoolID,
		StakeActivationEpoch: fields.StakeActivationEpoch,
		Principal:            fields.Principal,
	}, nil
}
