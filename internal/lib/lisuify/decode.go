package lisuify

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/lisuify/lisuify/internal/lib/sui"
)

// StakePoolState is a decoded snapshot of the on-chain StakePool object.  It's never
// mutated once decoded - reload the pool to observe later state.
type StakePoolState struct {
	ID                    string
	AdminCapID            string
	ValidatorManagerCapID string
	TokenSupply           *big.Int
	Fees                  *big.Int
	FreshDepositFeeBpc    uint32
	WithdrawFeeBpc        uint32
	RewardsFeeBpc         uint32
	LastUpdateEpoch       *big.Int
	LastUpdateSuiBalance  *big.Int
	LastUpdateTokenSupply *big.Int
	CurrentSuiBalance     *big.Int
	Update                *StakePoolUpdate
	StakingValidator      *string
	Validators            []ValidatorEntry
	Reserve               *big.Int
}

// ValidatorEntry is a validator the pool stakes with.  Entries are only ever appended so their
// order drives update paging.
type ValidatorEntry struct {
	ValidatorPoolID      string
	IsActive             bool
	LastUpdateEpoch      *big.Int
	LastUpdateSuiBalance *big.Int
}

// StakePoolUpdate is an epoch update spanning more than one transaction.
type StakePoolUpdate struct {
	PendingSuiBalance *big.Int
	UpdatingEpoch     *big.Int
	UpdatedValidators *big.Int
}

type moveFields map[string]json.RawMessage

// DecodeStakePool validates obj is a StakePool<COIN> of the originalID package and decodes it.
func DecodeStakePool(obj *sui.ObjectResponse, originalID string) (*StakePoolState, error) {
	if obj == nil || obj.Data == nil {
		detail := "no object data"
		if obj != nil && obj.Error != nil {
			detail = obj.Error.Code
			if obj.Error.ObjectID != "" {
				detail += " " + obj.Error.ObjectID
			}
		}
		return nil, &DecodeError{Kind: ErrNotFound, Detail: detail}
	}
	content := obj.Data.Content
	if content == nil {
		return nil, schemaError("content", "missing object content")
	}
	if content.DataType != sui.DataTypeMoveObject {
		return nil, &DecodeError{Kind: ErrWrongKind, Detail: content.DataType}
	}
	expected := IDs{OriginalLisuifyID: originalID}.StakePoolType()
	if !sameType(content.Type, expected) {
		return nil, schemaError("type", "unexpected object type %s", content.Type)
	}
	var fields moveFields
	if err := json.Unmarshal(content.Fields, &fields); err != nil || fields == nil {
		return nil, schemaError("fields", "not a move struct")
	}

	var (
		state = &StakePoolState{ID: obj.Data.ObjectID}
		err   error
	)
	if state.AdminCapID, err = fields.id("admin_cap_id"); err != nil {
		return nil, err
	}
	if state.ValidatorManagerCapID, err = fields.id("validator_manager_cap_id"); err != nil {
		return nil, err
	}
	if state.TokenSupply, err = fields.tokenSupply(); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		dest **big.Int
	}{
		{"fees", &state.Fees},
		{"last_update_epoch", &state.LastUpdateEpoch},
		{"last_update_sui_balance", &state.LastUpdateSuiBalance},
		{"last_update_token_supply", &state.LastUpdateTokenSupply},
		{"current_sui_balance", &state.CurrentSuiBalance},
		{"reserve", &state.Reserve},
	} {
		if *f.dest, err = fields.bigInt(f.name); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		name string
		dest *uint32
	}{
		{"fresh_deposit_fee_bpc", &state.FreshDepositFeeBpc},
		{"withdraw_fee_bpc", &state.WithdrawFeeBpc},
		{"rewards_fee_bpc", &state.RewardsFeeBpc},
	} {
		if *f.dest, err = fields.uint32(f.name); err != nil {
			return nil, err
		}
	}
	if state.Update, err = fields.update(); err != nil {
		return nil, err
	}
	if state.StakingValidator, err = fields.optionalAddress("staking_validator"); err != nil {
		return nil, err
	}
	if state.Validators, err = fields.validators(); err != nil {
		return nil, err
	}
	return state, nil
}

func sameType(actual, expected string) bool {
	actualTag, err := sui.ParseTypeTag(actual)
	if err != nil {
		return false
	}
	expectedTag, err := sui.ParseTypeTag(expected)
	if err != nil {
		return false
	}
	return actualTag.String() == expectedTag.String()
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

func (f moveFields) required(name string) (json.RawMessage, error) {
	raw, found := f[name]
	if !found || isNull(raw) {
		return nil, schemaError(name, "missing")
	}
	return raw, nil
}

func (f moveFields) id(name string) (string, error) {
	raw, err := f.required(name)
	if err != nil {
		return "", err
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		// UID style {"id":"0x.."}
		var uid struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &uid); err != nil || uid.ID == "" {
			return "", schemaError(name, "expected object id, got %s", string(raw))
		}
		id = uid.ID
	}
	if _, err := sui.ParseAddress(id); err != nil {
		return "", schemaError(name, "%v", err)
	}
	return id, nil
}

func (f moveFields) bigInt(name string) (*big.Int, error) {
	raw, err := f.required(name)
	if err != nil {
		return nil, err
	}
	val, err := sui.ParseBigInt(raw)
	if err != nil {
		return nil, schemaError(name, "%v", err)
	}
	return val, nil
}

func (f moveFields) uint32(name string) (uint32, error) {
	raw, err := f.required(name)
	if err != nil {
		return 0, err
	}
	val, err := strconv.ParseUint(string(bytes.Trim(raw, `"`)), 10, 32)
	if err != nil {
		return 0, schemaError(name, "expected u32, got %s", string(raw))
	}
	return uint32(val), nil
}

func (f moveFields) bool(name string) (bool, error) {
	raw, err := f.required(name)
	if err != nil {
		return false, err
	}
	var val bool
	if err := json.Unmarshal(raw, &val); err != nil {
		return false, schemaError(name, "expected bool, got %s", string(raw))
	}
	return val, nil
}

// structFields unwraps a nested move struct: {"type":"..","fields":{..}}
func structFields(name string, raw json.RawMessage) (moveFields, error) {
	var wrapped struct {
		Fields moveFields `json:"fields"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Fields == nil {
		return nil, schemaError(name, "expected struct")
	}
	return wrapped.Fields, nil
}

// option returns the value of an Option<T> field, or nil when it's none.  Nodes render options
// as either the bare value / null, or the underlying {"vec":[..]} struct.
func (f moveFields) option(name string) (json.RawMessage, error) {
	raw, found := f[name]
	if !found || isNull(raw) {
		return nil, nil
	}
	var wrapped struct {
		Fields *struct {
			Vec []json.RawMessage `json:"vec"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Fields != nil && wrapped.Fields.Vec != nil {
		switch len(wrapped.Fields.Vec) {
		case 0:
			return nil, nil
		case 1:
			return wrapped.Fields.Vec[0], nil
		}
		return nil, schemaError(name, "option with %d values", len(wrapped.Fields.Vec))
	}
	return raw, nil
}

func (f moveFields) tokenSupply() (*big.Int, error) {
	const name = "treasury.total_supply.value"
	raw, err := f.required("treasury")
	if err != nil {
		return nil, err
	}
	treasury, err := structFields(name, raw)
	if err != nil {
		return nil, err
	}
	raw, err = treasury.required("total_supply")
	if err != nil {
		return nil, schemaError(name, "missing")
	}
	supply, err := structFields(name, raw)
	if err != nil {
		return nil, err
	}
	val, err := supply.bigInt("value")
	if err != nil {
		return nil, schemaError(name, "%v", err)
	}
	return val, nil
}

func (f moveFields) update() (*StakePoolUpdate, error) {
	raw, err := f.option("update")
	if err != nil || raw == nil {
		return nil, err
	}
	fields, err := structFields("update", raw)
	if err != nil {
		return nil, err
	}
	var update StakePoolUpdate
	if update.PendingSuiBalance, err = fields.bigInt("pending_sui_balance"); err != nil {
		return nil, prefixField("update.", err)
	}
	if update.UpdatingEpoch, err = fields.bigInt("updating_epoch"); err != nil {
		return nil, prefixField("update.", err)
	}
	if update.UpdatedValidators, err = fields.bigInt("updated_validators"); err != nil {
		return nil, prefixField("update.", err)
	}
	return &update, nil
}

func (f moveFields) optionalAddress(name string) (*string, error) {
	raw, err := f.option(name)
	if err != nil || raw == nil {
		return nil, err
	}
	var address string
	if err := json.Unmarshal(raw, &address); err != nil {
		return nil, schemaError(name, "expected address, got %s", string(raw))
	}
	if _, err := sui.ParseAddress(address); err != nil {
		return nil, schemaError(name, "%v", err)
	}
	return &address, nil
}

func (f moveFields) validators() ([]ValidatorEntry, error) {
	raw, err := f.required("validators")
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, schemaError("validators", "expected array")
	}
	validators := make([]ValidatorEntry, 0, len(entries))
	for i, entry := range entries {
		name := "validators[" + strconv.Itoa(i) + "]"
		fields, err := structFields(name, entry)
		if err != nil {
			return nil, err
		}
		var v ValidatorEntry
		if v.ValidatorPoolID, err = fields.id("validator_pool_id"); err != nil {
			return nil, prefixField(name+".", err)
		}
		if v.IsActive, err = fields.bool("is_active"); err != nil {
			return nil, prefixField(name+".", err)
		}
		if v.LastUpdateEpoch, err = fields.bigInt("last_update_epoch"); err != nil {
			return nil, prefixField(name+".", err)
		}
		if v.LastUpdateSuiBalance, err = fields.bigInt("last_update_sui_balance"); err != nil {
			return nil, prefixField(name+".", err)
		}
		validators = append(validators, v)
	}
	return validators, nil
}

func prefixField(prefix string, err error) error {
	if decodeErr, ok := err.(*DecodeError); ok {
		decodeErr.Field = prefix + decodeErr.Field
	}
	return err
}
