package sui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// U64 is a u64 that the node returns as either a json string or number.
type U64 uint64

func (u *U64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if string(data) == "null" || len(data) == 0 {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid u64 value:%s: %w", string(data), err)
	}
	*u = U64(v)
	return nil
}

func (u U64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(u), 10))), nil
}

// ParseBigInt parses a decimal string (or json number) into a big.Int.
func ParseBigInt(data json.RawMessage) (*big.Int, error) {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	val, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer value:%s", string(data))
	}
	return val, nil
}

type ObjectDataOptions struct {
	ShowType                bool `json:"showType"`
	ShowOwner               bool `json:"showOwner"`
	ShowContent             bool `json:"showContent"`
	ShowPreviousTransaction bool `json:"showPreviousTransaction,omitempty"`
}

var fullObjectOptions = ObjectDataOptions{ShowType: true, ShowOwner: true, ShowContent: true}

type ObjectResponse struct {
	Data  *ObjectData          `json:"data,omitempty"`
	Error *ObjectResponseError `json:"error,omitempty"`
}

type ObjectResponseError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ObjectData struct {
	ObjectID string   `json:"objectId"`
	Version  U64      `json:"version"`
	Digest   string   `json:"digest"`
	Type     string   `json:"type,omitempty"`
	Owner    *Owner   `json:"owner,omitempty"`
	Content  *Content `json:"content,omitempty"`
}

// Ref returns the object reference usable as an owned / immutable transaction input.
func (o *ObjectData) Ref() ObjectRef {
	return ObjectRef{ObjectID: o.ObjectID, Version: uint64(o.Version), Digest: o.Digest}
}

const (
	DataTypeMoveObject = "moveObject"
	DataTypePackage    = "package"
)

type Content struct {
	DataType          string          `json:"dataType"`
	Type              string          `json:"type,omitempty"`
	HasPublicTransfer bool            `json:"hasPublicTransfer,omitempty"`
	Fields            json.RawMessage `json:"fields,omitempty"`
}

type OwnerKind int

const (
	OwnerAddress OwnerKind = iota
	OwnerObject
	OwnerShared
	OwnerImmutable
)

// Owner is the ownership of an object, ie:
//
//	{"AddressOwner":"0x..."}, {"ObjectOwner":"0x..."}, {"Shared":{"initial_shared_version":1}}, "Immutable"
type Owner struct {
	Kind                 OwnerKind
	Address              string
	InitialSharedVersion uint64
}

func (o *Owner) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str != "Immutable" {
			return fmt.Errorf("unknown owner type:%s", str)
		}
		o.Kind = OwnerImmutable
		return nil
	}
	var owner struct {
		AddressOwner *string `json:"AddressOwner"`
		ObjectOwner  *string `json:"ObjectOwner"`
		Shared       *struct {
			InitialSharedVersion U64 `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	if err := json.Unmarshal(data, &owner); err != nil {
		return fmt.Errorf("invalid owner:%s: %w", string(data), err)
	}
	switch {
	case owner.AddressOwner != nil:
		o.Kind, o.Address = OwnerAddress, *owner.AddressOwner
	case owner.ObjectOwner != nil:
		o.Kind, o.Address = OwnerObject, *owner.ObjectOwner
	case owner.Shared != nil:
		o.Kind, o.InitialSharedVersion = OwnerShared, uint64(owner.Shared.InitialSharedVersion)
	default:
		return fmt.Errorf("unknown owner:%s", string(data))
	}
	return nil
}

func (o Owner) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OwnerAddress:
		return json.Marshal(map[string]string{"AddressOwner": o.Address})
	case OwnerObject:
		return json.Marshal(map[string]string{"ObjectOwner": o.Address})
	case OwnerShared:
		return json.Marshal(map[string]any{"Shared": map[string]U64{"initial_shared_version": U64(o.InitialSharedVersion)}})
	}
	return json.Marshal("Immutable")
}

type Coin struct {
	CoinType            string `json:"coinType"`
	CoinObjectID        string `json:"coinObjectId"`
	Version             U64    `json:"version"`
	Digest              string `json:"digest"`
	Balance             U64    `json:"balance"`
	PreviousTransaction string `json:"previousTransaction,omitempty"`
}

func (c Coin) Ref() ObjectRef {
	return ObjectRef{ObjectID: c.CoinObjectID, Version: uint64(c.Version), Digest: c.Digest}
}

type CoinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type Balance struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    U64    `json:"totalBalance"`
}

type ObjectsPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

type ValidatorSummary struct {
	SuiAddress            string `json:"suiAddress"`
	StakingPoolID         string `json:"stakingPoolId"`
	Name                  string `json:"name"`
	StakingPoolSuiBalance U64    `json:"stakingPoolSuiBalance"`
}

// SystemStateSummary is the subset of suix_getLatestSuiSystemState used here.
type SystemStateSummary struct {
	Epoch                 U64                `json:"epoch"`
	EpochStartTimestampMs U64                `json:"epochStartTimestampMs"`
	EpochDurationMs       U64                `json:"epochDurationMs"`
	ReferenceGasPrice     U64                `json:"referenceGasPrice"`
	TotalStake            U64                `json:"totalStake"`
	ActiveValidators      []ValidatorSummary `json:"activeValidators"`
}

func (s *SystemStateSummary) ValidatorByAddress(address string) (ValidatorSummary, bool) {
	for _, v := range s.ActiveValidators {
		if SameAddress(v.SuiAddress, address) {
			return v, true
		}
	}
	return ValidatorSummary{}, false
}

func (s *SystemStateSummary) ValidatorByPoolID(poolID string) (ValidatorSummary, bool) {
	for _, v := range s.ActiveValidators {
		if SameAddress(v.StakingPoolID, poolID) {
			return v, true
		}
	}
	return ValidatorSummary{}, false
}

const (
	ExecutionSuccess = "success"
	ExecutionFailure = "failure"
)

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type TransactionEffects struct {
	Status ExecutionStatus `json:"status"`
}

type DryRunResponse struct {
	Effects TransactionEffects `json:"effects"`
	Raw     json.RawMessage    `json:"-"`
}

func (d *DryRunResponse) UnmarshalJSON(data []byte) error {
	type plain DryRunResponse
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	d.Raw = append(json.RawMessage(nil), data...)
	return nil
}
