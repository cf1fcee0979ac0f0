package lisuify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lisuify/lisuify/internal/lib/sui"
)

// base58 of 32 zero bytes
const zeroDigest = "11111111111111111111111111111111"

var testIDs = IDs{LisuifyID: "0x11", OriginalLisuifyID: "0x10", PoolID: "0x20"}

func validatorEntry(poolID string, lastUpdateEpoch string) map[string]any {
	return map[string]any{
		"type": "0x10::stake_pool::ValidatorEntry",
		"fields": map[string]any{
			"validator_pool_id":       poolID,
			"is_active":               true,
			"last_update_epoch":       lastUpdateEpoch,
			"last_update_sui_balance": "1000000000000",
		},
	}
}

// poolFields is a stake pool last updated in epoch 9 with validators A (0xa), B (0xb) and C (0xc).
func poolFields() map[string]any {
	return map[string]any{
		"id":                       map[string]any{"id": "0x20"},
		"admin_cap_id":             "0x30",
		"validator_manager_cap_id": "0x31",
		"treasury": map[string]any{
			"type": "0x2::coin::TreasuryCap<0x10::coin::COIN>",
			"fields": map[string]any{
				"id": map[string]any{"id": "0x32"},
				"total_supply": map[string]any{
					"type":   "0x2::balance::Supply<0x10::coin::COIN>",
					"fields": map[string]any{"value": "2900000000000"},
				},
			},
		},
		"fees":                     "5000",
		"fresh_deposit_fee_bpc":    100,
		"withdraw_fee_bpc":         50,
		"rewards_fee_bpc":          1000,
		"last_update_epoch":        "9",
		"last_update_sui_balance":  "3000000000000",
		"last_update_token_supply": "2900000000000",
		"current_sui_balance":      "3100000000000",
		"reserve":                  "300000000",
		"update":                   nil,
		"staking_validator":        nil,
		"validators": []any{
			validatorEntry("0xa", "9"),
			validatorEntry("0xb", "9"),
			validatorEntry("0xc", "9"),
		},
	}
}

func poolObject(t *testing.T, fields map[string]any) *sui.ObjectResponse {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	return &sui.ObjectResponse{Data: &sui.ObjectData{
		ObjectID: sui.NormalizeAddress(testIDs.PoolID),
		Version:  100,
		Digest:   zeroDigest,
		Type:     testIDs.StakePoolType(),
		Owner:    &sui.Owner{Kind: sui.OwnerShared, InitialSharedVersion: 4},
		Content: &sui.Content{
			DataType: sui.DataTypeMoveObject,
			Type:     testIDs.StakePoolType(),
			Fields:   raw,
		},
	}}
}

func testPool(t *testing.T, mutate func(fields map[string]any)) *StakePool {
	t.Helper()
	fields := poolFields()
	if mutate != nil {
		mutate(fields)
	}
	state, err := DecodeStakePool(poolObject(t, fields), testIDs.OriginalLisuifyID)
	require.NoError(t, err)
	return NewStakePool(testIDs, state)
}

// pureAddress returns the address a pure input argument holds.
func pureAddress(t *testing.T, tx *sui.Transaction, arg sui.Argument) string {
	t.Helper()
	require.Equal(t, sui.ArgInput, arg.Kind)
	in := tx.Inputs()[arg.Index]
	require.Equal(t, sui.InputPure, in.Kind)
	require.Len(t, in.Pure, sui.AddressLength)
	return sui.Address(in.Pure).String()
}

// objectID returns the object id an object input argument refers to.
func objectID(t *testing.T, tx *sui.Transaction, arg sui.Argument) string {
	t.Helper()
	require.Equal(t, sui.ArgInput, arg.Kind)
	in := tx.Inputs()[arg.Index]
	require.Equal(t, sui.InputObject, in.Kind)
	return in.ObjectID
}

func functions(tx *sui.Transaction) []string {
	var names []string
	for _, call := range tx.MoveCalls() {
		_, _, fn, _ := sui.SplitTarget(call.Target)
		names = append(names, fn)
	}
	return names
}

// fakeNode serves objects, coins and transaction calls from memory.
type fakeNode struct {
	objects   map[string]*sui.ObjectResponse
	coins     map[string][]sui.Coin // by coin type
	balance   uint64
	owned     []sui.ObjectResponse
	dryStatus string
	fetchErr  error

	dryRuns  int
	executed [][]string
}

func newFakeNode(t *testing.T) *fakeNode {
	pool := poolObject(t, poolFields())
	return &fakeNode{
		objects: map[string]*sui.ObjectResponse{pool.Data.ObjectID: pool},
		coins: map[string][]sui.Coin{
			sui.SuiCoinType: {{CoinType: sui.SuiCoinType, CoinObjectID: "0xfee", Version: 1, Digest: zeroDigest, Balance: 5_000_000_000}},
		},
		dryStatus: sui.ExecutionSuccess,
	}
}

func (f *fakeNode) GetObject(_ context.Context, objectID string) (*sui.ObjectResponse, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if obj, found := f.objects[sui.NormalizeAddress(objectID)]; found {
		return obj, nil
	}
	return &sui.ObjectResponse{Error: &sui.ObjectResponseError{Code: "notExists", ObjectID: objectID}}, nil
}

func (f *fakeNode) MultiGetObjects(_ context.Context, objectIDs []string) ([]sui.ObjectResponse, error) {
	out := make([]sui.ObjectResponse, len(objectIDs))
	for i, id := range objectIDs {
		if obj, found := f.objects[id]; found {
			out[i] = *obj
			continue
		}
		// anything else is an owned object
		out[i] = sui.ObjectResponse{Data: &sui.ObjectData{ObjectID: id, Version: 1, Digest: zeroDigest,
			Owner: &sui.Owner{Kind: sui.OwnerAddress, Address: "0x1"}}}
	}
	return out, nil
}

func (f *fakeNode) ReferenceGasPrice(context.Context) (uint64, error) {
	return 1000, nil
}

func (f *fakeNode) AllCoins(_ context.Context, _, coinType string) ([]sui.Coin, error) {
	return f.coins[coinType], nil
}

func (f *fakeNode) GetBalance(_ context.Context, _, coinType string) (*sui.Balance, error) {
	if coinType != sui.SuiCoinType {
		return nil, errors.New("unexpected coin type")
	}
	return &sui.Balance{CoinType: coinType, TotalBalance: sui.U64(f.balance)}, nil
}

func (f *fakeNode) OwnedObjects(context.Context, string, string) ([]sui.ObjectResponse, error) {
	return f.owned, nil
}

func (f *fakeNode) DryRun(context.Context, []byte) (*sui.DryRunResponse, error) {
	f.dryRuns++
	resp := &sui.DryRunResponse{}
	resp.Effects.Status.Status = sui.ExecutionSuccess
	if f.dryStatus != sui.ExecutionSuccess {
		resp.Effects.Status = sui.ExecutionStatus{Status: sui.ExecutionFailure, Error: f.dryStatus}
	}
	return resp, nil
}

func (f *fakeNode) Execute(_ context.Context, _ []byte, signatures []string) (json.RawMessage, error) {
	f.executed = append(f.executed, signatures)
	return json.RawMessage(`{"digest":"done","effects":{"status":{"status":"success"}}}`), nil
}
