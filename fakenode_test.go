package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

// base58 of 32 zero bytes
const zeroDigest = "11111111111111111111111111111111"

const reserveAbort = `MoveAbort(MoveLocation { module: ModuleId { address: 0000000000000000000000000000000000000000000000000000000000000011, ` +
	`name: Identifier("stake_pool") }, function: 17, instruction: 42, function_name: Some("stake_reserve") }, 2006) in command 0`

var nodeTestIDs = lisuify.IDs{LisuifyID: "0x11", OriginalLisuifyID: "0x10", PoolID: "0x20"}

func poolValidator(poolID string) map[string]any {
	return map[string]any{
		"type": "0x10::stake_pool::ValidatorEntry",
		"fields": map[string]any{
			"validator_pool_id":       poolID,
			"is_active":               true,
			"last_update_epoch":       "9",
			"last_update_sui_balance": "1000000000000",
		},
	}
}

// stakePoolFields is a pool last updated in epoch 9, staking with 0x1b and holding 2 SUI of reserve.
func stakePoolFields() map[string]any {
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
					"fields": map[string]any{"value": "2000000000000"},
				},
			},
		},
		"fees":                     "0",
		"fresh_deposit_fee_bpc":    100,
		"withdraw_fee_bpc":         50,
		"rewards_fee_bpc":          1000,
		"last_update_epoch":        "9",
		"last_update_sui_balance":  "2000000000000",
		"last_update_token_supply": "2000000000000",
		"current_sui_balance":      "2002000000000",
		"reserve":                  "2000000000",
		"update":                   nil,
		"staking_validator":        "0x1b",
		"validators":               []any{poolValidator("0xa"), poolValidator("0xb")},
	}
}

// fakeNode serves the stake pool and system state from memory and records transactions.
type fakeNode struct {
	t          *testing.T
	poolFields map[string]any
	epoch      uint64
	dryStatus  string
	// onExecute, if set, is run for each submitted transaction to apply its effects.
	onExecute func(f *fakeNode)

	dryRuns  int
	executed int
}

func newFakeNode(t *testing.T) *fakeNode {
	return &fakeNode{t: t, poolFields: stakePoolFields(), epoch: 10, dryStatus: sui.ExecutionSuccess}
}

func (f *fakeNode) poolObject() *sui.ObjectResponse {
	raw, err := json.Marshal(f.poolFields)
	require.NoError(f.t, err)
	return &sui.ObjectResponse{Data: &sui.ObjectData{
		ObjectID: sui.NormalizeAddress(nodeTestIDs.PoolID),
		Version:  100,
		Digest:   zeroDigest,
		Type:     nodeTestIDs.StakePoolType(),
		Owner:    &sui.Owner{Kind: sui.OwnerShared, InitialSharedVersion: 4},
		Content: &sui.Content{
			DataType: sui.DataTypeMoveObject,
			Type:     nodeTestIDs.StakePoolType(),
			Fields:   raw,
		},
	}}
}

func (f *fakeNode) GetObject(_ context.Context, objectID string) (*sui.ObjectResponse, error) {
	if !sui.SameAddress(objectID, nodeTestIDs.PoolID) {
		return &sui.ObjectResponse{Error: &sui.ObjectResponseError{Code: "notExists", ObjectID: objectID}}, nil
	}
	return f.poolObject(), nil
}

func (f *fakeNode) MultiGetObjects(ctx context.Context, objectIDs []string) ([]sui.ObjectResponse, error) {
	out := make([]sui.ObjectResponse, len(objectIDs))
	for i, id := range objectIDs {
		obj, _ := f.GetObject(ctx, id)
		out[i] = *obj
	}
	return out, nil
}

func (f *fakeNode) ReferenceGasPrice(context.Context) (uint64, error) {
	return 1000, nil
}

func (f *fakeNode) AllCoins(_ context.Context, _, coinType string) ([]sui.Coin, error) {
	if coinType != sui.SuiCoinType {
		return nil, nil
	}
	return []sui.Coin{{CoinType: sui.SuiCoinType, CoinObjectID: "0xfee", Version: 1, Digest: zeroDigest, Balance: 5 * sui.MistPerSui}}, nil
}

func (f *fakeNode) GetBalance(_ context.Context, _, coinType string) (*sui.Balance, error) {
	return &sui.Balance{CoinType: coinType}, nil
}

func (f *fakeNode) OwnedObjects(context.Context, string, string) ([]sui.ObjectResponse, error) {
	return nil, nil
}

func (f *fakeNode) LatestSystemState(context.Context) (*sui.SystemStateSummary, error) {
	return &sui.SystemStateSummary{
		Epoch:                 sui.U64(f.epoch),
		EpochStartTimestampMs: sui.U64(time.Now().Add(-time.Hour).UnixMilli()),
		EpochDurationMs:       sui.U64((24 * time.Hour).Milliseconds()),
		ReferenceGasPrice:     1000,
	}, nil
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

func (f *fakeNode) Execute(context.Context, []byte, []string) (json.RawMessage, error) {
	f.executed++
	if f.onExecute != nil {
		f.onExecute(f)
	}
	return json.RawMessage(`{"digest":"done","effects":{"status":{"status":"success"}}}`), nil
}

func (f *fakeNode) Close() {}

// testApp is an app configured as the Before hooks would, against node.
func testApp(t *testing.T, node *fakeNode) (*LisuifyApp, *bytes.Buffer) {
	t.Helper()
	signer, err := sui.NewEd25519KeyPair(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	out := new(bytes.Buffer)
	return &LisuifyApp{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: out,
		client: node,
		ids:    nodeTestIDs,
		signer: signer,
	}, out
}
