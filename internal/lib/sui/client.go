package sui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ssgreg/repeat"

	"github.com/lisuify/lisuify/internal/lib/misc"
)

const (
	// maximum coins fetched per suix_getCoins page
	coinPageLimit = 50

	queryMaxTries  = 3
	queryBaseDelay = 250 * time.Millisecond
	queryMaxDelay  = 2 * time.Second
)

// Client is a Sui full node JSON-RPC client.
type Client struct {
	rpc *rpc.Client
	log *slog.Logger
	url string
}

func Dial(ctx context.Context, log *slog.Logger, url string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sui node at:%s, error:%w", url, err)
	}
	misc.Debugf(log, "connected to sui node at:%s", url)
	return &Client{rpc: rpcClient, log: log, url: url}, nil
}

func (c *Client) URL() string {
	return c.url
}

func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// query performs a read-only call, retrying a bounded number of times with jitter.
func (c *Client) query(ctx context.Context, result any, method string, args ...any) error {
	return repeat.Repeat(
		repeat.Fn(func() error {
			err := c.rpc.CallContext(ctx, result, method, args...)
			if err != nil {
				var rpcErr rpc.Error
				if errors.As(err, &rpcErr) {
					// the node answered - retrying won't change the result
					return err
				}
				return repeat.HintTemporary(err)
			}
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(queryMaxTries),
		repeat.FnOnError(func(err error) error {
			misc.Debugf(c.log, "%s call failed, error:%v", method, err)
			return err
		}),
		repeat.WithDelay(
			repeat.SetContext(ctx),
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: queryBaseDelay,
				MaxDelay:  queryMaxDelay,
			}).Set(),
		),
	)
}

func (c *Client) GetObject(ctx context.Context, objectID string) (*ObjectResponse, error) {
	var resp ObjectResponse
	if err := c.query(ctx, &resp, "sui_getObject", NormalizeAddress(objectID), fullObjectOptions); err != nil {
		return nil, fmt.Errorf("sui_getObject %s: %w", objectID, err)
	}
	return &resp, nil
}

func (c *Client) MultiGetObjects(ctx context.Context, objectIDs []string) ([]ObjectResponse, error) {
	if len(objectIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(objectIDs))
	for i, id := range objectIDs {
		ids[i] = NormalizeAddress(id)
	}
	var resp []ObjectResponse
	if err := c.query(ctx, &resp, "sui_multiGetObjects", ids, fullObjectOptions); err != nil {
		return nil, fmt.Errorf("sui_multiGetObjects: %w", err)
	}
	if len(resp) != len(ids) {
		return nil, fmt.Errorf("sui_multiGetObjects returned %d objects, expected %d", len(resp), len(ids))
	}
	return resp, nil
}

func (c *Client) GetCoins(ctx context.Context, owner, coinType string, cursor *string, limit int) (*CoinPage, error) {
	var page CoinPage
	if err := c.query(ctx, &page, "suix_getCoins", NormalizeAddress(owner), coinType, cursor, limit); err != nil {
		return nil, fmt.Errorf("suix_getCoins owner:%s, type:%s: %w", owner, coinType, err)
	}
	return &page, nil
}

// AllCoins pages through every coin of coinType held by owner.
func (c *Client) AllCoins(ctx context.Context, owner, coinType string) ([]Coin, error) {
	var (
		coins  []Coin
		cursor *string
	)
	for {
		page, err := c.GetCoins(ctx, owner, coinType, cursor, coinPageLimit)
		if err != nil {
			return nil, err
		}
		coins = append(coins, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return coins, nil
		}
		cursor = page.NextCursor
	}
}

func (c *Client) GetBalance(ctx context.Context, owner, coinType string) (*Balance, error) {
	var balance Balance
	if err := c.query(ctx, &balance, "suix_getBalance", NormalizeAddress(owner), coinType); err != nil {
		return nil, fmt.Errorf("suix_getBalance owner:%s, type:%s: %w", owner, coinType, err)
	}
	return &balance, nil
}

func (c *Client) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	var price U64
	if err := c.query(ctx, &price, "suix_getReferenceGasPrice"); err != nil {
		return 0, fmt.Errorf("suix_getReferenceGasPrice: %w", err)
	}
	return uint64(price), nil
}

func (c *Client) LatestSystemState(ctx context.Context) (*SystemStateSummary, error) {
	var state SystemStateSummary
	if err := c.query(ctx, &state, "suix_getLatestSuiSystemState"); err != nil {
		return nil, fmt.Errorf("suix_getLatestSuiSystemState: %w", err)
	}
	return &state, nil
}

// OwnedObjects returns all objects of structType owned by owner, paging through the results.
func (c *Client) OwnedObjects(ctx context.Context, owner, structType string) ([]ObjectResponse, error) {
	var (
		objects []ObjectResponse
		cursor  *string
		query   = map[string]any{
			"filter":  map[string]string{"StructType": structType},
			"options": fullObjectOptions,
		}
	)
	for {
		var page ObjectsPage
		if err := c.query(ctx, &page, "suix_getOwnedObjects", NormalizeAddress(owner), query, cursor, coinPageLimit); err != nil {
			return nil, fmt.Errorf("suix_getOwnedObjects owner:%s: %w", owner, err)
		}
		objects = append(objects, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return objects, nil
		}
		cursor = page.NextCursor
	}
}

// DryRun simulates the BCS encoded transaction. It's never retried.
func (c *Client) DryRun(ctx context.Context, txBytes []byte) (*DryRunResponse, error) {
	var resp DryRunResponse
	if err := c.rpc.CallContext(ctx, &resp, "sui_dryRunTransactionBlock", base64.StdEncoding.EncodeToString(txBytes)); err != nil {
		return nil, fmt.Errorf("sui_dryRunTransactionBlock: %w", err)
	}
	return &resp, nil
}

// Execute submits the signed transaction, returning the node's response verbatim.
func (c *Client) Execute(ctx context.Context, txBytes []byte, signatures []string) (json.RawMessage, error) {
	var (
		resp    json.RawMessage
		options = map[string]bool{"showEffects": true}
	)
	err := c.rpc.CallContext(ctx, &resp, "sui_executeTransactionBlock",
		base64.StdEncoding.EncodeToString(txBytes), signatures, options, "WaitForLocalExecution")
	if err != nil {
		return nil, fmt.Errorf("sui_executeTransactionBlock: %w", err)
	}
	return resp, nil
}
