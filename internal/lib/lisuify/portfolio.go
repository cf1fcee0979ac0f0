package lisuify

import (
	"context"
	"fmt"

	"github.com/mailgun/holster/v4/syncutil"

	"github.com/lisuify/lisuify/internal/lib/sui"
)

type PortfolioClient interface {
	CoinLister
	GetBalance(ctx context.Context, owner, coinType string) (*sui.Balance, error)
	OwnedObjects(ctx context.Context, owner, structType string) ([]sui.ObjectResponse, error)
}

// StakedPosition is a StakedSui object, with its validator when known.
type StakedPosition struct {
	sui.StakedSui
	ValidatorName    string `json:"validatorName,omitempty"`
	ValidatorAddress string `json:"validatorAddress,omitempty"`
}

// Portfolio is what a wallet holds that's relevant to the pool.
type Portfolio struct {
	Address      string           `json:"address"`
	SuiBalance   sui.U64          `json:"suiBalance"`
	TokenBalance sui.U64          `json:"tokenBalance"`
	TokenCoins   []sui.Coin       `json:"tokenCoins"`
	Staked       []StakedPosition `json:"staked"`
}

// GetPortfolio fetches the SUI balance, liquid token coins and StakedSui objects of address in
// parallel.  systemState (optional) names the validators of staked positions.
func GetPortfolio(ctx context.Context, client PortfolioClient, ids IDs, address string, systemState *sui.SystemStateSummary) (*Portfolio, error) {
	var (
		portfolio = &Portfolio{Address: sui.NormalizeAddress(address)}
		fanOut    = syncutil.NewFanOut(3)
	)
	fanOut.Run(func(val any) error {
		balance, err := client.GetBalance(ctx, val.(string), sui.SuiCoinType)
		if err != nil {
			return err
		}
		portfolio.SuiBalance = balance.TotalBalance
		return nil
	}, address)
	fanOut.Run(func(val any) error {
		coins, err := TokenCoins(ctx, client, ids, val.(string))
		if err != nil {
			return err
		}
		portfolio.TokenCoins = coins
		for _, coin := range coins {
			portfolio.TokenBalance += coin.Balance
		}
		return nil
	}, address)
	fanOut.Run(func(val any) error {
		objects, err := client.OwnedObjects(ctx, val.(string), sui.StakedSuiType)
		if err != nil {
			return err
		}
		for _, obj := range objects {
			if obj.Data == nil {
				continue
			}
			staked, err := sui.ParseStakedSui(obj)
			if err != nil {
				return err
			}
			position := StakedPosition{StakedSui: staked}
			if systemState != nil {
				if v, found := systemState.ValidatorByPoolID(staked.PoolID); found {
					position.ValidatorName, position.ValidatorAddress = v.Name, v.SuiAddress
				}
			}
			portfolio.Staked = append(portfolio.Staked, position)
		}
		return nil
	}, address)

	if errs := fanOut.Wait(); len(errs) > 0 {
		return nil, fmt.Errorf("unable to fetch portfolio of %s: %w", address, errs[0])
	}
	return portfolio, nil
}
