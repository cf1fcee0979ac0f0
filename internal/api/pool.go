package api

import (
	"math/big"
	"net/http"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

type Validator struct {
	ValidatorPoolID      string `json:"validatorPoolId"`
	Address              string `json:"address,omitempty"`
	Name                 string `json:"name,omitempty"`
	IsActive             bool   `json:"isActive"`
	LastUpdateEpoch      string `json:"lastUpdateEpoch"`
	LastUpdateSuiBalance string `json:"lastUpdateSuiBalance"`
}

type Update struct {
	PendingSuiBalance string `json:"pendingSuiBalance"`
	UpdatingEpoch     string `json:"updatingEpoch"`
	UpdatedValidators string `json:"updatedValidators"`
}

// Pool is the stake pool snapshot, with amounts as decimal MIST strings.
type Pool struct {
	ID                    string      `json:"id"`
	LisuifyID             string      `json:"lisuifyId"`
	TokenType             string      `json:"tokenType"`
	TokenSupply           string      `json:"tokenSupply"`
	Fees                  string      `json:"fees"`
	FreshDepositFeeBpc    uint32      `json:"freshDepositFeeBpc"`
	WithdrawFeeBpc        uint32      `json:"withdrawFeeBpc"`
	RewardsFeeBpc         uint32      `json:"rewardsFeeBpc"`
	LastUpdateEpoch       string      `json:"lastUpdateEpoch"`
	LastUpdateSuiBalance  string      `json:"lastUpdateSuiBalance"`
	LastUpdateTokenSupply string      `json:"lastUpdateTokenSupply"`
	CurrentSuiBalance     string      `json:"currentSuiBalance"`
	Reserve               string      `json:"reserve"`
	StakingValidator      *string     `json:"stakingValidator"`
	Update                *Update     `json:"update"`
	Validators            []Validator `json:"validators"`
}

// Stats is the dashboard headline: total SUI staked through the pool and the token ratio.
type Stats struct {
	Epoch             uint64 `json:"epoch"`
	TotalSuiStaking   string `json:"totalSuiStaking"`
	TokenSupply       string `json:"tokenSupply"`
	ExchangeRatio     string `json:"exchangeRatio"`
	ValidatorCount    int    `json:"validatorCount"`
	NeedsUpdate       bool   `json:"needsUpdate"`
	EpochStartMs      uint64 `json:"epochStartMs"`
	EpochDurationMs   uint64 `json:"epochDurationMs"`
	ReferenceGasPrice uint64 `json:"referenceGasPrice"`
}

func (a *API) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	pool, err := a.Pool(req.Context())
	if err != nil {
		return err
	}
	// validator names are nice to have
	systemState, err := a.SystemState(req.Context())
	if err != nil {
		a.logger.Warn("unable to fetch system state", "error", err)
		systemState = nil
	}
	return WriteJSON(w, convertPool(pool, systemState))
}

func (a *API) handleGetStats(w http.ResponseWriter, req *http.Request) error {
	pool, err := a.Pool(req.Context())
	if err != nil {
		return err
	}
	systemState, err := a.SystemState(req.Context())
	if err != nil {
		return err
	}
	state := pool.State()
	stats := &Stats{
		Epoch:             uint64(systemState.Epoch),
		TotalSuiStaking:   bigString(state.CurrentSuiBalance),
		TokenSupply:       bigString(state.TokenSupply),
		ExchangeRatio:     "1",
		ValidatorCount:    len(state.Validators),
		NeedsUpdate:       pool.NeedsUpdate(uint64(systemState.Epoch)),
		EpochStartMs:      uint64(systemState.EpochStartTimestampMs),
		EpochDurationMs:   uint64(systemState.EpochDurationMs),
		ReferenceGasPrice: uint64(systemState.ReferenceGasPrice),
	}
	if ratio := pool.ExchangeRatio(); ratio != nil {
		stats.ExchangeRatio = ratio.FloatString(sui.SuiDecimals)
	}
	return WriteJSON(w, stats)
}

func convertPool(pool *lisuify.StakePool, systemState *sui.SystemStateSummary) *Pool {
	state := pool.State()
	ids := pool.IDs()
	out := &Pool{
		ID:                    state.ID,
		LisuifyID:             ids.LisuifyID,
		TokenType:             ids.TokenCoinType(),
		TokenSupply:           bigString(state.TokenSupply),
		Fees:                  bigString(state.Fees),
		FreshDepositFeeBpc:    state.FreshDepositFeeBpc,
		WithdrawFeeBpc:        state.WithdrawFeeBpc,
		RewardsFeeBpc:         state.RewardsFeeBpc,
		LastUpdateEpoch:       bigString(state.LastUpdateEpoch),
		LastUpdateSuiBalance:  bigString(state.LastUpdateSuiBalance),
		LastUpdateTokenSupply: bigString(state.LastUpdateTokenSupply),
		CurrentSuiBalance:     bigString(state.CurrentSuiBalance),
		Reserve:               bigString(state.Reserve),
		StakingValidator:      state.StakingValidator,
		Validators:            make([]Validator, 0, len(state.Validators)),
	}
	if state.Update != nil {
		out.Update = &Update{
			PendingSuiBalance: bigString(state.Update.PendingSuiBalance),
			UpdatingEpoch:     bigString(state.Update.UpdatingEpoch),
			UpdatedValidators: bigString(state.Update.UpdatedValidators),
		}
	}
	for _, entry := range state.Validators {
		v := Validator{
			ValidatorPoolID:      entry.ValidatorPoolID,
			IsActive:             entry.IsActive,
			LastUpdateEpoch:      bigString(entry.LastUpdateEpoch),
			LastUpdateSuiBalance: bigString(entry.LastUpdateSuiBalance),
		}
		if systemState != nil {
			if summary, found := systemState.ValidatorByPoolID(entry.ValidatorPoolID); found {
				v.Address, v.Name = summary.SuiAddress, summary.Name
			}
		}
		out.Validators = append(out.Validators, v)
	}
	return out
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
