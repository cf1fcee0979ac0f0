package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

type DepositSuiRequest struct {
	Sender string  `json:"sender"`
	Amount sui.U64 `json:"amount"`
}

type DepositStakeRequest struct {
	Sender  string `json:"sender"`
	StakeID string `json:"stakeId"`
}

type WithdrawRequest struct {
	Sender string  `json:"sender"`
	Amount sui.U64 `json:"amount"`
	// Sui withdraws straight to SUI rather than to StakedSui objects.
	Sui bool `json:"sui"`
}

// Transaction is an unsigned transaction for the sender's wallet to sign and submit.
type Transaction struct {
	TxBytes  string `json:"txBytes"`
	Commands int    `json:"commands"`
}

func (a *API) handleDepositSui(w http.ResponseWriter, req *http.Request) error {
	var body DepositSuiRequest
	if err := ParseJSON(req.Body, &body); err != nil {
		return BadRequest(fmt.Errorf("body: %w", err))
	}
	if body.Amount == 0 {
		return BadRequest(errors.New("amount: must be greater than 0"))
	}
	return a.buildTransaction(w, req, body.Sender, func(pool *lisuify.StakePool, tx *sui.Transaction) error {
		pool.DepositSui(tx, uint64(body.Amount))
		return nil
	})
}

func (a *API) handleDepositStake(w http.ResponseWriter, req *http.Request) error {
	var body DepositStakeRequest
	if err := ParseJSON(req.Body, &body); err != nil {
		return BadRequest(fmt.Errorf("body: %w", err))
	}
	if _, err := sui.ParseAddress(body.StakeID); err != nil {
		return BadRequest(fmt.Errorf("stakeId: %w", err))
	}
	return a.buildTransaction(w, req, body.Sender, func(pool *lisuify.StakePool, tx *sui.Transaction) error {
		pool.DepositStake(tx, body.StakeID)
		return nil
	})
}

func (a *API) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	var body WithdrawRequest
	if err := ParseJSON(req.Body, &body); err != nil {
		return BadRequest(fmt.Errorf("body: %w", err))
	}
	if body.Amount == 0 {
		return BadRequest(errors.New("amount: must be greater than 0"))
	}
	return a.buildTransaction(w, req, body.Sender, func(pool *lisuify.StakePool, tx *sui.Transaction) error {
		coins, err := lisuify.TokenCoins(req.Context(), a.node, a.ids, tx.Sender())
		if err != nil {
			return err
		}
		if body.Sui {
			return pool.WithdrawSui(tx, coins, uint64(body.Amount))
		}
		return pool.Withdraw(tx, coins, uint64(body.Amount))
	})
}

// buildTransaction assembles a transaction for sender with the current pool and responds with its
// BCS bytes.
func (a *API) buildTransaction(w http.ResponseWriter, req *http.Request, sender string,
	assemble func(pool *lisuify.StakePool, tx *sui.Transaction) error) error {
	if _, err := sui.ParseAddress(sender); err != nil {
		return BadRequest(fmt.Errorf("sender: %w", err))
	}
	pool, err := a.Pool(req.Context())
	if err != nil {
		return err
	}
	tx := sui.NewTransaction()
	tx.SetSender(sender)
	tx.SetGasBudget(lisuify.GasBudget)
	if err := assemble(pool, tx); err != nil {
		if errors.Is(err, lisuify.ErrNoFunds) {
			return BadRequest(err)
		}
		return err
	}
	txBytes, err := tx.Build(req.Context(), a.node)
	if err != nil {
		if errors.Is(err, sui.ErrNoGasCoins) || errors.Is(err, sui.ErrObjectNotFound) {
			return BadRequest(err)
		}
		return err
	}
	return WriteJSON(w, &Transaction{
		TxBytes:  base64.StdEncoding.EncodeToString(txBytes),
		Commands: len(tx.Commands()),
	})
}
