package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

func (a *API) handleGetWallet(w http.ResponseWriter, req *http.Request) error {
	addr, err := sui.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return BadRequest(err)
	}
	address := addr.String()

	if val, ok := a.wallets.Get(address); ok {
		entry := val.(cached[*lisuify.Portfolio])
		if a.now().Sub(entry.fetched) < a.ttl {
			return WriteJSON(w, entry.val)
		}
	}

	val, err := a.shared(req.Context(), "wallet:"+address, func(ctx context.Context) (any, error) {
		systemState, err := a.SystemState(ctx)
		if err != nil {
			return nil, err
		}
		portfolio, err := lisuify.GetPortfolio(ctx, a.node, a.ids, address, systemState)
		if err != nil {
			return nil, err
		}
		a.wallets.Add(address, cached[*lisuify.Portfolio]{val: portfolio, fetched: a.now()})
		return portfolio, nil
	})
	if err != nil {
		return err
	}
	return WriteJSON(w, val)
}
