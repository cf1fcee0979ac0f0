// Package api serves read-only stake pool and wallet data, plus unsigned transactions for browser
// wallets to sign, for the web dashboard.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/lisuify/lisuify/internal/lib/lisuify"
	"github.com/lisuify/lisuify/internal/lib/sui"
)

// Node is the set of full node queries the api needs.
type Node interface {
	sui.Resolver
	lisuify.ObjectFetcher
	GetBalance(ctx context.Context, owner, coinType string) (*sui.Balance, error)
	OwnedObjects(ctx context.Context, owner, structType string) ([]sui.ObjectResponse, error)
	LatestSystemState(ctx context.Context) (*sui.SystemStateSummary, error)
}

type Options struct {
	// AllowedOrigins is a comma separated list of CORS origins, "*" for any.
	AllowedOrigins string
	// StateTTL is how long pool and system state are reused between requests.
	StateTTL time.Duration
	// WalletCacheSize is the number of wallet portfolios kept for StateTTL.
	WalletCacheSize int
	// LoadTimeout bounds a node query shared by concurrent requests.
	LoadTimeout time.Duration
}

type API struct {
	logger      *slog.Logger
	node        Node
	ids         lisuify.IDs
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time

	loads   singleflight.Group
	wallets *lru.Cache

	sync.Mutex
	pool        cached[*lisuify.StakePool]
	systemState cached[*sui.SystemStateSummary]
}

type cached[T any] struct {
	val     T
	fetched time.Time
}

func New(logger *slog.Logger, node Node, ids lisuify.IDs, opts Options) *API {
	if opts.StateTTL <= 0 {
		opts.StateTTL = 30 * time.Second
	}
	if opts.WalletCacheSize <= 0 {
		opts.WalletCacheSize = 1000
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 20 * time.Second
	}
	wallets, err := lru.New(opts.WalletCacheSize)
	if err != nil {
		// lru.New only fails for a size less than 1
		panic(fmt.Errorf("failed to create wallet cache: %w", err))
	}
	return &API{
		logger:      logger,
		node:        node,
		ids:         ids,
		ttl:         opts.StateTTL,
		loadTimeout: opts.LoadTimeout,
		now:         time.Now,
		wallets:     wallets,
	}
}

// Mount adds the api routes under pathPrefix.
func (a *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/pool").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(a.handleGetPool))
	sub.Path("/stats").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(a.handleGetStats))
	sub.Path("/wallet/{address}").Methods(http.MethodGet).HandlerFunc(WrapHandlerFunc(a.handleGetWallet))
	sub.Path("/tx/deposit-sui").Methods(http.MethodPost).HandlerFunc(WrapHandlerFunc(a.handleDepositSui))
	sub.Path("/tx/deposit-stake").Methods(http.MethodPost).HandlerFunc(WrapHandlerFunc(a.handleDepositStake))
	sub.Path("/tx/withdraw").Methods(http.MethodPost).HandlerFunc(WrapHandlerFunc(a.handleWithdraw))
}

// Handler returns the full http handler: the api under /api, prometheus metrics under /metrics,
// wrapped with compression and CORS.
func (a *API) Handler(allowedOrigins string) http.Handler {
	origins := strings.Split(strings.TrimSpace(allowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	a.Mount(router, "/api")
	router.Path("/metrics").Handler(promhttp.Handler())
	router.Use(cacheable)

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.MaxAge(86400),
	)(handler)
	return handler
}

// Pool returns the stake pool, reloading it once older than the state ttl.  Concurrent reloads
// share one fetch.
func (a *API) Pool(ctx context.Context) (*lisuify.StakePool, error) {
	a.Lock()
	if a.pool.val != nil && a.now().Sub(a.pool.fetched) < a.ttl {
		defer a.Unlock()
		return a.pool.val, nil
	}
	a.Unlock()

	val, err := a.shared(ctx, "pool", func(ctx context.Context) (any, error) {
		pool, err := lisuify.Load(ctx, a.node, a.ids)
		if err != nil {
			return nil, err
		}
		a.Lock()
		a.pool = cached[*lisuify.StakePool]{val: pool, fetched: a.now()}
		a.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*lisuify.StakePool), nil
}

// SystemState returns the latest sui system state, cached like Pool.
func (a *API) SystemState(ctx context.Context) (*sui.SystemStateSummary, error) {
	a.Lock()
	if a.systemState.val != nil && a.now().Sub(a.systemState.fetched) < a.ttl {
		defer a.Unlock()
		return a.systemState.val, nil
	}
	a.Unlock()

	val, err := a.shared(ctx, "system", func(ctx context.Context) (any, error) {
		state, err := a.node.LatestSystemState(ctx)
		if err != nil {
			return nil, err
		}
		a.Lock()
		a.systemState = cached[*sui.SystemStateSummary]{val: state, fetched: a.now()}
		a.Unlock()
		return state, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*sui.SystemStateSummary), nil
}

// shared runs load once for all concurrent callers of key.  The load outlives the caller that
// started it, up to the load timeout, while each caller stops waiting once its own ctx is done.
func (a *API) shared(ctx context.Context, key string, load func(ctx context.Context) (any, error)) (any, error) {
	results := a.loads.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.loadTimeout)
		defer cancel()
		return load(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		return res.Val, res.Err
	}
}

// Serve runs an http server for the api on listen until ctx is cancelled.
func (a *API) Serve(ctx context.Context, listen string, allowedOrigins string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           a.Handler(allowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("api listening", "addr", listen)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
