// Package api serves the enriched dataset over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"algo-payout-lab/internal/observability"
	"algo-payout-lab/internal/orchestrator"
	"algo-payout-lab/internal/storage"
)

// Runner triggers ingestion runs.
type Runner interface {
	Run(ctx context.Context) (*orchestrator.RunResult, error)
	Last() *orchestrator.RunResult
}

// PriceCache is the subset of the price cache exposed over HTTP.
type PriceCache interface {
	Clear(ctx context.Context) error
	Len() int
}

// Deps are the router dependencies.
type Deps struct {
	Store   storage.TransactionStore
	Runner  Runner
	Cache   PriceCache
	Logger  zerolog.Logger
	Timeout time.Duration // per-request timeout for read endpoints
}

// NewRouter builds the HTTP surface.
func NewRouter(d Deps) *chi.Mux {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.Timeout))
		r.Get("/transactions", GetTransactions(d.Store))
		r.Get("/transactions.csv", GetTransactionsCSV(d.Store))
		r.Get("/monthly", GetMonthly(d.Store))
		r.Get("/summary", GetSummary(d.Store))
		r.Get("/status", GetStatus(d.Runner, d.Cache))
		r.Delete("/price-cache", ClearPriceCache(d.Cache, d.Logger))
	})

	// Runs outlive the read timeout.
	r.Post("/refresh", Refresh(d.Runner, d.Logger))

	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Str("request_id", middleware.GetReqID(r.Context())).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
