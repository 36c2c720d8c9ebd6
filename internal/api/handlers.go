package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"algo-payout-lab/internal/algorand"
	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/orchestrator"
	"algo-payout-lab/internal/reporting"
	"algo-payout-lab/internal/storage"
)

// GetTransactions returns the persisted dataset in stored order.
// An optional ?sender= filter restricts the result to one account.
func GetTransactions(store storage.TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := store.LoadAll(r.Context())
		if err != nil {
			http.Error(w, "failed to load transactions", http.StatusInternalServerError)
			return
		}

		if sender := r.URL.Query().Get("sender"); sender != "" {
			filtered := make([]domain.Transaction, 0, len(txs))
			for _, tx := range txs {
				if tx.Sender == sender {
					filtered = append(filtered, tx)
				}
			}
			txs = filtered
		}
		if txs == nil {
			txs = []domain.Transaction{}
		}

		writeJSON(w, http.StatusOK, txs)
	}
}

// GetSummary returns totals over the persisted dataset.
func GetSummary(store storage.TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := store.LoadAll(r.Context())
		if err != nil {
			http.Error(w, "failed to load transactions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, domain.Summarize(txs))
	}
}

// GetTransactionsCSV returns the persisted dataset as a CSV download.
func GetTransactionsCSV(store storage.TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := store.LoadAll(r.Context())
		if err != nil {
			http.Error(w, "failed to load transactions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="payouts.csv"`)
		w.Write([]byte(reporting.RenderCSV(txs)))
	}
}

// GetMonthly returns per-month totals over the persisted dataset.
func GetMonthly(store storage.TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txs, err := store.LoadAll(r.Context())
		if err != nil {
			http.Error(w, "failed to load transactions", http.StatusInternalServerError)
			return
		}
		rows := reporting.MonthlyTotals(txs)
		out := make([]monthResponse, 0, len(rows))
		for _, m := range rows {
			out = append(out, monthResponse{
				Month:       m.Month,
				Count:       m.Count,
				Priced:      m.Priced,
				TotalAmount: m.TotalAmount.String(),
				TotalValue:  m.TotalValue.String(),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type monthResponse struct {
	Month       string `json:"month"`
	Count       int    `json:"count"`
	Priced      int    `json:"priced"`
	TotalAmount string `json:"total_amount"`
	TotalValue  string `json:"total_value"`
}

type statusResponse struct {
	LastRun           *orchestrator.RunResult `json:"last_run"`
	PriceCacheEntries int                     `json:"price_cache_entries"`
}

// GetStatus reports the last successful run and the cache size.
func GetStatus(runner Runner, cache PriceCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{
			LastRun:           runner.Last(),
			PriceCacheEntries: cache.Len(),
		})
	}
}

// Refresh runs one ingestion cycle and returns its result.
// The run outlives the request: a client that disconnects does not cancel it.
func Refresh(runner Runner, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := runner.Run(context.WithoutCancel(r.Context()))
		if err != nil {
			var sfe *algorand.SourceFetchError
			switch {
			case errors.Is(err, orchestrator.ErrRunInProgress):
				http.Error(w, "run already in progress", http.StatusConflict)
			case errors.As(err, &sfe):
				http.Error(w, sfe.Error(), http.StatusBadGateway)
			default:
				logger.Error().Err(err).Msg("refresh failed")
				http.Error(w, "refresh failed", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ClearPriceCache drops every cached price, seed entries included.
func ClearPriceCache(cache PriceCache, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cache.Clear(r.Context()); err != nil {
			logger.Error().Err(err).Msg("clear price cache failed")
			http.Error(w, "failed to clear price cache", http.StatusInternalServerError)
			return
		}
		logger.Info().Msg("price cache cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
