package storage

import (
	"context"

	"algo-payout-lab/internal/domain"
)

// TransactionStore persists the merged, enriched payment dataset.
type TransactionStore interface {
	// LoadAll returns the persisted dataset ordered by time ASC.
	// Returns an empty slice (not ErrNotFound) when nothing was stored yet.
	LoadAll(ctx context.Context) ([]domain.Transaction, error)

	// ReplaceAll atomically replaces the whole dataset.
	// Returns ErrInvalidInput if txs contains an empty or duplicate ID.
	ReplaceAll(ctx context.Context, txs []domain.Transaction) error
}

// PriceCacheStore persists the flat price cache mapping (key -> USD price).
type PriceCacheStore interface {
	// Load returns the persisted mapping.
	// Returns ErrNotFound if nothing was persisted, ErrCorrupt if the data is unreadable.
	Load(ctx context.Context) (map[string]float64, error)

	// Save overwrites the persisted mapping with entries.
	Save(ctx context.Context, entries map[string]float64) error
}
