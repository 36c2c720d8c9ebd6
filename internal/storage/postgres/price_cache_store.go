package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"algo-payout-lab/internal/storage"
)

// PriceCacheStore is a PostgreSQL implementation of storage.PriceCacheStore.
// The whole mapping lives in the price_cache table; Save rewrites it.
type PriceCacheStore struct {
	pool *Pool
}

// NewPriceCacheStore creates a new PostgreSQL price cache store.
func NewPriceCacheStore(pool *Pool) *PriceCacheStore {
	return &PriceCacheStore{pool: pool}
}

// Load returns the persisted mapping, or storage.ErrNotFound if the table is empty.
func (s *PriceCacheStore) Load(ctx context.Context) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, price FROM price_cache`)
	if err != nil {
		return nil, fmt.Errorf("query price cache: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]float64)
	for rows.Next() {
		var key string
		var price float64
		if err := rows.Scan(&key, &price); err != nil {
			return nil, fmt.Errorf("scan price cache row: %w", err)
		}
		entries[key] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price cache rows: %w", err)
	}

	if len(entries) == 0 {
		return nil, storage.ErrNotFound
	}
	return entries, nil
}

// Save replaces the table contents with entries using COPY.
func (s *PriceCacheStore) Save(ctx context.Context, entries map[string]float64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM price_cache`); err != nil {
			return fmt.Errorf("clear price cache: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}

		rows := make([][]any, 0, len(entries))
		for key, price := range entries {
			rows = append(rows, []any{key, price})
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"price_cache"},
			[]string{"key", "price"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy price cache: %w", err)
		}
		return nil
	})
}

var _ storage.PriceCacheStore = (*PriceCacheStore)(nil)
