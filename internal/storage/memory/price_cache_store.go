package memory

import (
	"context"
	"maps"
	"sync"

	"algo-payout-lab/internal/storage"
)

// PriceCacheStore is an in-memory implementation of storage.PriceCacheStore.
type PriceCacheStore struct {
	mu      sync.Mutex
	entries map[string]float64 // nil until first Save
	saves   int
}

// NewPriceCacheStore creates an empty in-memory price cache store.
func NewPriceCacheStore() *PriceCacheStore {
	return &PriceCacheStore{}
}

// Load returns a copy of the saved mapping, or ErrNotFound before the first Save.
func (s *PriceCacheStore) Load(_ context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		return nil, storage.ErrNotFound
	}
	return maps.Clone(s.entries), nil
}

// Save replaces the stored mapping with a copy of entries.
func (s *PriceCacheStore) Save(_ context.Context, entries map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = maps.Clone(entries)
	if s.entries == nil {
		s.entries = make(map[string]float64)
	}
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *PriceCacheStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var _ storage.PriceCacheStore = (*PriceCacheStore)(nil)
