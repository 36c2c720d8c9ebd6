package jsonfile

import (
	"context"
	"path/filepath"
	"sync"

	"algo-payout-lab/internal/storage"
)

// PriceCacheStore keeps the price cache in <dir>/price_cache.json.
type PriceCacheStore struct {
	mu   sync.Mutex
	path string
}

// NewPriceCacheStore creates a store rooted at dir.
func NewPriceCacheStore(dir string) *PriceCacheStore {
	return &PriceCacheStore{path: filepath.Join(dir, PriceCacheFile)}
}

// Load reads the mapping. Returns storage.ErrNotFound or storage.ErrCorrupt.
func (s *PriceCacheStore) Load(_ context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries map[string]float64
	if err := readJSON(s.path, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		// "null" on disk
		return nil, storage.ErrCorrupt
	}
	return entries, nil
}

// Save rewrites the file with entries.
func (s *PriceCacheStore) Save(_ context.Context, entries map[string]float64) error {
	if entries == nil {
		entries = map[string]float64{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(s.path, entries)
}

var _ storage.PriceCacheStore = (*PriceCacheStore)(nil)
