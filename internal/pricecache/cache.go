// Package pricecache is a two-granularity (hour/day) USD price cache backed
// by a storage.PriceCacheStore. Every mutation is written through to the
// store; nothing is ever evicted except by Clear.
package pricecache

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/rs/zerolog"

	"algo-payout-lab/internal/storage"
)

//go:embed seed/algo_prices_2025.json
var defaultSeed []byte

// DefaultSeed returns the bundled day -> USD price dataset.
func DefaultSeed() (map[string]float64, error) {
	var seed map[string]float64
	if err := json.Unmarshal(defaultSeed, &seed); err != nil {
		return nil, fmt.Errorf("decode bundled seed: %w", err)
	}
	return seed, nil
}

// Cache holds hour- and day-bucket prices in one flat mapping.
// Safe for concurrent use; writes and persistence are serialized.
type Cache struct {
	mu      sync.Mutex
	entries map[string]float64
	store   storage.PriceCacheStore
	logger  zerolog.Logger

	seed    map[string]float64
	seedSet bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for absorbed load and seed problems.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithSeed replaces the bundled seed dataset (day "YYYY-MM-DD" -> price).
// A nil map disables seeding.
func WithSeed(seed map[string]float64) Option {
	return func(c *Cache) {
		c.seed = seed
		c.seedSet = true
	}
}

// New loads the persisted mapping, overlays the seed into the day namespace
// without overwriting existing keys, and persists the result.
//
// Missing or corrupt persisted data is treated as an empty cache.
// Only a failure to persist the initial state is returned.
func New(ctx context.Context, store storage.PriceCacheStore, opts ...Option) (*Cache, error) {
	c := &Cache{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.seedSet {
		seed, err := DefaultSeed()
		if err != nil {
			return nil, err
		}
		c.seed = seed
	}

	entries, err := store.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		entries = nil
	default:
		c.logger.Warn().Err(err).Msg("price cache unreadable, starting empty")
		entries = nil
	}
	if entries == nil {
		entries = make(map[string]float64)
	}
	c.entries = entries

	seeded := 0
	for day, price := range c.seed {
		key, err := DayKeyFromDate(day)
		if err != nil {
			c.logger.Warn().Err(err).Msg("skipping seed entry")
			continue
		}
		if _, exists := c.entries[key]; exists {
			continue
		}
		c.entries[key] = price
		seeded++
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.persistLocked(ctx); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("entries", len(c.entries)).Int("seeded", seeded).Msg("price cache ready")
	return c, nil
}

// LookupHour returns the cached price for the UTC hour containing ts.
func (c *Cache) LookupHour(ts int64) (float64, bool) {
	return c.lookup(HourKey(ts))
}

// LookupDay returns the cached price for the UTC day containing ts.
func (c *Cache) LookupDay(ts int64) (float64, bool) {
	return c.lookup(DayKey(ts))
}

func (c *Cache) lookup(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	return p, ok
}

// WriteHour stores price for the UTC hour containing ts and persists the cache.
// The in-memory entry is kept even when persisting fails.
func (c *Cache) WriteHour(ctx context.Context, ts int64, price float64) error {
	return c.write(ctx, HourKey(ts), price)
}

// WriteDay stores price for a YYYY-MM-DD day and persists the cache.
func (c *Cache) WriteDay(ctx context.Context, day string, price float64) error {
	key, err := DayKeyFromDate(day)
	if err != nil {
		return err
	}
	return c.write(ctx, key, price)
}

func (c *Cache) write(ctx context.Context, key string, price float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = price
	return c.persistLocked(ctx)
}

// Clear removes every entry, seed included, and persists the empty cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]float64)
	return c.persistLocked(ctx)
}

// Len returns the number of cached entries across both namespaces.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of all entries.
func (c *Cache) Snapshot() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.entries)
}

func (c *Cache) persistLocked(ctx context.Context) error {
	if err := c.store.Save(ctx, maps.Clone(c.entries)); err != nil {
		return fmt.Errorf("persist price cache: %w", err)
	}
	return nil
}
