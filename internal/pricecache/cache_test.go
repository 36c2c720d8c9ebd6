package pricecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algo-payout-lab/internal/storage"
	"algo-payout-lab/internal/storage/memory"
)

// 2025-01-01T10:37:12Z
var tsInJan1 = time.Date(2025, 1, 1, 10, 37, 12, 0, time.UTC).Unix()

func TestKeys(t *testing.T) {
	assert.Equal(t, "HOUR:1735725600", HourKey(tsInJan1)) // 10:00:00Z
	assert.Equal(t, "DAY:2025-01-01", DayKey(tsInJan1))
	assert.Equal(t, HourKey(tsInJan1), HourKey(tsInJan1-12*60-12), "same hour, same key")
	assert.NotEqual(t, HourKey(tsInJan1), HourKey(tsInJan1+3600))

	key, err := DayKeyFromDate("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, "DAY:2025-01-01", key)

	_, err = DayKeyFromDate("01/01/2025")
	assert.Error(t, err)
}

func TestNew_SeedsDayBucketAndPersists(t *testing.T) {
	store := memory.NewPriceCacheStore()
	ctx := context.Background()

	c, err := New(ctx, store, WithSeed(map[string]float64{"2025-01-01": 0.30}))
	require.NoError(t, err)

	p, ok := c.LookupDay(tsInJan1)
	require.True(t, ok)
	assert.Equal(t, 0.30, p)

	_, ok = c.LookupHour(tsInJan1)
	assert.False(t, ok, "seed must not populate the hour bucket")

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"DAY:2025-01-01": 0.30}, persisted)
}

func TestNew_SeedNeverOverwritesExisting(t *testing.T) {
	store := memory.NewPriceCacheStore()
	ctx := context.Background()

	_, err := New(ctx, store, WithSeed(map[string]float64{"2025-01-01": 0.30}))
	require.NoError(t, err)

	// Second construction with a different seed value for the same day.
	c, err := New(ctx, store, WithSeed(map[string]float64{"2025-01-01": 0.99, "2025-01-02": 0.31}))
	require.NoError(t, err)

	p, ok := c.LookupDay(tsInJan1)
	require.True(t, ok)
	assert.Equal(t, 0.30, p)

	p, ok = c.LookupDay(tsInJan1 + 24*3600)
	require.True(t, ok)
	assert.Equal(t, 0.31, p, "new seed days are still added")
}

func TestNew_SeedKeepsPersistedDayWrite(t *testing.T) {
	store := memory.NewPriceCacheStore()
	ctx := context.Background()

	c, err := New(ctx, store, WithSeed(nil))
	require.NoError(t, err)
	require.NoError(t, c.WriteDay(ctx, "2025-01-01", 0.50))

	c, err = New(ctx, store, WithSeed(map[string]float64{"2025-01-01": 0.30}))
	require.NoError(t, err)

	p, _ := c.LookupDay(tsInJan1)
	assert.Equal(t, 0.50, p)
}

func TestWriteHour_DoesNotTouchDayBucket(t *testing.T) {
	store := memory.NewPriceCacheStore()
	ctx := context.Background()

	c, err := New(ctx, store, WithSeed(map[string]float64{"2025-01-01": 0.30}))
	require.NoError(t, err)

	require.NoError(t, c.WriteHour(ctx, tsInJan1, 0.42))

	hour, ok := c.LookupHour(tsInJan1)
	require.True(t, ok)
	assert.Equal(t, 0.42, hour)

	day, ok := c.LookupDay(tsInJan1)
	require.True(t, ok)
	assert.Equal(t, 0.30, day)

	// Write-through: the store already has the hour entry.
	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.42, persisted[HourKey(tsInJan1)])
	assert.Equal(t, 2, store.Saves(), "one save at construction, one per write")
}

func TestNew_CorruptStoreTreatedAsEmpty(t *testing.T) {
	store := &failingLoadStore{PriceCacheStore: memory.NewPriceCacheStore(), loadErr: storage.ErrCorrupt}
	ctx := context.Background()

	c, err := New(ctx, store, WithSeed(map[string]float64{"2025-01-01": 0.30}))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestNew_PersistFailureReturned(t *testing.T) {
	errDisk := errors.New("disk full")
	store := &failingSaveStore{PriceCacheStore: memory.NewPriceCacheStore(), saveErr: errDisk}

	_, err := New(context.Background(), store, WithSeed(nil))
	assert.ErrorIs(t, err, errDisk)
}

func TestWriteDay_InvalidDay(t *testing.T) {
	c, err := New(context.Background(), memory.NewPriceCacheStore(), WithSeed(nil))
	require.NoError(t, err)

	assert.Error(t, c.WriteDay(context.Background(), "not-a-day", 1))
	assert.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	store := memory.NewPriceCacheStore()
	ctx := context.Background()

	c, err := New(ctx, store, WithSeed(map[string]float64{"2025-01-01": 0.30}))
	require.NoError(t, err)
	require.NoError(t, c.WriteHour(ctx, tsInJan1, 0.42))

	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, 0, c.Len())
	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestDefaultSeed(t *testing.T) {
	seed, err := DefaultSeed()
	require.NoError(t, err)
	require.NotEmpty(t, seed)

	for day := range seed {
		_, err := DayKeyFromDate(day)
		assert.NoError(t, err, "seed day %s", day)
	}

	c, err := New(context.Background(), memory.NewPriceCacheStore())
	require.NoError(t, err)
	assert.Equal(t, len(seed), c.Len())
}

type failingLoadStore struct {
	storage.PriceCacheStore
	loadErr error
}

func (s *failingLoadStore) Load(context.Context) (map[string]float64, error) {
	return nil, s.loadErr
}

type failingSaveStore struct {
	storage.PriceCacheStore
	saveErr error
}

func (s *failingSaveStore) Save(context.Context, map[string]float64) error {
	return s.saveErr
}
