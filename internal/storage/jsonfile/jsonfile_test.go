package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/storage"
)

func TestTransactionStore_RoundTripKeepsPrice(t *testing.T) {
	dir := t.TempDir()
	store := NewTransactionStore(dir)
	ctx := context.Background()

	priced := domain.Transaction{ID: "A", Time: 100, Sender: "S", Amount: decimal.RequireFromString("12.5")}.
		WithPrice(decimal.RequireFromString("0.4"))
	unpriced := domain.Transaction{ID: "B", Time: 50, Sender: "S", Amount: decimal.NewFromInt(1)}

	require.NoError(t, store.ReplaceAll(ctx, []domain.Transaction{priced, unpriced}))

	// A fresh store instance reads what the first one wrote.
	loaded, err := NewTransactionStore(dir).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "B", loaded[0].ID)
	assert.False(t, loaded[0].HasPrice())
	assert.Equal(t, "A", loaded[1].ID)
	require.True(t, loaded[1].HasPrice())
	assert.True(t, loaded[1].Value.Decimal.Equal(decimal.RequireFromString("5")))
}

func TestTransactionStore_MissingFileIsEmpty(t *testing.T) {
	loaded, err := NewTransactionStore(t.TempDir()).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestTransactionStore_RejectsDuplicates(t *testing.T) {
	store := NewTransactionStore(t.TempDir())
	err := store.ReplaceAll(context.Background(), []domain.Transaction{{ID: "A"}, {ID: "A"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestPriceCacheStore_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewPriceCacheStore(dir)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, PriceCacheFile), []byte("{not json"), 0o644))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrCorrupt)

	require.NoError(t, os.WriteFile(filepath.Join(dir, PriceCacheFile), []byte("null"), 0o644))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrCorrupt)
}

func TestPriceCacheStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := NewPriceCacheStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]float64{"HOUR:1735689600": 0.35, "DAY:2025-01-01": 0.3}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"HOUR:1735689600": 0.35, "DAY:2025-01-01": 0.3}, loaded)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
