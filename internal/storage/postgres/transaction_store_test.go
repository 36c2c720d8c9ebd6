package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/storage"
)

func TestTransactionStore_ReplaceAllAndLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	txs := []domain.Transaction{
		domain.Transaction{ID: "B", Time: 200, Sender: "S1", Amount: decimal.RequireFromString("5")}.
			WithPrice(decimal.RequireFromString("0.31")),
		{ID: "A", Time: 100, Sender: "S2", Amount: decimal.RequireFromString("12.000001")},
	}

	require.NoError(t, store.ReplaceAll(ctx, txs))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "A", loaded[0].ID)
	assert.Equal(t, int64(100), loaded[0].Time)
	assert.Equal(t, "S2", loaded[0].Sender)
	assert.True(t, loaded[0].Amount.Equal(decimal.RequireFromString("12.000001")))
	assert.False(t, loaded[0].Price.Valid)
	assert.False(t, loaded[0].Value.Valid)

	assert.Equal(t, "B", loaded[1].ID)
	require.True(t, loaded[1].Price.Valid)
	assert.True(t, loaded[1].Price.Decimal.Equal(decimal.RequireFromString("0.31")))
	assert.True(t, loaded[1].Value.Decimal.Equal(decimal.RequireFromString("1.55")))
}

func TestTransactionStore_ReplaceAllOverwrites(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, []domain.Transaction{{ID: "old", Time: 1, Amount: decimal.NewFromInt(1)}}))
	require.NoError(t, store.ReplaceAll(ctx, []domain.Transaction{{ID: "new", Time: 2, Amount: decimal.NewFromInt(2)}}))

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "new", loaded[0].ID)
}

func TestTransactionStore_InvalidInputKeepsData(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.ReplaceAll(ctx, []domain.Transaction{{ID: "keep", Time: 1, Amount: decimal.NewFromInt(1)}}))

	err := store.ReplaceAll(ctx, []domain.Transaction{{ID: "x"}, {ID: "x"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	loaded, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "keep", loaded[0].ID)
}

func TestTransactionStore_EmptyTable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	loaded, err := NewTransactionStore(pool).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestPriceCacheStore_SaveAndLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceCacheStore(pool)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Save(ctx, map[string]float64{
		"DAY:2025-01-01":  0.30,
		"HOUR:1735689600": 0.3512,
	}))
	require.NoError(t, store.Save(ctx, map[string]float64{
		"DAY:2025-01-01": 0.30,
	}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"DAY:2025-01-01": 0.30}, loaded)
}
