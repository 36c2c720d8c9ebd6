package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algo-payout-lab/internal/algorand"
	"algo-payout-lab/internal/config"
	"algo-payout-lab/internal/pricing"
	"algo-payout-lab/internal/storage/jsonfile"
	"algo-payout-lab/internal/storage/memory"
)

type emptyIndexer struct{}

func (emptyIndexer) SearchPayments(ctx context.Context, q algorand.PaymentQuery) (*algorand.PaymentPage, error) {
	return &algorand.PaymentPage{}, nil
}

type noPrice struct{}

func (noPrice) HistoricalUSD(ctx context.Context, ts int64) (pricing.Quote, error) {
	return pricing.Quote{Status: pricing.QuoteMissing}, nil
}

func TestNew_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = config.StorageMemory

	a, err := New(context.Background(), cfg, zerolog.Nop(), Overrides{Indexer: emptyIndexer{}, PriceSource: noPrice{}})
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.TransactionStore{}, a.Transactions)
	assert.IsType(t, &memory.PriceCacheStore{}, a.PriceStore)
	assert.Greater(t, a.Cache.Len(), 0, "seed loaded")

	res, err := a.Orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Summary.Count)
}

func TestNew_File(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	a, err := New(context.Background(), cfg, zerolog.Nop(), Overrides{Indexer: emptyIndexer{}, PriceSource: noPrice{}})
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &jsonfile.TransactionStore{}, a.Transactions)

	persisted, err := a.PriceStore.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Cache.Len(), len(persisted), "seeded cache persisted at startup")
}

func TestOpenReadOnly_DoesNotTouchPriceCache(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	a, err := OpenReadOnly(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Cache)
	assert.Nil(t, a.Orchestrator)

	loaded, err := a.Transactions.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)

	_, err = os.Stat(filepath.Join(cfg.DataDir, jsonfile.PriceCacheFile))
	assert.True(t, os.IsNotExist(err), "price cache file must not be created")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Senders = nil

	_, err := New(context.Background(), cfg, zerolog.Nop(), Overrides{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
