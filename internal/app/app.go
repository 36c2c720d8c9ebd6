// Package app wires configuration into stores, clients and the orchestrator.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"algo-payout-lab/internal/algorand"
	"algo-payout-lab/internal/config"
	"algo-payout-lab/internal/enrichment"
	"algo-payout-lab/internal/ingestion"
	"algo-payout-lab/internal/observability"
	"algo-payout-lab/internal/orchestrator"
	"algo-payout-lab/internal/pricecache"
	"algo-payout-lab/internal/pricing"
	"algo-payout-lab/internal/storage"
	chstore "algo-payout-lab/internal/storage/clickhouse"
	"algo-payout-lab/internal/storage/jsonfile"
	"algo-payout-lab/internal/storage/memory"
	"algo-payout-lab/internal/storage/migrations"
	pgstore "algo-payout-lab/internal/storage/postgres"
)

// App holds the wired components for one process.
type App struct {
	Config       config.Config
	Logger       zerolog.Logger
	Transactions storage.TransactionStore
	PriceStore   storage.PriceCacheStore
	Cache        *pricecache.Cache
	Orchestrator *orchestrator.Orchestrator

	closers []func()
}

// Overrides replaces network clients; nil fields use the configured HTTP clients.
type Overrides struct {
	Indexer     algorand.Indexer
	PriceSource pricing.Source
}

// New validates cfg and builds every component.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, ov Overrides) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for _, acct := range cfg.NonKeyAccounts() {
		logger.Warn().Str("account", acct).Msg("sender is not a single-key account")
	}

	a := &App{Config: cfg, Logger: logger}

	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}

	cache, err := pricecache.New(ctx, a.PriceStore, pricecache.WithLogger(logger.With().Str("component", "pricecache").Logger()))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init price cache: %w", err)
	}
	a.Cache = cache
	observability.UpdateCacheEntries(cache.Len())

	indexer := ov.Indexer
	if indexer == nil {
		indexer = algorand.NewHTTPClient(cfg.IndexerURL)
	}
	source := ov.PriceSource
	if source == nil {
		source = pricing.NewClient(cfg.PriceAPIURL, pricing.WithAPIKey(cfg.PriceAPIKey))
	}

	aggLogger := logger.With().Str("component", "ingestion").Logger()
	agg := ingestion.NewAggregator(ingestion.AggregatorOptions{
		Indexer:   indexer,
		Accounts:  cfg.Senders,
		StartTime: cfg.StartTime,
		EndTime:   cfg.EndTime,
		MaxRows:   cfg.MaxRows,
		PageSize:  cfg.PageSize,
		Logger:    &aggLogger,
	})

	resolver := pricing.NewResolver(cache, source,
		pricing.WithRetryPolicy(cfg.RetryPolicy()),
		pricing.WithLogger(logger.With().Str("component", "pricing").Logger()),
	)

	enrLogger := logger.With().Str("component", "enrichment").Logger()
	enr := enrichment.New(enrichment.Options{
		Resolver:    resolver,
		Concurrency: cfg.PriceConcurrency,
		Logger:      &enrLogger,
	})

	a.Orchestrator = orchestrator.New(orchestrator.Options{
		Store:      a.Transactions,
		Aggregator: agg,
		Enricher:   enr,
		Logger:     &logger,
	})

	return a, nil
}

// OpenReadOnly validates cfg and opens the stores only. The price cache is
// not constructed, so nothing is seeded or written; Cache and Orchestrator
// stay nil.
func OpenReadOnly(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}
	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Storage {
	case config.StorageMemory:
		a.Transactions = memory.NewTransactionStore()
		a.PriceStore = memory.NewPriceCacheStore()

	case config.StorageFile:
		a.Transactions = jsonfile.NewTransactionStore(cfg.DataDir)
		a.PriceStore = jsonfile.NewPriceCacheStore(cfg.DataDir)

	case config.StoragePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool.Close)
		if err := migrations.RunPostgres(ctx, pool, a.Logger); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		a.Transactions = pgstore.NewTransactionStore(pool)
		a.PriceStore = pgstore.NewPriceCacheStore(pool)

	case config.StorageClickhouse:
		conn, err := migrations.RunClickhouse(ctx, cfg.ClickhouseDSN, a.Logger)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		a.Transactions = chstore.NewTransactionStore(conn)
		// ClickHouse has no cheap point updates; the cache stays on disk.
		a.PriceStore = jsonfile.NewPriceCacheStore(cfg.DataDir)

	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	a.Logger.Info().Str("storage", cfg.Storage).Msg("stores ready")
	return nil
}

// Close releases backend connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
