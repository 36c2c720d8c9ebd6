package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"algo-payout-lab/internal/algorand"
	"algo-payout-lab/internal/app"
	"algo-payout-lab/internal/config"
	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/observability"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file")
	storageKind := flag.String("storage", "", "Storage backend: file, memory, postgres, clickhouse (overrides STORAGE)")
	dataDir := flag.String("data-dir", "", "Directory for file storage (overrides DATA_DIR)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	clearCache := flag.Bool("clear-price-cache", false, "Drop every cached price, seed included, before the run")
	logLevel := flag.String("log-level", "", "Log level (overrides LOG_LEVEL)")
	jsonLogs := flag.Bool("json-logs", false, "Emit JSON logs instead of console output")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, *storageKind, *dataDir, *postgresDSN, *clickhouseDSN, *logLevel, *useMemory)

	format := logger.FormatConsole
	if *jsonLogs {
		format = logger.FormatJSON
	}
	log := logger.New(cfg.LogLevel, format).With().Str("cmd", "ingest").Logger()

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			log.Info().Str("addr", *metricsAddr).Msg("starting metrics server")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			log.Warn().Str("signal", sig.String()).Msg("received signal, cancelling run")
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			log.Warn().Str("signal", sig.String()).Msg("received second signal, forcing exit")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn().Msg("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, log, *clearCache)
	close(done)

	if err != nil {
		var sfe *algorand.SourceFetchError
		if errors.As(err, &sfe) {
			log.Error().Int("status", sfe.Status).Str("account", sfe.Account).Msg("indexer rejected request")
		}
		log.Error().Err(err).Msg("ingest failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger, clearCache bool) error {
	a, err := app.New(ctx, cfg, log, app.Overrides{})
	if err != nil {
		return err
	}
	defer a.Close()

	if clearCache {
		if err := a.Cache.Clear(ctx); err != nil {
			return fmt.Errorf("clear price cache: %w", err)
		}
		log.Info().Msg("price cache cleared")
	}

	result, err := a.Orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	printReport(result.Transactions, result.Summary)
	return nil
}

func printReport(txs []domain.Transaction, s domain.Summary) {
	fmt.Printf("%-20s  %-12s  %14s  %10s  %12s\n", "TIME (UTC)", "SENDER", "ALGO", "USD/ALGO", "USD")
	for _, tx := range txs {
		price, value := "unknown", "unknown"
		if tx.HasPrice() {
			price = tx.Price.Decimal.StringFixed(4)
			value = tx.Value.Decimal.StringFixed(2)
		}
		fmt.Printf("%-20s  %-12s  %14s  %10s  %12s\n",
			time.Unix(tx.Time, 0).UTC().Format("2006-01-02 15:04:05"),
			shortAddress(tx.Sender),
			tx.Amount.StringFixed(6),
			price,
			value,
		)
	}
	fmt.Println()
	fmt.Printf("Transactions: %d (%d priced)\n", s.Count, s.Priced)
	fmt.Printf("Total ALGO:   %s\n", s.TotalAmount.StringFixed(6))
	fmt.Printf("Total USD:    %s\n", s.TotalValue.StringFixed(2))
	fmt.Printf("Avg USD/ALGO: %s\n", s.AverageRate.StringFixed(4))
}

func shortAddress(a string) string {
	if len(a) <= 12 {
		return a
	}
	return a[:5] + "..." + a[len(a)-4:]
}

func applyFlags(cfg *config.Config, storageKind, dataDir, postgresDSN, clickhouseDSN, logLevel string, useMemory bool) {
	if storageKind != "" {
		cfg.Storage = storageKind
	}
	if useMemory {
		cfg.Storage = config.StorageMemory
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if postgresDSN != "" {
		cfg.PostgresDSN = postgresDSN
	}
	if clickhouseDSN != "" {
		cfg.ClickhouseDSN = clickhouseDSN
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}
