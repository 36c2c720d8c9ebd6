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

	"algo-payout-lab/internal/api"
	"algo-payout-lab/internal/app"
	"algo-payout-lab/internal/config"
	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/orchestrator"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	storageKind := flag.String("storage", "", "Storage backend: file, memory, postgres, clickhouse (overrides STORAGE)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	refreshInterval := flag.Duration("refresh-interval", 0, "Scheduled refresh interval (overrides REFRESH_INTERVAL)")
	noInitialRun := flag.Bool("no-initial-run", false, "Skip the refresh at startup")
	jsonLogs := flag.Bool("json-logs", true, "Emit JSON logs")

	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *storageKind != "" {
		cfg.Storage = *storageKind
	}
	if *useMemory {
		cfg.Storage = config.StorageMemory
	}
	if *refreshInterval > 0 {
		cfg.RefreshInterval = *refreshInterval
	}

	format := logger.FormatConsole
	if *jsonLogs {
		format = logger.FormatJSON
	}
	log := logger.New(cfg.LogLevel, format).With().Str("cmd", "server").Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, !*noInitialRun); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger, initialRun bool) error {
	a, err := app.New(ctx, cfg, log, app.Overrides{})
	if err != nil {
		return err
	}
	defer a.Close()

	router := api.NewRouter(api.Deps{
		Store:  a.Transactions,
		Runner: a.Orchestrator,
		Cache:  a.Cache,
		Logger: log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go runScheduler(ctx, a.Orchestrator, cfg.RefreshInterval, initialRun, log)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runScheduler refreshes on a fixed interval until ctx is done.
func runScheduler(ctx context.Context, orch *orchestrator.Orchestrator, interval time.Duration, initialRun bool, log zerolog.Logger) {
	if initialRun {
		refresh(ctx, orch, log)
	}
	if interval <= 0 {
		return
	}

	log.Info().Dur("interval", interval).Msg("refresh scheduler started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh(ctx, orch, log)
		}
	}
}

// refresh runs one cycle. Run failures are logged by the orchestrator.
func refresh(ctx context.Context, orch *orchestrator.Orchestrator, log zerolog.Logger) {
	if _, err := orch.Run(ctx); errors.Is(err, orchestrator.ErrRunInProgress) {
		log.Info().Msg("refresh already running, skipping")
	}
}
