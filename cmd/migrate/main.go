package main

import (
	"context"
	"flag"
	"os"
	"time"

	"algo-payout-lab/internal/config"
	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/storage/migrations"
	pgstore "algo-payout-lab/internal/storage/postgres"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides CLICKHOUSE_DSN)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")

	flag.Parse()

	log := logger.New("info", logger.FormatConsole).With().Str("cmd", "migrate").Logger()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.ClickhouseDSN = *clickhouseDSN
	}
	if cfg.PostgresDSN == "" && cfg.ClickhouseDSN == "" {
		log.Error().Msg("nothing to migrate: set --postgres-dsn and/or --clickhouse-dsn")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		err = migrations.RunPostgres(ctx, pool, log)
		pool.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres migrations failed")
		}
		log.Info().Msg("postgres migrations applied")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouse(ctx, cfg.ClickhouseDSN, log)
		if err != nil {
			log.Fatal().Err(err).Msg("clickhouse migrations failed")
		}
		conn.Close()
		log.Info().Msg("clickhouse migrations applied")
	}
}
