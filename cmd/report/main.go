package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"algo-payout-lab/internal/app"
	"algo-payout-lab/internal/config"
	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/reporting"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", ".env", "Optional .env file")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	storageKind := flag.String("storage", "", "Storage backend: file, postgres, clickhouse (overrides STORAGE)")
	dataDir := flag.String("data-dir", "", "Directory for file storage (overrides DATA_DIR)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *storageKind != "" {
		cfg.Storage = *storageKind
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if cfg.Storage == config.StorageMemory {
		fmt.Fprintln(os.Stderr, "Error: memory storage holds no data between runs; use file, postgres or clickhouse")
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, logger.FormatConsole).With().Str("cmd", "report").Logger()

	a, err := app.OpenReadOnly(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening stores: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	report, err := reporting.NewGenerator(a.Transactions).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "PAYOUT_REPORT.md")
	csvPath := filepath.Join(*outputDir, "payouts.csv")

	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", mdPath, err)
		os.Exit(1)
	}
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Transactions)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", csvPath, err)
		os.Exit(1)
	}

	fmt.Println("Payout report generated successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}
