// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"algo-payout-lab/internal/algorand"
	"algo-payout-lab/internal/pricing"
)

// Storage backends.
const (
	StorageFile       = "file"
	StorageMemory     = "memory"
	StoragePostgres   = "postgres"
	StorageClickhouse = "clickhouse"
)

// DefaultSenders are the tracked payout accounts.
var DefaultSenders = []string{
	"37VPAD3CK7CDHRE4U3J75IE4HLFN5ZWVKJ52YFNBX753NNDN6PUP2N7YKI",
	"44GWRTQGSAYUJJCQ3GFINYKZXMBDVKCF75VMCXKORN7ZJ6BKPNG2RMGH7E",
}

// Config holds all runtime settings.
type Config struct {
	IndexerURL  string
	PriceAPIURL string
	PriceAPIKey string
	Senders     []string

	StartTime time.Time
	EndTime   time.Time
	MaxRows   int
	PageSize  int

	PriceConcurrency int
	PriceMaxAttempts int
	PriceRetryDelay  time.Duration

	Storage       string
	DataDir       string
	PostgresDSN   string
	ClickhouseDSN string

	HTTPAddr        string
	RefreshInterval time.Duration
	LogLevel        string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		IndexerURL:       algorand.DefaultIndexerURL,
		PriceAPIURL:      pricing.DefaultBaseURL,
		Senders:          append([]string(nil), DefaultSenders...),
		StartTime:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxRows:          100,
		PageSize:         50,
		PriceConcurrency: 3,
		PriceMaxAttempts: 3,
		PriceRetryDelay:  time.Second,
		Storage:          StorageFile,
		DataDir:          "./data",
		HTTPAddr:         ":8080",
		RefreshInterval:  time.Hour,
		LogLevel:         "info",
	}
}

// Load reads .env files (missing files are ignored) and then the process
// environment on top of the defaults. Existing environment variables are
// never overridden by file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup on top of Default.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := parser{lookup: lookup}

	p.strVar("INDEXER_URL", &cfg.IndexerURL)
	p.strVar("PRICE_API_URL", &cfg.PriceAPIURL)
	p.strVar("PRICE_API_KEY", &cfg.PriceAPIKey)
	p.listVar("SENDERS", &cfg.Senders)
	p.timeVar("START_TIME", &cfg.StartTime)
	p.timeVar("END_TIME", &cfg.EndTime)
	p.intVar("MAX_ROWS", &cfg.MaxRows)
	p.intVar("PAGE_SIZE", &cfg.PageSize)
	p.intVar("PRICE_CONCURRENCY", &cfg.PriceConcurrency)
	p.intVar("PRICE_MAX_ATTEMPTS", &cfg.PriceMaxAttempts)
	p.durationVar("PRICE_RETRY_DELAY", &cfg.PriceRetryDelay)
	p.strVar("STORAGE", &cfg.Storage)
	p.strVar("DATA_DIR", &cfg.DataDir)
	p.strVar("POSTGRES_DSN", &cfg.PostgresDSN)
	p.strVar("CLICKHOUSE_DSN", &cfg.ClickhouseDSN)
	p.strVar("HTTP_ADDR", &cfg.HTTPAddr)
	p.durationVar("REFRESH_INTERVAL", &cfg.RefreshInterval)
	p.strVar("LOG_LEVEL", &cfg.LogLevel)

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	if len(c.Senders) == 0 {
		errs = append(errs, errors.New("SENDERS: at least one account is required"))
	}
	for _, s := range c.Senders {
		if _, err := algorand.ParseAddress(s); err != nil {
			errs = append(errs, fmt.Errorf("SENDERS: %s: %w", s, err))
		}
	}
	if !c.EndTime.After(c.StartTime) {
		errs = append(errs, errors.New("END_TIME must be after START_TIME"))
	}
	for name, v := range map[string]int{
		"MAX_ROWS":           c.MaxRows,
		"PAGE_SIZE":          c.PageSize,
		"PRICE_CONCURRENCY":  c.PriceConcurrency,
		"PRICE_MAX_ATTEMPTS": c.PriceMaxAttempts,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if c.PriceRetryDelay < 0 {
		errs = append(errs, errors.New("PRICE_RETRY_DELAY must not be negative"))
	}

	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required for file storage"))
		}
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for postgres storage"))
		}
	case StorageClickhouse:
		if c.ClickhouseDSN == "" {
			errs = append(errs, errors.New("CLICKHOUSE_DSN is required for clickhouse storage"))
		}
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required for the price cache with clickhouse storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE: unknown backend %q", c.Storage))
	}

	return errors.Join(errs...)
}

// RetryPolicy returns the price resolver retry policy.
func (c Config) RetryPolicy() pricing.RetryPolicy {
	return pricing.RetryPolicy{MaxAttempts: c.PriceMaxAttempts, BaseDelay: c.PriceRetryDelay}
}

// NonKeyAccounts returns senders whose address bytes are not an ed25519
// public key (multisig or logic-sig accounts).
func (c Config) NonKeyAccounts() []string {
	var out []string
	for _, s := range c.Senders {
		a, err := algorand.ParseAddress(s)
		if err == nil && !a.IsEd25519Key() {
			out = append(out, s)
		}
	}
	return out
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) strVar(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) listVar(key string, dst *[]string) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (p *parser) intVar(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (p *parser) durationVar(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (p *parser) timeVar(key string, dst *time.Time) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = t.UTC()
}
