// Package orchestrator runs one ingestion cycle.
// It coordinates: load → aggregate → enrich → persist → summarize
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/ingestion"
	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/observability"
	"algo-payout-lab/internal/storage"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("run already in progress")

// Aggregator produces the merged dataset from the previous one.
type Aggregator interface {
	Run(ctx context.Context, previous []domain.Transaction) (*ingestion.AggregateResult, error)
}

// Enricher attaches prices to transactions.
type Enricher interface {
	Enrich(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error)
}

// Orchestrator coordinates one ingestion run at a time.
type Orchestrator struct {
	store      storage.TransactionStore
	aggregator Aggregator
	enricher   Enricher
	logger     zerolog.Logger
	now        func() time.Time

	runMu sync.Mutex // held for the duration of a run

	mu   sync.Mutex
	last *RunResult
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Store      storage.TransactionStore
	Aggregator Aggregator
	Enricher   Enricher

	// Optional
	Logger *zerolog.Logger
	Now    func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:      opts.Store,
		aggregator: opts.Aggregator,
		enricher:   opts.Enricher,
		logger:     logger,
		now:        now,
	}
}

// RunResult contains results from one run.
type RunResult struct {
	RunID        uuid.UUID            `json:"run_id"`
	StartedAt    time.Time            `json:"started_at"`
	Duration     time.Duration        `json:"duration_ns"`
	Previous     int                  `json:"previous"`
	Fetched      int                  `json:"fetched"`
	Pages        int                  `json:"pages"`
	Watermark    time.Time            `json:"watermark"`
	Transactions []domain.Transaction `json:"-"`
	Summary      domain.Summary       `json:"summary"`
}

// Run executes one cycle.
// Phases:
//  1. Load the previously persisted dataset
//  2. Aggregate (fetch, merge, dedup, sort, cap)
//  3. Enrich with historical prices
//  4. Replace the persisted dataset
//
// A failure in any phase leaves the persisted dataset untouched.
// Returns ErrRunInProgress if another run holds the lock.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if !o.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.runMu.Unlock()

	result := &RunResult{
		RunID:     uuid.New(),
		StartedAt: o.now().UTC(),
	}
	log := o.logger.With().Str("run_id", result.RunID.String()).Logger()
	ctx = logger.WithContext(ctx, log)
	start := time.Now()

	res, err := o.run(ctx, log, result)
	result.Duration = time.Since(start)
	if err != nil {
		observability.RecordRun("failure", result.StartedAt.Unix(), 0, 0)
		log.Error().Err(err).Dur("duration", result.Duration).Msg("run failed")
		return nil, err
	}

	observability.RecordRun("success", result.StartedAt.Unix(), len(res.Transactions), res.Summary.Priced)
	log.Info().
		Int("transactions", res.Summary.Count).
		Int("priced", res.Summary.Priced).
		Str("total_algo", res.Summary.TotalAmount.String()).
		Str("total_usd", res.Summary.TotalValue.StringFixed(2)).
		Dur("duration", result.Duration).
		Msg("run completed")

	o.mu.Lock()
	o.last = res
	o.mu.Unlock()
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, log zerolog.Logger, result *RunResult) (*RunResult, error) {
	// Phase 1: Load
	phase := time.Now()
	previous, err := o.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load dataset) failed: %w", err)
	}
	result.Previous = len(previous)
	observability.RecordPhase("load", time.Since(phase).Seconds())
	log.Debug().Int("previous", len(previous)).Msg("dataset loaded")

	// Phase 2: Aggregate
	phase = time.Now()
	agg, err := o.aggregator.Run(ctx, previous)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (aggregate) failed: %w", err)
	}
	result.Fetched = agg.Fetched
	result.Pages = agg.Pages
	result.Watermark = agg.Watermark
	observability.RecordPhase("aggregate", time.Since(phase).Seconds())

	// Phase 3: Enrich
	phase = time.Now()
	enriched, err := o.enricher.Enrich(ctx, agg.Transactions)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (enrich) failed: %w", err)
	}
	observability.RecordPhase("enrich", time.Since(phase).Seconds())

	// Phase 4: Persist
	phase = time.Now()
	if err := o.store.ReplaceAll(ctx, enriched); err != nil {
		return nil, fmt.Errorf("phase 4 (persist) failed: %w", err)
	}
	observability.RecordPhase("persist", time.Since(phase).Seconds())

	result.Transactions = enriched
	result.Summary = domain.Summarize(enriched)
	return result, nil
}

// Last returns the most recent successful run, or nil.
func (o *Orchestrator) Last() *RunResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
