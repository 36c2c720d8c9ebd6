package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"algo-payout-lab/internal/algorand"
	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/observability"
)

// Aggregator fetches payments for a set of sender accounts and merges them
// into the previously known dataset.
type Aggregator struct {
	indexer   algorand.Indexer
	accounts  []string
	startTime time.Time
	endTime   time.Time
	maxRows   int
	pageSize  int
	logger    zerolog.Logger
}

// AggregatorOptions contains configuration for creating an Aggregator.
type AggregatorOptions struct {
	Indexer   algorand.Indexer
	Accounts  []string
	StartTime time.Time // watermark when there is no previous data
	EndTime   time.Time
	MaxRows   int // per-account fetch cap and output cap
	PageSize  int
	Logger    *zerolog.Logger
}

// Default aggregation values.
const (
	DefaultMaxRows  = 100
	DefaultPageSize = 50
)

// NewAggregator creates a new aggregator.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Aggregator{
		indexer:   opts.Indexer,
		accounts:  opts.Accounts,
		startTime: opts.StartTime,
		endTime:   opts.EndTime,
		maxRows:   maxRows,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// AggregateResult contains the merged dataset and fetch statistics.
type AggregateResult struct {
	Transactions []domain.Transaction
	Watermark    time.Time
	Fetched      int
	Pages        int
	PerAccount   map[string]int
	Duration     time.Duration
}

// Aggregate returns the merged, deduplicated, time-ordered and capped dataset.
func (a *Aggregator) Aggregate(ctx context.Context, previous []domain.Transaction) ([]domain.Transaction, error) {
	res, err := a.Run(ctx, previous)
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

// Run is Aggregate with statistics.
// Any indexer failure aborts the whole run and no partial data is returned.
func (a *Aggregator) Run(ctx context.Context, previous []domain.Transaction) (*AggregateResult, error) {
	start := time.Now()
	log := logger.FromContextOr(ctx, &a.logger)
	watermark := time.Unix(domain.MaxTime(previous, a.startTime.Unix()), 0).UTC()

	result := &AggregateResult{
		Watermark:  watermark,
		PerAccount: make(map[string]int, len(a.accounts)),
	}

	log.Info().
		Time("watermark", watermark).
		Time("end", a.endTime).
		Int("accounts", len(a.accounts)).
		Int("previous", len(previous)).
		Msg("aggregation started")

	var fetched []domain.Transaction
	for _, account := range a.accounts {
		txs, pages, err := a.fetchAccount(ctx, account, watermark)
		if err != nil {
			var sfe *algorand.SourceFetchError
			if errors.As(err, &sfe) {
				observability.RecordSourceFetchError(sfe.StatusLabel())
			}
			return nil, fmt.Errorf("fetch account %s: %w", account, err)
		}
		result.PerAccount[account] = len(txs)
		result.Pages += pages
		fetched = append(fetched, txs...)

		log.Debug().Str("account", account).Int("records", len(txs)).Int("pages", pages).Msg("account fetched")
	}

	result.Fetched = len(fetched)
	result.Transactions = Merge(previous, fetched, a.maxRows)
	result.Duration = time.Since(start)

	log.Info().
		Int("fetched", result.Fetched).
		Int("merged", len(result.Transactions)).
		Dur("duration", result.Duration).
		Msg("aggregation finished")

	return result, nil
}

// fetchAccount follows the continuation cursor until there is no cursor,
// an empty page, or the cap is reached. Records beyond the cap are dropped.
func (a *Aggregator) fetchAccount(ctx context.Context, account string, watermark time.Time) ([]domain.Transaction, int, error) {
	var (
		out   []domain.Transaction
		next  string
		pages int
	)

	for len(out) < a.maxRows {
		page, err := a.indexer.SearchPayments(ctx, algorand.PaymentQuery{
			Address: account,
			Role:    algorand.RoleSender,
			After:   watermark,
			Before:  a.endTime,
			Limit:   a.pageSize,
			Next:    next,
		})
		if err != nil {
			return nil, pages, err
		}
		pages++
		observability.RecordPage(account, len(page.Transactions))

		for _, raw := range page.Transactions {
			if len(out) >= a.maxRows {
				break
			}
			out = append(out, toTransaction(raw))
		}

		if page.NextToken == "" || len(page.Transactions) == 0 {
			break
		}
		next = page.NextToken
	}

	return out, pages, nil
}

func toTransaction(raw algorand.RawTransaction) domain.Transaction {
	return domain.Transaction{
		ID:     raw.ID,
		Time:   raw.RoundTime,
		Sender: raw.Sender,
		Amount: domain.AmountFromMicroalgos(raw.Microalgos()),
	}
}
