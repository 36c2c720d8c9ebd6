// Package enrichment attaches historical USD prices to payments.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"algo-payout-lab/internal/domain"
	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/workerpool"
)

// DefaultConcurrency bounds in-flight price lookups.
const DefaultConcurrency = 3

// ErrNoResolver is returned when the pipeline has no price resolver.
var ErrNoResolver = errors.New("enrichment: nil price resolver")

// PriceResolver returns the USD price at a unix timestamp.
type PriceResolver interface {
	Resolve(ctx context.Context, ts int64) (float64, bool)
}

// Pipeline enriches transactions under a concurrency bound.
type Pipeline struct {
	resolver    PriceResolver
	concurrency int
	logger      zerolog.Logger
}

// Options contains configuration for creating a Pipeline.
type Options struct {
	Resolver    PriceResolver
	Concurrency int
	Logger      *zerolog.Logger
}

// New creates an enrichment pipeline.
func New(opts Options) *Pipeline {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Pipeline{
		resolver:    opts.Resolver,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Enrich returns copies of txs in the same order, each carrying a price and
// value when one could be resolved. Unresolved prices are not an error.
func (p *Pipeline) Enrich(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, error) {
	if p.resolver == nil {
		return nil, ErrNoResolver
	}

	start := time.Now()
	out, err := workerpool.Map(ctx, txs, p.concurrency, func(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
		price, ok := p.resolver.Resolve(ctx, tx.Time)
		if !ok {
			return tx.WithoutPrice(), nil
		}
		return tx.WithPrice(decimal.NewFromFloat(price)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("enrich transactions: %w", err)
	}

	priced := 0
	for _, tx := range out {
		if tx.HasPrice() {
			priced++
		}
	}
	logger.FromContextOr(ctx, &p.logger).Info().
		Int("transactions", len(out)).
		Int("priced", priced).
		Dur("duration", time.Since(start)).
		Msg("enrichment finished")

	return out, nil
}
