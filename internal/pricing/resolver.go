package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"algo-payout-lab/internal/logger"
	"algo-payout-lab/internal/observability"
	"algo-payout-lab/internal/pricecache"
)

// RetryPolicy bounds remote attempts per lookup.
// The wait before attempt n+1 is n × BaseDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy returns 3 attempts with a 1s linear backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Resolver answers "what was the price at ts" from the hour cache or the
// remote source, writing fresh answers back to the cache.
type Resolver struct {
	cache  *pricecache.Cache
	source Source
	policy RetryPolicy
	logger zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) ResolverOption {
	return func(r *Resolver) {
		r.policy = p
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a resolver over cache and source.
func NewResolver(cache *pricecache.Cache, source Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:  cache,
		source: source,
		policy: DefaultRetryPolicy(),
		logger: zerolog.Nop(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.policy.MaxAttempts < 1 {
		r.policy.MaxAttempts = 1
	}
	return r
}

// Resolve returns the USD price at ts (unix seconds).
// The second result is false when every attempt failed; that is not an error.
// The day bucket is never consulted.
func (r *Resolver) Resolve(ctx context.Context, ts int64) (float64, bool) {
	if p, ok := r.cache.LookupHour(ts); ok {
		observability.RecordCacheLookup(true)
		return p, true
	}
	observability.RecordCacheLookup(false)
	log := logger.FromContextOr(ctx, &r.logger)

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		q, err := r.source.HistoricalUSD(ctx, ts)
		switch {
		case err != nil:
			observability.RecordPriceAttempt("error")
			log.Debug().Err(err).Int64("ts", ts).Int("attempt", attempt).Msg("price request failed")
		case q.Status != QuoteOK:
			observability.RecordPriceAttempt(q.Status.String())
			log.Debug().Stringer("status", q.Status).Int64("ts", ts).Int("attempt", attempt).Msg("price response unusable")
		default:
			observability.RecordPriceAttempt("ok")
			if err := r.cache.WriteHour(ctx, ts, q.Price); err != nil {
				log.Warn().Err(err).Int64("ts", ts).Msg("failed to persist hour price")
			}
			observability.UpdateCacheEntries(r.cache.Len())
			return q.Price, true
		}

		if attempt == r.policy.MaxAttempts {
			break
		}
		if err := r.sleep(ctx, time.Duration(attempt)*r.policy.BaseDelay); err != nil {
			break
		}
	}

	observability.RecordPriceUnresolved()
	log.Warn().Int64("ts", ts).Int("attempts", r.policy.MaxAttempts).Msg("price unresolved")
	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
