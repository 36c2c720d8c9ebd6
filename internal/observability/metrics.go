// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	PagesFetched      *prometheus.CounterVec
	RecordsFetched    *prometheus.CounterVec
	DatasetSize       prometheus.Gauge
	SourceFetchErrors *prometheus.CounterVec

	// Pricing metrics
	PriceCacheLookups *prometheus.CounterVec
	PriceAttempts     *prometheus.CounterVec
	PricesUnresolved  prometheus.Counter
	PriceCacheEntries prometheus.Gauge

	// Upstream latency
	UpstreamLatency *prometheus.HistogramVec

	// Run metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	LastSuccess   prometheus.Gauge
	LastRunPriced prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "algo_payout_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		PagesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "pages_fetched_total",
			Help:      "Total number of indexer pages fetched by account",
		}, []string{"account"}),
		RecordsFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_fetched_total",
			Help:      "Total number of payment records fetched by account",
		}, []string{"account"}),
		DatasetSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "dataset_size",
			Help:      "Number of transactions in the last merged dataset",
		}),
		SourceFetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "source_fetch_errors_total",
			Help:      "Total number of non-success indexer responses by status",
		}, []string{"status"}),

		PriceCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_lookups_total",
			Help:      "Total number of hour-bucket cache lookups by result",
		}, []string{"result"}),
		PriceAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "attempts_total",
			Help:      "Total number of remote price attempts by outcome",
		}, []string{"outcome"}),
		PricesUnresolved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "unresolved_total",
			Help:      "Total number of lookups that exhausted all attempts",
		}),
		PriceCacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_entries",
			Help:      "Number of entries in the price cache",
		}),

		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_latency_seconds",
			Help:      "Upstream HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"upstream"}),

		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of ingestion runs by status",
		}, []string{"status"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Run duration in seconds by phase",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful run",
		}),
		LastRunPriced: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "priced_ratio",
			Help:      "Share of transactions with a resolved price in the last run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordPage records one fetched indexer page.
func RecordPage(account string, records int) {
	DefaultMetrics.PagesFetched.WithLabelValues(account).Inc()
	DefaultMetrics.RecordsFetched.WithLabelValues(account).Add(float64(records))
}

// RecordSourceFetchError records a non-success indexer response.
func RecordSourceFetchError(status string) {
	DefaultMetrics.SourceFetchErrors.WithLabelValues(status).Inc()
}

// RecordCacheLookup records an hour-bucket lookup.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.PriceCacheLookups.WithLabelValues(result).Inc()
}

// RecordPriceAttempt records one remote price attempt ("ok", "malformed", "missing", "error").
func RecordPriceAttempt(outcome string) {
	DefaultMetrics.PriceAttempts.WithLabelValues(outcome).Inc()
}

// RecordPriceUnresolved records a lookup that exhausted its attempts.
func RecordPriceUnresolved() {
	DefaultMetrics.PricesUnresolved.Inc()
}

// UpdateCacheEntries sets the price cache size gauge.
func UpdateCacheEntries(n int) {
	DefaultMetrics.PriceCacheEntries.Set(float64(n))
}

// RecordUpstreamLatency records upstream HTTP latency.
func RecordUpstreamLatency(upstream string, seconds float64) {
	DefaultMetrics.UpstreamLatency.WithLabelValues(upstream).Observe(seconds)
}

// RecordPhase records the duration of one run phase.
func RecordPhase(phase string, seconds float64) {
	DefaultMetrics.RunDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordRun records a finished run.
func RecordRun(status string, unixTime int64, datasetSize, priced int) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
	if status != "success" {
		return
	}
	DefaultMetrics.LastSuccess.Set(float64(unixTime))
	DefaultMetrics.DatasetSize.Set(float64(datasetSize))
	if datasetSize > 0 {
		DefaultMetrics.LastRunPriced.Set(float64(priced) / float64(datasetSize))
	}
}
