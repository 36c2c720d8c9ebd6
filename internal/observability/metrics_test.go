package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.PriceCacheLookups.WithLabelValues("hit").Inc()
	m.PriceCacheLookups.WithLabelValues("hit").Inc()
	m.PriceCacheLookups.WithLabelValues("miss").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PriceCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriceCacheLookups.WithLabelValues("miss")))
}

func TestRecordRun_SuccessUpdatesGauges(t *testing.T) {
	RecordRun("success", 1735689600, 4, 3)

	assert.Equal(t, 1735689600.0, testutil.ToFloat64(DefaultMetrics.LastSuccess))
	assert.Equal(t, 4.0, testutil.ToFloat64(DefaultMetrics.DatasetSize))
	assert.Equal(t, 0.75, testutil.ToFloat64(DefaultMetrics.LastRunPriced))
}

func TestRecordRun_FailureLeavesGauges(t *testing.T) {
	RecordRun("success", 100, 2, 2)
	RecordRun("error", 200, 0, 0)

	assert.Equal(t, 100.0, testutil.ToFloat64(DefaultMetrics.LastSuccess))
	assert.Equal(t, 2.0, testutil.ToFloat64(DefaultMetrics.DatasetSize))
}
