package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.IncrementStatusChange("confirmed", "completed")
	m.IncrementStatusChange("confirmed", "completed")
	m.IncrementActionOutcome("assign", "no_longer_available")
	m.ObserveSweepDuration(150 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatusChanges.WithLabelValues("confirmed", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionOutcomes.WithLabelValues("assign", "no_longer_available")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SweepDuration))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncrementStatusChange("a", "b")
		m.IncrementActionOutcome("assign", "ok")
		m.ObserveSweepDuration(time.Second)
	})
}
