package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DocumentPromoted("RECEIPT", "COMPLETED", 20*time.Millisecond)
	m.DocumentPromoted("RECEIPT", "COMPLETED", 10*time.Millisecond)
	m.DocumentDiscarded()
	m.ClosureIngested(true)
	m.ClosureIngested(false)
	m.ClosureReplayed()
	m.ClosureClosed()
	m.OutboxPublish("document.promoted", OutcomeFailure)
	m.JournalEntry("closure.closed", OutcomeDuplicate)
	m.HTTPRequest("POST", "/api/v1/documents", 201, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsPromoted.WithLabelValues("RECEIPT", "COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsDiscarded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClosureIngestions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClosureIngestions.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClosureReplays))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClosuresClosed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues("document.promoted", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JournalEntries.WithLabelValues("closure.closed", OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/documents", "201")))

	count, err := testutil.GatherAndCount(reg, "pos_promotion_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DocumentPromoted("RECEIPT", "COMPLETED", time.Second)
		m.DocumentDiscarded()
		m.ClosureIngested(true)
		m.ClosureReplayed()
		m.ClosureClosed()
		m.OutboxPublish("closure.closed", OutcomeSuccess)
		m.JournalEntry("closure.closed", OutcomeSuccess)
		m.HTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
