// Package metrics holds the Prometheus collectors of both binaries. A nil
// *Metrics is valid and records nothing, so collaborators never check for it.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pos"

// Outcome label values
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
	OutcomeDead      = "dead"
)

type Metrics struct {
	DocumentsPromoted  *prometheus.CounterVec
	DocumentsDiscarded prometheus.Counter
	PromotionDuration  prometheus.Histogram
	ClosureIngestions  *prometheus.CounterVec
	ClosureReplays     prometheus.Counter
	ClosuresClosed     prometheus.Counter
	OutboxPublished    *prometheus.CounterVec
	JournalEntries     *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates and registers all collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsPromoted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_promoted_total",
			Help:      "Documents promoted to permanent records, by document kind and final status",
		}, []string{"kind", "status"}),
		DocumentsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_discarded_total",
			Help:      "Working documents discarded without promotion",
		}),
		PromotionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "promotion_duration_seconds",
			Help:      "Latency of the promotion transaction",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ClosureIngestions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closure_ingestions_total",
			Help:      "Permanent documents offered to the open closure period, by outcome",
		}, []string{"outcome"}),
		ClosureReplays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closure_replays_total",
			Help:      "Ingestions repaired from the outbox after a crash",
		}),
		ClosuresClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "closures_closed_total",
			Help:      "Closure periods sealed",
		}),
		OutboxPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_total",
			Help:      "Outbox publish attempts, by event type and outcome",
		}, []string{"event_type", "outcome"}),
		JournalEntries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_entries_total",
			Help:      "Electronic journal writes, by event type and outcome",
		}, []string{"event_type", "outcome"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) DocumentPromoted(kind, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsPromoted.WithLabelValues(kind, status).Inc()
	m.PromotionDuration.Observe(took.Seconds())
}

func (m *Metrics) DocumentDiscarded() {
	if m == nil {
		return
	}
	m.DocumentsDiscarded.Inc()
}

// ClosureIngested records an ingest. applied is false for a duplicate.
func (m *Metrics) ClosureIngested(applied bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !applied {
		outcome = OutcomeDuplicate
	}
	m.ClosureIngestions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClosureReplayed() {
	if m == nil {
		return
	}
	m.ClosureReplays.Inc()
}

func (m *Metrics) ClosureClosed() {
	if m == nil {
		return
	}
	m.ClosuresClosed.Inc()
}

func (m *Metrics) OutboxPublish(eventType, outcome string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) JournalEntry(eventType, outcome string) {
	if m == nil {
		return
	}
	m.JournalEntries.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
