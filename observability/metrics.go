package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics tracks committed ledger events and the outcome of top-level
// calls.
type LedgerMetrics struct {
	events   *prometheus.CounterVec
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Ledger returns the lazily-initialised ledger metrics registry.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftbridge",
				Subsystem: "ledger",
				Name:      "events_total",
				Help:      "Count of committed ledger events segmented by event type.",
			}, []string{"event"}),
			calls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftbridge",
				Subsystem: "ledger",
				Name:      "calls_total",
				Help:      "Count of top-level ledger calls segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nftbridge",
				Subsystem: "ledger",
				Name:      "call_duration_seconds",
				Help:      "Latency distribution of top-level ledger calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.events,
			ledgerRegistry.calls,
			ledgerRegistry.duration,
		)
	})
	return ledgerRegistry
}

// RecordEvent increments the counter for a committed event.
func (m *LedgerMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		eventType = "unknown"
	}
	m.events.WithLabelValues(eventType).Inc()
}

// ObserveCall records the outcome and latency of a top-level call. Outcome is
// "committed" on success and "reverted" otherwise.
func (m *LedgerMetrics) ObserveCall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	outcome := "committed"
	if err != nil {
		outcome = "reverted"
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}
