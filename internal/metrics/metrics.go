// Package metrics exposes Prometheus collectors for the ledger service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cakepot"

// LedgerMetrics tracks ledger operations and their side channels.
type LedgerMetrics struct {
	operations  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	conversions *prometheus.CounterVec
	outbox      *prometheus.CounterVec
	throttles   *prometheus.CounterVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the lazily-initialised ledger metrics registered with the
// default Prometheus registerer.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "conversion",
				Name:      "requests_total",
				Help:      "Asset conversions segmented by pair and outcome.",
			}, []string{"asset_in", "asset_out", "outcome"}),
			outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "events_total",
				Help:      "Outbox relay attempts segmented by topic and outcome.",
			}, []string{"topic", "outcome"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Requests rejected by the rate limiter, by procedure.",
			}, []string{"procedure"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.latency,
			ledgerRegistry.conversions,
			ledgerRegistry.outbox,
			ledgerRegistry.throttles,
		)
	})
	return ledgerRegistry
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveOperation records one ledger operation.
func (m *LedgerMetrics) ObserveOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome(err)).Inc()
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveConversion records an attempted conversion.
func (m *LedgerMetrics) ObserveConversion(assetIn, assetOut string, err error) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(assetIn, assetOut, outcome(err)).Inc()
}

// ObserveOutbox records a relay attempt. Outcome is "sent", "retry" or "failed".
func (m *LedgerMetrics) ObserveOutbox(topic, result string) {
	if m == nil {
		return
	}
	m.outbox.WithLabelValues(topic, result).Inc()
}

// ObserveThrottle records a rate-limited request.
func (m *LedgerMetrics) ObserveThrottle(procedure string) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(procedure).Inc()
}
