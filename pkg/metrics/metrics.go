// Copyright 2025 Certen Protocol
//
// Package metrics wires the core's observable counters and gauges
// into Prometheus: each component increments its own named metric
// rather than exposing state for a poller to scrape separately.

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric the core emits. Construct one with
// New and pass it into each component's constructor.
type Registry struct {
	LedgerEntriesTotal    *prometheus.CounterVec
	LedgerBlocksSealed    prometheus.Counter
	AccessChecksTotal     *prometheus.CounterVec
	WebhookEventsTotal    *prometheus.CounterVec
	WebhookRetriesTotal   prometheus.Counter
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	TheoryExecutionsTotal *prometheus.CounterVec
}

// New registers every metric against a fresh prometheus.Registry and
// returns both.
func New() (*Registry, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	m := &Registry{
		LedgerEntriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Ledger entries appended, by entry_type.",
		}, []string{"entry_type"}),
		LedgerBlocksSealed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "ledger",
			Name:      "blocks_sealed_total",
			Help:      "Ledger blocks sealed.",
		}),
		AccessChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "access",
			Name:      "checks_total",
			Help:      "Access control checks, by action and outcome.",
		}, []string{"action", "granted"}),
		WebhookEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Webhook events ingested, by partner and event_type.",
		}, []string{"partner_id", "event_type"}),
		WebhookRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "webhook",
			Name:      "retries_total",
			Help:      "Webhook event processing retries scheduled.",
		}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups that found an unexpired entry.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that found no unexpired entry.",
		}),
		TheoryExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnaresearch",
			Subsystem: "theory",
			Name:      "executions_total",
			Help:      "Theory executions, by support_class.",
		}, []string{"support_class"}),
	}

	reg.MustRegister(
		m.LedgerEntriesTotal,
		m.LedgerBlocksSealed,
		m.AccessChecksTotal,
		m.WebhookEventsTotal,
		m.WebhookRetriesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.TheoryExecutionsTotal,
	)

	return m, reg
}

// Handler returns the HTTP handler to mount at /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveEntry implements ledger.MetricsRecorder.
func (m *Registry) ObserveEntry(entryType string) {
	m.LedgerEntriesTotal.WithLabelValues(entryType).Inc()
}

// ObserveBlockSealed implements ledger.MetricsRecorder.
func (m *Registry) ObserveBlockSealed() {
	m.LedgerBlocksSealed.Inc()
}

// ObserveAccessCheck implements access.MetricsRecorder.
func (m *Registry) ObserveAccessCheck(action string, granted bool) {
	m.AccessChecksTotal.WithLabelValues(action, fmt.Sprintf("%t", granted)).Inc()
}

// ObserveWebhookEvent implements webhook.MetricsRecorder.
func (m *Registry) ObserveWebhookEvent(partnerID, eventType string) {
	m.WebhookEventsTotal.WithLabelValues(partnerID, eventType).Inc()
}

// ObserveWebhookRetry implements webhook.MetricsRecorder.
func (m *Registry) ObserveWebhookRetry() {
	m.WebhookRetriesTotal.Inc()
}

// ObserveCacheHit implements cache.MetricsRecorder.
func (m *Registry) ObserveCacheHit() {
	m.CacheHitsTotal.Inc()
}

// ObserveCacheMiss implements cache.MetricsRecorder.
func (m *Registry) ObserveCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// ObserveTheoryExecution implements theory.MetricsRecorder.
func (m *Registry) ObserveTheoryExecution(supportClass string) {
	m.TheoryExecutionsTotal.WithLabelValues(supportClass).Inc()
}
