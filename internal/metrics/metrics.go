// Package metrics exposes Prometheus collectors for memory and gate activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ladybug"

// Metrics holds the collectors. It satisfies resonance.Recorder.
type Metrics struct {
	CapturesTotal  prometheus.Counter
	QueriesTotal   prometheus.Counter
	DecisionsTotal *prometheus.CounterVec
	QueryDuration  prometheus.Histogram
	QueryResults   prometheus.Histogram
	MemoryEntries  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registry. Metric names are prefixed with "ladybug_":
//   - ladybug_captures_total
//   - ladybug_queries_total
//   - ladybug_decisions_total{state}
//   - ladybug_query_duration_seconds
//   - ladybug_query_results
//   - ladybug_memory_entries
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	m := &Metrics{
		CapturesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Total number of moments captured into resonance memory",
		}),
		QueriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of resonance queries",
		}),
		DecisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Total number of collapse gate decisions by state",
		}, []string{"state"}), // "flow" | "hold" | "block"
		QueryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of resonance queries in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
		}),
		QueryResults: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Number of results returned per resonance query",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		MemoryEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_entries",
			Help:      "Current number of entries held in resonance memory",
		}),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// RecordCapture counts a capture and updates the memory size gauge.
func (m *Metrics) RecordCapture(entries int) {
	m.CapturesTotal.Inc()
	m.MemoryEntries.Set(float64(entries))
}

// RecordQuery counts a query with its result size and latency.
func (m *Metrics) RecordQuery(results int, elapsed time.Duration) {
	m.QueriesTotal.Inc()
	m.QueryResults.Observe(float64(results))
	m.QueryDuration.Observe(elapsed.Seconds())
}

// RecordDecision counts a gate decision under its state label.
func (m *Metrics) RecordDecision(state string) {
	m.DecisionsTotal.WithLabelValues(state).Inc()
}

// SetMemoryEntries overwrites the memory size gauge, e.g. after a restore.
func (m *Metrics) SetMemoryEntries(n int) {
	m.MemoryEntries.Set(float64(n))
}

// Handler serves the registry the collectors were registered with.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
