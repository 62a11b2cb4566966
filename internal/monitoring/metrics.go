// Package monitoring exposes Prometheus metrics and the HTTP endpoints
// for health and run status.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. It implements the
// miner package's metrics contract. Each instance carries its own
// registry so independent runs never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	iterations       prometheus.Counter
	cardsSeen        prometheus.Counter
	leadsQualified   prometheus.Counter
	cacheEvictions   prometheus.Counter
	stalls           prometheus.Counter
	snapshotFailures prometheus.Counter
	outcomes         *prometheus.CounterVec
}

// NewMetrics creates the collectors under the leadminer namespace.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		iterations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "leadminer",
			Name:      "iterations_total",
			Help:      "Total mining loop iterations executed",
		}),
		cardsSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "leadminer",
			Name:      "cards_seen_total",
			Help:      "Total candidate cards located across all scans",
		}),
		leadsQualified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "leadminer",
			Name:      "leads_qualified_total",
			Help:      "Total leads that passed the audience filter",
		}),
		cacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "leadminer",
			Name:      "cache_evictions_total",
			Help:      "Total leads evicted from the recency cache",
		}),
		stalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "leadminer",
			Name:      "stall_iterations_total",
			Help:      "Total iterations that made no progress",
		}),
		snapshotFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "leadminer",
			Name:      "snapshot_failures_total",
			Help:      "Total session snapshot saves that failed",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadminer",
			Name:      "run_outcomes_total",
			Help:      "Completed runs by termination reason",
		}, []string{"reason"}),
	}
}

// Registry returns the metrics registry for HTTP exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordIteration()          { m.iterations.Inc() }
func (m *Metrics) RecordCards(count int)     { m.cardsSeen.Add(float64(count)) }
func (m *Metrics) RecordQualified(count int) { m.leadsQualified.Add(float64(count)) }
func (m *Metrics) RecordEviction()           { m.cacheEvictions.Inc() }
func (m *Metrics) RecordStall()              { m.stalls.Inc() }
func (m *Metrics) RecordSnapshotFailure()    { m.snapshotFailures.Inc() }

func (m *Metrics) RecordOutcome(reason string) {
	m.outcomes.WithLabelValues(reason).Inc()
}
