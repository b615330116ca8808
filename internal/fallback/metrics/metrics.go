// Package metrics exposes Prometheus metrics for fallback execution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts orchestrated calls by category, serving level
	// and outcome.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_executions_total",
			Help: "Total number of orchestrated executions",
		},
		[]string{"category", "level", "outcome"},
	)

	// AttemptsTotal counts individual service attempts.
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_attempts_total",
			Help: "Total number of service attempts",
		},
		[]string{"category", "level", "service", "outcome"},
	)

	// ExecutionLatency tracks end-to-end execution latency.
	ExecutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cascade_execution_latency_seconds",
			Help:    "End-to-end execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category", "level"},
	)

	// EmergencyResponsesTotal counts emergency responder outcomes.
	EmergencyResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_emergency_responses_total",
			Help: "Total number of emergency responses",
		},
		[]string{"category", "outcome"},
	)

	// EmergencyCacheHitsTotal counts responses served from the emergency
	// cache without re-invoking the handler.
	EmergencyCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_emergency_cache_hits_total",
			Help: "Total number of emergency cache hits",
		},
		[]string{"category"},
	)

	// RecoveryEventsTotal counts categories returning to the primary tier.
	RecoveryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_recovery_events_total",
			Help: "Total number of detected recoveries",
		},
		[]string{"category"},
	)

	// CircuitSkipsTotal counts candidates skipped because their circuit was
	// open.
	CircuitSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_circuit_skips_total",
			Help: "Total number of candidates skipped with an open circuit",
		},
		[]string{"category", "service"},
	)

	// EmergencyCacheSize tracks the current number of cached synthetic
	// responses.
	EmergencyCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cascade_emergency_cache_entries",
			Help: "Current number of emergency cache entries",
		},
	)
)
