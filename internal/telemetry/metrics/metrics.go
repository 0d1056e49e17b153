// Package metrics exposes the radar's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalsScored counts signals scored per source category.
	SignalsScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_signals_scored_total",
		Help: "Signals scored, by source category",
	}, []string{"source"})

	// CollectorFailures counts collectors that failed within a run.
	CollectorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_collector_failures_total",
		Help: "Collector failures, by collector name",
	}, []string{"collector"})

	// NarrativesProduced counts narratives emitted per analysis run outcome.
	NarrativesProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_narratives_produced_total",
		Help: "Narratives produced, by synthesis path (provider or fallback)",
	}, []string{"path"})

	// SynthesisFallbacks counts analysis runs that degraded to the
	// algorithmic fallback.
	SynthesisFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "radar_synthesis_fallbacks_total",
		Help: "Analysis runs that used the algorithmic narrative fallback",
	})

	// RunDuration observes end-to-end job durations.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radar_run_duration_seconds",
		Help:    "Job duration by job type",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"job"})
)
