// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the daily goal tracker.
var (
	// Counters.
	GoalsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goals_created_total",
			Help: "Total number of goals created",
		},
	)

	GoalsCommittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goals_committed_total",
			Help: "Total number of goals committed",
		},
	)

	ReflectionsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reflections_recorded_total",
			Help: "Total number of reflections recorded",
		},
		[]string{"reflection_type"},
	)

	RankRecalculationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rank_recalculations_total",
			Help: "Total number of rank recalculations",
		},
	)

	WeeksCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weeks_completed_total",
			Help: "Total number of weekly scores swept to complete",
		},
	)

	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "week_sweep_runs_total",
			Help: "Total number of weekly completion sweep runs by status",
		},
		[]string{"status"},
	)

	// Histograms.
	SweepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "week_sweep_duration_seconds",
			Help:    "Duration of the weekly completion sweep",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitToReflectionSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "commit_to_reflection_seconds",
			Help:    "Time between committing a goal and reflecting on it",
			Buckets: prometheus.ExponentialBuckets(60, 2, 12), // 1min to ~3 days
		},
	)
)
