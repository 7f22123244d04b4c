package debate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DebatesStartedTotal tracks debates started across both modes.
	DebatesStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_arena_debates_started_total",
		Help: "Total number of debates started",
	})

	// DebatesFinishedTotal tracks terminal debate outcomes.
	DebatesFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debate_arena_debates_finished_total",
			Help: "Total number of debates finished by outcome",
		},
		[]string{"outcome"},
	)

	// RoundsRunTotal tracks completed argumentation rounds.
	RoundsRunTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_arena_rounds_run_total",
		Help: "Total number of completed argumentation rounds",
	})

	// EventsEmittedTotal tracks emitted events by kind.
	EventsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debate_arena_events_emitted_total",
			Help: "Total number of events emitted by kind",
		},
		[]string{"kind"},
	)

	// StageDurationSeconds tracks wall time spent per pipeline stage.
	StageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "debate_arena_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// DebateDurationSeconds tracks end-to-end debate duration.
	DebateDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debate_arena_debate_duration_seconds",
		Help:    "End-to-end debate duration in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})
)
