package agents

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CompletionRequestsTotal tracks backend completion calls by mode and result.
	CompletionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debate_arena_completion_requests_total",
			Help: "Total number of text completion requests",
		},
		[]string{"mode", "result"},
	)

	// CompletionDurationSeconds tracks successful completion latency.
	CompletionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debate_arena_completion_duration_seconds",
		Help:    "Duration of successful text completion requests",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	// TokensStreamedTotal tracks tokens forwarded in streaming mode.
	TokensStreamedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_arena_tokens_streamed_total",
		Help: "Total number of tokens streamed from the completion backend",
	})

	// ArgumentsProducedTotal tracks assembled arguments by role.
	ArgumentsProducedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debate_arena_arguments_produced_total",
			Help: "Total number of arguments assembled",
		},
		[]string{"role"},
	)

	// VerdictsRenderedTotal tracks rendered verdicts by winner.
	VerdictsRenderedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debate_arena_verdicts_rendered_total",
			Help: "Total number of verdicts rendered",
		},
		[]string{"winner"},
	)
)
