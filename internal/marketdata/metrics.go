package marketdata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchDurationSeconds tracks successful snapshot fetch latency.
	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debate_arena_market_fetch_duration_seconds",
		Help:    "Duration of market snapshot fetches",
		Buckets: prometheus.DefBuckets,
	})

	// FetchErrorsTotal tracks failed snapshot fetches.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_arena_market_fetch_errors_total",
		Help: "Total number of failed market snapshot fetches",
	})

	// CacheHitsTotal tracks snapshot cache hits.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_arena_market_cache_hits_total",
		Help: "Total number of market snapshot cache hits",
	})

	// CacheMissesTotal tracks snapshot cache misses.
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_arena_market_cache_misses_total",
		Help: "Total number of market snapshot cache misses",
	})
)
