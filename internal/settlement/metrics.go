package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsTotal tracks ledger operations by kind and result.
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debate_arena_settlements_total",
			Help: "Total number of settlement ledger operations",
		},
		[]string{"kind", "result"},
	)

	// WagerAmount tracks executed wager sizes.
	WagerAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debate_arena_wager_amount",
		Help:    "Executed wager amounts",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100},
	})

	// GuardEnabled reflects whether the stake guard passes transfers.
	GuardEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "debate_arena_stake_guard_enabled",
		Help: "1 when the stake guard passes transfers, 0 when open",
	})

	// GuardBalance reflects the last observed operator balance.
	GuardBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "debate_arena_stake_guard_balance",
		Help: "Last operator balance observed by the stake guard",
	})

	// GuardRefusalsTotal tracks transfers refused by the open guard.
	GuardRefusalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debate_arena_stake_guard_refusals_total",
		Help: "Total number of transfers refused by the stake guard",
	})
)
