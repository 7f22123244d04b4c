package testutil

import (
	"time"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
)

// CreateTestSnapshot creates a market snapshot with plausible values.
func CreateTestSnapshot(symbol string) *types.MarketSnapshot {
	return &types.MarketSnapshot{
		Symbol:          symbol,
		CoinID:          "hedera-hashgraph",
		Price:           0.0721,
		PriceChange24h:  0.0031,
		ChangePercent24: 4.49,
		High24h:         0.0734,
		Low24h:          0.0689,
		Volume24h:       48_500_000,
		MarketCap:       3_050_000_000,
		RSI:             58.21,
		SentimentScore:  0.55,
		NewsSummary:     "Network activity steady; no major headlines.",
		FetchedAt:       time.Now().UTC(),
	}
}

// ProponentScript is a producer response carrying an explicit
// confidence statement and minable bullet points.
const ProponentScript = `The upside case is strong here and the data backs it up today.

- Momentum is positive with a 4.5% daily gain on rising volume across venues
- RSI at 58 leaves room to run before the market looks overbought at all
- Network activity keeps climbing quarter over quarter per public dashboards

Confidence: 72%`

// OpponentScript is a producer response with a different confidence.
const OpponentScript = `The downside risks outweigh the short-term momentum story entirely.

- A single green day on thin news is noise, not a trend reversal signal
- Market cap already prices in the current network activity growth rate
- Macro liquidity is tightening and small caps bleed first in that regime

Confidence: 61%`

// ArbiterScript is an arbiter response containing a well-formed
// verdict block.
const ArbiterScript = `{"winner": "Proponent", "confidence_score": 75, "reasoning": "The upside case cited concrete momentum and on-chain data while the downside case leaned on generic macro caution.", "key_factors": ["Volume-backed momentum", "RSI headroom", "Network growth"]}`

// ArbiterScriptOpponent is an arbiter response awarding the Opponent
// with mid-band confidence.
const ArbiterScriptOpponent = `{"winner": "Opponent", "confidence_score": 55, "reasoning": "Neither side was decisive but the risk framing was more rigorous.", "key_factors": ["Macro headwinds", "Priced-in growth"]}`

// CreateTestArgument creates an argument for one role and round.
func CreateTestArgument(role types.Role, round int) types.Argument {
	return types.Argument{
		Role:       role,
		Text:       "Argument text for " + string(role),
		Confidence: 65,
		KeyPoints:  []string{"point one", "point two"},
		Round:      round,
		CreatedAt:  time.Now().UTC(),
	}
}

// CreateTestVerdict creates a verdict with a derived-looking wager.
func CreateTestVerdict(winner types.Role, confidence float64) *types.Verdict {
	return &types.Verdict{
		Winner:     winner,
		Confidence: confidence,
		Wager:      decimal.NewFromInt(10),
		Rationale:  "Test rationale",
		KeyFactors: []string{"factor one"},
	}
}
