package settlement

import (
	"context"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
)

// Summary is the fixed-shape record logged to the ledger when a
// debate settles.
type Summary struct {
	Type       string          `json:"type"`
	Symbol     string          `json:"symbol"`
	Query      string          `json:"query"`
	Winner     types.Role      `json:"winner"`
	Confidence float64         `json:"confidence"`
	Wager      decimal.Decimal `json:"wager_amount"`
	KeyFactors []string        `json:"key_factors"`
	Market     MarketBrief     `json:"market_snapshot"`
}

// MarketBrief is the snapshot slice embedded in a Summary.
type MarketBrief struct {
	Price float64 `json:"price"`
	RSI   float64 `json:"rsi"`
}

// SummaryType tags every settlement log entry.
const SummaryType = "debate_arena_prediction"

// NewSummary assembles the settlement summary for a decided debate.
func NewSummary(symbol, query string, verdict *types.Verdict, snap *types.MarketSnapshot) *Summary {
	return &Summary{
		Type:       SummaryType,
		Symbol:     symbol,
		Query:      query,
		Winner:     verdict.Winner,
		Confidence: verdict.Confidence,
		Wager:      verdict.Wager,
		KeyFactors: verdict.KeyFactors,
		Market: MarketBrief{
			Price: snap.Price,
			RSI:   snap.RSI,
		},
	}
}

// Ledger is the external settlement capability. Both operations may
// fail with a SettlementError; receipts are never fabricated.
type Ledger interface {
	// Log records the debate summary on the ledger.
	Log(ctx context.Context, summary *Summary) (*types.Receipt, error)

	// Transfer moves the wager amount to the escrow account.
	Transfer(ctx context.Context, amount decimal.Decimal, memo string) (*types.Receipt, error)

	// Balance returns the operator account balance.
	Balance(ctx context.Context) (decimal.Decimal, error)
}
