package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role identifies one of the two argument producers in a debate.
type Role string

const (
	RoleProponent Role = "Proponent"
	RoleOpponent  Role = "Opponent"
)

// MarketSnapshot holds the market data a debate argues over.
// Fetched once at the start of a debate and immutable thereafter.
type MarketSnapshot struct {
	Symbol          string    `json:"symbol"`
	CoinID          string    `json:"coin_id"`
	Price           float64   `json:"price"`
	PriceChange24h  float64   `json:"price_change_24h"`
	ChangePercent24 float64   `json:"change_percent_24h"`
	High24h         float64   `json:"high_24h"`
	Low24h          float64   `json:"low_24h"`
	Volume24h       float64   `json:"volume_24h"`
	MarketCap       float64   `json:"market_cap"`
	RSI             float64   `json:"rsi"`
	SentimentScore  float64   `json:"sentiment_score"`
	NewsSummary     string    `json:"news_summary"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// Argument is a single argument produced by one role in one round.
// Created once and never mutated; the engine appends it to the
// per-role argument log.
type Argument struct {
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"` // [0,100]
	KeyPoints  []string  `json:"key_points"` // ordered, at most 5
	Round      int       `json:"round"`      // 0 = opening
	CreatedAt  time.Time `json:"created_at"`
}

// Verdict is the arbiter's final decision over the full transcript.
type Verdict struct {
	Winner     Role            `json:"winner"`
	Confidence float64         `json:"confidence"` // [0,100]
	Wager      decimal.Decimal `json:"wager"`
	Rationale  string          `json:"rationale"`
	KeyFactors []string        `json:"key_factors"` // at most 5
}

// ReceiptKind distinguishes the two settlement operations.
type ReceiptKind string

const (
	ReceiptLog      ReceiptKind = "LOG"
	ReceiptTransfer ReceiptKind = "TRANSFER"
)

// Receipt is the record returned by a settlement ledger operation.
type Receipt struct {
	ID        string          `json:"id"`
	Kind      ReceiptKind     `json:"kind"`
	TxID      string          `json:"tx_id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"` // human-followable explorer URL
	Amount    decimal.Decimal `json:"amount,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// DebateStatus tracks the externally visible status of a debate.
type DebateStatus string

const (
	StatusInitialized       DebateStatus = "initialized"
	StatusMarketDataFetched DebateStatus = "market_data_fetched"
	StatusProponentArgued   DebateStatus = "proponent_argued"
	StatusOpponentArgued    DebateStatus = "opponent_argued"
	StatusVerdictRendered   DebateStatus = "verdict_rendered"
	StatusSettled           DebateStatus = "settled"
	StatusCompleted         DebateStatus = "completed"
	StatusError             DebateStatus = "error"
)
