package types

import "fmt"

// MarketDataError is returned when a market snapshot cannot be
// fetched. It is terminal for the whole debate: no producer, arbiter
// or settlement call runs after it.
type MarketDataError struct {
	Symbol  string
	Message string
	Err     error
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("market data for %s: %s", e.Symbol, e.Message)
}

func (e *MarketDataError) Unwrap() error { return e.Err }

// ProducerError is returned when an argument producer fails
// atomically. Producers never return partial arguments.
type ProducerError struct {
	Role    Role
	Round   int
	Message string
	Err     error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("%s producer (round %d): %s", e.Role, e.Round, e.Message)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// ArbiterError is returned when the arbiter call itself fails.
// Unparseable arbiter output is not an ArbiterError; it is handled by
// the documented heuristic fallback.
type ArbiterError struct {
	Message string
	Err     error
}

func (e *ArbiterError) Error() string {
	return fmt.Sprintf("arbiter: %s", e.Message)
}

func (e *ArbiterError) Unwrap() error { return e.Err }

// SettlementError is returned when a ledger log or transfer fails.
// The engine surfaces it as a failed debate; it never synthesizes a
// success receipt.
type SettlementError struct {
	Kind    ReceiptKind
	Message string
	Err     error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement %s: %s", e.Kind, e.Message)
}

func (e *SettlementError) Unwrap() error { return e.Err }
