package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alphaduel/arena/internal/agents"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/internal/storage"
	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
)

// ScriptedBackend is a deterministic Backend for testing: each call
// consumes the next scripted response in order. Stream splits the
// response into word tokens and delivers them followed by a terminal
// delta, matching the real backend's contract.
type ScriptedBackend struct {
	Responses []string
	// FailOn makes the call with this 1-based index fail instead of
	// consuming a response. Zero disables failure injection.
	FailOn int

	mu    sync.Mutex
	calls int
}

// NewScriptedBackend creates a backend that replays the given responses.
func NewScriptedBackend(responses ...string) *ScriptedBackend {
	return &ScriptedBackend{Responses: responses}
}

// Complete implements agents.Backend.
func (b *ScriptedBackend) Complete(ctx context.Context, req agents.Completion) (string, error) {
	return b.next()
}

// Stream implements agents.Backend.
func (b *ScriptedBackend) Stream(ctx context.Context, req agents.Completion) <-chan agents.Delta {
	out := make(chan agents.Delta, 64)

	go func() {
		defer close(out)

		text, err := b.next()
		if err != nil {
			out <- agents.Delta{Err: err}
			return
		}

		for _, token := range strings.SplitAfter(text, " ") {
			if token == "" {
				continue
			}
			out <- agents.Delta{Token: token}
		}

		out <- agents.Delta{Done: true}
	}()

	return out
}

// Calls returns how many completions have been requested.
func (b *ScriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *ScriptedBackend) next() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	if b.FailOn > 0 && b.calls == b.FailOn {
		return "", fmt.Errorf("scripted backend failure on call %d", b.calls)
	}

	if len(b.Responses) == 0 {
		return "", fmt.Errorf("scripted backend exhausted after %d calls", b.calls-1)
	}

	text := b.Responses[0]
	b.Responses = b.Responses[1:]
	return text, nil
}

// StaticProvider is a market data provider returning a fixed snapshot
// or a fixed error.
type StaticProvider struct {
	Snapshot *types.MarketSnapshot
	Err      error

	mu    sync.Mutex
	calls int
}

// Fetch implements marketdata.Provider.
func (p *StaticProvider) Fetch(ctx context.Context, symbol string) (*types.MarketSnapshot, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}

	snap := *p.Snapshot
	snap.Symbol = symbol
	return &snap, nil
}

// Calls returns how many fetches were requested.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// RecordingLedger is an in-memory Ledger that records the order of
// operations for assertions.
type RecordingLedger struct {
	LogErr      error
	TransferErr error
	BalanceVal  decimal.Decimal

	mu        sync.Mutex
	Ops       []string
	Summaries []*settlement.Summary
	Transfers []decimal.Decimal
	Memos     []string
}

// NewRecordingLedger creates a ledger with a default balance.
func NewRecordingLedger() *RecordingLedger {
	return &RecordingLedger{BalanceVal: decimal.NewFromInt(1000)}
}

// Log implements settlement.Ledger.
func (l *RecordingLedger) Log(ctx context.Context, summary *settlement.Summary) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Ops = append(l.Ops, "log")
	if l.LogErr != nil {
		return nil, l.LogErr
	}

	l.Summaries = append(l.Summaries, summary)
	return &types.Receipt{
		ID:     fmt.Sprintf("log-%d", len(l.Ops)),
		Kind:   types.ReceiptLog,
		TxID:   fmt.Sprintf("0.0.1@%d.0", len(l.Ops)),
		Status: "SUCCESS",
	}, nil
}

// Transfer implements settlement.Ledger.
func (l *RecordingLedger) Transfer(ctx context.Context, amount decimal.Decimal, memo string) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.Ops = append(l.Ops, "transfer")
	if l.TransferErr != nil {
		return nil, l.TransferErr
	}

	l.Transfers = append(l.Transfers, amount)
	l.Memos = append(l.Memos, memo)
	return &types.Receipt{
		ID:     fmt.Sprintf("transfer-%d", len(l.Ops)),
		Kind:   types.ReceiptTransfer,
		TxID:   fmt.Sprintf("0.0.2@%d.0", len(l.Ops)),
		Status: "SUCCESS",
		Amount: amount,
	}, nil
}

// Balance implements settlement.Ledger.
func (l *RecordingLedger) Balance(ctx context.Context) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.BalanceVal, nil
}

// Operations returns the recorded operation names in call order.
func (l *RecordingLedger) Operations() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]string, len(l.Ops))
	copy(result, l.Ops)
	return result
}

// MemoryStorage is an in-memory archival store for testing.
type MemoryStorage struct {
	mu      sync.Mutex
	Records []*storage.Record
}

// NewMemoryStorage creates a new in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// StoreDebate implements storage.Storage.
func (m *MemoryStorage) StoreDebate(ctx context.Context, record *storage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recordCopy := *record
	m.Records = append(m.Records, &recordCopy)
	return nil
}

// Close is a no-op for memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}

// GetRecords returns all stored records.
func (m *MemoryStorage) GetRecords() []*storage.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*storage.Record, len(m.Records))
	copy(result, m.Records)
	return result
}
