package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const explorerBaseURL = "https://hashscan.io"

// SimLedger is a simulated consensus ledger used when no real ledger
// credentials are configured. Receipts carry transaction identifiers
// and keccak-derived consensus hashes so downstream consumers see the
// same shape as with a live network.
type SimLedger struct {
	accountID string
	escrowID  string
	network   string
	topicID   string
	logger    *zap.Logger

	mu      sync.Mutex
	balance decimal.Decimal
}

// SimConfig holds simulated ledger configuration. Empty identifiers
// fall back to well-known placeholder accounts.
type SimConfig struct {
	AccountID string
	EscrowID  string
	Network   string
	TopicID   string
	Logger    *zap.Logger
}

// NewSimLedger creates a simulated ledger with a starting balance.
func NewSimLedger(cfg *SimConfig) *SimLedger {
	accountID := cfg.AccountID
	if accountID == "" {
		accountID = "0.0.12345"
	}

	escrowID := cfg.EscrowID
	if escrowID == "" {
		escrowID = "0.0.67890"
	}

	topicID := cfg.TopicID
	if topicID == "" {
		topicID = "0.0.1234567"
	}

	cfg.Logger.Info("settlement-ledger-simulated",
		zap.String("account", accountID),
		zap.String("escrow", escrowID),
		zap.String("network", cfg.Network))

	return &SimLedger{
		accountID: accountID,
		escrowID:  escrowID,
		network:   cfg.Network,
		topicID:   topicID,
		logger:    cfg.Logger,
		balance:   decimal.NewFromInt(1000),
	}
}

// Log implements Ledger.
func (l *SimLedger) Log(ctx context.Context, summary *Summary) (*types.Receipt, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		SettlementsTotal.WithLabelValues(string(types.ReceiptLog), "error").Inc()
		return nil, &types.SettlementError{Kind: types.ReceiptLog, Message: "encode summary", Err: err}
	}

	now := time.Now().UTC()
	receipt := &types.Receipt{
		ID:        uuid.NewString(),
		Kind:      types.ReceiptLog,
		TxID:      l.txID(now),
		Status:    "SUCCESS",
		Reference: l.explorerURL(consensusHash(payload, now)),
		Timestamp: now,
	}

	SettlementsTotal.WithLabelValues(string(types.ReceiptLog), "ok").Inc()
	l.logger.Info("summary-logged",
		zap.String("tx-id", receipt.TxID),
		zap.String("topic-id", l.topicID),
		zap.String("symbol", summary.Symbol))

	return receipt, nil
}

// Transfer implements Ledger. The simulated balance is debited so
// repeated wagers behave like a funded account.
func (l *SimLedger) Transfer(ctx context.Context, amount decimal.Decimal, memo string) (*types.Receipt, error) {
	if amount.IsNegative() {
		SettlementsTotal.WithLabelValues(string(types.ReceiptTransfer), "error").Inc()
		return nil, &types.SettlementError{Kind: types.ReceiptTransfer, Message: fmt.Sprintf("negative amount %s", amount)}
	}

	l.mu.Lock()
	if l.balance.LessThan(amount) {
		l.mu.Unlock()
		SettlementsTotal.WithLabelValues(string(types.ReceiptTransfer), "error").Inc()
		return nil, &types.SettlementError{
			Kind:    types.ReceiptTransfer,
			Message: fmt.Sprintf("insufficient balance: have %s, need %s", l.balance, amount),
		}
	}
	l.balance = l.balance.Sub(amount)
	l.mu.Unlock()

	now := time.Now().UTC()
	payload := []byte(fmt.Sprintf("%s->%s:%s:%s", l.accountID, l.escrowID, amount, memo))

	receipt := &types.Receipt{
		ID:        uuid.NewString(),
		Kind:      types.ReceiptTransfer,
		TxID:      l.txID(now),
		Status:    "SUCCESS",
		Reference: l.explorerURL(consensusHash(payload, now)),
		Amount:    amount,
		Timestamp: now,
	}

	SettlementsTotal.WithLabelValues(string(types.ReceiptTransfer), "ok").Inc()
	wagerFloat, _ := amount.Float64()
	WagerAmount.Observe(wagerFloat)

	l.logger.Info("wager-transferred",
		zap.String("tx-id", receipt.TxID),
		zap.String("amount", amount.String()),
		zap.String("memo", memo))

	return receipt, nil
}

// Balance implements Ledger.
func (l *SimLedger) Balance(ctx context.Context) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance, nil
}

func (l *SimLedger) txID(now time.Time) string {
	return fmt.Sprintf("%s@%d.%09d", l.accountID, now.Unix(), now.Nanosecond())
}

func (l *SimLedger) explorerURL(hash common.Hash) string {
	return fmt.Sprintf("%s/%s/transaction/%s", explorerBaseURL, l.network, hash.Hex())
}

// consensusHash derives a deterministic transaction hash from the
// payload and submission time.
func consensusHash(payload []byte, now time.Time) common.Hash {
	stamped := append([]byte(now.Format(time.RFC3339Nano)), payload...)
	return crypto.Keccak256Hash(stamped)
}
