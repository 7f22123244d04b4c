package settlement

import (
	"context"
	"strings"
	"testing"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSimLedger() *SimLedger {
	return NewSimLedger(&SimConfig{
		Network: "testnet",
		Logger:  zap.NewNop(),
	})
}

func testSummary() *Summary {
	return NewSummary("HBAR", "Is HBAR a buy?",
		&types.Verdict{
			Winner:     types.RoleProponent,
			Confidence: 75,
			Wager:      decimal.NewFromInt(10),
			KeyFactors: []string{"momentum"},
		},
		&types.MarketSnapshot{Price: 0.07, RSI: 58},
	)
}

func TestNewSummary(t *testing.T) {
	summary := testSummary()

	assert.Equal(t, SummaryType, summary.Type)
	assert.Equal(t, "HBAR", summary.Symbol)
	assert.Equal(t, types.RoleProponent, summary.Winner)
	assert.Equal(t, float64(75), summary.Confidence)
	assert.Equal(t, 0.07, summary.Market.Price)
	assert.Equal(t, float64(58), summary.Market.RSI)
}

func TestSimLedger_Log(t *testing.T) {
	ledger := newSimLedger()

	receipt, err := ledger.Log(context.Background(), testSummary())
	require.NoError(t, err)

	assert.Equal(t, types.ReceiptLog, receipt.Kind)
	assert.Equal(t, "SUCCESS", receipt.Status)
	assert.NotEmpty(t, receipt.ID)
	assert.Contains(t, receipt.TxID, "0.0.12345@")
	assert.True(t, strings.HasPrefix(receipt.Reference, "https://hashscan.io/testnet/transaction/0x"),
		"reference %q is not an explorer URL", receipt.Reference)
}

func TestSimLedger_Transfer(t *testing.T) {
	ledger := newSimLedger()
	amount := decimal.NewFromInt(10)

	receipt, err := ledger.Transfer(context.Background(), amount, "HBAR debate: Proponent wins with 75% confidence")
	require.NoError(t, err)

	assert.Equal(t, types.ReceiptTransfer, receipt.Kind)
	assert.True(t, receipt.Amount.Equal(amount))
	assert.Contains(t, receipt.Reference, "hashscan.io/testnet/transaction/")

	// Balance debited.
	balance, err := ledger.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(990)), "got %s", balance)
}

func TestSimLedger_Transfer_RejectsNegative(t *testing.T) {
	ledger := newSimLedger()

	_, err := ledger.Transfer(context.Background(), decimal.NewFromInt(-5), "memo")
	require.Error(t, err)

	var serr *types.SettlementError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, types.ReceiptTransfer, serr.Kind)
}

func TestSimLedger_Transfer_InsufficientBalance(t *testing.T) {
	ledger := newSimLedger()

	_, err := ledger.Transfer(context.Background(), decimal.NewFromInt(2000), "memo")
	require.Error(t, err)

	var serr *types.SettlementError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, "insufficient balance")

	// Balance unchanged on rejection.
	balance, _ := ledger.Balance(context.Background())
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)))
}

func TestSimLedger_CustomAccounts(t *testing.T) {
	ledger := NewSimLedger(&SimConfig{
		AccountID: "0.0.777",
		Network:   "mainnet",
		Logger:    zap.NewNop(),
	})

	receipt, err := ledger.Log(context.Background(), testSummary())
	require.NoError(t, err)

	assert.Contains(t, receipt.TxID, "0.0.777@")
	assert.Contains(t, receipt.Reference, "hashscan.io/mainnet/")
}

func TestSimLedger_ReceiptsHaveDistinctHashes(t *testing.T) {
	ledger := newSimLedger()

	first, err := ledger.Log(context.Background(), testSummary())
	require.NoError(t, err)
	second, err := ledger.Log(context.Background(), testSummary())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, first.Reference, second.Reference)
}
