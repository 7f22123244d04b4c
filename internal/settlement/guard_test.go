package settlement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// balanceLedger is an inner ledger with a settable balance.
type balanceLedger struct {
	mu      sync.Mutex
	balance decimal.Decimal
}

func (b *balanceLedger) setBalance(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balance = decimal.NewFromFloat(v)
}

func (b *balanceLedger) Log(ctx context.Context, summary *Summary) (*types.Receipt, error) {
	return &types.Receipt{Kind: types.ReceiptLog, Status: "SUCCESS"}, nil
}

func (b *balanceLedger) Transfer(ctx context.Context, amount decimal.Decimal, memo string) (*types.Receipt, error) {
	return &types.Receipt{Kind: types.ReceiptTransfer, Status: "SUCCESS", Amount: amount}, nil
}

func (b *balanceLedger) Balance(ctx context.Context) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

func newTestGuard(t *testing.T, inner Ledger) *StakeGuard {
	t.Helper()

	guard, err := NewStakeGuard(inner, &GuardConfig{
		CheckInterval:   time.Minute,
		WagerMultiplier: 3.0,
		MinAbsolute:     20.0,
		HysteresisRatio: 1.5,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	return guard
}

func TestNewStakeGuard_Validation(t *testing.T) {
	inner := &balanceLedger{balance: decimal.NewFromInt(100)}
	logger := zap.NewNop()

	tests := []struct {
		name string
		cfg  *GuardConfig
	}{
		{"nil logger", &GuardConfig{CheckInterval: time.Minute, WagerMultiplier: 3, MinAbsolute: 20, HysteresisRatio: 1.5}},
		{"zero interval", &GuardConfig{WagerMultiplier: 3, MinAbsolute: 20, HysteresisRatio: 1.5, Logger: logger}},
		{"zero multiplier", &GuardConfig{CheckInterval: time.Minute, MinAbsolute: 20, HysteresisRatio: 1.5, Logger: logger}},
		{"hysteresis below one", &GuardConfig{CheckInterval: time.Minute, WagerMultiplier: 3, MinAbsolute: 20, HysteresisRatio: 0.5, Logger: logger}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStakeGuard(inner, tt.cfg)
			assert.Error(t, err)
		})
	}

	_, err := NewStakeGuard(nil, &GuardConfig{
		CheckInterval: time.Minute, WagerMultiplier: 3, MinAbsolute: 20, HysteresisRatio: 1.5, Logger: logger,
	})
	assert.Error(t, err)
}

func TestStakeGuard_StartsEnabled(t *testing.T) {
	guard := newTestGuard(t, &balanceLedger{balance: decimal.NewFromInt(100)})
	assert.True(t, guard.IsEnabled())
}

func TestStakeGuard_TransferPassesWhenEnabled(t *testing.T) {
	guard := newTestGuard(t, &balanceLedger{balance: decimal.NewFromInt(100)})

	receipt, err := guard.Transfer(context.Background(), decimal.NewFromInt(10), "memo")
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptTransfer, receipt.Kind)
}

func TestStakeGuard_OpensBelowThreshold(t *testing.T) {
	inner := &balanceLedger{balance: decimal.NewFromInt(100)}
	guard := newTestGuard(t, inner)

	inner.setBalance(10) // below MinAbsolute=20
	require.NoError(t, guard.CheckBalance(context.Background()))

	assert.False(t, guard.IsEnabled())

	_, err := guard.Transfer(context.Background(), decimal.NewFromInt(5), "memo")
	require.Error(t, err)

	var serr *types.SettlementError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, types.ReceiptTransfer, serr.Kind)
}

func TestStakeGuard_HysteresisOnReEnable(t *testing.T) {
	inner := &balanceLedger{balance: decimal.NewFromInt(100)}
	guard := newTestGuard(t, inner)

	// Open the guard.
	inner.setBalance(10)
	require.NoError(t, guard.CheckBalance(context.Background()))
	require.False(t, guard.IsEnabled())

	// Back above the disable threshold (20) but below the enable
	// threshold (30): stays open.
	inner.setBalance(25)
	require.NoError(t, guard.CheckBalance(context.Background()))
	assert.False(t, guard.IsEnabled())

	// Above the enable threshold: closes again.
	inner.setBalance(35)
	require.NoError(t, guard.CheckBalance(context.Background()))
	assert.True(t, guard.IsEnabled())
}

func TestStakeGuard_ThresholdTracksRecentWagers(t *testing.T) {
	inner := &balanceLedger{balance: decimal.NewFromInt(1000)}
	guard := newTestGuard(t, inner)

	// Large wagers push the dynamic threshold above MinAbsolute:
	// avg 50 x multiplier 3 = 150.
	for i := 0; i < 5; i++ {
		_, err := guard.Transfer(context.Background(), decimal.NewFromInt(50), "memo")
		require.NoError(t, err)
	}

	status := guard.Status()
	assert.Equal(t, 150.0, status.DisableThreshold)
	assert.Equal(t, 225.0, status.EnableThreshold)
	assert.Equal(t, 5, status.RecentWagerCount)

	// A balance of 100 is fine against MinAbsolute but not against
	// the wager-derived threshold.
	inner.setBalance(100)
	require.NoError(t, guard.CheckBalance(context.Background()))
	assert.False(t, guard.IsEnabled())
}

func TestStakeGuard_LogNeverGuarded(t *testing.T) {
	inner := &balanceLedger{balance: decimal.NewFromInt(100)}
	guard := newTestGuard(t, inner)

	inner.setBalance(5)
	require.NoError(t, guard.CheckBalance(context.Background()))
	require.False(t, guard.IsEnabled())

	_, err := guard.Log(context.Background(), testSummary())
	assert.NoError(t, err)
}

func TestStakeGuard_WagerWindowBounded(t *testing.T) {
	inner := &balanceLedger{balance: decimal.NewFromInt(100000)}
	guard := newTestGuard(t, inner)

	for i := 0; i < 30; i++ {
		_, err := guard.Transfer(context.Background(), decimal.NewFromInt(10), "memo")
		require.NoError(t, err)
	}

	assert.Equal(t, 20, guard.Status().RecentWagerCount)
}
