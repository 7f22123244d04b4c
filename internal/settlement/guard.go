package settlement

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StakeGuard wraps a Ledger and refuses transfers when the operator
// balance drops below a dynamic threshold derived from recent wagers.
// Hysteresis prevents rapid flapping around the threshold. A refused
// transfer is a SettlementError, never a fabricated receipt.
type StakeGuard struct {
	inner  Ledger
	logger *zap.Logger

	enabled atomic.Bool

	checkInterval   time.Duration
	wagerMultiplier float64
	minAbsolute     float64
	hysteresisRatio float64

	mu               sync.Mutex
	recentWagers     []float64
	disableThreshold float64
	enableThreshold  float64
	lastBalance      float64
	lastCheck        time.Time
}

// GuardConfig holds stake guard configuration.
type GuardConfig struct {
	CheckInterval   time.Duration
	WagerMultiplier float64
	MinAbsolute     float64
	HysteresisRatio float64
	Logger          *zap.Logger
}

// GuardStatus is a point-in-time view for debugging endpoints.
type GuardStatus struct {
	Enabled          bool      `json:"enabled"`
	LastBalance      float64   `json:"last_balance"`
	LastCheck        time.Time `json:"last_check"`
	DisableThreshold float64   `json:"disable_threshold"`
	EnableThreshold  float64   `json:"enable_threshold"`
	RecentWagerCount int       `json:"recent_wager_count"`
}

// NewStakeGuard wraps a ledger with a balance guard.
func NewStakeGuard(inner Ledger, cfg *GuardConfig) (*StakeGuard, error) {
	if inner == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("check interval must be positive")
	}
	if cfg.WagerMultiplier <= 0 {
		return nil, fmt.Errorf("wager multiplier must be positive")
	}
	if cfg.MinAbsolute <= 0 {
		return nil, fmt.Errorf("min absolute must be positive")
	}
	if cfg.HysteresisRatio < 1.0 {
		return nil, fmt.Errorf("hysteresis ratio must be >= 1.0")
	}

	guard := &StakeGuard{
		inner:            inner,
		logger:           cfg.Logger,
		checkInterval:    cfg.CheckInterval,
		wagerMultiplier:  cfg.WagerMultiplier,
		minAbsolute:      cfg.MinAbsolute,
		hysteresisRatio:  cfg.HysteresisRatio,
		recentWagers:     make([]float64, 0, 20),
		disableThreshold: cfg.MinAbsolute,
		enableThreshold:  cfg.MinAbsolute * cfg.HysteresisRatio,
	}

	guard.enabled.Store(true)
	GuardEnabled.Set(1)

	return guard, nil
}

// Log implements Ledger; logging is never guarded.
func (g *StakeGuard) Log(ctx context.Context, summary *Summary) (*types.Receipt, error) {
	return g.inner.Log(ctx, summary)
}

// Transfer implements Ledger. When the guard is open the transfer
// fails fast without touching the inner ledger.
func (g *StakeGuard) Transfer(ctx context.Context, amount decimal.Decimal, memo string) (*types.Receipt, error) {
	if !g.enabled.Load() {
		GuardRefusalsTotal.Inc()
		return nil, &types.SettlementError{
			Kind:    types.ReceiptTransfer,
			Message: "stake guard open: operator balance below threshold",
		}
	}

	receipt, err := g.inner.Transfer(ctx, amount, memo)
	if err != nil {
		return nil, err
	}

	wagerFloat, _ := amount.Float64()
	g.recordWager(wagerFloat)

	return receipt, nil
}

// Balance implements Ledger.
func (g *StakeGuard) Balance(ctx context.Context) (decimal.Decimal, error) {
	return g.inner.Balance(ctx)
}

// IsEnabled reports whether transfers currently pass through.
func (g *StakeGuard) IsEnabled() bool {
	return g.enabled.Load()
}

// Start begins periodic balance checks until the context is cancelled.
func (g *StakeGuard) Start(ctx context.Context) {
	g.logger.Info("stake-guard-started",
		zap.Duration("check-interval", g.checkInterval),
		zap.Float64("min-absolute", g.minAbsolute),
		zap.Float64("wager-multiplier", g.wagerMultiplier))

	err := g.CheckBalance(ctx)
	if err != nil {
		g.logger.Error("initial-balance-check-failed", zap.Error(err))
	}

	go g.monitorLoop(ctx)
}

func (g *StakeGuard) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(g.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("stake-guard-stopped")
			return
		case <-ticker.C:
			err := g.CheckBalance(ctx)
			if err != nil {
				g.logger.Error("balance-check-error", zap.Error(err))
			}
		}
	}
}

// CheckBalance refreshes the guard state from the current balance.
func (g *StakeGuard) CheckBalance(ctx context.Context) error {
	balanceDec, err := g.inner.Balance(ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	balance, _ := balanceDec.Float64()

	g.mu.Lock()
	g.lastBalance = balance
	g.lastCheck = time.Now()
	disableThreshold := g.disableThreshold
	enableThreshold := g.enableThreshold
	g.mu.Unlock()

	GuardBalance.Set(balance)

	currentlyEnabled := g.enabled.Load()

	switch {
	case currentlyEnabled && balance < disableThreshold:
		g.enabled.Store(false)
		GuardEnabled.Set(0)
		g.logger.Warn("stake-guard-opened",
			zap.Float64("balance", balance),
			zap.Float64("disable-threshold", disableThreshold))
	case !currentlyEnabled && balance >= enableThreshold:
		g.enabled.Store(true)
		GuardEnabled.Set(1)
		g.logger.Info("stake-guard-closed",
			zap.Float64("balance", balance),
			zap.Float64("enable-threshold", enableThreshold))
	}

	return nil
}

// Status returns the current guard state.
func (g *StakeGuard) Status() GuardStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	return GuardStatus{
		Enabled:          g.enabled.Load(),
		LastBalance:      g.lastBalance,
		LastCheck:        g.lastCheck,
		DisableThreshold: g.disableThreshold,
		EnableThreshold:  g.enableThreshold,
		RecentWagerCount: len(g.recentWagers),
	}
}

func (g *StakeGuard) recordWager(amount float64) {
	if amount <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.recentWagers = append(g.recentWagers, amount)
	if len(g.recentWagers) > 20 {
		g.recentWagers = g.recentWagers[1:]
	}

	sum := 0.0
	for _, w := range g.recentWagers {
		sum += w
	}
	avg := sum / float64(len(g.recentWagers))

	g.disableThreshold = math.Max(avg*g.wagerMultiplier, g.minAbsolute)
	g.enableThreshold = g.disableThreshold * g.hysteresisRatio

	g.logger.Debug("guard-thresholds-updated",
		zap.Float64("avg-wager", avg),
		zap.Float64("disable-threshold", g.disableThreshold),
		zap.Float64("enable-threshold", g.enableThreshold))
}
