package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreDebate pretty-prints a settled debate to console.
func (c *ConsoleStorage) StoreDebate(ctx context.Context, record *Record) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("⚖️  DEBATE SETTLED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:         %s\n", record.DebateID[:8])
	fmt.Printf("Symbol:     %s\n", record.Symbol)
	fmt.Printf("Query:      %s\n", record.Query)
	fmt.Printf("Completed:  %s\n", record.CompletedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🏆 VERDICT\n")
	fmt.Printf("  Winner:     %s\n", record.Winner)
	fmt.Printf("  Confidence: %.0f%%\n", record.Confidence)
	fmt.Printf("  Wager:      %s\n", record.Wager.StringFixed(2))
	fmt.Printf("  Rounds:     %d\n", record.Rounds)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🧾 RECEIPTS\n")
	fmt.Printf("  Log TX:      %s\n", record.LogTxID)
	fmt.Printf("  Transfer TX: %s\n", record.TransferTxID)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
