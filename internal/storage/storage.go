package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the archival row for one settled debate.
type Record struct {
	DebateID     string
	Symbol       string
	Query        string
	Winner       string
	Confidence   float64
	Wager        decimal.Decimal
	Rounds       int
	LogTxID      string
	TransferTxID string
	CompletedAt  time.Time
}

// Storage is the interface for archiving settled debates.
type Storage interface {
	// StoreDebate archives a settled debate.
	StoreDebate(ctx context.Context, record *Record) error

	// Close closes the storage connection.
	Close() error
}
