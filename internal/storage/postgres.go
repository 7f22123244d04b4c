package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreDebate archives a settled debate in PostgreSQL.
func (p *PostgresStorage) StoreDebate(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO debates (
			id, symbol, query, winner, confidence, wager,
			rounds, log_tx_id, transfer_tx_id, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		record.DebateID,
		record.Symbol,
		record.Query,
		record.Winner,
		record.Confidence,
		record.Wager.StringFixed(2),
		record.Rounds,
		record.LogTxID,
		record.TransferTxID,
		record.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("insert debate: %w", err)
	}

	p.logger.Debug("debate-stored",
		zap.String("debate-id", record.DebateID),
		zap.String("symbol", record.Symbol),
		zap.String("winner", record.Winner))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
