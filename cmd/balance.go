package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check the operator ledger balance",
	Long: `Display the operator account balance the settlement ledger
would draw wagers from, plus the configured escrow account and
network.`,
	RunE: runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ledger := settlement.NewSimLedger(&settlement.SimConfig{
		AccountID: cfg.LedgerAccountID,
		EscrowID:  cfg.LedgerEscrowAccountID,
		Network:   cfg.LedgerNetwork,
		TopicID:   cfg.LedgerTopicID,
		Logger:    logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	balance, err := ledger.Balance(ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	fmt.Printf("=== Operator Balance ===\n\n")
	fmt.Printf("Network:  %s\n", cfg.LedgerNetwork)
	fmt.Printf("Balance:  %s\n", balance.StringFixed(2))
	fmt.Printf("\nBase stake per debate: %.2f\n", cfg.BaseStake)

	return nil
}
