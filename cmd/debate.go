package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alphaduel/arena/internal/agents"
	"github.com/alphaduel/arena/internal/debate"
	"github.com/alphaduel/arena/internal/marketdata"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/pkg/config"
	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var debateCmd = &cobra.Command{
	Use:   "debate",
	Short: "Run a single debate from the command line",
	Long: `Runs one full debate for a symbol: market data fetch, the
configured number of argument rounds, the arbiter's verdict, and
settlement of the derived wager.

With --stream, tokens are printed as the debaters generate them.`,
	RunE: runDebate,
}

//nolint:gochecknoglobals // Cobra boilerplate
var (
	debateSymbol string
	debateQuery  string
	debateRounds int
	debateStream bool
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(debateCmd)

	debateCmd.Flags().StringVarP(&debateSymbol, "symbol", "s", "", "Symbol to debate (default from config)")
	debateCmd.Flags().StringVarP(&debateQuery, "query", "q", "", "Debate question (defaults to a buy/sell question)")
	debateCmd.Flags().IntVarP(&debateRounds, "rounds", "r", 0, "Argument rounds (default from config; an explicit 0 still runs the opening round)")
	debateCmd.Flags().BoolVar(&debateStream, "stream", false, "Print tokens as they are generated")
}

func runDebate(cmd *cobra.Command, args []string) error {
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

	engine, provider, err := buildEngine(cfg, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer provider.Close()

	symbol := debateSymbol
	if symbol == "" {
		symbol = cfg.DefaultSymbol
	}

	query := debateQuery
	if query == "" {
		query = fmt.Sprintf("Is %s a good buy right now?", strings.ToUpper(symbol))
	}

	rounds := resolveRounds(cmd.Flags().Changed("rounds"), debateRounds, cfg.MaxRounds)

	req := debate.Request{
		Query:     query,
		Symbol:    symbol,
		MaxRounds: rounds,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if debateStream {
		return streamDebate(ctx, engine, req)
	}

	result, err := engine.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("debate failed: %w", err)
	}

	printResult(result)
	return nil
}

// resolveRounds keeps an explicitly passed --rounds value, including
// 0 (one guaranteed opening round); only an unset flag falls back to
// the configured default.
func resolveRounds(flagSet bool, flagValue, configured int) int {
	if flagSet {
		return flagValue
	}
	return configured
}

// buildEngine wires a standalone engine for one-shot CLI debates:
// cached market data, simulated ledger, no archival storage (the
// result is printed instead).
func buildEngine(cfg *config.Config, logger *zap.Logger) (*debate.Engine, *marketdata.CachedProvider, error) {
	client := marketdata.NewCoinGeckoClient(&marketdata.CoinGeckoConfig{
		BaseURL: cfg.CoinGeckoBaseURL,
		APIKey:  cfg.CoinGeckoAPIKey,
		Logger:  logger,
	})

	provider, err := marketdata.NewCachedProvider(client, cfg.MarketCacheTTL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create market data provider: %w", err)
	}

	ledger := settlement.NewSimLedger(&settlement.SimConfig{
		AccountID: cfg.LedgerAccountID,
		EscrowID:  cfg.LedgerEscrowAccountID,
		Network:   cfg.LedgerNetwork,
		TopicID:   cfg.LedgerTopicID,
		Logger:    logger,
	})

	backend := agents.NewOpenAIBackend(&agents.BackendConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Logger:  logger,
	})

	baseStake := decimal.NewFromFloat(cfg.BaseStake)

	engine, err := debate.New(&debate.Config{
		Market:    provider,
		Proponent: agents.NewProponent(backend, cfg.ProducerTemperature, logger),
		Opponent:  agents.NewOpponent(backend, cfg.ProducerTemperature, logger),
		Arbiter:   agents.NewArbiter(backend, baseStake, cfg.ArbiterTemperature, logger),
		Ledger:    ledger,
		Logger:    logger,
	})
	if err != nil {
		provider.Close()
		return nil, nil, err
	}

	return engine, provider, nil
}

func streamDebate(ctx context.Context, engine *debate.Engine, req debate.Request) error {
	for ev := range engine.Stream(ctx, req) {
		switch ev.Kind {
		case types.KindStatus:
			fmt.Printf("\n--- %s ---\n", ev.Status)
		case types.KindToken:
			fmt.Print(ev.Token)
		case types.KindMessage:
			fmt.Println()
		case types.KindError:
			fmt.Printf("\nERROR: %v\n", ev.Payload)
		case types.KindDone:
			fmt.Printf("\n=== debate finished: %s ===\n", ev.Status)
			if ev.Status == string(types.StatusError) {
				return fmt.Errorf("debate failed")
			}
		}
	}

	return nil
}

func printResult(result *debate.Result) {
	fmt.Printf("\n=== Debate %s ===\n", result.DebateID[:8])
	fmt.Printf("Symbol:   %s\n", result.Symbol)
	fmt.Printf("Query:    %s\n", result.Query)
	fmt.Printf("Rounds:   %d\n", result.Rounds)

	for i := range result.ProponentArguments {
		fmt.Printf("\n--- Round %d ---\n", i+1)
		fmt.Printf("[Proponent, %.0f%% confident]\n%s\n",
			result.ProponentArguments[i].Confidence, result.ProponentArguments[i].Text)
		if i < len(result.OpponentArguments) {
			fmt.Printf("\n[Opponent, %.0f%% confident]\n%s\n",
				result.OpponentArguments[i].Confidence, result.OpponentArguments[i].Text)
		}
	}

	if result.Verdict != nil {
		fmt.Printf("\n=== Verdict ===\n")
		fmt.Printf("Winner:     %s\n", result.Verdict.Winner)
		fmt.Printf("Confidence: %.0f%%\n", result.Verdict.Confidence)
		fmt.Printf("Wager:      %s\n", result.Verdict.Wager.StringFixed(2))
		fmt.Printf("Rationale:  %s\n", result.Verdict.Rationale)
	}

	if len(result.Receipts) > 0 {
		fmt.Printf("\n=== Settlement ===\n")
		for _, receipt := range result.Receipts {
			fmt.Printf("%-8s %s\n         %s\n", receipt.Kind, receipt.TxID, receipt.Reference)
		}
	}
}
