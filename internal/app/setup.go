package app

import (
	"context"
	"fmt"

	"github.com/alphaduel/arena/internal/agents"
	"github.com/alphaduel/arena/internal/debate"
	"github.com/alphaduel/arena/internal/marketdata"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/internal/storage"
	"github.com/alphaduel/arena/pkg/config"
	"github.com/alphaduel/arena/pkg/healthprobe"
	"github.com/alphaduel/arena/pkg/httpserver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New("debate-arena")

	provider, err := setupProvider(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup market data provider: %w", err)
	}

	ledger, guard := setupLedger(cfg, logger)

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	engine, err := setupEngine(cfg, logger, provider, ledger, store)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup engine: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Service:       engine,
		Guard:         guard,
		DefaultSymbol: cfg.DefaultSymbol,
		DefaultRounds: cfg.MaxRounds,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		engine:        engine,
		provider:      provider,
		guard:         guard,
		store:         store,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupProvider(cfg *config.Config, logger *zap.Logger) (*marketdata.CachedProvider, error) {
	client := marketdata.NewCoinGeckoClient(&marketdata.CoinGeckoConfig{
		BaseURL: cfg.CoinGeckoBaseURL,
		APIKey:  cfg.CoinGeckoAPIKey,
		Logger:  logger,
	})

	return marketdata.NewCachedProvider(client, cfg.MarketCacheTTL, logger)
}

// setupLedger builds the settlement chain: the simulated consensus
// ledger, wrapped by the stake guard when enabled. The guard is
// returned separately so serve mode can start its monitor and expose
// its status.
func setupLedger(cfg *config.Config, logger *zap.Logger) (settlement.Ledger, *settlement.StakeGuard) {
	sim := settlement.NewSimLedger(&settlement.SimConfig{
		AccountID: cfg.LedgerAccountID,
		EscrowID:  cfg.LedgerEscrowAccountID,
		Network:   cfg.LedgerNetwork,
		TopicID:   cfg.LedgerTopicID,
		Logger:    logger,
	})

	if !cfg.GuardEnabled {
		return sim, nil
	}

	guard, err := settlement.NewStakeGuard(sim, &settlement.GuardConfig{
		CheckInterval:   cfg.GuardCheckInterval,
		WagerMultiplier: cfg.GuardWagerMultiplier,
		MinAbsolute:     cfg.GuardMinBalance,
		HysteresisRatio: cfg.GuardHysteresisRatio,
		Logger:          logger,
	})
	if err != nil {
		logger.Warn("stake-guard-disabled", zap.Error(err))
		return sim, nil
	}

	return guard, guard
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupEngine(
	cfg *config.Config,
	logger *zap.Logger,
	provider marketdata.Provider,
	ledger settlement.Ledger,
	store storage.Storage,
) (*debate.Engine, error) {
	backend := agents.NewOpenAIBackend(&agents.BackendConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
		Logger:  logger,
	})

	baseStake := decimal.NewFromFloat(cfg.BaseStake)

	return debate.New(&debate.Config{
		Market:    provider,
		Proponent: agents.NewProponent(backend, cfg.ProducerTemperature, logger),
		Opponent:  agents.NewOpponent(backend, cfg.ProducerTemperature, logger),
		Arbiter:   agents.NewArbiter(backend, baseStake, cfg.ArbiterTemperature, logger),
		Ledger:    ledger,
		Store:     store,
		Logger:    logger,
	})
}
