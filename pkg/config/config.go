package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// LLM backend (OpenAI-compatible chat completions API)
	LLMBaseURL          string
	LLMAPIKey           string
	LLMModel            string
	ProducerTemperature float64
	ArbiterTemperature  float64

	// Market data
	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string
	MarketCacheTTL   time.Duration

	// Debate
	MaxRounds     int
	BaseStake     float64
	DefaultSymbol string

	// Settlement ledger
	LedgerAccountID       string
	LedgerEscrowAccountID string
	LedgerNetwork         string // "testnet" or "mainnet"
	LedgerTopicID         string

	// Stake guard
	GuardEnabled         bool
	GuardCheckInterval   time.Duration
	GuardMinBalance      float64
	GuardWagerMultiplier float64
	GuardHysteresisRatio float64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with
// defaults. A .env file in the working directory is applied first if
// present.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// LLM defaults
		LLMBaseURL:          getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:           os.Getenv("LLM_API_KEY"),
		LLMModel:            getEnvOrDefault("LLM_MODEL", "gpt-4.1"),
		ProducerTemperature: getFloat64OrDefault("LLM_PRODUCER_TEMPERATURE", 0.7),
		ArbiterTemperature:  getFloat64OrDefault("LLM_ARBITER_TEMPERATURE", 0.0),

		// Market data defaults
		CoinGeckoBaseURL: getEnvOrDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:  os.Getenv("COINGECKO_API_KEY"),
		MarketCacheTTL:   getDurationOrDefault("MARKET_CACHE_TTL", 30*time.Second),

		// Debate defaults
		MaxRounds:     getIntOrDefault("DEBATE_MAX_ROUNDS", 2),
		BaseStake:     getFloat64OrDefault("DEBATE_BASE_STAKE", 10.0),
		DefaultSymbol: getEnvOrDefault("DEBATE_DEFAULT_SYMBOL", "HBAR"),

		// Ledger defaults (empty credentials select simulation mode)
		LedgerAccountID:       os.Getenv("LEDGER_ACCOUNT_ID"),
		LedgerEscrowAccountID: os.Getenv("LEDGER_ESCROW_ACCOUNT_ID"),
		LedgerNetwork:         getEnvOrDefault("LEDGER_NETWORK", "testnet"),
		LedgerTopicID:         os.Getenv("LEDGER_TOPIC_ID"),

		// Stake guard defaults
		GuardEnabled:         getBoolOrDefault("STAKE_GUARD_ENABLED", false),
		GuardCheckInterval:   getDurationOrDefault("STAKE_GUARD_CHECK_INTERVAL", 60*time.Second),
		GuardMinBalance:      getFloat64OrDefault("STAKE_GUARD_MIN_BALANCE", 20.0),
		GuardWagerMultiplier: getFloat64OrDefault("STAKE_GUARD_WAGER_MULTIPLIER", 3.0),
		GuardHysteresisRatio: getFloat64OrDefault("STAKE_GUARD_HYSTERESIS_RATIO", 1.5),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "arena"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "arena123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "debate_arena"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.LLMBaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL cannot be empty")
	}

	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}

	if c.CoinGeckoBaseURL == "" {
		return fmt.Errorf("COINGECKO_BASE_URL cannot be empty")
	}

	if c.MaxRounds < 0 || c.MaxRounds > 5 {
		return fmt.Errorf("DEBATE_MAX_ROUNDS must be between 0 and 5, got %d", c.MaxRounds)
	}

	if c.BaseStake <= 0 {
		return fmt.Errorf("DEBATE_BASE_STAKE must be positive, got %f", c.BaseStake)
	}

	if c.LedgerNetwork != "testnet" && c.LedgerNetwork != "mainnet" {
		return fmt.Errorf("LEDGER_NETWORK must be 'testnet' or 'mainnet', got %q", c.LedgerNetwork)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	if c.GuardEnabled {
		if c.GuardWagerMultiplier <= 0 {
			return fmt.Errorf("STAKE_GUARD_WAGER_MULTIPLIER must be positive, got %f", c.GuardWagerMultiplier)
		}
		if c.GuardHysteresisRatio < 1.0 {
			return fmt.Errorf("STAKE_GUARD_HYSTERESIS_RATIO must be >= 1.0, got %f", c.GuardHysteresisRatio)
		}
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
