package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// CoinGeckoClient implements Provider against the CoinGecko API.
type CoinGeckoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// CoinGeckoConfig holds client configuration.
type CoinGeckoConfig struct {
	BaseURL string
	APIKey  string
	Logger  *zap.Logger
}

// NewCoinGeckoClient creates a CoinGecko market data client.
func NewCoinGeckoClient(cfg *CoinGeckoConfig) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: cfg.Logger,
	}
}

type coinResponse struct {
	MarketData struct {
		CurrentPrice             map[string]float64 `json:"current_price"`
		PriceChange24h           float64            `json:"price_change_24h"`
		PriceChangePercentage24h float64            `json:"price_change_percentage_24h"`
		MarketCap                map[string]float64 `json:"market_cap"`
		TotalVolume              map[string]float64 `json:"total_volume"`
		High24h                  map[string]float64 `json:"high_24h"`
		Low24h                   map[string]float64 `json:"low_24h"`
	} `json:"market_data"`
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// Fetch retrieves price data, computes a 14-period RSI from the
// 14-day chart, and attaches the sentiment summary. Price data
// failure fails the fetch; RSI degrades to neutral.
func (c *CoinGeckoClient) Fetch(ctx context.Context, symbol string) (*types.MarketSnapshot, error) {
	start := time.Now()
	symbol = strings.ToUpper(symbol)

	id := coinID(symbol)
	if id == "" {
		id = strings.ToLower(symbol)
	}

	snap, err := c.fetchPriceData(ctx, symbol, id)
	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, err
	}

	snap.RSI = c.fetchRSI(ctx, id)
	snap.NewsSummary, snap.SentimentScore = newsSentiment(symbol)
	snap.FetchedAt = time.Now().UTC()

	FetchDurationSeconds.Observe(time.Since(start).Seconds())
	c.logger.Info("market-data-fetched",
		zap.String("symbol", symbol),
		zap.Float64("price", snap.Price),
		zap.Float64("rsi", snap.RSI))

	return snap, nil
}

func (c *CoinGeckoClient) fetchPriceData(ctx context.Context, symbol, id string) (*types.MarketSnapshot, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")

	body, err := c.get(ctx, fmt.Sprintf("%s/coins/%s?%s", c.baseURL, id, params.Encode()))
	if err != nil {
		return nil, &types.MarketDataError{Symbol: symbol, Message: "price data fetch failed", Err: err}
	}

	var parsed coinResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		return nil, &types.MarketDataError{Symbol: symbol, Message: "price data decode failed", Err: err}
	}

	md := parsed.MarketData

	return &types.MarketSnapshot{
		Symbol:          symbol,
		CoinID:          id,
		Price:           md.CurrentPrice["usd"],
		PriceChange24h:  md.PriceChange24h,
		ChangePercent24: md.PriceChangePercentage24h,
		High24h:         md.High24h["usd"],
		Low24h:          md.Low24h["usd"],
		Volume24h:       md.TotalVolume["usd"],
		MarketCap:       md.MarketCap["usd"],
	}, nil
}

// fetchRSI computes a 14-period RSI from daily closes. Any failure
// yields the neutral value 50; RSI quality never fails a debate.
func (c *CoinGeckoClient) fetchRSI(ctx context.Context, id string) float64 {
	body, err := c.get(ctx, fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=14", c.baseURL, id))
	if err != nil {
		c.logger.Warn("rsi-chart-fetch-failed", zap.String("coin-id", id), zap.Error(err))
		return 50.0
	}

	var parsed marketChartResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		c.logger.Warn("rsi-chart-decode-failed", zap.String("coin-id", id), zap.Error(err))
		return 50.0
	}

	prices := make([]float64, 0, len(parsed.Prices))
	for _, point := range parsed.Prices {
		prices = append(prices, point[1])
	}

	return ComputeRSI(prices)
}

func (c *CoinGeckoClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// ComputeRSI computes a 14-period RSI over the given closing prices.
// Returns neutral 50 when fewer than 15 prices are available and 100
// when there are no losses in the window.
func ComputeRSI(prices []float64) float64 {
	const period = 14

	if len(prices) < period+1 {
		return 50.0
	}

	var gains, losses float64
	start := len(prices) - period

	for i := start; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / period
	avgLoss := losses / period

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	// Two decimal places, matching the rest of the snapshot fields.
	return float64(int(rsi*100+0.5)) / 100
}

// newsSentiment returns the fixed sentiment stub. Production news
// retrieval is out of scope; the shape matches the real integration.
func newsSentiment(symbol string) (string, float64) {
	summary := fmt.Sprintf("Recent news for %s shows mixed market sentiment with institutional interest growing.", symbol)
	return summary, 0.55
}
