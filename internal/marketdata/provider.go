package marketdata

import (
	"context"

	"github.com/alphaduel/arena/pkg/types"
)

// Provider fetches a market snapshot for a symbol. A failure is
// returned as a MarketDataError; the caller never retries.
type Provider interface {
	Fetch(ctx context.Context, symbol string) (*types.MarketSnapshot, error)
}

// SupportedSymbol describes one entry of the built-in symbol table.
type SupportedSymbol struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	CoinID string `json:"id"`
}

// Symbols returns the built-in ticker table in stable order.
func Symbols() []SupportedSymbol {
	return []SupportedSymbol{
		{Symbol: "HBAR", Name: "Hedera", CoinID: "hedera-hashgraph"},
		{Symbol: "BTC", Name: "Bitcoin", CoinID: "bitcoin"},
		{Symbol: "ETH", Name: "Ethereum", CoinID: "ethereum"},
		{Symbol: "SOL", Name: "Solana", CoinID: "solana"},
		{Symbol: "AVAX", Name: "Avalanche", CoinID: "avalanche-2"},
		{Symbol: "MATIC", Name: "Polygon", CoinID: "matic-network"},
		{Symbol: "DOT", Name: "Polkadot", CoinID: "polkadot"},
		{Symbol: "LINK", Name: "Chainlink", CoinID: "chainlink"},
		{Symbol: "UNI", Name: "Uniswap", CoinID: "uniswap"},
		{Symbol: "AAVE", Name: "Aave", CoinID: "aave"},
	}
}

// coinID maps a ticker to its CoinGecko id, falling back to the
// lowercased ticker for unknown symbols.
func coinID(symbol string) string {
	for _, s := range Symbols() {
		if s.Symbol == symbol {
			return s.CoinID
		}
	}
	return ""
}
