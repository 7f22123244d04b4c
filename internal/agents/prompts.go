package agents

import (
	"fmt"

	"github.com/alphaduel/arena/pkg/types"
)

const proponentSystemPrompt = `You are the PROPONENT - an optimistic market analyst arguing that the asset's price will GO UP.

Focus on positive momentum, rising volume, support levels holding, positive sentiment, adoption signals, and oversold technical conditions.

Be confident but professional, cite specific data points, and end with a clear bullish expectation.

Format your response as:
1. Key Bullish Signals (bullet points)
2. Technical Analysis Summary
3. Price Outlook
4. Confidence Level (0-100%)`

const opponentSystemPrompt = `You are the OPPONENT - a cautious market analyst arguing that the asset's price will GO DOWN.

Focus on negative momentum, weak or unusual volume, resistance levels, negative sentiment, regulatory risk, overbought technical conditions, and market cycle corrections.

Be analytical and risk-focused, cite specific data points, highlight what the other side is missing, and end with a clear bearish expectation.

Format your response as:
1. Key Bearish Signals (bullet points)
2. Technical Analysis Summary
3. Risk Assessment
4. Confidence Level (0-100%)`

const arbiterSystemPrompt = `You are the ARBITER - an impartial judge evaluating arguments from the Proponent and the Opponent.

Judge on strength of evidence, use of actual market data over speculation, logical coherence, quality of risk/reward analysis, and acknowledgment of counter-arguments.

Respond with a JSON object:
{
    "winner": "Proponent" | "Opponent",
    "confidence_score": 0-100,
    "reasoning": "...",
    "key_factors": ["factor1", "factor2", ...]
}`

const rebuttalTemplate = `You are in a debate round. Your opponent just made the following argument:

%s

Respond by challenging their weakest points, reinforcing your strongest arguments with additional evidence, and introducing any new relevant data points. Keep your response focused and under 200 words.`

func openingPrompt(snap *types.MarketSnapshot, query string) string {
	return fmt.Sprintf(`User Query: %s

Market Data:
- Symbol: %s
- Current Price: $%.4f
- 24h Change: %.2f%%
- 24h High: $%.4f
- 24h Low: $%.4f
- Volume (24h): $%.0f
- Market Cap: $%.0f
- RSI (14): %.1f
- News Sentiment: %.2f

News Summary: %s

Provide your analysis:`,
		query,
		snap.Symbol,
		snap.Price,
		snap.ChangePercent24,
		snap.High24h,
		snap.Low24h,
		snap.Volume24h,
		snap.MarketCap,
		snap.RSI,
		snap.SentimentScore,
		snap.NewsSummary,
	)
}

func rebuttalPrompt(opposing string, snap *types.MarketSnapshot) string {
	return fmt.Sprintf(`Remember your stance. Current market data:
- Price: $%.4f
- 24h Change: %.2f%%
- RSI: %.1f

%s`,
		snap.Price,
		snap.ChangePercent24,
		snap.RSI,
		fmt.Sprintf(rebuttalTemplate, opposing),
	)
}

func verdictPrompt(transcript string, snap *types.MarketSnapshot, query string) string {
	return fmt.Sprintf(`User's Original Question: %s

Asset: %s
Current Price: $%.4f
24h Change: %.2f%%
RSI: %.1f

=== DEBATE TRANSCRIPT ===

%s

=== END DEBATE ===

Based on the arguments presented, provide your verdict as a JSON object.
Be objective and base your decision on the quality of arguments and evidence presented.`,
		query,
		snap.Symbol,
		snap.Price,
		snap.ChangePercent24,
		snap.RSI,
		transcript,
	)
}
