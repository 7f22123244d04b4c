package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VerdictChunk is one element of a streaming verdict, following the
// same token/terminal contract as Chunk.
type VerdictChunk struct {
	Token   string
	Verdict *types.Verdict
	Err     error
}

// Arbiter is the stateless verdict contract over the full transcript.
type Arbiter interface {
	// Decide evaluates the debate and returns the verdict, including
	// the derived wager.
	Decide(ctx context.Context, pro, opp []types.Argument, snap *types.MarketSnapshot, query string) (*types.Verdict, error)

	// DecideStream is the streaming variant; the terminal chunk carries
	// the full Verdict.
	DecideStream(ctx context.Context, pro, opp []types.Argument, snap *types.MarketSnapshot, query string) <-chan VerdictChunk
}

// Wager multipliers form a deliberate step function of confidence,
// not a linear scale. Boundaries are inclusive on the high side:
// 40 maps to 0.5x and 70 maps to 1.0x.
var (
	wagerLowMultiplier  = decimal.NewFromFloat(0.1)
	wagerMidMultiplier  = decimal.NewFromFloat(0.5)
	wagerHighMultiplier = decimal.NewFromInt(1)
)

var verdictJSONBlock = regexp.MustCompile(`(?s)\{[^{}]*\}`)

// LLMArbiter implements Arbiter over a text-generation Backend.
type LLMArbiter struct {
	backend     Backend
	miner       Miner
	baseStake   decimal.Decimal
	temperature float64
	logger      *zap.Logger
}

// NewArbiter creates the arbiter. baseStake bounds every wager.
func NewArbiter(backend Backend, baseStake decimal.Decimal, temperature float64, logger *zap.Logger) *LLMArbiter {
	return &LLMArbiter{
		backend:     backend,
		miner:       NewVerdictMiner(),
		baseStake:   baseStake,
		temperature: temperature,
		logger:      logger,
	}
}

// Decide implements Arbiter.
func (a *LLMArbiter) Decide(ctx context.Context, pro, opp []types.Argument, snap *types.MarketSnapshot, query string) (*types.Verdict, error) {
	raw, err := a.backend.Complete(ctx, Completion{
		System:      arbiterSystemPrompt,
		Prompt:      verdictPrompt(formatTranscript(pro, opp), snap, query),
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, &types.ArbiterError{Message: "completion failed", Err: err}
	}

	return a.finalize(raw), nil
}

// DecideStream implements Arbiter.
func (a *LLMArbiter) DecideStream(ctx context.Context, pro, opp []types.Argument, snap *types.MarketSnapshot, query string) <-chan VerdictChunk {
	out := make(chan VerdictChunk, 64)

	go func() {
		defer close(out)

		var full strings.Builder
		deltas := a.backend.Stream(ctx, Completion{
			System:      arbiterSystemPrompt,
			Prompt:      verdictPrompt(formatTranscript(pro, opp), snap, query),
			Temperature: a.temperature,
		})

		for delta := range deltas {
			if delta.Err != nil {
				out <- VerdictChunk{Err: &types.ArbiterError{Message: "stream failed", Err: delta.Err}}
				return
			}
			if delta.Done {
				out <- VerdictChunk{Verdict: a.finalize(full.String())}
				return
			}

			full.WriteString(delta.Token)
			out <- VerdictChunk{Token: delta.Token}
		}

		out <- VerdictChunk{Err: &types.ArbiterError{Message: "stream ended without completion"}}
	}()

	return out
}

// formatTranscript renders the debate round by round: round i's
// Proponent entry followed by round i's Opponent entry.
func formatTranscript(pro, opp []types.Argument) string {
	var lines []string

	rounds := len(pro)
	if len(opp) > rounds {
		rounds = len(opp)
	}

	for i := 0; i < rounds; i++ {
		if i < len(pro) {
			lines = append(lines, transcriptEntry(pro[i], i)...)
		}
		if i < len(opp) {
			lines = append(lines, transcriptEntry(opp[i], i)...)
		}
	}

	return strings.Join(lines, "\n")
}

func transcriptEntry(arg types.Argument, round int) []string {
	label := "opening"
	if round > 0 {
		label = fmt.Sprintf("rebuttal %d", round)
	}

	return []string{
		fmt.Sprintf("%s (%s):", strings.ToUpper(string(arg.Role)), label),
		arg.Text,
		fmt.Sprintf("Stated confidence: %.0f%%", arg.Confidence),
		"",
	}
}

// finalize parses the raw arbiter output into a Verdict and derives
// the wager. Malformed output is never an error: the fallback
// heuristics always produce a verdict.
func (a *LLMArbiter) finalize(raw string) *types.Verdict {
	verdict := a.parse(raw)
	verdict.Wager = DeriveWager(verdict.Confidence, a.baseStake)

	VerdictsRenderedTotal.WithLabelValues(string(verdict.Winner)).Inc()
	a.logger.Debug("verdict-finalized",
		zap.String("winner", string(verdict.Winner)),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("wager", verdict.Wager.String()))

	return verdict
}

type verdictPayload struct {
	Winner          string   `json:"winner"`
	ConfidenceScore float64  `json:"confidence_score"`
	Reasoning       string   `json:"reasoning"`
	KeyFactors      []string `json:"key_factors"`
}

func (a *LLMArbiter) parse(raw string) *types.Verdict {
	// Primary path: one structured key/value block in the output.
	if block := verdictJSONBlock.FindString(raw); block != "" {
		// An absent confidence_score means undecided, not zero.
		payload := verdictPayload{ConfidenceScore: defaultVerdictConfidence}
		if err := json.Unmarshal([]byte(block), &payload); err == nil {
			rationale := payload.Reasoning
			if rationale == "" {
				rationale = raw
			}

			factors := payload.KeyFactors
			if len(factors) > 5 {
				factors = factors[:5]
			}

			return &types.Verdict{
				Winner:     normalizeWinner(payload.Winner),
				Confidence: clampConfidence(payload.ConfidenceScore),
				Rationale:  rationale,
				KeyFactors: factors,
			}
		}
	}

	// Fallback: infer the winner from whichever role name appears
	// first in the leading portion of the output. Known risk: a
	// verdict that opens by summarizing the losing side will be
	// misclassified; kept as-is pending product input.
	return &types.Verdict{
		Winner:     inferWinner(raw),
		Confidence: a.miner.Confidence(raw),
		Rationale:  raw,
		KeyFactors: a.miner.Points(raw),
	}
}

func normalizeWinner(winner string) types.Role {
	if strings.EqualFold(winner, string(types.RoleOpponent)) {
		return types.RoleOpponent
	}
	return types.RoleProponent
}

func inferWinner(raw string) types.Role {
	head := strings.ToLower(truncateRunes(raw, 200))

	proIdx := strings.Index(head, strings.ToLower(string(types.RoleProponent)))
	oppIdx := strings.Index(head, strings.ToLower(string(types.RoleOpponent)))

	if oppIdx >= 0 && (proIdx < 0 || oppIdx < proIdx) {
		return types.RoleOpponent
	}

	// Default on ambiguity.
	return types.RoleProponent
}

// DeriveWager maps verdict confidence to a wager on the base stake:
// below 40 pays 0.1x, 40 up to but excluding 70 pays 0.5x, 70 and
// above pays the full stake. Rounded to 2 decimal places.
func DeriveWager(confidence float64, baseStake decimal.Decimal) decimal.Decimal {
	var multiplier decimal.Decimal

	switch {
	case confidence < 40:
		multiplier = wagerLowMultiplier
	case confidence < 70:
		multiplier = wagerMidMultiplier
	default:
		multiplier = wagerHighMultiplier
	}

	return baseStake.Mul(multiplier).Round(2)
}
