package agents

import (
	"context"
	"strings"
	"time"

	"github.com/alphaduel/arena/pkg/types"
	"go.uber.org/zap"
)

// Chunk is one element of a streaming argument. Token chunks arrive
// in generation order; exactly one terminal chunk follows, carrying
// either the assembled Argument or an error. The channel is closed
// after the terminal chunk and is never restarted.
type Chunk struct {
	Token    string
	Argument *types.Argument
	Err      error
}

// Producer is the stateless generation contract for one debate role.
type Producer interface {
	Role() types.Role

	// Open produces the opening argument for round 0. Fails atomically
	// with a ProducerError, never partial.
	Open(ctx context.Context, snap *types.MarketSnapshot, query string) (*types.Argument, error)

	// Rebut produces a rebuttal to the single most recent opposing
	// argument. The producer never sees the full history.
	Rebut(ctx context.Context, opposing string, snap *types.MarketSnapshot) (*types.Argument, error)

	// OpenStream and RebutStream are the streaming variants of Open and
	// Rebut, following the Chunk contract.
	OpenStream(ctx context.Context, snap *types.MarketSnapshot, query string) <-chan Chunk
	RebutStream(ctx context.Context, opposing string, snap *types.MarketSnapshot) <-chan Chunk
}

// LLMProducer implements Producer over a text-generation Backend.
type LLMProducer struct {
	role        types.Role
	system      string
	backend     Backend
	miner       Miner
	temperature float64
	logger      *zap.Logger
}

// NewProponent creates the producer arguing the upside case.
func NewProponent(backend Backend, temperature float64, logger *zap.Logger) *LLMProducer {
	return &LLMProducer{
		role:        types.RoleProponent,
		system:      proponentSystemPrompt,
		backend:     backend,
		miner:       NewArgumentMiner(),
		temperature: temperature,
		logger:      logger,
	}
}

// NewOpponent creates the producer arguing the downside case.
func NewOpponent(backend Backend, temperature float64, logger *zap.Logger) *LLMProducer {
	return &LLMProducer{
		role:        types.RoleOpponent,
		system:      opponentSystemPrompt,
		backend:     backend,
		miner:       NewArgumentMiner(),
		temperature: temperature,
		logger:      logger,
	}
}

// Role returns the producer's debate role.
func (p *LLMProducer) Role() types.Role { return p.role }

// Open implements Producer.
func (p *LLMProducer) Open(ctx context.Context, snap *types.MarketSnapshot, query string) (*types.Argument, error) {
	return p.generate(ctx, openingPrompt(snap, query))
}

// Rebut implements Producer.
func (p *LLMProducer) Rebut(ctx context.Context, opposing string, snap *types.MarketSnapshot) (*types.Argument, error) {
	return p.generate(ctx, rebuttalPrompt(opposing, snap))
}

// OpenStream implements Producer.
func (p *LLMProducer) OpenStream(ctx context.Context, snap *types.MarketSnapshot, query string) <-chan Chunk {
	return p.generateStream(ctx, openingPrompt(snap, query))
}

// RebutStream implements Producer.
func (p *LLMProducer) RebutStream(ctx context.Context, opposing string, snap *types.MarketSnapshot) <-chan Chunk {
	return p.generateStream(ctx, rebuttalPrompt(opposing, snap))
}

func (p *LLMProducer) generate(ctx context.Context, prompt string) (*types.Argument, error) {
	text, err := p.backend.Complete(ctx, Completion{
		System:      p.system,
		Prompt:      prompt,
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, &types.ProducerError{Role: p.role, Message: "completion failed", Err: err}
	}

	return p.assemble(text), nil
}

func (p *LLMProducer) generateStream(ctx context.Context, prompt string) <-chan Chunk {
	out := make(chan Chunk, 64)

	go func() {
		defer close(out)

		var full strings.Builder
		deltas := p.backend.Stream(ctx, Completion{
			System:      p.system,
			Prompt:      prompt,
			Temperature: p.temperature,
		})

		for delta := range deltas {
			if delta.Err != nil {
				out <- Chunk{Err: &types.ProducerError{Role: p.role, Message: "stream failed", Err: delta.Err}}
				return
			}
			if delta.Done {
				out <- Chunk{Argument: p.assemble(full.String())}
				return
			}

			full.WriteString(delta.Token)
			out <- Chunk{Token: delta.Token}
		}

		// Backend closed without a terminal delta; treat as failure
		// rather than fabricating a complete argument.
		out <- Chunk{Err: &types.ProducerError{Role: p.role, Message: "stream ended without completion"}}
	}()

	return out
}

func (p *LLMProducer) assemble(text string) *types.Argument {
	arg := &types.Argument{
		Role:       p.role,
		Text:       text,
		Confidence: p.miner.Confidence(text),
		KeyPoints:  p.miner.Points(text),
		CreatedAt:  time.Now().UTC(),
	}

	ArgumentsProducedTotal.WithLabelValues(string(p.role)).Inc()
	p.logger.Debug("argument-assembled",
		zap.String("role", string(p.role)),
		zap.Float64("confidence", arg.Confidence),
		zap.Int("key-points", len(arg.KeyPoints)))

	return arg
}
