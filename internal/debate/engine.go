package debate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alphaduel/arena/internal/agents"
	"github.com/alphaduel/arena/internal/marketdata"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/internal/storage"
	"github.com/alphaduel/arena/pkg/types"
	"go.uber.org/zap"
)

// Engine orchestrates one debate at a time per invocation: two
// adversarial argument producers and one arbiter sequenced over a
// shared DebateState, in buffered or streaming mode. Both modes run
// the same machine; they differ only in event granularity.
type Engine struct {
	market    marketdata.Provider
	proponent agents.Producer
	opponent  agents.Producer
	arbiter   agents.Arbiter
	ledger    settlement.Ledger
	store     storage.Storage
	logger    *zap.Logger
}

// Config holds engine dependencies. Store is optional; everything
// else is required.
type Config struct {
	Market    marketdata.Provider
	Proponent agents.Producer
	Opponent  agents.Producer
	Arbiter   agents.Arbiter
	Ledger    settlement.Ledger
	Store     storage.Storage
	Logger    *zap.Logger
}

// New creates a debate engine.
func New(cfg *Config) (*Engine, error) {
	if cfg.Market == nil {
		return nil, fmt.Errorf("market provider cannot be nil")
	}
	if cfg.Proponent == nil || cfg.Opponent == nil {
		return nil, fmt.Errorf("both producers are required")
	}
	if cfg.Arbiter == nil {
		return nil, fmt.Errorf("arbiter cannot be nil")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Engine{
		market:    cfg.Market,
		proponent: cfg.Proponent,
		opponent:  cfg.Opponent,
		arbiter:   cfg.Arbiter,
		ledger:    cfg.Ledger,
		store:     cfg.Store,
		logger:    cfg.Logger,
	}, nil
}

// Request configures a single debate invocation.
type Request struct {
	Query     string `json:"query"`
	Symbol    string `json:"symbol"`
	MaxRounds int    `json:"max_rounds"`
}

// Result is the aggregated outcome of a buffered debate.
type Result struct {
	DebateID           string                `json:"debate_id"`
	Status             types.DebateStatus    `json:"status"`
	Symbol             string                `json:"symbol"`
	Query              string                `json:"query"`
	Rounds             int                   `json:"rounds"`
	Market             *types.MarketSnapshot `json:"market,omitempty"`
	ProponentArguments []types.Argument      `json:"proponent_arguments"`
	OpponentArguments  []types.Argument      `json:"opponent_arguments"`
	Verdict            *types.Verdict        `json:"verdict,omitempty"`
	Receipts           []types.Receipt       `json:"receipts,omitempty"`
	Events             []types.Event         `json:"events,omitempty"`
	Error              string                `json:"error,omitempty"`
}

// SettlementResult is the payload of the settlement message event.
type SettlementResult struct {
	Log      *types.Receipt `json:"log"`
	Transfer *types.Receipt `json:"transfer"`
}

// FinalSummary is the payload of the done sentinel on success.
type FinalSummary struct {
	DebateID   string             `json:"debate_id"`
	Winner     types.Role         `json:"winner"`
	Confidence float64            `json:"confidence"`
	Wager      string             `json:"wager"`
	Rounds     int                `json:"rounds"`
	LogTxID    string             `json:"log_tx_id"`
	TransferTx string             `json:"transfer_tx_id"`
	Status     types.DebateStatus `json:"status"`
}

// ErrorPayload is the payload of the single terminal error event.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Run executes a debate in buffered mode and returns the aggregated
// result. The returned error is non-nil iff the debate failed; the
// result is returned either way with its recorded event log.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	st := newState(req)
	err := e.execute(ctx, st, nil, false)
	return resultFromState(st), err
}

// Stream executes a debate in streaming mode, delivering every event
// in emission order, including one event per generated token. The
// channel is closed after the done sentinel. If the consumer stops
// reading and cancels ctx, the engine stops at the next stage
// boundary; settlement calls already in flight run to completion.
func (e *Engine) Stream(ctx context.Context, req Request) <-chan types.Event {
	out := make(chan types.Event, 128)

	go func() {
		defer close(out)

		st := newState(req)
		forward := func(ev types.Event) {
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}

		_ = e.execute(ctx, st, forward, true)
	}()

	return out
}

// execute drives the state machine to a terminal phase, recording
// every emitted event on the state and forwarding it to the sink.
func (e *Engine) execute(ctx context.Context, st *State, forward func(types.Event), streaming bool) error {
	DebatesStartedTotal.Inc()
	start := time.Now()

	if st.MaxRounds < 0 {
		st.MaxRounds = 0
	}

	emit := func(ev types.Event) {
		st.Events = append(st.Events, ev)
		EventsEmittedTotal.WithLabelValues(string(ev.Kind)).Inc()
		if forward != nil {
			forward(ev)
		}
	}

	e.logger.Info("debate-starting",
		zap.String("debate-id", st.ID),
		zap.String("symbol", st.Symbol),
		zap.Int("max-rounds", st.MaxRounds),
		zap.Bool("streaming", streaming))

	var failure error
	phase := PhaseInit

	for phase != PhaseDone && phase != PhaseError {
		// Consumer gone: stop at the stage boundary without emitting
		// further events. Nothing in flight is aborted.
		if err := ctx.Err(); err != nil {
			st.Status = types.StatusError
			st.Err = err.Error()
			DebatesFinishedTotal.WithLabelValues("cancelled").Inc()
			e.logger.Warn("debate-cancelled",
				zap.String("debate-id", st.ID),
				zap.String("phase", phase.String()))
			return err
		}

		decision := DecisionConclude
		stageStart := time.Now()

		switch phase {
		case PhaseInit:
			// No work; the machine enters the pipeline.

		case PhaseFetchingMarketData:
			failure = e.fetchMarket(ctx, st, emit)

		case PhaseProponentArguing:
			failure = e.argue(ctx, st, e.proponent, types.StageProponent, streaming, emit)

		case PhaseOpponentArguing:
			failure = e.argue(ctx, st, e.opponent, types.StageOpponent, streaming, emit)

		case PhaseRoundCheck:
			st.CurrentRound++
			RoundsRunTotal.Inc()
			decision = ShouldContinue(st.CurrentRound, st.MaxRounds)
			emit(types.Event{
				Stage:  types.StageRoundCheck,
				Kind:   types.KindStatus,
				Round:  st.CurrentRound,
				Status: "round_complete",
			})

		case PhaseArbitrating:
			failure = e.arbitrate(ctx, st, streaming, emit)

		case PhaseSettling:
			failure = e.settle(ctx, st, emit)
		}

		StageDurationSeconds.WithLabelValues(stageForPhase(phase)).Observe(time.Since(stageStart).Seconds())
		phase = Next(phase, decision, failure != nil)

		if phase == PhaseError {
			e.fail(st, failureStage(failure), failure, emit)
		}
	}

	if phase == PhaseDone {
		st.Status = types.StatusCompleted
		emit(types.Event{
			Stage:   types.StageDone,
			Kind:    types.KindDone,
			Status:  string(types.StatusCompleted),
			Payload: e.finalSummary(st),
		})
		DebatesFinishedTotal.WithLabelValues("completed").Inc()
		e.archive(ctx, st)
	} else {
		DebatesFinishedTotal.WithLabelValues("error").Inc()
	}

	DebateDurationSeconds.Observe(time.Since(start).Seconds())
	e.logger.Info("debate-finished",
		zap.String("debate-id", st.ID),
		zap.String("status", string(st.Status)),
		zap.Int("rounds", st.CurrentRound))

	return failure
}

func (e *Engine) fetchMarket(ctx context.Context, st *State, emit func(types.Event)) error {
	emit(types.Event{
		Stage:  types.StageMarketData,
		Kind:   types.KindStatus,
		Status: "fetching_market_data",
	})

	snap, err := e.market.Fetch(ctx, st.Symbol)
	if err != nil {
		return err
	}

	st.Market = snap
	st.Status = types.StatusMarketDataFetched

	emit(types.Event{
		Stage:   types.StageMarketData,
		Kind:    types.KindMessage,
		Status:  string(types.StatusMarketDataFetched),
		Payload: snap,
	})

	return nil
}

// argue runs one producer for the current round. Round 0 is the
// opening; later rounds rebut the most recent opposing argument,
// which for the Opponent is the Proponent argument just produced in
// this same round.
func (e *Engine) argue(ctx context.Context, st *State, producer agents.Producer, stage types.Stage, streaming bool, emit func(types.Event)) error {
	round := st.CurrentRound
	role := producer.Role()

	emit(types.Event{
		Stage:  stage,
		Kind:   types.KindStatus,
		Round:  round + 1,
		Status: string(role) + "_arguing",
	})

	var (
		arg *types.Argument
		err error
	)

	if streaming {
		arg, err = e.collectArgument(producerStream(ctx, producer, st, round), stage, round, emit)
	} else if round == 0 {
		arg, err = producer.Open(ctx, st.Market, st.Query)
	} else {
		arg, err = producer.Rebut(ctx, st.lastOpposing(role), st.Market)
	}

	if err != nil {
		var perr *types.ProducerError
		if errors.As(err, &perr) {
			perr.Round = round
			if perr.Role == "" {
				perr.Role = role
			}
		}
		return err
	}

	arg.Round = round
	st.appendArgument(arg)

	if role == types.RoleProponent {
		st.Status = types.StatusProponentArgued
	} else {
		st.Status = types.StatusOpponentArgued
	}

	emit(types.Event{
		Stage:   stage,
		Kind:    types.KindMessage,
		Round:   round + 1,
		Status:  string(st.Status),
		Payload: arg,
	})

	return nil
}

func producerStream(ctx context.Context, producer agents.Producer, st *State, round int) <-chan agents.Chunk {
	if round == 0 {
		return producer.OpenStream(ctx, st.Market, st.Query)
	}
	return producer.RebutStream(ctx, st.lastOpposing(producer.Role()), st.Market)
}

// collectArgument forwards each token immediately while accumulating
// toward the terminal chunk.
func (e *Engine) collectArgument(chunks <-chan agents.Chunk, stage types.Stage, round int, emit func(types.Event)) (*types.Argument, error) {
	var arg *types.Argument

	for chunk := range chunks {
		switch {
		case chunk.Err != nil:
			return nil, chunk.Err
		case chunk.Argument != nil:
			arg = chunk.Argument
		default:
			emit(types.Event{
				Stage: stage,
				Kind:  types.KindToken,
				Round: round + 1,
				Token: chunk.Token,
			})
		}
	}

	if arg == nil {
		return nil, &types.ProducerError{Round: round, Message: "stream closed without terminal chunk"}
	}

	return arg, nil
}

func (e *Engine) arbitrate(ctx context.Context, st *State, streaming bool, emit func(types.Event)) error {
	emit(types.Event{
		Stage:  types.StageArbiter,
		Kind:   types.KindStatus,
		Status: "arbitrating",
	})

	var (
		verdict *types.Verdict
		err     error
	)

	if streaming {
		verdict, err = e.collectVerdict(
			e.arbiter.DecideStream(ctx, st.Proponent, st.Opponent, st.Market, st.Query), emit)
	} else {
		verdict, err = e.arbiter.Decide(ctx, st.Proponent, st.Opponent, st.Market, st.Query)
	}

	if err != nil {
		return err
	}

	st.Verdict = verdict
	st.Status = types.StatusVerdictRendered

	emit(types.Event{
		Stage:   types.StageArbiter,
		Kind:    types.KindMessage,
		Status:  string(types.StatusVerdictRendered),
		Payload: verdict,
	})

	return nil
}

func (e *Engine) collectVerdict(chunks <-chan agents.VerdictChunk, emit func(types.Event)) (*types.Verdict, error) {
	var verdict *types.Verdict

	for chunk := range chunks {
		switch {
		case chunk.Err != nil:
			return nil, chunk.Err
		case chunk.Verdict != nil:
			verdict = chunk.Verdict
		default:
			emit(types.Event{
				Stage: types.StageArbiter,
				Kind:  types.KindToken,
				Token: chunk.Token,
			})
		}
	}

	if verdict == nil {
		return nil, &types.ArbiterError{Message: "stream closed without terminal chunk"}
	}

	return verdict, nil
}

// settle logs the summary, then transfers the wager: exactly two
// sequential ledger calls, never concurrent, log always first. The
// calls run detached from consumer cancellation because ledger side
// effects cannot be rolled back.
func (e *Engine) settle(ctx context.Context, st *State, emit func(types.Event)) error {
	emit(types.Event{
		Stage:  types.StageSettlement,
		Kind:   types.KindStatus,
		Status: "settling",
	})

	detached := context.WithoutCancel(ctx)
	summary := settlement.NewSummary(st.Symbol, st.Query, st.Verdict, st.Market)

	logReceipt, err := e.ledger.Log(detached, summary)
	if err != nil {
		return err
	}
	st.Receipts = append(st.Receipts, *logReceipt)

	memo := fmt.Sprintf("%s debate: %s wins with %.0f%% confidence",
		st.Symbol, st.Verdict.Winner, st.Verdict.Confidence)

	transferReceipt, err := e.ledger.Transfer(detached, st.Verdict.Wager, memo)
	if err != nil {
		return err
	}
	st.Receipts = append(st.Receipts, *transferReceipt)

	st.Status = types.StatusSettled

	emit(types.Event{
		Stage:  types.StageSettlement,
		Kind:   types.KindMessage,
		Status: string(types.StatusSettled),
		Payload: &SettlementResult{
			Log:      logReceipt,
			Transfer: transferReceipt,
		},
	})

	return nil
}

// fail records the single terminal error event and the done sentinel.
// Previously emitted events remain valid.
func (e *Engine) fail(st *State, stage types.Stage, failure error, emit func(types.Event)) {
	st.Status = types.StatusError
	st.Err = failure.Error()

	emit(types.Event{
		Stage:   stage,
		Kind:    types.KindError,
		Status:  string(types.StatusError),
		Payload: &ErrorPayload{Error: failure.Error()},
	})
	emit(types.Event{
		Stage:  types.StageDone,
		Kind:   types.KindDone,
		Status: string(types.StatusError),
	})

	e.logger.Error("debate-failed",
		zap.String("debate-id", st.ID),
		zap.String("stage", string(stage)),
		zap.Error(failure))
}

func (e *Engine) finalSummary(st *State) *FinalSummary {
	summary := &FinalSummary{
		DebateID: st.ID,
		Rounds:   st.CurrentRound,
		Status:   st.Status,
	}

	if st.Verdict != nil {
		summary.Winner = st.Verdict.Winner
		summary.Confidence = st.Verdict.Confidence
		summary.Wager = st.Verdict.Wager.String()
	}

	for _, receipt := range st.Receipts {
		switch receipt.Kind {
		case types.ReceiptLog:
			summary.LogTxID = receipt.TxID
		case types.ReceiptTransfer:
			summary.TransferTx = receipt.TxID
		}
	}

	return summary
}

// archive stores the completed debate. Archival is a post-DONE sink;
// its failure never fails the debate.
func (e *Engine) archive(ctx context.Context, st *State) {
	if e.store == nil {
		return
	}

	record := &storage.Record{
		DebateID:    st.ID,
		Symbol:      st.Symbol,
		Query:       st.Query,
		Winner:      string(st.Verdict.Winner),
		Confidence:  st.Verdict.Confidence,
		Wager:       st.Verdict.Wager,
		Rounds:      st.CurrentRound,
		CompletedAt: time.Now().UTC(),
	}

	for _, receipt := range st.Receipts {
		switch receipt.Kind {
		case types.ReceiptLog:
			record.LogTxID = receipt.TxID
		case types.ReceiptTransfer:
			record.TransferTxID = receipt.TxID
		}
	}

	err := e.store.StoreDebate(context.WithoutCancel(ctx), record)
	if err != nil {
		e.logger.Error("debate-archive-failed",
			zap.String("debate-id", st.ID),
			zap.Error(err))
	}
}

func resultFromState(st *State) *Result {
	return &Result{
		DebateID:           st.ID,
		Status:             st.Status,
		Symbol:             st.Symbol,
		Query:              st.Query,
		Rounds:             st.CurrentRound,
		Market:             st.Market,
		ProponentArguments: st.Proponent,
		OpponentArguments:  st.Opponent,
		Verdict:            st.Verdict,
		Receipts:           st.Receipts,
		Events:             st.Events,
		Error:              st.Err,
	}
}

func stageForPhase(p Phase) string {
	switch p {
	case PhaseFetchingMarketData:
		return string(types.StageMarketData)
	case PhaseProponentArguing:
		return string(types.StageProponent)
	case PhaseOpponentArguing:
		return string(types.StageOpponent)
	case PhaseRoundCheck:
		return string(types.StageRoundCheck)
	case PhaseArbitrating:
		return string(types.StageArbiter)
	case PhaseSettling:
		return string(types.StageSettlement)
	default:
		return string(types.StageInit)
	}
}

// failureStage maps an error to the stage tag of its error event.
func failureStage(err error) types.Stage {
	var (
		mErr *types.MarketDataError
		pErr *types.ProducerError
		aErr *types.ArbiterError
		sErr *types.SettlementError
	)

	switch {
	case errors.As(err, &mErr):
		return types.StageMarketData
	case errors.As(err, &pErr):
		if pErr.Role == types.RoleOpponent {
			return types.StageOpponent
		}
		return types.StageProponent
	case errors.As(err, &aErr):
		return types.StageArbiter
	case errors.As(err, &sErr):
		return types.StageSettlement
	default:
		return types.StageInit
	}
}
