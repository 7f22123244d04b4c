package debate

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alphaduel/arena/internal/agents"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/internal/storage"
	"github.com/alphaduel/arena/internal/testutil"
	"github.com/alphaduel/arena/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// twoRoundScript returns backend responses for a full two-round
// debate: opening and rebuttal per role, then the verdict.
func twoRoundScript() []string {
	return []string{
		testutil.ProponentScript,
		testutil.OpponentScript,
		testutil.ProponentScript,
		testutil.OpponentScript,
		testutil.ArbiterScript,
	}
}

func newTestEngine(t *testing.T, backend agents.Backend, ledger settlement.Ledger, store storage.Storage) *Engine {
	t.Helper()
	logger := zap.NewNop()

	engine, err := New(&Config{
		Market:    &testutil.StaticProvider{Snapshot: testutil.CreateTestSnapshot("HBAR")},
		Proponent: agents.NewProponent(backend, 0.7, logger),
		Opponent:  agents.NewOpponent(backend, 0.7, logger),
		Arbiter:   agents.NewArbiter(backend, decimal.NewFromInt(10), 0, logger),
		Ledger:    ledger,
		Store:     store,
		Logger:    logger,
	})
	require.NoError(t, err)

	return engine
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestEngine_Run_TwoRounds(t *testing.T) {
	backend := testutil.NewScriptedBackend(twoRoundScript()...)
	ledger := testutil.NewRecordingLedger()
	store := testutil.NewMemoryStorage()
	engine := newTestEngine(t, backend, ledger, store)

	result, err := engine.Run(context.Background(), Request{
		Query:     "Is HBAR a good buy right now?",
		Symbol:    "hbar",
		MaxRounds: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "HBAR", result.Symbol)
	assert.Equal(t, 2, result.Rounds)
	require.Len(t, result.ProponentArguments, 2)
	require.Len(t, result.OpponentArguments, 2)

	// Round indices record the round each argument was produced in.
	assert.Equal(t, 0, result.ProponentArguments[0].Round)
	assert.Equal(t, 1, result.ProponentArguments[1].Round)
	assert.Equal(t, 0, result.OpponentArguments[0].Round)
	assert.Equal(t, 1, result.OpponentArguments[1].Round)

	// Confidence mined from the scripted texts.
	assert.Equal(t, float64(72), result.ProponentArguments[0].Confidence)
	assert.Equal(t, float64(61), result.OpponentArguments[0].Confidence)

	require.NotNil(t, result.Verdict)
	assert.Equal(t, types.RoleProponent, result.Verdict.Winner)
	assert.Equal(t, float64(75), result.Verdict.Confidence)
	assert.True(t, result.Verdict.Wager.Equal(decimal.NewFromInt(10)),
		"confidence 75 wagers the full base stake, got %s", result.Verdict.Wager)

	// 5 completions: 2 rounds x 2 roles + 1 verdict.
	assert.Equal(t, 5, backend.Calls())
}

func TestEngine_Run_SettlementOrderAndReceipts(t *testing.T) {
	backend := testutil.NewScriptedBackend(twoRoundScript()...)
	ledger := testutil.NewRecordingLedger()
	engine := newTestEngine(t, backend, ledger, nil)

	result, err := engine.Run(context.Background(), Request{Symbol: "HBAR", MaxRounds: 2})
	require.NoError(t, err)

	// Log strictly before transfer, exactly one call each.
	assert.Equal(t, []string{"log", "transfer"}, ledger.Operations())

	require.Len(t, result.Receipts, 2)
	assert.Equal(t, types.ReceiptLog, result.Receipts[0].Kind)
	assert.Equal(t, types.ReceiptTransfer, result.Receipts[1].Kind)

	require.Len(t, ledger.Memos, 1)
	assert.Contains(t, ledger.Memos[0], "Proponent wins with 75% confidence")

	require.Len(t, ledger.Transfers, 1)
	assert.True(t, ledger.Transfers[0].Equal(decimal.NewFromInt(10)))
}

func TestEngine_Run_MaxRoundsZeroRunsOneRound(t *testing.T) {
	backend := testutil.NewScriptedBackend(
		testutil.ProponentScript,
		testutil.OpponentScript,
		testutil.ArbiterScript,
	)
	engine := newTestEngine(t, backend, testutil.NewRecordingLedger(), nil)

	result, err := engine.Run(context.Background(), Request{Symbol: "HBAR", MaxRounds: 0})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rounds)
	assert.Len(t, result.ProponentArguments, 1)
	assert.Len(t, result.OpponentArguments, 1)
	assert.Equal(t, types.StatusCompleted, result.Status)
}

func TestEngine_Run_ArchivesCompletedDebate(t *testing.T) {
	backend := testutil.NewScriptedBackend(twoRoundScript()...)
	store := testutil.NewMemoryStorage()
	engine := newTestEngine(t, backend, testutil.NewRecordingLedger(), store)

	result, err := engine.Run(context.Background(), Request{Symbol: "HBAR", MaxRounds: 2})
	require.NoError(t, err)

	records := store.GetRecords()
	require.Len(t, records, 1)
	assert.Equal(t, result.DebateID, records[0].DebateID)
	assert.Equal(t, "Proponent", records[0].Winner)
	assert.Equal(t, 2, records[0].Rounds)
	assert.NotEmpty(t, records[0].LogTxID)
	assert.NotEmpty(t, records[0].TransferTxID)
}

func TestEngine_Run_MarketDataFailure(t *testing.T) {
	backend := testutil.NewScriptedBackend(twoRoundScript()...)
	ledger := testutil.NewRecordingLedger()
	store := testutil.NewMemoryStorage()
	logger := zap.NewNop()

	engine, err := New(&Config{
		Market:    &testutil.StaticProvider{Err: &types.MarketDataError{Symbol: "HBAR", Message: "upstream unavailable"}},
		Proponent: agents.NewProponent(backend, 0.7, logger),
		Opponent:  agents.NewOpponent(backend, 0.7, logger),
		Arbiter:   agents.NewArbiter(backend, decimal.NewFromInt(10), 0, logger),
		Ledger:    ledger,
		Store:     store,
		Logger:    logger,
	})
	require.NoError(t, err)

	result, runErr := engine.Run(context.Background(), Request{Symbol: "HBAR", MaxRounds: 2})
	require.Error(t, runErr)

	assert.Equal(t, types.StatusError, result.Status)
	assert.Empty(t, result.ProponentArguments)
	assert.Empty(t, result.OpponentArguments)
	assert.Nil(t, result.Verdict)

	// No producer was invoked and nothing was settled or archived.
	assert.Equal(t, 0, backend.Calls())
	assert.Empty(t, ledger.Operations())
	assert.Empty(t, store.GetRecords())

	assertSingleErrorThenDone(t, result.Events, types.StageMarketData)
}

func TestEngine_Run_ProducerFailure(t *testing.T) {
	backend := testutil.NewScriptedBackend(twoRoundScript()...)
	backend.FailOn = 2 // opponent's opening
	ledger := testutil.NewRecordingLedger()
	engine := newTestEngine(t, backend, ledger, nil)

	result, err := engine.Run(context.Background(), Request{Symbol: "HBAR", MaxRounds: 2})
	require.Error(t, err)

	var perr *types.ProducerError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, types.RoleOpponent, perr.Role)
	assert.Equal(t, 0, perr.Round)

	// The proponent's completed argument survives the failure.
	assert.Len(t, result.ProponentArguments, 1)
	assert.Empty(t, result.OpponentArguments)
	assert.Empty(t, ledger.Operations())

	assertSingleErrorThenDone(t, result.Events, types.StageOpponent)
}

func TestEngine_Run_LogFailureSkipsTransfer(t *testing.T) {
	backend := testutil.NewScriptedBackend(twoRoundScript()...)
	ledger := testutil.NewRecordingLedger()
	ledger.LogErr = &types.SettlementError{Kind: types.ReceiptLog, Message: "topic unavailable"}
	engine := newTestEngine(t, backend, ledger, nil)

	result, err := engine.Run(context.Background(), Request{Symbol: "HBAR", MaxRounds: 1})
	require.Error(t, err)

	// Transfer is never attempted when the log call fails.
	assert.Equal(t, []string{"log"}, ledger.Operations())
	assert.Empty(t, result.Receipts)

	// The verdict itself was rendered before settlement failed.
	assert.NotNil(t, result.Verdict)

	assertSingleErrorThenDone(t, result.Events, types.StageSettlement)
}

func TestEngine_Stream_TokensAssembleToArguments(t *testing.T) {
	backend := testutil.NewScriptedBackend(
		testutil.ProponentScript,
		testutil.OpponentScript,
		testutil.ArbiterScript,
	)
	engine := newTestEngine(t, backend, testutil.NewRecordingLedger(), nil)

	var events []types.Event
	for ev := range engine.Stream(context.Background(), Request{Symbol: "HBAR", MaxRounds: 1}) {
		events = append(events, ev)
	}

	require.NotEmpty(t, events)

	// Tokens for the proponent stage concatenate to the full text.
	var proTokens strings.Builder
	for _, ev := range events {
		if ev.Stage == types.StageProponent && ev.Kind == types.KindToken {
			proTokens.WriteString(ev.Token)
		}
	}
	assert.Equal(t, testutil.ProponentScript, proTokens.String())

	// Exactly one done sentinel, and it is last.
	var doneCount int
	for _, ev := range events {
		if ev.Kind == types.KindDone {
			doneCount++
		}
	}
	assert.Equal(t, 1, doneCount)
	assert.Equal(t, types.KindDone, events[len(events)-1].Kind)
	assert.Equal(t, string(types.StatusCompleted), events[len(events)-1].Status)
}

func TestEngine_StreamMatchesBufferedEvents(t *testing.T) {
	req := Request{Symbol: "HBAR", MaxRounds: 2}

	buffered := newTestEngine(t, testutil.NewScriptedBackend(twoRoundScript()...), testutil.NewRecordingLedger(), nil)
	result, err := buffered.Run(context.Background(), req)
	require.NoError(t, err)

	streaming := newTestEngine(t, testutil.NewScriptedBackend(twoRoundScript()...), testutil.NewRecordingLedger(), nil)
	var (
		streamed        []types.Event
		streamedVerdict *types.Verdict
	)
	for ev := range streaming.Stream(context.Background(), req) {
		if ev.Kind == types.KindToken {
			continue
		}
		streamed = append(streamed, ev)

		if ev.Stage == types.StageArbiter && ev.Kind == types.KindMessage {
			var ok bool
			streamedVerdict, ok = ev.Payload.(*types.Verdict)
			require.True(t, ok, "arbiter message payload %T", ev.Payload)
		}
	}

	// Modes differ only in token granularity: the non-token event
	// sequences have identical stages, kinds, rounds and statuses.
	require.Equal(t, len(result.Events), len(streamed))
	for i := range result.Events {
		assert.Equal(t, result.Events[i].Stage, streamed[i].Stage, "event %d stage", i)
		assert.Equal(t, result.Events[i].Kind, streamed[i].Kind, "event %d kind", i)
		assert.Equal(t, result.Events[i].Round, streamed[i].Round, "event %d round", i)
		assert.Equal(t, result.Events[i].Status, streamed[i].Status, "event %d status", i)
	}

	// The two modes render the same verdict.
	require.NotNil(t, result.Verdict)
	require.NotNil(t, streamedVerdict)
	assert.Equal(t, result.Verdict.Winner, streamedVerdict.Winner)
	assert.Equal(t, result.Verdict.Confidence, streamedVerdict.Confidence)
	assert.True(t, result.Verdict.Wager.Equal(streamedVerdict.Wager),
		"wager %s vs %s", result.Verdict.Wager, streamedVerdict.Wager)
	assert.Equal(t, result.Verdict.KeyFactors, streamedVerdict.KeyFactors)
}

func TestEngine_Run_EventOrdering(t *testing.T) {
	backend := testutil.NewScriptedBackend(twoRoundScript()...)
	engine := newTestEngine(t, backend, testutil.NewRecordingLedger(), nil)

	result, err := engine.Run(context.Background(), Request{Symbol: "HBAR", MaxRounds: 2})
	require.NoError(t, err)

	wantStages := []types.Stage{
		types.StageMarketData, types.StageMarketData,
		types.StageProponent, types.StageProponent,
		types.StageOpponent, types.StageOpponent,
		types.StageRoundCheck,
		types.StageProponent, types.StageProponent,
		types.StageOpponent, types.StageOpponent,
		types.StageRoundCheck,
		types.StageArbiter, types.StageArbiter,
		types.StageSettlement, types.StageSettlement,
		types.StageDone,
	}

	require.Len(t, result.Events, len(wantStages))
	for i, want := range wantStages {
		assert.Equal(t, want, result.Events[i].Stage, "event %d", i)
	}

	// Second-round events carry the display round number.
	assert.Equal(t, 2, result.Events[7].Round)
}

// gateBackend delegates until the gated call, which then blocks until
// the context is cancelled. Used to pin the engine mid-debate.
type gateBackend struct {
	inner  agents.Backend
	gateOn int32
	calls  atomic.Int32
}

func (g *gateBackend) Complete(ctx context.Context, req agents.Completion) (string, error) {
	if g.calls.Add(1) >= g.gateOn {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.inner.Complete(ctx, req)
}

func (g *gateBackend) Stream(ctx context.Context, req agents.Completion) <-chan agents.Delta {
	if g.calls.Add(1) >= g.gateOn {
		out := make(chan agents.Delta, 1)
		go func() {
			defer close(out)
			<-ctx.Done()
			out <- agents.Delta{Err: ctx.Err()}
		}()
		return out
	}
	return g.inner.Stream(ctx, req)
}

func TestEngine_Stream_ConsumerCancellation(t *testing.T) {
	backend := &gateBackend{
		inner:  testutil.NewScriptedBackend(testutil.ProponentScript),
		gateOn: 2, // opponent's opening blocks
	}
	ledger := testutil.NewRecordingLedger()
	engine := newTestEngine(t, backend, ledger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := engine.Stream(ctx, Request{Symbol: "HBAR", MaxRounds: 2})

	// Read until the first proponent message, then walk away.
	for ev := range events {
		if ev.Stage == types.StageProponent && ev.Kind == types.KindMessage {
			cancel()
			break
		}
	}

	// The channel closes without a settlement having run.
	for range events {
	}
	assert.Empty(t, ledger.Operations())
}

func assertSingleErrorThenDone(t *testing.T, events []types.Event, wantStage types.Stage) {
	t.Helper()

	var errorEvents []types.Event
	for _, ev := range events {
		if ev.Kind == types.KindError {
			errorEvents = append(errorEvents, ev)
		}
	}

	require.Len(t, errorEvents, 1, "exactly one error event")
	assert.Equal(t, wantStage, errorEvents[0].Stage)

	last := events[len(events)-1]
	assert.Equal(t, types.KindDone, last.Kind)
	assert.Equal(t, string(types.StatusError), last.Status)
}

func TestResultFromState_CarriesError(t *testing.T) {
	st := newState(Request{Symbol: "HBAR"})
	st.Status = types.StatusError
	st.Err = fmt.Sprintf("fetch market data for %s: timeout", st.Symbol)

	result := resultFromState(st)
	assert.Equal(t, types.StatusError, result.Status)
	assert.Contains(t, result.Error, "timeout")
}
