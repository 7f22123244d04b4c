package httpserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alphaduel/arena/internal/debate"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/alphaduel/arena/pkg/types"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubService records the request it was given and replays canned
// results and events.
type stubService struct {
	lastReq debate.Request
	result  *debate.Result
	runErr  error
	events  []types.Event
}

func (s *stubService) Run(ctx context.Context, req debate.Request) (*debate.Result, error) {
	s.lastReq = req
	return s.result, s.runErr
}

func (s *stubService) Stream(ctx context.Context, req debate.Request) <-chan types.Event {
	s.lastReq = req

	out := make(chan types.Event, len(s.events))
	for _, ev := range s.events {
		out <- ev
	}
	close(out)

	return out
}

func newTestHandler(service *stubService) *DebateHandler {
	return NewDebateHandler(service, "HBAR", 2, zap.NewNop())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/debate/start", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestHandleStart_Success(t *testing.T) {
	service := &stubService{result: &debate.Result{
		DebateID: "d-1",
		Status:   types.StatusCompleted,
		Symbol:   "HBAR",
	}}
	handler := newTestHandler(service)

	rec := postJSON(t, handler.HandleStart, `{"symbol": "hbar", "query": "Buy?", "max_rounds": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result debate.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "d-1", result.DebateID)
	assert.Equal(t, types.StatusCompleted, result.Status)

	assert.Equal(t, "hbar", service.lastReq.Symbol)
	assert.Equal(t, "Buy?", service.lastReq.Query)
	assert.Equal(t, 3, service.lastReq.MaxRounds)
}

func TestHandleStart_AppliesDefaults(t *testing.T) {
	service := &stubService{result: &debate.Result{DebateID: "d-2"}}
	handler := newTestHandler(service)

	rec := postJSON(t, handler.HandleStart, `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HBAR", service.lastReq.Symbol)
	assert.Equal(t, "Is HBAR a good buy right now?", service.lastReq.Query)
	assert.Equal(t, 2, service.lastReq.MaxRounds)
}

func TestHandleStart_InvalidBody(t *testing.T) {
	handler := newTestHandler(&stubService{})

	rec := postJSON(t, handler.HandleStart, `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "invalid request body")
}

func TestHandleStart_RoundsOutOfRange(t *testing.T) {
	handler := newTestHandler(&stubService{})

	for _, body := range []string{`{"max_rounds": 9}`, `{"max_rounds": -1}`} {
		rec := postJSON(t, handler.HandleStart, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "max_rounds")
	}
}

func TestHandleStart_RunFailureReturnsBadGateway(t *testing.T) {
	service := &stubService{
		result: &debate.Result{DebateID: "d-3", Status: types.StatusError, Error: "market data unavailable"},
		runErr: assert.AnError,
	}
	handler := newTestHandler(service)

	rec := postJSON(t, handler.HandleStart, `{"symbol": "HBAR"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var result debate.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, types.StatusError, result.Status)
	assert.Equal(t, "market data unavailable", result.Error)
}

func TestHandleStream_EmitsSSEFrames(t *testing.T) {
	service := &stubService{events: []types.Event{
		{Stage: types.StageInit, Kind: types.KindStatus},
		{Stage: types.StageProponent, Kind: types.KindToken, Round: 1, Token: "HBAR"},
		{Stage: types.StageDone, Kind: types.KindDone, Status: string(types.StatusCompleted)},
	}}
	handler := newTestHandler(service)

	rec := postJSON(t, handler.HandleStream, `{"symbol": "HBAR"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	frames := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.Len(t, frames, 3)

	var events []types.Event
	for _, frame := range frames {
		require.True(t, strings.HasPrefix(frame, "data: "), "frame %q", frame)

		var ev types.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		events = append(events, ev)
	}

	assert.Equal(t, types.KindToken, events[1].Kind)
	assert.Equal(t, "HBAR", events[1].Token)
	assert.Equal(t, types.KindDone, events[2].Kind)
	assert.Equal(t, string(types.StatusCompleted), events[2].Status)
}

func TestHandleStream_InvalidBody(t *testing.T) {
	handler := newTestHandler(&stubService{})

	rec := postJSON(t, handler.HandleStream, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWebSocket_StreamsAndCloses(t *testing.T) {
	service := &stubService{events: []types.Event{
		{Stage: types.StageInit, Kind: types.KindStatus},
		{Stage: types.StageDone, Kind: types.KindDone, Status: string(types.StatusCompleted)},
	}}
	handler := newTestHandler(service)

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.WriteJSON(debateRequest{Symbol: "HBAR", MaxRounds: 1}))

	var events []types.Event
	for {
		var ev types.Event
		readErr := conn.ReadJSON(&ev)
		if readErr != nil {
			assert.True(t, websocket.IsCloseError(readErr, websocket.CloseNormalClosure),
				"unexpected close: %v", readErr)
			break
		}
		events = append(events, ev)
	}

	require.Len(t, events, 2)
	assert.Equal(t, types.KindDone, events[1].Kind)
	assert.Equal(t, 1, service.lastReq.MaxRounds)
}

func TestHandleSymbols(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/symbols", nil)
	rec := httptest.NewRecorder()
	handler.HandleSymbols(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Symbols []struct {
			Symbol string `json:"symbol"`
		} `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Symbols)
	assert.Equal(t, "HBAR", resp.Symbols[0].Symbol)
}

func TestGuardStatusEndpoint(t *testing.T) {
	ledger := settlement.NewSimLedger(&settlement.SimConfig{Network: "testnet", Logger: zap.NewNop()})
	guard, err := settlement.NewStakeGuard(ledger, &settlement.GuardConfig{
		CheckInterval:   time.Minute,
		WagerMultiplier: 3.0,
		MinAbsolute:     20.0,
		HysteresisRatio: 1.5,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)

	_, err = guard.Transfer(context.Background(), decimal.NewFromInt(10), "memo")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/guard", nil)
	rec := httptest.NewRecorder()
	guardStatusHandler(guard)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status settlement.GuardStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Enabled)
	assert.Equal(t, 1, status.RecentWagerCount)
}
