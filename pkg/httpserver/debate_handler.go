package httpserver

import (
	"fmt"
	"net/http"

	"github.com/alphaduel/arena/internal/debate"
	"github.com/alphaduel/arena/internal/marketdata"
	"github.com/alphaduel/arena/internal/settlement"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxRequestRounds bounds client-requested rounds. The engine itself
// accepts zero (one guaranteed round), but the API treats zero as
// "use the configured default".
const maxRequestRounds = 5

// DebateHandler serves the debate API endpoints.
type DebateHandler struct {
	service       DebateService
	defaultSymbol string
	defaultRounds int
	logger        *zap.Logger
	upgrader      websocket.Upgrader
}

// NewDebateHandler creates a new debate handler.
func NewDebateHandler(service DebateService, defaultSymbol string, defaultRounds int, logger *zap.Logger) *DebateHandler {
	return &DebateHandler{
		service:       service,
		defaultSymbol: defaultSymbol,
		defaultRounds: defaultRounds,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

type debateRequest struct {
	Query     string `json:"query"`
	Symbol    string `json:"symbol"`
	MaxRounds int    `json:"max_rounds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleStart runs a full debate and returns the aggregated result.
func (h *DebateHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, runErr := h.service.Run(r.Context(), req)
	if runErr != nil {
		h.logger.Error("debate-request-failed",
			zap.String("debate-id", result.DebateID),
			zap.Error(runErr))
		writeJSON(w, http.StatusBadGateway, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleStream runs a debate in streaming mode over Server-Sent
// Events: one data frame per engine event, terminated by the done
// sentinel.
func (h *DebateHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range h.service.Stream(r.Context(), req) {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("event-encode-failed", zap.Error(err))
			continue
		}

		_, err = fmt.Fprintf(w, "data: %s\n\n", data)
		if err != nil {
			// Client gone; the engine notices via the request context.
			return
		}
		flusher.Flush()
	}
}

// HandleWebSocket runs a debate in streaming mode over a WebSocket.
// The client sends one request message; the server replies with the
// full event stream and closes.
func (h *DebateHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket-upgrade-failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	var body debateRequest
	err = conn.ReadJSON(&body)
	if err != nil {
		_ = conn.WriteJSON(errorResponse{Error: "invalid request message"})
		return
	}

	req, err := h.buildRequest(body)
	if err != nil {
		_ = conn.WriteJSON(errorResponse{Error: err.Error()})
		return
	}

	for ev := range h.service.Stream(r.Context(), req) {
		err = conn.WriteJSON(ev)
		if err != nil {
			return
		}
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// HandleSymbols lists the supported symbols.
func (h *DebateHandler) HandleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symbols": marketdata.Symbols(),
	})
}

func (h *DebateHandler) parseRequest(r *http.Request) (debate.Request, error) {
	var body debateRequest
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		return debate.Request{}, fmt.Errorf("invalid request body")
	}

	return h.buildRequest(body)
}

func (h *DebateHandler) buildRequest(body debateRequest) (debate.Request, error) {
	if body.Symbol == "" {
		body.Symbol = h.defaultSymbol
	}
	if body.Query == "" {
		body.Query = fmt.Sprintf("Is %s a good buy right now?", body.Symbol)
	}
	if body.MaxRounds == 0 {
		body.MaxRounds = h.defaultRounds
	}

	if body.MaxRounds < 1 || body.MaxRounds > maxRequestRounds {
		return debate.Request{}, fmt.Errorf("max_rounds must be between 1 and %d", maxRequestRounds)
	}

	return debate.Request{
		Query:     body.Query,
		Symbol:    body.Symbol,
		MaxRounds: body.MaxRounds,
	}, nil
}

func guardStatusHandler(guard *settlement.StakeGuard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, guard.Status())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
