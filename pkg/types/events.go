package types

// Stage names the engine stage an event originated from.
type Stage string

const (
	StageInit       Stage = "init"
	StageMarketData Stage = "market_data"
	StageProponent  Stage = "proponent"
	StageOpponent   Stage = "opponent"
	StageRoundCheck Stage = "round_check"
	StageArbiter    Stage = "arbiter"
	StageSettlement Stage = "settlement"
	StageDone       Stage = "done"
)

// EventKind classifies an event within a stage.
type EventKind string

const (
	// KindStatus announces a stage starting or a round completing.
	KindStatus EventKind = "status"
	// KindToken carries a single generated token (streaming mode only).
	KindToken EventKind = "token"
	// KindMessage carries a stage's completed payload and is always the
	// last event for its stage.
	KindMessage EventKind = "message"
	// KindError carries the single terminal error of a failed debate.
	KindError EventKind = "error"
	// KindDone is the stream-terminating sentinel.
	KindDone EventKind = "done"
)

// Event is the tagged record emitted on every stage completion, plus
// per-token records in streaming mode. The ordered event log is the
// engine's only produced surface.
type Event struct {
	Stage   Stage     `json:"stage"`
	Kind    EventKind `json:"kind"`
	Round   int       `json:"round,omitempty"`
	Token   string    `json:"token,omitempty"`
	Status  string    `json:"status,omitempty"`
	Payload any       `json:"payload,omitempty"`
}
