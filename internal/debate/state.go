package debate

import (
	"strings"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/google/uuid"
)

// State is the mutable record of one debate, owned exclusively by the
// engine that created it. It is never shared across concurrent
// debates, so no locking is needed. Argument logs are append-only and
// their lengths differ by at most one at any observation point.
type State struct {
	ID     string
	Query  string
	Symbol string

	MaxRounds int
	// CurrentRound counts completed rounds: it is advanced only after
	// both roles have argued, monotone non-decreasing, and bounded by
	// MaxRounds+1 (the guaranteed opening round when MaxRounds is 0).
	CurrentRound int

	Market    *types.MarketSnapshot
	Proponent []types.Argument
	Opponent  []types.Argument
	Verdict   *types.Verdict
	Receipts  []types.Receipt

	Status types.DebateStatus
	Err    string

	// Events is the ordered log of every event emitted for this
	// debate. Events are never retracted.
	Events []types.Event
}

func newState(req Request) *State {
	return &State{
		ID:        uuid.NewString(),
		Query:     req.Query,
		Symbol:    strings.ToUpper(req.Symbol),
		MaxRounds: req.MaxRounds,
		Status:    types.StatusInitialized,
	}
}

func (s *State) appendArgument(arg *types.Argument) {
	switch arg.Role {
	case types.RoleProponent:
		s.Proponent = append(s.Proponent, *arg)
	case types.RoleOpponent:
		s.Opponent = append(s.Opponent, *arg)
	}
}

// lastOpposing returns the text the given role must rebut: the most
// recent entry of the opposing argument log.
func (s *State) lastOpposing(role types.Role) string {
	if role == types.RoleProponent {
		if len(s.Opponent) == 0 {
			return ""
		}
		return s.Opponent[len(s.Opponent)-1].Text
	}

	if len(s.Proponent) == 0 {
		return ""
	}
	return s.Proponent[len(s.Proponent)-1].Text
}
