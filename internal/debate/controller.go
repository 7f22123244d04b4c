package debate

// Decision is the round controller's verdict on whether the debate
// loops for another round or concludes.
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionConclude Decision = "conclude"
)

// ShouldContinue is the round controller: a pure function of the
// completed-round count and the configured maximum, consulted exactly
// once per completed round after both roles have argued. Because the
// count is advanced before the controller runs, a debate always runs
// at least one full round: with maxRounds=0 the opening round has
// already happened when the first decision is made.
func ShouldContinue(completedRounds, maxRounds int) Decision {
	if completedRounds < maxRounds {
		return DecisionContinue
	}
	return DecisionConclude
}

// Phase names a state of the orchestration machine.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseFetchingMarketData
	PhaseProponentArguing
	PhaseOpponentArguing
	PhaseRoundCheck
	PhaseArbitrating
	PhaseSettling
	PhaseDone
	PhaseError
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseFetchingMarketData:
		return "FETCHING_MARKET_DATA"
	case PhaseProponentArguing:
		return "PROPONENT_ARGUING"
	case PhaseOpponentArguing:
		return "OPPONENT_ARGUING"
	case PhaseRoundCheck:
		return "ROUND_CHECK"
	case PhaseArbitrating:
		return "ARBITRATING"
	case PhaseSettling:
		return "SETTLING"
	case PhaseDone:
		return "DONE"
	case PhaseError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Next is the pure transition function of the machine. failed reports
// whether the phase's work errored; decision is consulted only on
// PhaseRoundCheck. PhaseDone and PhaseError are terminal.
func Next(p Phase, decision Decision, failed bool) Phase {
	if failed {
		return PhaseError
	}

	switch p {
	case PhaseInit:
		return PhaseFetchingMarketData
	case PhaseFetchingMarketData:
		return PhaseProponentArguing
	case PhaseProponentArguing:
		return PhaseOpponentArguing
	case PhaseOpponentArguing:
		return PhaseRoundCheck
	case PhaseRoundCheck:
		if decision == DecisionContinue {
			return PhaseProponentArguing
		}
		return PhaseArbitrating
	case PhaseArbitrating:
		return PhaseSettling
	case PhaseSettling:
		return PhaseDone
	default:
		return p
	}
}
