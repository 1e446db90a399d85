package replay

import (
	"fmt"
	"strings"

	"holdem-tourney/holdem"
)

func parsePhaseName(raw string) (holdem.Phase, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PREFLOP":
		return holdem.PhasePreflop, nil
	case "FLOP":
		return holdem.PhaseFlop, nil
	case "TURN":
		return holdem.PhaseTurn, nil
	case "RIVER":
		return holdem.PhaseRiver, nil
	default:
		return 0, fmt.Errorf("unsupported phase %q", raw)
	}
}

func phaseName(phase holdem.Phase) string {
	return phase.String()
}

func parseActionName(raw string) (holdem.ActionType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CHECK":
		return holdem.ActionCheck, nil
	case "BET":
		return holdem.ActionBet, nil
	case "CALL":
		return holdem.ActionCall, nil
	case "RAISE":
		return holdem.ActionRaise, nil
	case "FOLD":
		return holdem.ActionFold, nil
	case "ALLIN", "ALL_IN":
		return holdem.ActionAllIn, nil
	default:
		return 0, fmt.Errorf("unsupported action type %q", raw)
	}
}

func actionName(a holdem.ActionType) string {
	return a.String()
}

func legalActionNames(actions []holdem.ActionType) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.String())
	}
	return out
}

