package npc

import (
	"math/rand"

	"holdem-tourney/holdem"
)

// FixedBrain implements the spec's baseline bot policy: a fixed 30% fold /
// 40% check-or-call / 30% bet-or-raise split, independent of hand strength.
// It exists alongside RuleBrain as the plain, always-available BrainDecider;
// table seating falls back to it when no persona is assigned.
type FixedBrain struct {
	id  string
	rng *rand.Rand
}

// NewFixedBrain creates a FixedBrain seeded independently of the table's deal
// RNG (spec.md "must not reuse the general-purpose RNG used by the bot
// policy").
func NewFixedBrain(id string, seed int64) *FixedBrain {
	return &FixedBrain{id: id, rng: rand.New(rand.NewSource(seed))}
}

func (b *FixedBrain) Name() string { return b.id }

// Decide implements BrainDecider.
func (b *FixedBrain) Decide(view GameView) Decision {
	legal := view.LegalActions
	if len(legal) == 0 {
		return Decision{Action: holdem.ActionFold}
	}

	canFold := contains(legal, holdem.ActionFold)
	canCheck := contains(legal, holdem.ActionCheck)
	canCall := contains(legal, holdem.ActionCall)
	canBet := contains(legal, holdem.ActionBet)
	canRaise := contains(legal, holdem.ActionRaise)
	canAllIn := contains(legal, holdem.ActionAllIn)

	roll := b.rng.Float64()
	switch {
	case roll < 0.30:
		if canFold {
			return Decision{Action: holdem.ActionFold}
		}
	case roll < 0.70:
		if canCheck {
			return Decision{Action: holdem.ActionCheck}
		}
		if canCall {
			return Decision{Action: holdem.ActionCall, Amount: view.CurrentBet}
		}
		if canFold {
			return Decision{Action: holdem.ActionFold}
		}
	default:
		if canBet {
			return Decision{Action: holdem.ActionBet, Amount: b.sizeBet(view)}
		}
		if canRaise {
			return Decision{Action: holdem.ActionRaise, Amount: b.sizeRaise(view)}
		}
		if canCall {
			return Decision{Action: holdem.ActionCall, Amount: view.CurrentBet}
		}
		if canCheck {
			return Decision{Action: holdem.ActionCheck}
		}
	}

	if canAllIn {
		return Decision{Action: holdem.ActionAllIn, Amount: view.MyStack + view.MyBet}
	}
	return Decision{Action: legal[0]}
}

// sizeBet stakes half pot, clamped to the legal bet range.
func (b *FixedBrain) sizeBet(view GameView) int64 {
	bet := view.Pot / 2
	if bet < view.MinRaise {
		bet = view.MinRaise
	}
	if bet > view.MyStack+view.MyBet {
		bet = view.MyStack + view.MyBet
	}
	return bet
}

// sizeRaise uses the same max(min_raise, half_pot) sizing as sizeBet — the
// spec gives the 30% BET/RAISE branch one uniform sizing rule regardless of
// which of the two actions is legal.
func (b *FixedBrain) sizeRaise(view GameView) int64 {
	return b.sizeBet(view)
}
