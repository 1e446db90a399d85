package npc

import (
	"testing"

	"holdem-tourney/card"
	"holdem-tourney/holdem"
)

func fixedBrainTestView() GameView {
	return GameView{
		Street:       1,
		HoleCards:    []card.Card{card.CardSpadeT, card.CardHeart9},
		Pot:          1000,
		CurrentBet:   200,
		MyBet:        0,
		MyStack:      20000,
		MinRaise:     200,
		LegalActions: []holdem.ActionType{holdem.ActionFold, holdem.ActionCheck, holdem.ActionCall, holdem.ActionBet, holdem.ActionRaise, holdem.ActionAllIn},
	}
}

// TestFixedBrainDeterministicGivenSeed covers conformance scenario S4: the
// same seed must reproduce the exact same decision sequence every run.
func TestFixedBrainDeterministicGivenSeed(t *testing.T) {
	view := fixedBrainTestView()

	a := NewFixedBrain("bot-a", 42)
	b := NewFixedBrain("bot-b", 42)

	for i := 0; i < 100; i++ {
		da := a.Decide(view)
		db := b.Decide(view)
		if da.Action != db.Action || da.Amount != db.Amount {
			t.Fatalf("round %d: seed=42 decisions diverged: %+v vs %+v", i, da, db)
		}
	}
}

// TestFixedBrainDistributionMatchesFixedPolicy checks the long-run action
// split lands close to the spec's fixed 30% fold / 40% check-or-call / 30%
// bet-or-raise policy, independent of hand strength.
func TestFixedBrainDistributionMatchesFixedPolicy(t *testing.T) {
	brain := NewFixedBrain("bot", 7)
	view := fixedBrainTestView()

	const rounds = 10000
	var folds, checkOrCalls, betOrRaises int
	for i := 0; i < rounds; i++ {
		d := brain.Decide(view)
		switch d.Action {
		case holdem.ActionFold:
			folds++
		case holdem.ActionCheck, holdem.ActionCall:
			checkOrCalls++
		case holdem.ActionBet, holdem.ActionRaise:
			betOrRaises++
		default:
			t.Fatalf("unexpected action %v from fixed policy", d.Action)
		}
	}

	foldRate := float64(folds) / rounds
	checkCallRate := float64(checkOrCalls) / rounds
	betRaiseRate := float64(betOrRaises) / rounds

	if foldRate < 0.25 || foldRate > 0.35 {
		t.Fatalf("fold rate out of expected range: got %.3f, want ~0.30", foldRate)
	}
	if checkCallRate < 0.35 || checkCallRate > 0.45 {
		t.Fatalf("check/call rate out of expected range: got %.3f, want ~0.40", checkCallRate)
	}
	if betRaiseRate < 0.25 || betRaiseRate > 0.35 {
		t.Fatalf("bet/raise rate out of expected range: got %.3f, want ~0.30", betRaiseRate)
	}
}

// TestFixedBrainBetSizingIsHalfPotClampedToMinRaise covers both the BET and
// RAISE sizing helpers, which must agree: max(min_raise, half_pot), clamped
// to the player's remaining stack.
func TestFixedBrainBetSizingIsHalfPotClampedToMinRaise(t *testing.T) {
	brain := NewFixedBrain("bot", 1)

	view := GameView{Pot: 1000, MinRaise: 100, MyStack: 20000, MyBet: 0}
	if got, want := brain.sizeBet(view), int64(500); got != want {
		t.Fatalf("sizeBet half-pot: got %d, want %d", got, want)
	}
	if got, want := brain.sizeRaise(view), int64(500); got != want {
		t.Fatalf("sizeRaise half-pot: got %d, want %d", got, want)
	}

	smallPotView := GameView{Pot: 100, MinRaise: 300, MyStack: 20000, MyBet: 0}
	if got, want := brain.sizeBet(smallPotView), int64(300); got != want {
		t.Fatalf("sizeBet min-raise floor: got %d, want %d", got, want)
	}
	if got, want := brain.sizeRaise(smallPotView), int64(300); got != want {
		t.Fatalf("sizeRaise min-raise floor: got %d, want %d", got, want)
	}

	shortStackView := GameView{Pot: 5000, MinRaise: 100, MyStack: 150, MyBet: 50}
	if got, want := brain.sizeBet(shortStackView), int64(200); got != want {
		t.Fatalf("sizeBet stack clamp: got %d, want %d", got, want)
	}
}
