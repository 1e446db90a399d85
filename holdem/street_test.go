package holdem

import "testing"

// Covers a subtle street-advancement rule: with 3 players seated, even when
// a fold shrinks activeCount to 2 mid-hand, the flop's first-to-act still
// follows the multi-way rule and starts at the small blind (keyed off the
// hand's original seat count, not the live activeCount).
func TestStreetProgression_FlopFirstActionAfterBBFolds(t *testing.T) {
	g, err := NewGame(Config{
		MaxPlayers: 3,
		MinPlayers: 3,
		SmallBlind: 50,
		BigBlind:   100,
		Ante:       0,
		Seed:       1,
	})
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}

	if err := g.SitDown(0, 10001, 1000, false); err != nil {
		t.Fatal(err)
	}
	if err := g.SitDown(1, 10002, 1000, false); err != nil {
		t.Fatal(err)
	}
	if err := g.SitDown(2, 10003, 1000, false); err != nil {
		t.Fatal(err)
	}

	if err := g.StartHand(); err != nil {
		t.Fatalf("StartHand err: %v", err)
	}
	snap := g.Snapshot()
	if snap.Phase != PhasePreflop {
		t.Fatalf("expected preflop, got %v", snap.Phase)
	}

	// Preflop: dealer calls, SB calls, BB folds.
	for i := 0; i < 3; i++ {
		snap = g.Snapshot()
		switch snap.ActionChair {
		case snap.DealerChair:
			if _, err := g.Act(snap.ActionChair, ActionCall, snap.CurBet); err != nil {
				t.Fatalf("dealer call err: %v", err)
			}
		case snap.SmallBlindChair:
			if _, err := g.Act(snap.ActionChair, ActionCall, snap.CurBet); err != nil {
				t.Fatalf("sb call err: %v", err)
			}
		case snap.BigBlindChair:
			if _, err := g.Act(snap.ActionChair, ActionFold, 0); err != nil {
				t.Fatalf("bb fold err: %v", err)
			}
		default:
			t.Fatalf("unexpected action chair: %d", snap.ActionChair)
		}
	}

	snap = g.Snapshot()
	if snap.Phase != PhaseFlop {
		t.Fatalf("expected flop, got %v", snap.Phase)
	}
	if len(snap.CommunityCards) != 3 {
		t.Fatalf("expected 3 community cards on flop, got %d", len(snap.CommunityCards))
	}
	if snap.ActionChair != snap.SmallBlindChair {
		t.Fatalf("expected flop action chair=SB(%d), got %d (dealer=%d bb=%d)",
			snap.SmallBlindChair, snap.ActionChair, snap.DealerChair, snap.BigBlindChair)
	}
}
