package holdem

import (
	"testing"

	"holdem-tourney/card"
)

func sevenCards(five []card.Card, pad ...card.Card) card.CardList {
	out := make(card.CardList, 0, 7)
	out = append(out, five...)
	out = append(out, pad...)
	return out
}

func TestEvalBestOf7_RoyalFlushBeatsLowerStraightFlush(t *testing.T) {
	royal, err := EvalBestOf7(sevenCards(
		[]card.Card{card.CardSpadeA, card.CardSpadeK, card.CardSpadeQ, card.CardSpadeJ, card.CardSpadeT},
		card.CardClub2, card.CardDiamond3,
	))
	if err != nil {
		t.Fatalf("EvalBestOf7 err: %v", err)
	}
	if royal.Category != RoyalFlush {
		t.Fatalf("expected royal flush, got %s", royal.Category)
	}

	straightFlush, err := EvalBestOf7(sevenCards(
		[]card.Card{card.CardHeartK, card.CardHeartQ, card.CardHeartJ, card.CardHeartT, card.CardHeart9},
		card.CardClub2, card.CardDiamond3,
	))
	if err != nil {
		t.Fatalf("EvalBestOf7 err: %v", err)
	}
	if straightFlush.Category != StraightFlush {
		t.Fatalf("expected straight flush, got %s", straightFlush.Category)
	}
	if royal.Score <= straightFlush.Score {
		t.Fatalf("expected royal flush to beat lower straight flush: %d <= %d", royal.Score, straightFlush.Score)
	}
}

func TestEvalBestOf7_WheelStraightIsLowestStraight(t *testing.T) {
	wheel, err := EvalBestOf7(sevenCards(
		[]card.Card{card.CardSpadeA, card.CardHeart2, card.CardClub3, card.CardDiamond4, card.CardSpade5},
		card.CardClubK, card.CardDiamondQ,
	))
	if err != nil {
		t.Fatalf("EvalBestOf7 err: %v", err)
	}
	if wheel.Category != Straight {
		t.Fatalf("expected straight for wheel, got %s", wheel.Category)
	}

	sixHigh, err := EvalBestOf7(sevenCards(
		[]card.Card{card.CardSpade2, card.CardHeart3, card.CardClub4, card.CardDiamond5, card.CardSpade6},
		card.CardClubK, card.CardDiamondQ,
	))
	if err != nil {
		t.Fatalf("EvalBestOf7 err: %v", err)
	}
	if sixHigh.Category != Straight {
		t.Fatalf("expected straight for 6-high, got %s", sixHigh.Category)
	}
	if sixHigh.Score <= wheel.Score {
		t.Fatalf("expected 6-high straight to beat wheel: %d <= %d", sixHigh.Score, wheel.Score)
	}
}

func TestEvalBestOf7_PicksBestFive(t *testing.T) {
	res, err := EvalBestOf7(card.CardList{
		card.CardSpadeA, card.CardHeartA, // pair of A
		card.CardClubK, card.CardDiamondK, // pair of K
		card.CardSpade2, card.CardHeart3, card.CardClub4, // kicker set
	})
	if err != nil {
		t.Fatalf("EvalBestOf7 err: %v", err)
	}
	if res.Category != TwoPair {
		t.Fatalf("expected two pair, got %s", res.Category)
	}
}

func TestEvalBestOf7_RejectsWrongCardCount(t *testing.T) {
	_, err := EvalBestOf7(card.CardList{card.CardSpadeA, card.CardSpadeK})
	if err == nil {
		t.Fatalf("expected error for non-7-card input")
	}
}

func TestEvalBestOf7_FullHouseBeatsFlush(t *testing.T) {
	fullHouse, err := EvalBestOf7(card.CardList{
		card.CardSpadeA, card.CardHeartA, card.CardClubA,
		card.CardSpadeK, card.CardHeartK,
		card.CardClub2, card.CardDiamond3,
	})
	if err != nil {
		t.Fatalf("EvalBestOf7 err: %v", err)
	}
	if fullHouse.Category != FullHouse {
		t.Fatalf("expected full house, got %s", fullHouse.Category)
	}

	flush, err := EvalBestOf7(card.CardList{
		card.CardSpadeA, card.CardSpadeK, card.CardSpadeQ, card.CardSpade9, card.CardSpade7,
		card.CardClub2, card.CardDiamond3,
	})
	if err != nil {
		t.Fatalf("EvalBestOf7 err: %v", err)
	}
	if flush.Category != Flush {
		t.Fatalf("expected flush, got %s", flush.Category)
	}
	if fullHouse.Score <= flush.Score {
		t.Fatalf("expected full house to outrank flush: %d <= %d", fullHouse.Score, flush.Score)
	}
}
