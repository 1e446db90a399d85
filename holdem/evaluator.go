package holdem

import (
	"fmt"

	"github.com/chehsunliu/poker"

	"holdem-tourney/card"
)

// bestHandResult is C2's output: a totally-orderable score (higher wins)
// plus the category and the winning 5-card sub-combination's indices into
// the original 7-card slice.
type bestHandResult struct {
	Score     int32 // Larger is stronger.
	Category  HandCategory
	BestIndex [5]int
}

const kevMaxHandRank = 7462 // chehsunliu/poker: 1 is best (royal flush), 7462 worst.

// EvalBestOf7 evaluates the best 5-of-7 hand, per spec.md 4.2.
func EvalBestOf7(cards card.CardList) (*bestHandResult, error) {
	if len(cards) != 7 {
		return nil, ErrEvaluationInsufficientCards
	}

	pokerCards := make([]poker.Card, 7)
	for i, c := range cards {
		pc, err := toPokerCard(c)
		if err != nil {
			return nil, err
		}
		pokerCards[i] = pc
	}

	var best *bestHandResult
	idx := [5]int{}

	for a := 0; a < 3; a++ {
		for b := a + 1; b < 4; b++ {
			for c := b + 1; c < 5; c++ {
				for d := c + 1; d < 6; d++ {
					for e := d + 1; e < 7; e++ {
						idx[0], idx[1], idx[2], idx[3], idx[4] = a, b, c, d, e
						five := []poker.Card{pokerCards[a], pokerCards[b], pokerCards[c], pokerCards[d], pokerCards[e]}
						rank := poker.Evaluate(five)
						score := int32(kevMaxHandRank + 1 - int(rank))
						if best == nil || score > best.Score {
							best = &bestHandResult{
								Score:    score,
								Category: categoryFromRank(rank),
								BestIndex: idx,
							}
						}
					}
				}
			}
		}
	}
	return best, nil
}

// categoryFromRank maps chehsunliu/poker's rank value (1 best..7462 worst)
// to our closed HandCategory variant. RankClass buckets straight flushes
// (including the royal) as class 1; rank==1 is specifically the unique
// royal flush.
func categoryFromRank(rank int32) HandCategory {
	if rank == 1 {
		return RoyalFlush
	}
	switch poker.RankClass(rank) {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return OnePair
	default:
		return HighCard
	}
}

// toPokerCard converts our Card to chehsunliu/poker's "<Rank><suit>" string
// form, e.g. "Ah", "Td", "3c".
func toPokerCard(c card.Card) (poker.Card, error) {
	var rankStr string
	switch c.Rank() {
	case 1:
		rankStr = "A"
	case 10:
		rankStr = "T"
	case 11:
		rankStr = "J"
	case 12:
		rankStr = "Q"
	case 13:
		rankStr = "K"
	case 2, 3, 4, 5, 6, 7, 8, 9:
		rankStr = fmt.Sprintf("%d", c.Rank())
	default:
		return 0, fmt.Errorf("%w: invalid rank %d", ErrEvaluationInsufficientCards, c.Rank())
	}

	var suitStr string
	switch c.Suit() {
	case card.Spade:
		suitStr = "s"
	case card.Heart:
		suitStr = "h"
	case card.Club:
		suitStr = "c"
	case card.Diamond:
		suitStr = "d"
	default:
		return 0, fmt.Errorf("%w: invalid suit %v", ErrEvaluationInsufficientCards, c.Suit())
	}

	return poker.NewCard(rankStr + suitStr), nil
}
