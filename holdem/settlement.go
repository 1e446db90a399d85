package holdem

import (
	"holdem-tourney/card"
	"sort"
)

type ShowdownPlayerResult struct {
	Chair             uint16
	HandType          HandCategory
	HandScore         int32
	HandCards         []card.Card // 2 hole cards
	BestFiveCards     []card.Card // best 5 of 7
	AllCards          []card.Card // hole + community
	IsWinner          bool
	WinAmount         int64
	BestFiveCardIndex [5]int
}

type PotResult struct {
	Amount     int64
	Winners    []uint16
	WinAmounts []int64
}

type SettlementResult struct {
	PlayerResults []ShowdownPlayerResult
	PotResults    []PotResult
	ExcessChair   uint16
	ExcessAmount  int64

	// Aborted marks a hand that never reached showdown because of an
	// internal invariant violation (spec.md 4.4.6) rather than a normal
	// fold-out or showdown. AbortReason is a short, loggable description.
	// PlayerResults/PotResults still carry the pro-rata refund in this case.
	Aborted     bool
	AbortReason string
}

// clockwiseOrderFromDealer returns every chair starting at dealerChair and
// proceeding clockwise (decreasing seat number, wrapping), used to break
// ties among equally-ranked showdown winners: the odd chip goes to the
// earliest seat in this order (spec.md 4.4.4).
func clockwiseOrderFromDealer(dealerChair uint16, maxPlayers int) []uint16 {
	order := make([]uint16, 0, maxPlayers)
	order = append(order, dealerChair)
	cur := dealerChair
	for i := 1; i < maxPlayers; i++ {
		cur = nextClockwise(cur, maxPlayers)
		order = append(order, cur)
	}
	return order
}

func orderByClockwiseFromDealer(chairs []uint16, dealerChair uint16, maxPlayers int) []uint16 {
	rank := make(map[uint16]int, maxPlayers)
	for i, c := range clockwiseOrderFromDealer(dealerChair, maxPlayers) {
		rank[c] = i
	}
	out := append([]uint16{}, chairs...)
	sort.Slice(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}

// SettleShowdown must be called once communityCards is complete (5 cards),
// or when all but one player has folded (no_show_down fast path).
func (g *Game) SettleShowdown() (*SettlementResult, error) {
	if g.noShowDown {
		return g.settleNoShowdown()
	}
	return g.settleByEval()
}

func (g *Game) settleByEval() (*SettlementResult, error) {
	results := make(map[uint16]*ShowdownPlayerResult, 8)
	for chair, p := range g.playersByChair {
		// Only players who were actually dealt this hand can participate in showdown.
		if p == nil || p.folded || len(p.HandCards()) != 2 {
			continue
		}
		all := make(card.CardList, 0, 7)
		all = append(all, p.HandCards()...)
		all = append(all, g.communityCards...)
		if len(all) != 7 {
			return nil, ErrInvalidState("need 7 cards to evaluate")
		}
		eval, err := EvalBestOf7(all)
		if err != nil {
			return nil, err
		}
		bestFive := make([]card.Card, 0, 5)
		for _, i := range eval.BestIndex {
			bestFive = append(bestFive, all[i])
		}
		results[chair] = &ShowdownPlayerResult{
			Chair:             chair,
			HandType:          eval.Category,
			HandScore:         eval.Score,
			HandCards:         append([]card.Card{}, p.HandCards()...),
			BestFiveCards:     bestFive,
			AllCards:          append([]card.Card{}, all...),
			BestFiveCardIndex: eval.BestIndex,
		}
	}

	dealerChair := uint16(0)
	if g.dealerNode != nil {
		dealerChair = g.dealerNode.ChairID
	}

	potWinners := make([][]uint16, 0, len(g.potManager.pots))
	for _, pot := range g.potManager.pots {
		group := make([]uint16, 0, len(pot.eligiblePlayers))
		for chair := range pot.eligiblePlayers {
			group = append(group, chair)
		}
		if len(group) == 0 {
			potWinners = append(potWinners, nil)
			continue
		}
		group = orderByClockwiseFromDealer(group, dealerChair, g.cfg.MaxPlayers)

		winners := []uint16{group[0]}
		for gi := 1; gi < len(group); gi++ {
			ch := group[gi]
			cur := results[ch]
			if cur == nil {
				continue
			}
			beatsAll := true
			drawWithAll := true
			for _, w := range winners {
				wr := results[w]
				if wr == nil {
					continue
				}
				if cur.HandScore > wr.HandScore {
					drawWithAll = false
				} else if cur.HandScore == wr.HandScore {
					beatsAll = false
				} else {
					beatsAll = false
					drawWithAll = false
				}
			}
			if beatsAll {
				winners = []uint16{ch}
			} else if drawWithAll {
				winners = append(winners, ch)
			}
		}
		// winners is already in clockwise-from-dealer order (group was),
		// so winners[0] is the earliest clockwise tied winner.
		potWinners = append(potWinners, winners)
	}

	out := &SettlementResult{
		PotResults:   make([]PotResult, 0, len(g.potManager.pots)),
		ExcessChair:  g.potManager.excessChair,
		ExcessAmount: g.potManager.excessAmount,
	}

	for potIdx, pot := range g.potManager.pots {
		winners := potWinners[potIdx]
		if len(winners) == 0 || pot.amount <= 0 {
			out.PotResults = append(out.PotResults, PotResult{Amount: pot.amount})
			continue
		}

		winAmount := pot.amount / int64(len(winners))
		remainder := pot.amount % int64(len(winners))

		pr := PotResult{
			Amount:  pot.amount,
			Winners: append([]uint16{}, winners...),
		}

		for i, w := range winners {
			amt := winAmount
			if i == 0 {
				// winners[0] is earliest clockwise from dealer: gets the odd chip.
				amt += remainder
			}
			pr.WinAmounts = append(pr.WinAmounts, amt)

			if p := g.playersByChair[w]; p != nil {
				p.addStack(amt)
			}
			if r := results[w]; r != nil {
				r.IsWinner = true
				r.WinAmount += amt
			}
		}
		out.PotResults = append(out.PotResults, pr)
	}

	for _, r := range results {
		out.PlayerResults = append(out.PlayerResults, *r)
	}
	sort.Slice(out.PlayerResults, func(i, j int) bool { return out.PlayerResults[i].Chair < out.PlayerResults[j].Chair })
	return out, nil
}

// abortHandLocked implements spec.md 4.4.6: when an internal invariant is
// violated mid-hand (its own named example is an exhausted stock deck), the
// hand is aborted instead of crashing the table actor. Every chip any seat
// put in this hand — live bets and chips already swept into pots alike — is
// returned pro-rata to its contributor, the odd chip going to the earliest
// contributor in clockwise-from-dealer order (the same tie-break
// settleByEval uses for tied showdown winners). The caller is responsible
// for logging reason.
func (g *Game) abortHandLocked(reason string) *SettlementResult {
	type contribution struct {
		chair  uint16
		amount int64
	}
	var contributions []contribution
	var total int64
	for chair, startStack := range g.handStartStack {
		p := g.playersByChair[chair]
		if p == nil {
			continue
		}
		amt := startStack - p.stack
		if amt <= 0 {
			continue
		}
		contributions = append(contributions, contribution{chair: chair, amount: amt})
		total += amt
	}

	dealerChair := uint16(0)
	if g.dealerNode != nil {
		dealerChair = g.dealerNode.ChairID
	}
	chairs := make([]uint16, 0, len(contributions))
	for _, c := range contributions {
		chairs = append(chairs, c.chair)
	}
	order := make(map[uint16]int, len(chairs))
	for i, c := range orderByClockwiseFromDealer(chairs, dealerChair, g.cfg.MaxPlayers) {
		order[c] = i
	}
	sort.Slice(contributions, func(i, j int) bool { return order[contributions[i].chair] < order[contributions[j].chair] })

	result := &SettlementResult{Aborted: true, AbortReason: reason}
	if total > 0 {
		pot := PotResult{Amount: total}
		for _, c := range contributions {
			p := g.playersByChair[c.chair]
			if p == nil {
				continue
			}
			p.addStack(c.amount)
			pot.Winners = append(pot.Winners, c.chair)
			pot.WinAmounts = append(pot.WinAmounts, c.amount)
			result.PlayerResults = append(result.PlayerResults, ShowdownPlayerResult{
				Chair:     c.chair,
				IsWinner:  true,
				WinAmount: c.amount,
			})
		}
		result.PotResults = append(result.PotResults, pot)
	}

	for _, p := range g.playersByChair {
		if p != nil {
			p.resetBet()
		}
	}
	g.potManager.resetPots()
	g.ended = true
	g.noShowDown = false
	g.phase = PhaseIdle
	g.lastSettlement = result
	return result
}

func (g *Game) settleNoShowdown() (*SettlementResult, error) {
	var winner *Player
	for _, p := range g.playersByChair {
		if p == nil {
			continue
		}
		if !p.folded {
			winner = p
			break
		}
	}
	if winner == nil {
		return nil, ErrInvalidState("no winner in no-showdown state")
	}

	var maxBet, secondMax int64
	for _, p := range g.playersByChair {
		if p == nil {
			continue
		}
		b := p.Bet()
		if b > maxBet {
			secondMax = maxBet
			maxBet = b
		} else if b > secondMax || b == maxBet {
			secondMax = b
		}
	}

	// refund unmatched portion of winner's bet (if any)
	excess := int64(0)
	if winner.Bet() == maxBet && maxBet > secondMax {
		excess = maxBet - secondMax
		winner.addStack(excess)
		winner.addBet(-excess)
	}

	total := int64(0)
	for _, p := range g.playersByChair {
		if p == nil {
			continue
		}
		total += p.Bet()
	}
	for _, pot := range g.potManager.pots {
		total += pot.amount
	}

	winner.addStack(total)
	for _, p := range g.playersByChair {
		if p != nil {
			p.resetBet()
		}
	}

	out := &SettlementResult{
		PlayerResults: []ShowdownPlayerResult{
			{
				Chair:     winner.ChairID(),
				IsWinner:  true,
				WinAmount: total,
			},
		},
		PotResults: []PotResult{
			{
				Amount:     total,
				Winners:    []uint16{winner.ChairID()},
				WinAmounts: []int64{total},
			},
		},
		ExcessChair:  winner.ChairID(),
		ExcessAmount: excess,
	}
	return out, nil
}
