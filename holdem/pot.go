package holdem

import "sort"

type pot struct {
	amount          int64
	eligiblePlayers map[uint16]bool
}

type potManager struct {
	pots         []pot
	excessChair  uint16
	excessAmount int64
}

func (pm *potManager) resetPots() {
	pm.pots = make([]pot, 0)
	pm.excessChair = 0
	pm.excessAmount = 0
}

func (pm *potManager) addPot(p ...pot) {
	pm.pots = append(pm.pots, p...)
}

// calcPotsByPlayerBets builds side pots from the whole hand's committed
// contributions (spec.md 4.4.4): sort distinct commitment levels ascending,
// pot k = (Lk - Lk-1) * (#players committing >= Lk), eligible = players
// committing >= Lk and not folded. An uncalled excess above the
// second-highest bet is refunded immediately to the lone top bettor.
func (pm *potManager) calcPotsByPlayerBets(playersWithBets []*Player) {
	sort.Slice(playersWithBets, func(i, j int) bool {
		return playersWithBets[i].Bet() < playersWithBets[j].Bet()
	})

	totalContributed := int64(0)
	for i, player := range playersWithBets {
		bet := player.Bet()

		contribution := bet - totalContributed
		if contribution <= 0 {
			continue
		}

		newPot := pot{
			amount:          0,
			eligiblePlayers: make(map[uint16]bool),
		}

		for j := i; j < len(playersWithBets); j++ {
			playerJ := playersWithBets[j]
			actualContribution := contribution
			if actualContribution > playerJ.Bet()-totalContributed {
				actualContribution = playerJ.Bet() - totalContributed
			}

			newPot.amount += actualContribution
			if !playerJ.Folded() {
				newPot.eligiblePlayers[playerJ.ChairID()] = true
			}
		}

		// Merge into the previous pot layer when the eligible set is
		// unchanged, so adjacent layers with identical eligibility collapse
		// into a single pot.
		merged := false
		if len(pm.pots) > 0 {
			lastPot := &pm.pots[len(pm.pots)-1]
			if len(lastPot.eligiblePlayers) == len(newPot.eligiblePlayers) {
				samePlayers := true
				for chairID := range newPot.eligiblePlayers {
					if !lastPot.eligiblePlayers[chairID] {
						samePlayers = false
						break
					}
				}
				if samePlayers {
					lastPot.amount += newPot.amount
					merged = true
				}
			}
		}

		// A pot layer is added even with a single eligible player: dropping
		// it would destroy chips that were genuinely committed (invariant:
		// chip conservation per hand).
		if !merged && len(newPot.eligiblePlayers) > 0 {
			pm.addPot(newPot)
		}

		totalContributed += contribution
	}

	pm.excessChair = 0
	pm.excessAmount = 0
	if len(playersWithBets) > 0 {
		lastPlayer := playersWithBets[len(playersWithBets)-1]
		maxBet := lastPlayer.Bet()

		var secondMaxBet int64
		if len(playersWithBets) > 1 {
			secondMaxBet = playersWithBets[len(playersWithBets)-2].Bet()
		}

		excess := maxBet - secondMaxBet
		if excess > 0 {
			lastPlayer.addStack(excess)
			lastPlayer.addBet(-excess)

			pm.excessChair = lastPlayer.ChairID()
			pm.excessAmount = excess
		}
	}
}
