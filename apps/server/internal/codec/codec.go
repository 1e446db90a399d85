// Package codec converts holdem engine snapshots into the wire-level
// protocol types (spec.md 6.1/6.2), including per-viewer hole-card
// redaction.
package codec

import (
	"holdem-tourney/apps/server/internal/protocol"
	"holdem-tourney/card"
	"holdem-tourney/holdem"
)

var rankNames = map[byte]string{
	1: "A", 2: "2", 3: "3", 4: "4", 5: "5", 6: "6", 7: "7",
	8: "8", 9: "9", 10: "10", 11: "J", 12: "Q", 13: "K",
}

var suitLetters = map[card.Suit]string{
	card.Spade: "S", card.Heart: "H", card.Club: "C", card.Diamond: "D",
}

func CardToWire(c card.Card) protocol.Card {
	return protocol.Card{Rank: rankNames[c.Rank()], Suit: suitLetters[c.Suit()]}
}

func CardsToWire(cards []card.Card) []protocol.Card {
	out := make([]protocol.Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardToWire(c))
	}
	return out
}

func streetName(p holdem.Phase) string {
	switch p {
	case holdem.PhasePreflop:
		return "PREFLOP"
	case holdem.PhaseFlop:
		return "FLOP"
	case holdem.PhaseTurn:
		return "TURN"
	case holdem.PhaseRiver:
		return "RIVER"
	case holdem.PhaseShowdown:
		return "SHOWDOWN"
	default:
		return "IDLE"
	}
}

func seatStatusName(ps holdem.PlayerSnapshot) string {
	switch {
	case ps.Folded:
		return "FOLDED"
	case ps.AllIn:
		return "ALL_IN"
	case ps.Stack == 0:
		return "ELIMINATED"
	default:
		return "ACTIVE"
	}
}

func potTotal(snap holdem.Snapshot) int64 {
	var total int64
	for _, p := range snap.Pots {
		total += p.Amount
	}
	for _, ps := range snap.Players {
		total += ps.Bet
	}
	return total
}

// TableSnapshot builds a per-viewer redacted table-state payload. viewerID
// == 0 means no hole cards are revealed to anyone (e.g. ledger archival).
func TableSnapshot(tableID, tournamentID string, tableNumber int, nickname func(uint64) string, snap holdem.Snapshot, viewerID uint64) protocol.TableState {
	ts := protocol.TableState{
		TableID:        tableID,
		TournamentID:   tournamentID,
		TableNumber:    tableNumber,
		Street:         streetName(snap.Phase),
		Pot:            potTotal(snap),
		CurrentBet:     snap.CurBet,
		MinimumRaise:   snap.MinRaiseDelta,
		DealerSeat:     int(snap.DealerChair),
		SBSeat:         int(snap.SmallBlindChair),
		BBSeat:         int(snap.BigBlindChair),
		CommunityCards: CardsToWire(snap.CommunityCards),
	}
	if snap.ActionChair != holdem.InvalidChair {
		seat := int(snap.ActionChair)
		ts.CurrentTurnSeat = &seat
	}
	for _, ps := range snap.Players {
		seat := protocol.Seat{
			SeatNumber:            int(ps.Chair),
			UserID:                ps.ID,
			Chips:                 ps.Stack,
			Status:                seatStatusName(ps),
			ContributionThisRound: ps.Bet,
		}
		if nickname != nil {
			seat.DisplayName = nickname(ps.ID)
		}
		if ps.ID == viewerID && len(ps.HandCards) > 0 {
			seat.HoleCards = CardsToWire(ps.HandCards)
		}
		ts.Seats = append(ts.Seats, seat)
	}
	return ts
}

// HandResult builds the hand-result payload from a settlement, revealing
// hole cards only for seats that reached showdown.
func HandResult(tableID string, result *holdem.SettlementResult, seatUserID map[uint16]uint64) protocol.HandResult {
	hr := protocol.HandResult{TableID: tableID}
	for _, pr := range result.PlayerResults {
		userID := seatUserID[pr.Chair]
		if pr.IsWinner && pr.WinAmount > 0 {
			hr.Winners = append(hr.Winners, protocol.Winner{
				UserID:   userID,
				Amount:   pr.WinAmount,
				Category: pr.HandType.String(),
			})
		}
		if pr.HandType != 0 && len(pr.HandCards) > 0 {
			hr.Reveals = append(hr.Reveals, protocol.Reveal{
				UserID: userID,
				Cards:  CardsToWire(pr.HandCards),
			})
		}
	}
	return hr
}

// WireAction maps a wire-level action string (spec.md 6.1's player-action
// enum) onto the holdem engine's ActionType.
func WireAction(a string) holdem.ActionType {
	switch a {
	case protocol.ActionFold:
		return holdem.ActionFold
	case protocol.ActionCheck:
		return holdem.ActionCheck
	case protocol.ActionCall:
		return holdem.ActionCall
	case protocol.ActionBet:
		return holdem.ActionBet
	case protocol.ActionRaise:
		return holdem.ActionRaise
	case protocol.ActionAllIn:
		return holdem.ActionAllIn
	default:
		return holdem.ActionNone
	}
}
