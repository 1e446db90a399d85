package holdem

import "holdem-tourney/card"

// Player is one occupied seat: identity, chip stack and this-hand state.
type Player struct {
	ID    uint64
	Chair uint16
	Robot bool

	stack int64
	bet   int64

	allIn      bool
	folded     bool
	sittingOut bool
	eliminated bool
	lastAction ActionType
	autoAction bool // set when lastAction was produced by the turn timer, not the user

	handCards card.CardList
	evalRes   *bestHandResult
}

func (p *Player) ChairID() uint16 { return p.Chair }
func (p *Player) IsRobot() bool   { return p.Robot }

func (p *Player) Stack() int64 { return p.stack }
func (p *Player) Bet() int64   { return p.bet }
func (p *Player) AllIn() bool  { return p.allIn }
func (p *Player) Folded() bool { return p.folded }
func (p *Player) Hand() []card.Card {
	return p.handCards
}

// Status derives the spec's Seat.status from the player's internal flags.
func (p *Player) Status() SeatStatus {
	switch {
	case p.eliminated:
		return SeatEliminated
	case p.sittingOut:
		return SeatSittingOut
	case p.allIn:
		return SeatAllIn
	case p.folded:
		return SeatFolded
	default:
		return SeatActive
	}
}

func (p *Player) ResetForNewHand() {
	p.bet = 0
	p.allIn = false
	p.folded = false
	p.lastAction = ActionNone
	p.autoAction = false
	p.handCards = make([]card.Card, 0, 2)
	p.evalRes = nil
}

func (p *Player) AddHandCard(cards ...card.Card) {
	p.handCards = append(p.handCards, cards...)
}

func (p *Player) SetHandCard(cards card.CardList) {
	p.handCards = cards
}

func (p *Player) HandCards() card.CardList { return p.handCards }

func (p *Player) setLastAction(a ActionType, auto bool) {
	p.lastAction = a
	p.autoAction = auto
}
func (p *Player) getLastAction() ActionType { return p.lastAction }
func (p *Player) wasAutoAction() bool       { return p.autoAction }

// placeBet commits amount from the stack into this street's bet, converting
// to an all-in automatically if amount meets or exceeds the remaining stack.
func (p *Player) placeBet(amount int64) {
	if amount <= 0 {
		return
	}
	if p.stack <= amount {
		p.allIn = true
		amount = p.stack
	}
	p.stack -= amount
	p.bet += amount
}

func (p *Player) addBet(amount int64) {
	p.bet += amount
}

func (p *Player) resetBet() {
	p.bet = 0
}

func (p *Player) addStack(amount int64) {
	p.stack += amount
}

func (p *Player) setFolded(v bool) { p.folded = v }

func (p *Player) setEvalResult(r *bestHandResult) { p.evalRes = r }
func (p *Player) getEvalResult() *bestHandResult  { return p.evalRes }

// PlayerNode is a ring-list entry over seated players, walked in the
// table's fixed clockwise (decreasing chair number) direction.
type PlayerNode struct {
	Player  *Player
	ChairID uint16
	Next    *PlayerNode
}

func (n *PlayerNode) getPlayer() *Player {
	if n == nil {
		return nil
	}
	return n.Player
}

func (n *PlayerNode) getChairID() uint16 {
	if n == nil {
		return 0
	}
	return n.ChairID
}

// WalkOnce traverses the ring starting at n, stopping when fn returns true
// (found) or after a full loop back to n (not found, returns nil).
func (n *PlayerNode) WalkOnce(fn func(*PlayerNode) bool) *PlayerNode {
	if n == nil {
		return nil
	}
	cur := n
	for {
		if fn(cur) {
			return cur
		}
		cur = cur.Next
		if cur == nil || cur == n {
			break
		}
	}
	return nil
}

// WalkAll traverses exactly one full loop, never stopping early.
func (n *PlayerNode) WalkAll(fn func(cur *PlayerNode)) {
	n.WalkOnce(func(cur *PlayerNode) bool {
		fn(cur)
		return false
	})
}
