package holdem

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"holdem-tourney/card"
)

// Game is the Table Hand Machine (C4): one per active table, driving a
// single hand at a time from post-blinds to pot award.
type Game struct {
	cfg Config
	rng *rand.Rand // dealer-selection only; the deck shuffle uses crypto/rand (C1)

	mu sync.Mutex

	// seats
	playersByChair map[uint16]*Player
	chairIDNodes   map[uint16]*PlayerNode

	// hand state
	round          uint16
	phase          Phase
	communityCards card.CardList
	stockCards     card.CardList

	dealerNode     *PlayerNode
	smallBlindNode *PlayerNode
	bigBlindNode   *PlayerNode
	curNode        *PlayerNode

	activeCount int
	allinCount  int

	NeedActionCount int    // seats still owing action this round
	MinRaise        int64  // minimum legal raise increment
	CurrentRaiser   uint16 // chair that last reopened action with a full bet/raise

	curBet           int64
	lastPlayerAction ActionType
	validActions     []ActionType

	noShowDown bool
	ended      bool

	potManager potManager

	// handStartStack snapshots each active seat's stack at the moment this
	// hand began, so abortHandLocked can compute pro-rata refunds as
	// (startStack - currentStack) without having to hook every call site
	// that moves chips from stack to bet.
	handStartStack map[uint16]int64

	lastSettlement *SettlementResult
	eliminated     []EliminationReport
}

// EliminationReport names a seat that hit 0 chips at hand teardown. Order
// numbers the seats eliminated in that hand by ascending chair; it is not a
// finishing order among them.
type EliminationReport struct {
	Chair  uint16
	UserID uint64
	Order  int
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Game{
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(seed)),
		playersByChair: make(map[uint16]*Player, cfg.MaxPlayers),
		chairIDNodes:   make(map[uint16]*PlayerNode, cfg.MaxPlayers),
		phase:          PhaseIdle,
		CurrentRaiser:  InvalidChair,
	}
	g.potManager.resetPots()
	return g, nil
}

// SitDown seats a player with an initial stack.
func (g *Game) SitDown(chair uint16, playerID uint64, stack int64, robot bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if chair >= uint16(g.cfg.MaxPlayers) {
		return fmt.Errorf("invalid chair %d", chair)
	}
	if stack < 0 {
		return fmt.Errorf("stack must be >= 0")
	}
	if g.playersByChair[chair] != nil {
		return fmt.Errorf("chair %d already occupied", chair)
	}
	g.playersByChair[chair] = &Player{
		ID:    playerID,
		Chair: chair,
		Robot: robot,
		stack: stack,
	}
	return nil
}

// StandUp removes a player from a chair between hands.
func (g *Game) StandUp(chair uint16) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if chair >= uint16(g.cfg.MaxPlayers) {
		return fmt.Errorf("invalid chair %d", chair)
	}
	if g.playersByChair[chair] == nil {
		return fmt.Errorf("chair %d is empty", chair)
	}
	if g.round > 0 && !g.ended {
		return ErrHandInProgress
	}

	delete(g.playersByChair, chair)
	delete(g.chairIDNodes, chair)

	if g.dealerNode != nil && g.dealerNode.ChairID == chair {
		g.dealerNode = nil
	}
	if g.smallBlindNode != nil && g.smallBlindNode.ChairID == chair {
		g.smallBlindNode = nil
	}
	if g.bigBlindNode != nil && g.bigBlindNode.ChairID == chair {
		g.bigBlindNode = nil
	}
	if g.curNode != nil && g.curNode.ChairID == chair {
		g.curNode = nil
	}

	return nil
}

func (g *Game) Player(chair uint16) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playersByChair[chair]
}

// Phase returns the hand machine's current state.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// UpdateBlinds applies a new small/big blind to take effect starting with
// the next hand (spec.md 4.6.2): a running tournament's blind schedule
// advances independently of any in-progress hand, so this never touches a
// hand already underway — only StartHand reads cfg.SmallBlind/BigBlind when
// posting blinds. Callers should apply this before calling StartHand.
func (g *Game) UpdateBlinds(smallBlind, bigBlind int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if smallBlind < 0 || bigBlind <= 0 || smallBlind > bigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", smallBlind, bigBlind)
	}
	g.cfg.SmallBlind = smallBlind
	g.cfg.BigBlind = bigBlind
	return nil
}

// StartHand starts a new hand (spec.md 4.4.1): requires >= MinPlayers
// non-eliminated seats with chips > 0.
func (g *Game) StartHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ended = false
	g.lastSettlement = nil
	g.noShowDown = false
	g.communityCards = nil
	g.eliminated = nil
	g.phase = PhaseDeal

	active := make([]*Player, 0, g.cfg.MaxPlayers)
	g.handStartStack = make(map[uint16]int64, g.cfg.MaxPlayers)
	for chair := uint16(0); chair < uint16(g.cfg.MaxPlayers); chair++ {
		p := g.playersByChair[chair]
		if p == nil {
			continue
		}
		if p.stack <= 0 || p.Status() == SeatSittingOut {
			// Clear any stale hand from a prior hand: a busted or
			// sitting-out seat must never carry cards into a showdown it
			// didn't participate in.
			p.SetHandCard(nil)
			continue
		}
		p.ResetForNewHand()
		active = append(active, p)
		g.handStartStack[chair] = p.stack
	}
	if len(active) < g.cfg.MinPlayers {
		return fmt.Errorf("not enough players: %d < %d", len(active), g.cfg.MinPlayers)
	}

	g.round++

	g.potManager.resetPots()
	g.activeCount = len(active)
	g.allinCount = 0
	g.curBet = 0
	g.MinRaise = 0
	g.NeedActionCount = 0
	g.CurrentRaiser = InvalidChair
	g.lastPlayerAction = ActionNone

	if err := g.buildRing(active); err != nil {
		return err
	}

	if err := g.fillStock(); err != nil {
		return err
	}

	if err := g.selectDealer(); err != nil {
		return err
	}

	g.selectBlindsByDealer(g.dealerNode)
	if err := g.dealHoleCards(); err != nil {
		if err == ErrDeckExhausted {
			g.abortHandLocked("deck exhausted dealing hole cards")
			return nil
		}
		return err
	}

	if g.autoBetAntes() {
		if err := g.advanceToShowdownLocked(); err != nil {
			if err == ErrDeckExhausted {
				g.abortHandLocked("deck exhausted dealing to showdown")
				return nil
			}
			return err
		}
		_, err := g.endHandLocked()
		return err
	}

	if g.autoBetBlinds() {
		if err := g.advanceToShowdownLocked(); err != nil {
			if err == ErrDeckExhausted {
				g.abortHandLocked("deck exhausted dealing to showdown")
				return nil
			}
			return err
		}
		_, err := g.endHandLocked()
		return err
	}

	g.curNode = g.curNode.WalkOnce(func(cur *PlayerNode) bool {
		return cur.Player.stack > 0 && !cur.Player.folded
	})

	g.phase = PhasePreflop
	g.onPhaseStartLocked()
	return nil
}

// buildRing links active seats into the clockwise ring: spec.md's seat
// numbering convention fixes "clockwise" as decreasing seat number,
// wrapping max -> min. Next therefore always points from a higher chair to
// the nearest lower occupied chair (and from the lowest occupied chair back
// to the highest).
func (g *Game) buildRing(active []*Player) error {
	g.chairIDNodes = make(map[uint16]*PlayerNode, len(active))
	var first, last *PlayerNode
	for i := int(g.cfg.MaxPlayers) - 1; i >= 0; i-- {
		chair := uint16(i)
		p := g.playersByChair[chair]
		if p == nil || p.stack <= 0 || p.Status() == SeatSittingOut {
			continue
		}
		node := &PlayerNode{ChairID: chair, Player: p}
		g.chairIDNodes[chair] = node
		if first == nil {
			first = node
		}
		if last != nil {
			last.Next = node
		}
		last = node
	}
	if first != nil && last != nil {
		last.Next = first
	}
	return nil
}

// fillStock prepares the stock deck: DeckOverride pins an exact order
// (consumed index 0 upward); otherwise a fresh crypto/rand shuffle is used.
func (g *Game) fillStock() error {
	if len(g.cfg.DeckOverride) > 0 {
		// Every deal uses PopCards, which consumes from the head, so the
		// override is loaded as given: index 0 is the first card dealt.
		g.stockCards.Init(g.cfg.DeckOverride)
		return nil
	}
	cards := make([]card.Card, len(HoldemCards))
	copy(cards, HoldemCards)
	deck := card.CardList(cards)
	if err := deck.ShuffleSecure(); err != nil {
		return fmt.Errorf("shuffle: %w", err)
	}
	g.stockCards.Init(cards)
	return nil
}

func (g *Game) selectDealer() error {
	nodeCount := len(g.chairIDNodes)
	if nodeCount == 0 {
		g.dealerNode = nil
		return nil
	}

	if g.cfg.ForcedDealerChair != nil {
		node, ok := g.chairIDNodes[*g.cfg.ForcedDealerChair]
		if !ok {
			return fmt.Errorf("forced dealer chair %d is not an active seat", *g.cfg.ForcedDealerChair)
		}
		g.dealerNode = node
		return nil
	}

	if g.round == 1 || g.dealerNode == nil {
		chairs := make([]uint16, 0, nodeCount)
		for c := range g.chairIDNodes {
			chairs = append(chairs, c)
		}
		g.dealerNode = g.chairIDNodes[chairs[g.rng.Intn(len(chairs))]]
		return nil
	}

	// subsequent hands: clockwise from the previous dealer through active seats
	prevChair := g.dealerNode.ChairID
	if prevNode, ok := g.chairIDNodes[prevChair]; ok && prevNode.Next != nil {
		g.dealerNode = prevNode.Next
		return nil
	}

	chairs := make([]uint16, 0, nodeCount)
	for c := range g.chairIDNodes {
		chairs = append(chairs, c)
	}
	g.dealerNode = g.chairIDNodes[chairs[g.rng.Intn(len(chairs))]]
	return nil
}

func (g *Game) selectBlindsByDealer(dealer *PlayerNode) {
	if dealer == nil {
		return
	}
	if g.activeCount == 2 {
		// Heads-up: dealer is SB.
		g.dealerNode = dealer
		g.smallBlindNode = dealer
		g.bigBlindNode = dealer.Next
		g.curNode = dealer
	} else {
		g.dealerNode = dealer
		g.smallBlindNode = dealer.Next
		g.bigBlindNode = g.smallBlindNode.Next
		g.curNode = g.bigBlindNode.Next
	}
}

func (g *Game) dealHoleCards() error {
	if g.smallBlindNode == nil {
		return nil
	}
	var dealErr error
	for i := 0; i < 2; i++ {
		g.smallBlindNode.WalkAll(func(cur *PlayerNode) {
			if dealErr != nil {
				return
			}
			cards, ok := g.stockCards.PopCards(1)
			if !ok {
				dealErr = ErrDeckExhausted
				return
			}
			cur.Player.AddHandCard(cards...)
		})
		if dealErr != nil {
			return dealErr
		}
	}
	return nil
}

func (g *Game) dealCommunityCardsLocked() error {
	shouldDeal := 0
	switch g.phase {
	case PhaseFlop:
		shouldDeal = 3
	case PhaseTurn, PhaseRiver:
		shouldDeal = 1
	case PhaseShowdown:
		shouldDeal = 5 - len(g.communityCards)
	}
	if shouldDeal <= 0 {
		return nil
	}
	// burn one before each dealt segment (spec.md 4.1/4.4.2); PopCards (not
	// PopCard) keeps the burn on the same end of stockCards as every other
	// deal, so a DeckOverride's card order is consumed strictly index-0-upward.
	if _, ok := g.stockCards.PopCards(1); !ok {
		return ErrDeckExhausted
	}
	cards, ok := g.stockCards.PopCards(shouldDeal)
	if !ok {
		return ErrDeckExhausted
	}
	g.communityCards = append(g.communityCards, cards...)
	return nil
}

func (g *Game) autoBetAntes() bool {
	if g.cfg.Ante == 0 {
		return false
	}
	notAllIn := 0
	for _, p := range g.playersByChair {
		if p == nil || p.stack <= 0 {
			continue
		}
		p.placeBet(g.cfg.Ante)
		if p.stack > 0 {
			notAllIn++
		}
	}
	g.allinCount = g.activeCount - notAllIn
	g.collectBetsLocked()
	return notAllIn <= 1
}

func (g *Game) autoBetBlinds() bool {
	if g.smallBlindNode != nil && g.smallBlindNode.Player.stack > 0 && g.cfg.SmallBlind > 0 {
		g.smallBlindNode.Player.placeBet(g.cfg.SmallBlind)
		if g.smallBlindNode.Player.stack <= 0 {
			g.allinCount++
		}
	}
	if g.bigBlindNode != nil && g.bigBlindNode.Player.stack > 0 {
		g.bigBlindNode.Player.placeBet(g.cfg.BigBlind)
		if g.bigBlindNode.Player.stack <= 0 {
			g.allinCount++
		}
	}

	if g.activeCount == g.allinCount {
		return true
	}

	g.lastPlayerAction = ActionBet
	g.MinRaise = g.cfg.BigBlind
	g.curBet = g.cfg.BigBlind
	return false
}

// LegalActions is a pure projection of current state.
func (g *Game) LegalActions(chair uint16) ([]ActionType, int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return nil, 0, ErrHandEnded
	}
	p := g.playersByChair[chair]
	if p == nil {
		return nil, 0, fmt.Errorf("player not found")
	}
	acts := g.calcNextValidActions(p)
	minTotalRaiseTo := g.curBet + g.MinRaise
	if g.lastPlayerAction == ActionNone || g.lastPlayerAction == ActionCheck {
		minTotalRaiseTo = g.cfg.BigBlind
	}
	return acts, minTotalRaiseTo, nil
}

// Act applies an action for the current player. amount is the player's
// total contribution for the round (not a delta). A non-nil handEnd return
// means the hand concluded and was settled.
func (g *Game) Act(chair uint16, action ActionType, amount int64) (handEnd *SettlementResult, err error) {
	return g.actAuto(chair, action, amount, false)
}

// ActAuto is Act with the auto flag recorded on the player's last action
// (used by the turn timer's auto-fold/auto-check, spec.md 4.7/7).
func (g *Game) ActAuto(chair uint16, action ActionType, amount int64) (*SettlementResult, error) {
	return g.actAuto(chair, action, amount, true)
}

func (g *Game) actAuto(chair uint16, action ActionType, amount int64, auto bool) (handEnd *SettlementResult, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ended {
		return nil, ErrHandEnded
	}
	if g.curNode == nil || g.curNode.Player == nil {
		return nil, ErrInvalidState("no current player")
	}
	if chair != g.curNode.ChairID {
		return nil, ErrOutOfTurn
	}

	player := g.curNode.Player

	legal := g.calcNextValidActions(player)
	valid := false
	for _, a := range legal {
		if a == action {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}

	if amount < player.bet && action != ActionFold {
		if action != ActionCheck {
			return nil, fmt.Errorf("%w: amount %d < current bet %d", ErrInsufficientChips, amount, player.bet)
		}
		amount = player.bet
	}

	// Overbet => all-in.
	if amount-player.bet > player.stack {
		amount = player.stack + player.bet
		action = ActionAllIn
	}

	if amount > g.curBet {
		validRaise := true
		switch action {
		case ActionAllIn:
			// Short all-in: updates current_bet but does not reopen action.
			if amount-g.curBet < g.MinRaise {
				validRaise = false
			}
		case ActionBet:
			if amount-g.curBet < g.cfg.BigBlind {
				return nil, fmt.Errorf("%w: bet below big blind", ErrBelowMinimumRaise)
			}
		case ActionRaise:
			if amount-g.curBet < g.MinRaise {
				return nil, fmt.Errorf("%w: raise increment %d < minimum %d", ErrBelowMinimumRaise, amount-g.curBet, g.MinRaise)
			}
		}

		if validRaise {
			g.MinRaise = amount - g.curBet
			g.CurrentRaiser = chair
		}
		g.curBet = amount
		g.setNeedActionCountLocked()
	}

	player.setLastAction(action, auto)
	switch action {
	case ActionBet, ActionRaise:
		player.placeBet(amount - player.bet)
	case ActionCall:
		if amount != g.curBet {
			available := player.stack + player.bet
			if available > g.curBet {
				amount = g.curBet
			} else {
				return nil, fmt.Errorf("%w: invalid call amount", ErrInsufficientChips)
			}
		}
		player.placeBet(amount - player.bet)
	case ActionCheck:
		// no-op
	case ActionFold:
		player.setFolded(true)
		g.activeCount--
		for i := range g.potManager.pots {
			delete(g.potManager.pots[i].eligiblePlayers, chair)
		}
		if g.activeCount <= 1 {
			g.noShowDown = true
			return g.endHandLocked()
		}
	case ActionAllIn:
		player.placeBet(player.stack)
		g.allinCount++
	}

	if action != ActionFold {
		g.lastPlayerAction = action
	}

	g.NeedActionCount--
	nextNode, bettingEnd := g.calcNextActionPosAndBettingEndLocked()
	g.curNode = nextNode

	if bettingEnd {
		g.validActions = nil
		g.collectBetsLocked()

		if g.checkDirectShowdownLocked() || g.phase == PhaseRiver {
			if err := g.advanceToShowdownLocked(); err != nil {
				if err == ErrDeckExhausted {
					return g.abortHandLocked("deck exhausted dealing to showdown"), nil
				}
				return nil, err
			}
			return g.endHandLocked()
		}

		g.phase++
		if err := g.dealCommunityCardsLocked(); err != nil {
			if err == ErrDeckExhausted {
				return g.abortHandLocked("deck exhausted dealing community cards"), nil
			}
			return nil, err
		}
		g.onPhaseStartLocked()
		return nil, nil
	}

	if g.curNode == nil || g.curNode.Player == nil {
		return nil, ErrInvalidState("next player not found")
	}
	g.validActions = g.calcNextValidActions(g.curNode.Player)
	return nil, nil
}

func (g *Game) onPhaseStartLocked() {
	g.setNeedActionCountLocked()
	g.CurrentRaiser = InvalidChair
	for _, p := range g.playersByChair {
		if p != nil {
			p.setLastAction(ActionNone, false)
		}
	}

	switch g.phase {
	case PhasePreflop:
		g.lastPlayerAction = ActionBet // blinds count as the opening bet
	default:
		g.lastPlayerAction = ActionNone
		g.MinRaise = g.cfg.BigBlind
	}

	if g.curNode != nil && g.curNode.Player != nil {
		g.validActions = g.calcNextValidActions(g.curNode.Player)
	}
}

func (g *Game) collectBetsLocked() {
	playersWithBets := make([]*Player, 0, g.activeCount)
	for chair := uint16(0); chair < uint16(g.cfg.MaxPlayers); chair++ {
		p := g.playersByChair[chair]
		if p == nil {
			continue
		}
		if p.bet > 0 {
			playersWithBets = append(playersWithBets, p)
		}
	}
	g.potManager.calcPotsByPlayerBets(playersWithBets)
	for _, p := range playersWithBets {
		p.resetBet()
	}
	g.curBet = 0
}

func (g *Game) setNeedActionCountLocked() {
	g.NeedActionCount = g.activeCount - g.allinCount
}

// calcNextValidActions is a pure projection of legal actions for nextPlayer.
func (g *Game) calcNextValidActions(nextPlayer *Player) []ActionType {
	nextValid := []ActionType{ActionAllIn, ActionFold}
	canCall := false

	switch g.lastPlayerAction {
	case ActionCheck, ActionNone:
		nextValid = append(nextValid, ActionCheck)
		if nextPlayer.stack > g.cfg.BigBlind {
			nextValid = append(nextValid, ActionBet)
		}

	case ActionBet, ActionRaise, ActionAllIn, ActionCall:
		available := nextPlayer.stack + nextPlayer.bet

		if nextPlayer.bet == g.curBet {
			nextValid = append(nextValid, ActionCheck)
		} else if available > g.curBet {
			nextValid = append(nextValid, ActionCall)
			canCall = true
		}

		canRaise := available > g.curBet+g.MinRaise
		isReopen := g.CurrentRaiser != nextPlayer.ChairID()
		if canRaise && isReopen && g.activeCount-g.allinCount > 1 {
			nextValid = append(nextValid, ActionRaise)
		}

		if (canCall && g.activeCount-g.allinCount <= 1) || (canRaise && !isReopen) {
			if len(nextValid) > 0 {
				nextValid = nextValid[1:]
			}
		}
	}
	return nextValid
}

// calcNextActionPosAndBettingEndLocked computes the next seat to act
// (clockwise) and whether the round has closed.
func (g *Game) calcNextActionPosAndBettingEndLocked() (*PlayerNode, bool) {
	if g.NeedActionCount == 0 {
		if g.phase == PhaseRiver {
			return nil, true
		}
		var first *PlayerNode
		// Heads-up first-to-act postflop depends on the hand's original seat
		// count, not the live activeCount (folds can shrink it to 2 later).
		if len(g.chairIDNodes) == 2 {
			first = g.bigBlindNode
		} else {
			first = g.smallBlindNode
		}
		node := first.WalkOnce(func(n *PlayerNode) bool {
			return n.Player != nil && !n.Player.folded && n.Player.stack > 0
		})
		return node, true
	}

	nextNode := g.curNode.Next.WalkOnce(func(n *PlayerNode) bool {
		return n.Player != nil && !n.Player.folded && n.Player.stack > 0
	})
	if nextNode != nil {
		if nextNode.Player.bet >= g.curBet && g.NeedActionCount == 1 && g.activeCount-g.allinCount == 1 {
			return nextNode, true
		}
		return nextNode, false
	}
	return nil, true
}

func (g *Game) checkDirectShowdownLocked() bool {
	return g.allinCount >= g.activeCount-1
}

func (g *Game) advanceToShowdownLocked() error {
	g.phase = PhaseShowdown
	return g.dealCommunityCardsLocked()
}

func (g *Game) endHandLocked() (*SettlementResult, error) {
	settle, err := g.SettleShowdown()
	if err != nil {
		return nil, err
	}
	g.lastSettlement = settle
	g.ended = true
	g.eliminated = g.collectEliminationsLocked()
	g.phase = PhaseIdle
	return settle, nil
}

// collectEliminationsLocked marks every seat at 0 chips as ELIMINATED and
// reports them in ascending chair order, numbering Order 1, 2, ... in that
// sequence. The engine settles all pots at once and does not record which
// seat reached zero first, so Order does not rank seats busted in the same
// hand by when or how they lost their chips.
func (g *Game) collectEliminationsLocked() []EliminationReport {
	var out []EliminationReport
	order := 0
	for chair := uint16(0); chair < uint16(g.cfg.MaxPlayers); chair++ {
		p := g.playersByChair[chair]
		if p == nil || p.eliminated {
			continue
		}
		if p.stack == 0 {
			p.eliminated = true
			order++
			out = append(out, EliminationReport{Chair: chair, UserID: p.ID, Order: order})
		}
	}
	return out
}

// Eliminations returns the seats eliminated by the most recently settled hand.
func (g *Game) Eliminations() []EliminationReport {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]EliminationReport{}, g.eliminated...)
}

// LastSettlement returns the SettlementResult produced by the most recent
// hand to end, whether via normal showdown/fold-out or an abortHandLocked
// pro-rata refund. Callers use this to detect a hand that settled inside
// StartHand() itself (the auto-blind/ante fast path, or a deck-exhaustion
// abort before any action was taken) and still fire hand-end side effects.
func (g *Game) LastSettlement() *SettlementResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSettlement
}
