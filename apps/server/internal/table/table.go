package table

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"holdem-tourney/apps/server/internal/codec"
	"holdem-tourney/apps/server/internal/ledger"
	"holdem-tourney/apps/server/internal/protocol"
	"holdem-tourney/holdem"
	"holdem-tourney/holdem/npc"
	"holdem-tourney/timer"
)

// Table represents a single poker table with an actor model
type Table struct {
	ID     string
	Config TableConfig

	mu       sync.RWMutex
	game     *holdem.Game
	players  map[uint64]*PlayerConn // userID -> connection
	seats    map[uint16]uint64      // chair -> userID
	round    uint32
	closed   bool
	stopOnce sync.Once
	// Stack baseline at hand start for delta/net settlement messages.
	handStartStacks map[uint16]int64

	// User IDs of occupants who asked to stand up mid-hand; actual removal is
	// deferred to handleHandEnd so a folded/all-in player doesn't vanish
	// from the table state other seats are still acting against.
	pendingStandUps map[uint64]bool

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	// Server sequence for event ordering
	serverSeq uint64

	// Timers and lifecycle metadata.
	timerSvc              *timer.Service
	actionTimeoutChair     uint16
	actionDeadline         time.Time
	actionCountdownHandle  timer.Handle
	actionExpireHandle     timer.Handle
	nextHandAt             time.Time
	emptySince             time.Time

	// Callback to broadcast messages
	broadcast    func(userID uint64, data []byte)
	ledger       ledger.Service
	handID       string
	userHandTape map[uint64][]ledger.EventItem

	// NPC support
	npcManager *npc.Manager

	// Optional callbacks invoked after each hand settles.
	handEndHooks []HandEndHook
}

// TableConfig contains table settings
type TableConfig struct {
	MaxPlayers uint16
	SmallBlind int64
	BigBlind   int64
	Ante       int64
	MinBuyIn   int64
	MaxBuyIn   int64
}

// PlayerConn represents a connected player at the table
type PlayerConn struct {
	UserID   uint64
	Nickname string
	Chair    uint16
	Stack    int64
	Wallet   int64 // Chips not yet at table
	Online   bool
	LastSeen time.Time
}

// Event types for the actor message queue
type EventType int

const (
	EventJoinTable EventType = iota
	EventSitDown
	EventStandUp
	EventBuyIn
	EventAction
	EventTimeout
	EventActionCountdown
	EventStartHand
	EventConnLost
	EventConnResume
	EventUpdateBlinds
	EventClose
)

// Event represents a message to the table actor
type Event struct {
	Type       EventType
	UserID     uint64
	Nickname   string
	Chair      uint16
	Amount     int64
	Action     holdem.ActionType
	Timestamp  time.Time
	SmallBlind int64
	BigBlind   int64
	Response   chan error
}

// HandEndInfo is emitted when a hand settlement is finalized.
type HandEndInfo struct {
	TableID  string
	Round    uint32
	Snapshot holdem.Snapshot
	Result   *holdem.SettlementResult
}

// HandEndHook is a post-settlement callback.
type HandEndHook func(info HandEndInfo)

var ErrTableClosed = errors.New("table closed")

const (
	// actionGraceSec is the invisible grace window (spec.md 4.7): the client
	// shows no countdown while it elapses. actionCountdownSec follows it with
	// a visible countdown to the same deadline; the two sum to the full
	// decision window a seat gets before an auto action is applied.
	actionGraceSec     = int32(10)
	actionCountdownSec = int32(10)
	actionTimeLimitSec = actionGraceSec + actionCountdownSec
	showdownHandDelay  = 8 * time.Second
	foldHandDelay      = 3 * time.Second
	offlineSeatTTL     = 30 * time.Second
)

// New creates a new table. timerSvc may be nil (tests constructing a Table
// literal directly get no turn-timeout scheduling); production callers
// always pass the server's shared timer.Service (C7) so grace/countdown
// callbacks share one scheduler with the tournament controller.
func New(
	id string,
	cfg TableConfig,
	broadcastFn func(userID uint64, data []byte),
	ledgerService ledger.Service,
	timerSvc *timer.Service,
	npcMgr ...*npc.Manager,
) *Table {
	t := &Table{
		ID:                 id,
		Config:             cfg,
		players:            make(map[uint64]*PlayerConn),
		seats:              make(map[uint16]uint64),
		handStartStacks:    make(map[uint16]int64),
		pendingStandUps:    make(map[uint64]bool),
		events:             make(chan Event, 256),
		done:               make(chan struct{}),
		broadcast:          broadcastFn,
		ledger:             ledgerService,
		timerSvc:           timerSvc,
		actionTimeoutChair: holdem.InvalidChair,
		emptySince:         time.Now(),
		userHandTape:       make(map[uint64][]ledger.EventItem),
	}
	if len(npcMgr) > 0 && npcMgr[0] != nil {
		t.npcManager = npcMgr[0]
	}

	// Create game engine
	game, err := holdem.NewGame(holdem.Config{
		MaxPlayers: int(cfg.MaxPlayers),
		MinPlayers: 2,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		Ante:       cfg.Ante,
	})
	if err != nil {
		log.Printf("[Table %s] Failed to create game: %v", id, err)
		return nil
	}
	t.game = game

	// Start actor goroutine
	go t.run()

	log.Printf("[Table %s] Created (max=%d, blinds=%d/%d)", id, cfg.MaxPlayers, cfg.SmallBlind, cfg.BigBlind)
	return t
}

// run is the main actor loop
func (t *Table) run() {
	// Sub-second heartbeat for action timeout and inter-hand scheduling.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			log.Printf("[Table %s] Actor stopped", t.ID)
			return
		}
	}
}

// handleEvent processes a single event
func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventJoinTable:
		return t.handleJoinTable(e.UserID, e.Nickname)
	case EventSitDown:
		return t.handleSitDown(e.UserID, e.Chair, e.Amount)
	case EventStandUp:
		return t.handleStandUp(e.UserID)
	case EventBuyIn:
		return t.handleBuyIn(e.UserID, e.Amount)
	case EventAction:
		return t.handleAction(e.UserID, e.Action, e.Amount)
	case EventTimeout:
		return t.handleTimeout(e.Timestamp)
	case EventActionCountdown:
		t.handleActionCountdown(e.Chair)
		return nil
	case EventStartHand:
		return t.handleStartHand()
	case EventConnLost:
		return t.handleConnLost(e.UserID, e.Timestamp)
	case EventConnResume:
		return t.handleConnResume(e.UserID, e.Nickname, e.Timestamp)
	case EventUpdateBlinds:
		return t.handleUpdateBlinds(e.SmallBlind, e.BigBlind)
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (t *Table) handleJoinTable(userID uint64, nickname string) error {
	now := time.Now()
	resolvedNickname := normalizeNickname(nickname, userID)
	if player, exists := t.players[userID]; exists {
		player.Online = true
		player.LastSeen = now
		player.Nickname = resolvedNickname
		t.sendTableState(userID)
		t.sendPromptIfActingUser(userID)
		return nil // Already joined
	}
	t.players[userID] = &PlayerConn{
		UserID:   userID,
		Nickname: resolvedNickname,
		Chair:    holdem.InvalidChair,
		Online:   true,
		LastSeen: now,
	}
	log.Printf("[Table %s] Player %d joined", t.ID, userID)

	// Automatic sit-down if not seated
	for i := uint16(0); i < t.Config.MaxPlayers; i++ {
		if t.seats[i] == 0 {
			// Found empty seat
			log.Printf("[Table %s] Auto-sitting player %d at chair %d", t.ID, userID, i)
			if err := t.handleSitDown(userID, i, t.Config.MaxBuyIn); err != nil {
				log.Printf("[Table %s] Auto sit-down failed for player %d: %v", t.ID, userID, err)
			}
			break
		}
	}

	t.sendTableState(userID)
	t.sendPromptIfActingUser(userID)
	return nil
}

func (t *Table) handleSitDown(userID uint64, chair uint16, buyIn int64) error {
	player := t.players[userID]
	if player == nil {
		return fmt.Errorf("player not in table")
	}
	if player.Chair != holdem.InvalidChair {
		return fmt.Errorf("already seated at chair %d", player.Chair)
	}
	if chair >= t.Config.MaxPlayers {
		return fmt.Errorf("invalid chair %d", chair)
	}
	if t.seats[chair] != 0 {
		return fmt.Errorf("chair %d is occupied", chair)
	}
	if buyIn < t.Config.MinBuyIn || buyIn > t.Config.MaxBuyIn {
		return fmt.Errorf("invalid buy-in amount: %d (range: %d-%d)", buyIn, t.Config.MinBuyIn, t.Config.MaxBuyIn)
	}

	// Sit down in game engine
	if err := t.game.SitDown(chair, userID, buyIn, false); err != nil {
		return err
	}

	player.Chair = chair
	player.Stack = buyIn
	player.Online = true
	player.LastSeen = time.Now()
	t.seats[chair] = userID
	t.updateEmptySinceLocked(player.LastSeen)

	log.Printf("[Table %s] Player %d sat down at chair %d with %d", t.ID, userID, chair, buyIn)

	t.pushTableState()

	// Check if we can start a hand
	if err := t.tryStartHand(player.LastSeen); err != nil {
		log.Printf("[Table %s] tryStartHand after sit-down failed: %v", t.ID, err)
	}

	return nil
}

func (t *Table) handleStandUp(userID uint64) error {
	player := t.players[userID]
	if player == nil || player.Chair == holdem.InvalidChair {
		return nil
	}

	snap := t.game.Snapshot()
	if snap.Round > 0 && !snap.Ended {
		// A hand is live: defer the actual removal to handleHandEnd so the
		// seat stays intact for pot settlement.
		t.pendingStandUps[userID] = true
		log.Printf("[Table %s] Player %d stand-up deferred until hand end", t.ID, userID)
		return nil
	}
	return t.finishStandUp(userID, player.Chair)
}

// finishStandUp performs the actual seat removal, either immediately (no
// hand in progress) or from handleHandEnd once a deferred hand settles.
func (t *Table) finishStandUp(userID uint64, chair uint16) error {
	if err := t.game.StandUp(chair); err != nil {
		return err
	}

	delete(t.seats, chair)
	delete(t.pendingStandUps, userID)
	if player := t.players[userID]; player != nil {
		player.Chair = holdem.InvalidChair
		player.Wallet += player.Stack
		player.Stack = 0
		player.LastSeen = time.Now()
	}
	t.updateEmptySinceLocked(time.Now())
	if len(t.seats) < 2 {
		t.nextHandAt = time.Time{}
	}

	log.Printf("[Table %s] Player %d stood up from chair %d", t.ID, userID, chair)
	t.pushTableState()
	return nil
}

// processPendingStandUps finishes every stand-up that was deferred during
// the hand that just ended.
func (t *Table) processPendingStandUps() {
	if len(t.pendingStandUps) == 0 {
		return
	}
	pending := make([]uint64, 0, len(t.pendingStandUps))
	for userID := range t.pendingStandUps {
		pending = append(pending, userID)
	}
	for _, userID := range pending {
		player := t.players[userID]
		if player == nil || player.Chair == holdem.InvalidChair {
			delete(t.pendingStandUps, userID)
			continue
		}
		if err := t.finishStandUp(userID, player.Chair); err != nil {
			log.Printf("[Table %s] deferred stand-up failed for user %d: %v", t.ID, userID, err)
		}
	}
}

func (t *Table) handleBuyIn(userID uint64, amount int64) error {
	player := t.players[userID]
	if player == nil {
		return fmt.Errorf("player not in table")
	}
	// TODO: Implement pending buy-in for mid-hand
	return nil
}

func (t *Table) handleAction(userID uint64, action holdem.ActionType, amount int64) error {
	player := t.players[userID]
	if player == nil || player.Chair == holdem.InvalidChair {
		return fmt.Errorf("player not seated")
	}

	before := t.game.Snapshot()
	if before.ActionChair != player.Chair {
		return fmt.Errorf("not your turn")
	}
	// Client call amount may arrive as either total-to amount or delta-to-call.
	// Normalize on server so CALL always targets current street bet.
	if action == holdem.ActionCall {
		amount = before.CurBet
	}

	result, err := t.game.Act(player.Chair, action, amount)
	if err != nil {
		return err
	}
	if t.actionTimeoutChair == player.Chair {
		t.clearActionTimeoutLocked()
	}
	after := t.game.Snapshot()
	t.syncPlayerStacksFromSnapshot(after)

	log.Printf("[Table %s] Player %d action: %v amount: %d", t.ID, userID, action, amount)

	t.pushTableState()

	// Check if hand ended
	if result != nil {
		t.handleHandEnd(result)
	} else if after.ActionChair != holdem.InvalidChair {
		t.sendActionPrompt(after.ActionChair)
	}

	return nil
}

// UpdateBlinds applies a tournament blind-level advance (spec.md 4.6.2) to
// this table, effective starting with its next hand. Safe to call whether
// or not a hand is currently in progress: holdem.Game.UpdateBlinds only
// changes the config StartHand reads when posting the next hand's blinds,
// never a hand already underway.
func (t *Table) UpdateBlinds(smallBlind, bigBlind int64) error {
	return t.SubmitEvent(Event{Type: EventUpdateBlinds, SmallBlind: smallBlind, BigBlind: bigBlind})
}

func (t *Table) handleUpdateBlinds(smallBlind, bigBlind int64) error {
	if err := t.game.UpdateBlinds(smallBlind, bigBlind); err != nil {
		return err
	}
	t.Config.SmallBlind = smallBlind
	t.Config.BigBlind = bigBlind
	log.Printf("[Table %s] Blinds updated to %d/%d, effective next hand", t.ID, smallBlind, bigBlind)
	return nil
}

func (t *Table) handleStartHand() error {
	if t.closed {
		return ErrTableClosed
	}
	if len(t.seats) < 2 {
		return nil
	}
	t.nextHandAt = time.Time{}
	t.clearActionTimeoutLocked()

	log.Printf("[Table %s] handleStartHand called, seats=%d", t.ID, len(t.seats))
	before := t.game.Snapshot()
	t.handStartStacks = make(map[uint16]int64, len(before.Players))
	for _, ps := range before.Players {
		t.handStartStacks[ps.Chair] = ps.Stack
	}

	if err := t.game.StartHand(); err != nil {
		log.Printf("[Table %s] StartHand failed: %v", t.ID, err)
		return err
	}
	t.round++
	t.handID = t.buildHandID()
	t.userHandTape = make(map[uint64][]ledger.EventItem, len(t.seats))

	snap := t.game.Snapshot()
	t.syncPlayerStacksFromSnapshot(snap)

	// StartHand can settle the hand on its own, either via the auto
	// ante/blind fast path (everyone already all-in pre-flop) or by
	// aborting it outright on a deck-exhaustion invariant violation
	// (holdem's abortHandLocked). Either way no action prompt ever goes
	// out, so the hand-end side effects (payouts broadcast, next-hand
	// scheduling) have to be driven from here instead of handleAction.
	if snap.Ended {
		log.Printf("[Table %s] Hand %d settled inside StartHand (no action taken)", t.ID, t.round)
		t.pushTableState()
		if result := t.game.LastSettlement(); result != nil {
			t.handleHandEnd(result)
		}
		return nil
	}

	log.Printf("[Table %s] Hand %d started. Dealer: %d, Action: %d", t.ID, t.round, snap.DealerChair, snap.ActionChair)

	t.pushTableState()

	if snap.ActionChair != holdem.InvalidChair {
		t.sendActionPrompt(snap.ActionChair)
	}

	return nil
}

func (t *Table) handleHandEnd(result *holdem.SettlementResult) {
	if result != nil && result.Aborted {
		log.Printf("[Table %s] Hand %d ABORTED: %s (pot refunded pro-rata)", t.ID, t.round, result.AbortReason)
	} else {
		log.Printf("[Table %s] Hand ended. Winners: %v", t.ID, result)
	}
	endedAt := time.Now().UTC()
	handID := t.handID

	snap := t.game.Snapshot()
	t.syncPlayerStacksFromSnapshot(snap)
	t.pushTableState()
	t.pushHandResult(result)
	t.clearActionTimeoutLocked()
	t.persistLiveHandHistory(handID, endedAt, result)
	t.dispatchHandEndHooks(result)
	t.handID = ""
	t.processPendingStandUps()

	// Schedule next hand from actor tick (no goroutine self-submit).
	if len(t.seats) >= 2 {
		delay := foldHandDelay
		if hasShowdownHands(result) {
			delay = showdownHandDelay
		}
		t.nextHandAt = time.Now().Add(delay)
	} else {
		t.nextHandAt = time.Time{}
	}
}

func (t *Table) dispatchHandEndHooks(result *holdem.SettlementResult) {
	if len(t.handEndHooks) == 0 || result == nil {
		return
	}
	info := HandEndInfo{
		TableID:  t.ID,
		Round:    t.round,
		Snapshot: t.game.Snapshot(),
		Result:   result,
	}
	hooks := append([]HandEndHook(nil), t.handEndHooks...)
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		go func(cb HandEndHook) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Table %s] hand end hook panic: %v", t.ID, r)
				}
			}()
			cb(info)
		}(hook)
	}
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	now := time.Now()
	// The grace/countdown action timeout is driven by timerSvc's precise
	// one-shot callbacks (setActionTimeoutLocked); this poll is only a
	// fallback for tables built without one (e.g. tests constructing a
	// Table literal directly).
	if t.timerSvc == nil {
		if err := t.handleTimeout(now); err != nil {
			log.Printf("[Table %s] timeout handler failed: %v", t.ID, err)
		}
	}
	t.releaseOfflineSeats(now)
	if !t.nextHandAt.IsZero() && !now.Before(t.nextHandAt) {
		if err := t.tryStartHand(now); err != nil {
			log.Printf("[Table %s] delayed hand start failed: %v", t.ID, err)
		}
	}
}

func (t *Table) releaseOfflineSeats(now time.Time) {
	for userID, player := range t.players {
		if player == nil || player.Online || player.Chair == holdem.InvalidChair {
			continue
		}
		if now.Sub(player.LastSeen) < offlineSeatTTL {
			continue
		}
		if err := t.handleStandUp(userID); err != nil {
			// Throttle retries if game engine refuses stand-up in the current hand state.
			player.LastSeen = now
			log.Printf("[Table %s] auto-standup failed for offline user %d: %v", t.ID, userID, err)
			continue
		}
		log.Printf("[Table %s] Auto-stood offline user %d after %s", t.ID, userID, offlineSeatTTL)
	}
}

func (t *Table) handleTimeout(now time.Time) error {
	if t.actionTimeoutChair == holdem.InvalidChair || t.actionDeadline.IsZero() {
		return nil
	}
	if now.Before(t.actionDeadline) {
		return nil
	}

	chair := t.actionTimeoutChair
	userID := t.seats[chair]
	t.clearActionTimeoutLocked()

	if userID == 0 {
		return nil
	}
	snap := t.game.Snapshot()
	if snap.ActionChair != chair {
		return nil
	}

	autoAction, autoAmount, err := t.pickTimeoutAction(chair, snap)
	if err != nil {
		return err
	}
	log.Printf("[Table %s] Action timeout chair=%d user=%d -> auto %v amount=%d", t.ID, chair, userID, autoAction, autoAmount)
	return t.handleAction(userID, autoAction, autoAmount)
}

func (t *Table) pickTimeoutAction(chair uint16, snap holdem.Snapshot) (holdem.ActionType, int64, error) {
	legalActions, _, err := t.game.LegalActions(chair)
	if err != nil {
		return 0, 0, err
	}

	if hasAction(legalActions, holdem.ActionCheck) {
		return holdem.ActionCheck, 0, nil
	}
	if hasAction(legalActions, holdem.ActionFold) {
		return holdem.ActionFold, 0, nil
	}
	if hasAction(legalActions, holdem.ActionCall) {
		return holdem.ActionCall, snap.CurBet, nil
	}
	if hasAction(legalActions, holdem.ActionAllIn) {
		return holdem.ActionAllIn, snap.CurBet, nil
	}
	if len(legalActions) == 0 {
		return 0, 0, fmt.Errorf("no legal actions for timeout")
	}
	return legalActions[0], snap.CurBet, nil
}

func (t *Table) handleConnLost(userID uint64, ts time.Time) error {
	player := t.players[userID]
	if player == nil {
		return nil
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	player.Online = false
	player.LastSeen = ts
	log.Printf("[Table %s] Player %d connection lost", t.ID, userID)
	return nil
}

func (t *Table) handleConnResume(userID uint64, nickname string, ts time.Time) error {
	player := t.players[userID]
	if player == nil {
		return nil
	}
	player.Nickname = normalizeNickname(nickname, userID)
	if ts.IsZero() {
		ts = time.Now()
	}
	player.Online = true
	player.LastSeen = ts
	t.sendTableState(userID)
	t.sendPromptIfActingUser(userID)
	log.Printf("[Table %s] Player %d connection resumed", t.ID, userID)
	return nil
}

func (t *Table) tryStartHand(now time.Time) error {
	if len(t.seats) < 2 {
		return nil
	}
	if !t.nextHandAt.IsZero() && now.Before(t.nextHandAt) {
		return nil
	}
	snap := t.game.Snapshot()
	// Start if: no hands played yet (Round==0), OR previous hand ended.
	if snap.Round == 0 || snap.Ended {
		log.Printf("[Table %s] Starting hand - seats=%d, round=%d, ended=%v, phase=%v",
			t.ID, len(t.seats), snap.Round, snap.Ended, snap.Phase)
		return t.handleStartHand()
	}
	return nil
}

// SubmitEvent sends an event to the actor
func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Stop shuts down the table actor
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	t.closed = true
	t.nextHandAt = time.Time{}
	t.clearActionTimeoutLocked()
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// setActionTimeoutLocked arms the two-phase decision timer (spec.md 4.7): a
// grace period with no client-visible countdown, followed by a visible
// countdown to the same deadline. Both phases are driven by C7's
// timer.Service rather than polled from the actor's heartbeat ticker; the
// scheduled callbacks run on a timer goroutine and must not touch table
// state directly, so they hop back onto the actor loop via SubmitEvent.
func (t *Table) setActionTimeoutLocked(chair uint16, now time.Time) {
	t.clearActionTimeoutLocked()
	t.actionTimeoutChair = chair
	t.actionDeadline = now.Add(time.Duration(actionTimeLimitSec) * time.Second)

	if t.timerSvc == nil {
		return
	}
	t.actionCountdownHandle = t.timerSvc.ScheduleOnce(time.Duration(actionGraceSec)*time.Second, func() {
		_ = t.SubmitEvent(Event{Type: EventActionCountdown, Chair: chair, Timestamp: time.Now()})
	})
	t.actionExpireHandle = t.timerSvc.ScheduleOnce(time.Duration(actionTimeLimitSec)*time.Second, func() {
		_ = t.SubmitEvent(Event{Type: EventTimeout, Chair: chair, Timestamp: time.Now()})
	})
}

func (t *Table) clearActionTimeoutLocked() {
	t.actionTimeoutChair = holdem.InvalidChair
	t.actionDeadline = time.Time{}
	if t.timerSvc == nil {
		return
	}
	if t.actionCountdownHandle != 0 {
		t.timerSvc.Cancel(t.actionCountdownHandle)
		t.actionCountdownHandle = 0
	}
	if t.actionExpireHandle != 0 {
		t.timerSvc.Cancel(t.actionExpireHandle)
		t.actionExpireHandle = 0
	}
}

// handleActionCountdown fires when the invisible grace period elapses for
// chair: if that seat is still the one on the clock, tell every client to
// switch to a visible countdown toward the existing deadline.
func (t *Table) handleActionCountdown(chair uint16) {
	if t.actionTimeoutChair != chair || t.actionDeadline.IsZero() {
		return
	}
	t.pushCountdownBegin(chair, t.actionDeadline)
}

// pushCountdownBegin announces that the visible countdown phase has begun
// (spec.md 4.7), mirroring pushTurnBegin's envelope shape.
func (t *Table) pushCountdownBegin(chair uint16, deadline time.Time) {
	userID := t.seats[chair]
	if userID == 0 {
		return
	}
	duration := time.Until(deadline)
	if duration < 0 {
		duration = 0
	}
	env := protocol.NewCountdownBegin(protocol.CountdownBegin{
		TableID:         t.ID,
		UserID:          userID,
		DeadlineEpochMs: deadline.UnixMilli(),
		DurationMs:      duration.Milliseconds(),
	})
	t.broadcastToAll(env)
}

func (t *Table) updateEmptySinceLocked(now time.Time) {
	if len(t.seats) == 0 {
		if t.emptySince.IsZero() {
			t.emptySince = now
		}
		return
	}
	t.emptySince = time.Time{}
}

func (t *Table) playerNickname(userID uint64) string {
	player := t.players[userID]
	if player != nil {
		nickname := strings.TrimSpace(player.Nickname)
		if nickname != "" {
			return nickname
		}
	}
	return fmt.Sprintf("user_%d", userID)
}

func normalizeNickname(raw string, userID uint64) string {
	nickname := strings.TrimSpace(raw)
	if nickname == "" {
		return fmt.Sprintf("user_%d", userID)
	}
	return nickname
}

func (t *Table) IsIdleFor(ttl time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return true
	}
	if len(t.seats) > 0 {
		return false
	}
	if t.emptySince.IsZero() {
		return false
	}
	return time.Since(t.emptySince) >= ttl
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Snapshot returns current game state (thread-safe)
func (t *Table) Snapshot() holdem.Snapshot {
	return t.game.Snapshot()
}

// AddHandEndHook registers a post-settlement callback.
func (t *Table) AddHandEndHook(hook HandEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.handEndHooks = append(t.handEndHooks, hook)
	t.mu.Unlock()
}

// --- NPC support ---

// isNPC checks whether a userID belongs to an NPC (caller must hold t.mu).
func (t *Table) isNPC(userID uint64) bool {
	if t.npcManager == nil {
		return false
	}
	return t.npcManager.IsNPC(userID)
}

// scheduleNPCAction runs the NPC brain in a goroutine and injects the
// decision as an Event back into the actor queue. The think delay simulates
// human-like decision timing.
func (t *Table) scheduleNPCAction(chair uint16, userID uint64) {
	if t.npcManager == nil {
		return
	}

	// Get legal actions for the NPC so the brain can use them.
	legalActions, minRaise, err := t.game.LegalActions(chair)
	if err != nil {
		log.Printf("[Table %s] NPC LegalActions failed chair=%d: %v", t.ID, chair, err)
		return
	}

	snap := t.game.Snapshot()
	thinkDelay := t.npcManager.GetThinkDelay(userID)

	// Build a full GameView with legal actions included.
	inst := t.npcManager.GetInstance(userID)
	if inst == nil {
		log.Printf("[Table %s] NPC instance not found for user %d", t.ID, userID)
		return
	}

	go func() {
		// Simulate thinking
		time.Sleep(thinkDelay)

		view := npc.GameView{
			Phase:      snap.Phase,
			Community:  snap.CommunityCards,
			CurrentBet: snap.CurBet,
			MinRaise:   minRaise,
		}
		// Calc pot
		for _, pot := range snap.Pots {
			view.Pot += pot.Amount
		}
		for _, ps := range snap.Players {
			view.Pot += ps.Bet
		}
		// Find NPC's own data
		for _, ps := range snap.Players {
			if ps.Chair == chair {
				view.HoleCards = ps.HandCards
				view.MyBet = ps.Bet
				view.MyStack = ps.Stack
				break
			}
		}
		// Active count
		for _, ps := range snap.Players {
			if !ps.Folded {
				view.ActiveCount++
			}
		}
		// Street
		switch snap.Phase {
		case holdem.PhasePreflop:
			view.Street = 0
		case holdem.PhaseFlop:
			view.Street = 1
		case holdem.PhaseTurn:
			view.Street = 2
		case holdem.PhaseRiver:
			view.Street = 3
		}
		view.LegalActions = legalActions

		decision := inst.Brain.Decide(view)
		log.Printf("[Table %s] NPC %s (chair=%d) decides: %v amount=%d",
			t.ID, inst.Persona.Name, chair, decision.Action, decision.Amount)

		// Inject the decision back into the actor queue.
		_ = t.SubmitEvent(Event{
			Type:   EventAction,
			UserID: userID,
			Action: decision.Action,
			Amount: decision.Amount,
		})
	}()
}

// SeatNPC spawns an NPC at a specific chair. Must be called before hand
// starts. A nil persona seats the spec's plain fixed-policy bot instead of a
// persona-driven one.
func (t *Table) SeatNPC(persona *npc.NPCPersona, chair uint16, buyIn int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.npcManager == nil {
		return fmt.Errorf("NPC manager not available")
	}
	if chair >= t.Config.MaxPlayers {
		return fmt.Errorf("invalid chair %d", chair)
	}
	if t.seats[chair] != 0 {
		return fmt.Errorf("chair %d is occupied", chair)
	}

	var inst *npc.NPCInstance
	var err error
	if persona != nil {
		inst, err = t.npcManager.SpawnNPC(t.game, chair, persona, buyIn)
	} else {
		inst, err = t.npcManager.SpawnFixedNPC(t.game, chair, buyIn)
	}
	if err != nil {
		return err
	}

	t.players[inst.PlayerID] = &PlayerConn{
		UserID:   inst.PlayerID,
		Nickname: inst.Brain.Name(),
		Chair:    chair,
		Stack:    buyIn,
		Online:   true,
		LastSeen: time.Now(),
	}
	t.seats[chair] = inst.PlayerID
	t.updateEmptySinceLocked(time.Now())

	log.Printf("[Table %s] NPC %s seated at chair %d with %d", t.ID, inst.Brain.Name(), chair, buyIn)
	return nil
}

// NPCManager returns the table's NPC manager (may be nil).
func (t *Table) NPCManager() *npc.Manager {
	return t.npcManager
}

// --- Wire broadcast helpers (spec.md 6.1 JSON envelopes) ---

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

func (t *Table) buildHandID() string {
	if t.round == 0 {
		return ""
	}
	return fmt.Sprintf("%s_r%d", t.ID, t.round)
}

func (t *Table) appendLiveLedgerEvent(env *protocol.ServerEnvelope, data []byte) {
	if t.ledger == nil {
		return
	}
	handID := strings.TrimSpace(t.handID)
	if handID == "" {
		return
	}
	// Keep a stable copy to avoid accidental reuse by callers.
	encoded := make([]byte, len(data))
	copy(encoded, data)
	go t.ledger.AppendLiveEvent(handID, env, encoded)
}

func (t *Table) appendUserHandTape(userID uint64, env *protocol.ServerEnvelope, data []byte) {
	if userID == 0 || env == nil || len(data) == 0 {
		return
	}
	if strings.TrimSpace(t.handID) == "" {
		return
	}
	item := ledger.EventItem{
		Seq:         env.ServerSeq,
		EventType:   env.Type,
		EnvelopeB64: base64.StdEncoding.EncodeToString(data),
	}
	if env.ServerTsMs > 0 {
		v := env.ServerTsMs
		item.ServerTsMs = &v
	}
	t.userHandTape[userID] = append(t.userHandTape[userID], item)
}

// sendToUser marshals env to JSON and delivers it to a single user,
// recording it onto that user's hand tape.
func (t *Table) sendToUser(userID uint64, env *protocol.ServerEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Table %s] Failed to marshal message: %v", t.ID, err)
		return
	}
	t.appendUserHandTape(userID, env, data)
	t.broadcast(userID, data)
}

// broadcastToAll assigns env a fresh sequence number and delivers the same
// bytes to every connected player; env must carry no viewer-specific
// redaction (use pushTableState for that).
func (t *Table) broadcastToAll(env *protocol.ServerEnvelope) {
	env.ServerSeq = t.nextSeq()
	env.ServerTsMs = time.Now().UnixMilli()
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Table %s] Failed to marshal message: %v", t.ID, err)
		return
	}
	t.appendLiveLedgerEvent(env, data)
	for userID := range t.players {
		t.appendUserHandTape(userID, env, data)
		t.broadcast(userID, data)
	}
}

// sendTableState pushes a freshly redacted table-state snapshot to one user.
func (t *Table) sendTableState(userID uint64) {
	state := codec.TableSnapshot(t.ID, "", 0, t.playerNickname, t.game.Snapshot(), userID)
	env := protocol.NewTableState(state)
	env.ServerSeq = t.nextSeq()
	env.ServerTsMs = time.Now().UnixMilli()
	t.sendToUser(userID, env)
}

// pushTableState broadcasts a redacted table-state snapshot to every
// connected player, and archives one hole-card-free copy to the ledger.
func (t *Table) pushTableState() {
	seq := t.nextSeq()
	ts := time.Now().UnixMilli()
	snap := t.game.Snapshot()

	var archived bool
	for userID := range t.players {
		state := codec.TableSnapshot(t.ID, "", 0, t.playerNickname, snap, userID)
		env := protocol.NewTableState(state)
		env.ServerSeq = seq
		env.ServerTsMs = ts
		t.sendToUser(userID, env)

		if !archived {
			archived = true
			archival := codec.TableSnapshot(t.ID, "", 0, t.playerNickname, snap, 0)
			env := protocol.NewTableState(archival)
			env.ServerSeq = seq
			env.ServerTsMs = ts
			data, err := json.Marshal(env)
			if err == nil {
				t.appendLiveLedgerEvent(env, data)
			}
		}
	}
}

// pushTurnBegin announces whose turn it is and the client-visible decision
// deadline; everyone receives it so inactive seats can render the pending
// indicator.
func (t *Table) pushTurnBegin(chair uint16, deadline time.Time) {
	userID := t.seats[chair]
	if userID == 0 {
		return
	}
	duration := time.Until(deadline)
	if duration < 0 {
		duration = 0
	}
	env := protocol.NewTurnBegin(protocol.TurnBegin{
		TableID:         t.ID,
		UserID:          userID,
		DeadlineEpochMs: deadline.UnixMilli(),
		DurationMs:      duration.Milliseconds(),
	})
	t.broadcastToAll(env)
}

func (t *Table) pushHandResult(result *holdem.SettlementResult) {
	seatUserID := make(map[uint16]uint64, len(t.seats))
	for chair, userID := range t.seats {
		seatUserID[chair] = userID
	}
	hr := codec.HandResult(t.ID, result, seatUserID)
	t.broadcastToAll(protocol.NewHandResult(hr))
}

func (t *Table) sendActionPrompt(chair uint16) {
	// If the player on this chair is an NPC, still broadcast turn-begin so
	// the frontend shows the active-player indicator, but don't set a
	// server-side timeout (the NPC goroutine handles timing).
	userID := t.seats[chair]
	if userID != 0 && t.isNPC(userID) {
		t.pushTurnBegin(chair, time.Now().Add(time.Duration(actionTimeLimitSec)*time.Second))
		t.scheduleNPCAction(chair, userID)
		return
	}
	t.setActionTimeoutLocked(chair, time.Now())
	t.pushTurnBegin(chair, t.actionDeadline)
}

func (t *Table) sendPromptIfActingUser(userID uint64) {
	player := t.players[userID]
	if player == nil || player.Chair == holdem.InvalidChair {
		return
	}

	snap := t.game.Snapshot()
	if snap.Round == 0 || snap.Ended {
		return
	}
	if snap.ActionChair == holdem.InvalidChair || snap.ActionChair != player.Chair {
		return
	}

	deadline := t.actionDeadline
	if t.actionTimeoutChair != player.Chair || deadline.IsZero() {
		deadline = time.Now().Add(time.Duration(actionTimeLimitSec) * time.Second)
	}
	t.pushTurnBegin(player.Chair, deadline)
}

func (t *Table) syncPlayerStacksFromSnapshot(snap holdem.Snapshot) {
	for _, ps := range snap.Players {
		userID := t.seats[ps.Chair]
		if userID == 0 {
			continue
		}
		if pc := t.players[userID]; pc != nil {
			pc.Stack = ps.Stack
		}
	}
}

func (t *Table) persistLiveHandHistory(handID string, playedAt time.Time, result *holdem.SettlementResult) {
	if t.ledger == nil || strings.TrimSpace(handID) == "" || result == nil {
		return
	}
	snap := t.game.Snapshot()
	perChair := make(map[uint16]holdem.ShowdownPlayerResult, len(result.PlayerResults))
	for _, pr := range result.PlayerResults {
		perChair[pr.Chair] = pr
	}

	for _, ps := range snap.Players {
		userID := t.seats[ps.Chair]
		if userID == 0 {
			continue
		}
		// Skip NPC players — their IDs don't exist in the users table.
		if t.isNPC(userID) {
			continue
		}
		startStack := ps.Stack
		if v, ok := t.handStartStacks[ps.Chair]; ok {
			startStack = v
		}
		delta := ps.Stack - startStack

		chairResult, ok := perChair[ps.Chair]
		isWinner := ok && chairResult.IsWinner
		winAmount := int64(0)
		if ok {
			winAmount = chairResult.WinAmount
		}

		summary := map[string]any{
			"table_id":    t.ID,
			"round":       t.round,
			"chair":       ps.Chair,
			"delta":       delta,
			"is_winner":   isWinner,
			"win_amount":  winAmount,
			"ended_phase": snap.Phase.String(),
			"stack_start": startStack,
			"stack_end":   ps.Stack,
		}
		userEvents := append([]ledger.EventItem(nil), t.userHandTape[userID]...)
		go t.ledger.UpsertLiveHistoryWithEvents(userID, handID, playedAt, summary, userEvents)
	}
}

func hasShowdownHands(result *holdem.SettlementResult) bool {
	for _, pr := range result.PlayerResults {
		if pr.HandType > 0 {
			return true
		}
	}
	return false
}

func hasAction(actions []holdem.ActionType, target holdem.ActionType) bool {
	for _, action := range actions {
		if action == target {
			return true
		}
	}
	return false
}
