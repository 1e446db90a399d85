// Package lobby supervises the live table.Table actors that back running
// tournament games. It holds no tournament lifecycle logic of its own —
// that lives in the tournament package (C6) — but reacts to its
// OnTournamentStart/OnTournamentComplete callbacks by spinning up or tearing
// down table actors, and feeds eliminations observed at hand end back into
// the controller so it can run consolidation (spec.md 4.6.3/4.6.4).
package lobby

import (
	"context"
	"log"
	"sync"
	"time"

	"holdem-tourney/apps/server/internal/ledger"
	"holdem-tourney/apps/server/internal/table"
	"holdem-tourney/holdem"
	"holdem-tourney/holdem/npc"
	"holdem-tourney/repository"
	"holdem-tourney/tournament"
)

const (
	defaultIdleTableTTL    = 60 * time.Second
	defaultCleanupInterval = 30 * time.Second

	// maxSeatsPerTable caps table.TableConfig.MaxPlayers; the tournament's
	// actual seats_per_table (<=10, validated in tournament.Controller.Create)
	// is not carried on repository.Game, so tables are sized to the largest
	// value the controller will ever ask for.
	maxSeatsPerTable = 10
)

// Lobby manages all live tables and relays elimination/move events between
// a running table.Table and the tournament.Controller.
type Lobby struct {
	mu                    sync.RWMutex
	tables                map[string]*table.Table    // gameID -> table
	tableTournament       map[string]string          // gameID -> tournamentID
	reportedEliminations  map[string]map[uint64]bool // gameID -> userIDs already reported

	idleTableTTL    time.Duration
	cleanupInterval time.Duration
	done            chan struct{}
	stopOnce        sync.Once

	ledger     ledger.Service
	repo       repository.Repository
	controller *tournament.Controller
	npcManager *npc.Manager
	broadcast  func(userID uint64, data []byte)
}

// New creates a Lobby and wires itself as the controller's table-actor
// backend via OnTournamentStart/OnTournamentComplete.
func New(
	ledgerService ledger.Service,
	repo repository.Repository,
	controller *tournament.Controller,
	broadcastFn func(userID uint64, data []byte),
	npcMgr ...*npc.Manager,
) *Lobby {
	l := &Lobby{
		tables:               make(map[string]*table.Table),
		tableTournament:      make(map[string]string),
		reportedEliminations: make(map[string]map[uint64]bool),
		idleTableTTL:         defaultIdleTableTTL,
		cleanupInterval:      defaultCleanupInterval,
		done:                 make(chan struct{}),
		ledger:               ledgerService,
		repo:                 repo,
		controller:           controller,
		broadcast:            broadcastFn,
	}
	if len(npcMgr) > 0 && npcMgr[0] != nil {
		l.npcManager = npcMgr[0]
	}
	controller.OnTournamentStart = l.onTournamentStart
	controller.OnTournamentComplete = l.onTournamentComplete
	controller.OnBlindLevelAdvance = l.onBlindLevelAdvance
	go l.cleanupLoop()
	return l
}

// onTournamentStart spins up one table actor per game and seats its
// players, per repository.Game/Seat handed over by the controller.
func (l *Lobby) onTournamentStart(tournamentID string, games []repository.Game, seatsByGame map[string][]repository.Seat) {
	for _, game := range games {
		l.startGame(tournamentID, game, seatsByGame[game.ID])
	}
}

// onBlindLevelAdvance pushes a tournament's computed blind-level advance
// (spec.md 4.6.2) into the live table actor backing gameID, once the
// controller has already durably persisted it.
func (l *Lobby) onBlindLevelAdvance(gameID string, level int, smallBlind, bigBlind int64) {
	l.mu.RLock()
	t := l.tables[gameID]
	l.mu.RUnlock()
	if t == nil {
		return
	}
	if err := t.UpdateBlinds(smallBlind, bigBlind); err != nil {
		log.Printf("[Lobby] game %s: failed to apply blind level %d (%d/%d): %v", gameID, level, smallBlind, bigBlind, err)
	}
}

func (l *Lobby) startGame(tournamentID string, game repository.Game, seats []repository.Seat) {
	var buyIn int64
	for _, s := range seats {
		if s.Chips > buyIn {
			buyIn = s.Chips
		}
	}
	cfg := table.TableConfig{
		MaxPlayers: maxSeatsPerTable,
		SmallBlind: game.SmallBlind,
		BigBlind:   game.BigBlind,
		MinBuyIn:   buyIn,
		MaxBuyIn:   buyIn,
	}

	t := table.New(game.ID, cfg, l.broadcast, l.ledger, l.controller.Timers(), l.npcManager)
	if t == nil {
		log.Printf("[Lobby] failed to create table for game %s", game.ID)
		return
	}

	l.mu.Lock()
	l.tables[game.ID] = t
	l.tableTournament[game.ID] = tournamentID
	l.reportedEliminations[game.ID] = make(map[uint64]bool)
	l.mu.Unlock()

	t.AddHandEndHook(func(info table.HandEndInfo) { l.onHandEnd(tournamentID, info) })

	for _, seat := range seats {
		chair := uint16(seat.SeatNumber - 1)
		err := t.SubmitEvent(table.Event{
			Type:   table.EventSitDown,
			UserID: seat.UserID,
			Chair:  chair,
			Amount: seat.Chips,
		})
		if err != nil {
			log.Printf("[Lobby] seat %d (user %d) failed to sit at game %s: %v", seat.SeatNumber, seat.UserID, game.ID, err)
		}
	}
	log.Printf("[Lobby] started table %s for tournament %s with %d seats", game.ID, tournamentID, len(seats))
}

// onHandEnd syncs chip stacks to the repository and, for any seat that
// busted, reports the elimination to the controller and applies whatever
// consolidation moves it returns.
func (l *Lobby) onHandEnd(tournamentID string, info table.HandEndInfo) {
	ctx := context.Background()
	gws, err := l.repo.FindGameWithSeats(ctx, info.TableID)
	if err != nil {
		log.Printf("[Lobby] FindGameWithSeats(%s) failed: %v", info.TableID, err)
		return
	}
	seatByUser := make(map[uint64]repository.Seat, len(gws.Seats))
	for _, s := range gws.Seats {
		seatByUser[s.UserID] = s
	}

	for _, ps := range info.Snapshot.Players {
		seat, ok := seatByUser[ps.ID]
		if !ok {
			continue
		}
		if err := l.repo.UpdateSeatChips(ctx, seat.ID, ps.Stack); err != nil {
			log.Printf("[Lobby] UpdateSeatChips failed: %v", err)
		}
		if ps.Stack > 0 {
			continue
		}
		if l.markEliminationReported(info.TableID, ps.ID) {
			continue
		}

		if err := l.repo.UpdateSeatStatus(ctx, seat.ID, repository.SeatEliminated); err != nil {
			log.Printf("[Lobby] UpdateSeatStatus failed: %v", err)
		}

		bigBlindSeats := l.bigBlindSeatsForTournament(tournamentID)
		moves, err := l.controller.HandleElimination(ctx, tournamentID, ps.ID, bigBlindSeats)
		if err != nil {
			log.Printf("[Lobby] HandleElimination failed for user %d: %v", ps.ID, err)
			continue
		}
		l.applyMoves(moves)
	}
}

// markEliminationReported records that userID's bust at gameID has been
// reported, returning whether it was already reported before this call.
func (l *Lobby) markEliminationReported(gameID string, userID uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	reported, ok := l.reportedEliminations[gameID]
	if !ok {
		return false
	}
	if reported[userID] {
		return true
	}
	reported[userID] = true
	return false
}

func (l *Lobby) bigBlindSeatsForTournament(tournamentID string) map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int)
	for gameID, tid := range l.tableTournament {
		if tid != tournamentID {
			continue
		}
		t := l.tables[gameID]
		if t == nil {
			continue
		}
		snap := t.Snapshot()
		if snap.BigBlindChair != holdem.InvalidChair {
			out[gameID] = int(snap.BigBlindChair) + 1
		}
	}
	return out
}

// applyMoves mirrors consolidation moves the controller already persisted
// (tournament.Controller.consolidate) onto the live table actors.
func (l *Lobby) applyMoves(moves []tournament.Move) {
	ctx := context.Background()
	for _, mv := range moves {
		l.mu.RLock()
		fromTable := l.tables[mv.FromTableID]
		toTable := l.tables[mv.ToTableID]
		l.mu.RUnlock()

		if fromTable != nil {
			if err := fromTable.SubmitEvent(table.Event{Type: table.EventStandUp, UserID: mv.UserID}); err != nil {
				log.Printf("[Lobby] move stand-up failed user=%d from=%s: %v", mv.UserID, mv.FromTableID, err)
			}
		}
		if toTable == nil {
			continue
		}

		var stack int64
		if gws, err := l.repo.FindGameWithSeats(ctx, mv.ToTableID); err == nil {
			for _, s := range gws.Seats {
				if s.UserID == mv.UserID {
					stack = s.Chips
				}
			}
		}
		chair := uint16(mv.ToSeatNumber - 1)
		err := toTable.SubmitEvent(table.Event{
			Type:   table.EventSitDown,
			UserID: mv.UserID,
			Chair:  chair,
			Amount: stack,
		})
		if err != nil {
			log.Printf("[Lobby] move sit-down failed user=%d to=%s: %v", mv.UserID, mv.ToTableID, err)
		}
	}
}

// onTournamentComplete stops and removes every table belonging to the
// finished tournament.
func (l *Lobby) onTournamentComplete(tournamentID string, standings []tournament.Standing) {
	l.mu.Lock()
	var toStop []*table.Table
	for gameID, tid := range l.tableTournament {
		if tid != tournamentID {
			continue
		}
		if t, ok := l.tables[gameID]; ok {
			toStop = append(toStop, t)
		}
		delete(l.tables, gameID)
		delete(l.tableTournament, gameID)
		delete(l.reportedEliminations, gameID)
	}
	l.mu.Unlock()

	for _, t := range toStop {
		t.Stop()
	}
	log.Printf("[Lobby] tournament %s complete (%d standings), tables stopped", tournamentID, len(standings))
}

// GetTable returns a table by its backing game ID.
func (l *Lobby) GetTable(gameID string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[gameID]
}

// ListTables returns all live game IDs.
func (l *Lobby) ListTables() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.tables))
	for id := range l.tables {
		ids = append(ids, id)
	}
	return ids
}

func (l *Lobby) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.CleanupIdleTables()
		case <-l.done:
			return
		}
	}
}

// CleanupIdleTables removes closed/idle tables left behind by consolidation
// (a table that loses all its seats to PlanBreaking never gets an explicit
// teardown call).
func (l *Lobby) CleanupIdleTables() int {
	l.mu.Lock()
	idleTables := make([]*table.Table, 0)
	for gameID, t := range l.tables {
		if t.IsClosed() || t.IsIdleFor(l.idleTableTTL) {
			delete(l.tables, gameID)
			delete(l.tableTournament, gameID)
			delete(l.reportedEliminations, gameID)
			idleTables = append(idleTables, t)
		}
	}
	l.mu.Unlock()

	for _, t := range idleTables {
		t.Stop()
		log.Printf("[Lobby] Removed idle/closed table %s", t.ID)
	}
	return len(idleTables)
}

// Stop shuts down lobby housekeeping and all remaining tables.
func (l *Lobby) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		tables := make([]*table.Table, 0, len(l.tables))
		for _, t := range l.tables {
			tables = append(tables, t)
		}
		l.tables = make(map[string]*table.Table)
		l.tableTournament = make(map[string]string)
		l.reportedEliminations = make(map[string]map[uint64]bool)
		l.mu.Unlock()

		for _, t := range tables {
			t.Stop()
		}
	})
}
