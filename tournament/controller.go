// Package tournament implements C6, the Tournament Controller: a second
// serialised actor alongside each table's hand machine (spec.md 5), driving
// a tournament through its lifecycle and reacting to the eliminations C4
// reports. Grounded on apps/server/internal/lobby.Lobby's mutex-guarded map
// plus background-ticker idiom, and on the create-validate-transition-
// persist shape used by other tournament services in the wild.
package tournament

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"holdem-tourney/repository"
	"holdem-tourney/timer"
)

// Standing is one entry of a completed tournament's final placements.
type Standing struct {
	UserID uint64
	Place  int
}

// CreateRequest is the admin-supplied shape for Controller.Create (spec.md
// 4.6.1's "create (from admin layer, out of scope except validation)").
type CreateRequest struct {
	Name               string
	ScheduledStartTime time.Time
	MaxPlayers         int
	SeatsPerTable      int
	StartingChips      int64
	BlindSchedule      BlindSchedule
	PrizePlaces        int
}

// liveState is the Controller's in-memory bookkeeping for a running
// tournament: the narrow repository interface (spec.md 4.8) has no
// list-games-by-tournament operation, so the Controller — which is the
// only actor that creates games — tracks the IDs itself.
type liveState struct {
	schedule         BlindSchedule
	seatsPerTable    int
	gameIDs          []string
	blindTimer       timer.Handle
	startedAt        time.Time
	eliminationOrder []uint64 // oldest-eliminated first
}

// Controller drives tournament lifecycle transitions and table
// consolidation. One Controller instance is process-wide (spec.md 5's
// "tournament controller is a second serialised actor"); callers are
// expected to serialize calls per tournament ID themselves or rely on the
// Controller's internal mutex, which covers all mutations.
type Controller struct {
	repo   repository.Repository
	timers *timer.Service
	rng    *rand.Rand

	mu   sync.Mutex
	live map[string]*liveState

	standingsCache *lru.Cache[string, []Standing]

	// OnTournamentStart is invoked synchronously from Start once tables are
	// seated and the tournament transitions to RUNNING, handing the table
	// actor layer (apps/server/internal/table) the games it must start
	// running hands for. Left nil by default; wired by main.go.
	OnTournamentStart func(tournamentID string, games []repository.Game, seatsByGame map[string][]repository.Seat)

	// OnTournamentComplete is invoked once a tournament finishes.
	OnTournamentComplete func(tournamentID string, standings []Standing)

	// OnBlindLevelAdvance is invoked synchronously from blindTick whenever a
	// table's blind level moves forward, after the new level is durably
	// persisted (spec.md 4.6.2). Wired by main.go to push the new blinds
	// into that table's live holdem.Game before its next hand starts.
	OnBlindLevelAdvance func(gameID string, level int, smallBlind, bigBlind int64)
}

func NewController(repo repository.Repository, timers *timer.Service, seed int64) (*Controller, error) {
	cache, err := lru.New[string, []Standing](256)
	if err != nil {
		return nil, fmt.Errorf("standings cache: %w", err)
	}
	return &Controller{
		repo:           repo,
		timers:         timers,
		rng:            rand.New(rand.NewSource(seed)),
		live:           make(map[string]*liveState),
		standingsCache: cache,
	}, nil
}

// Timers exposes the scheduler (C7) the controller was built with, so
// other actors sharing the same process (e.g. the table layer's turn
// timeouts) can schedule against the one instance main.go constructed
// instead of spinning up a second timer.Service.
func (c *Controller) Timers() *timer.Service {
	return c.timers
}

// Create persists a SCHEDULED tournament (spec.md 4.6.1's create).
func (c *Controller) Create(ctx context.Context, req CreateRequest) (*repository.Tournament, error) {
	if err := req.BlindSchedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid blind schedule: %w", err)
	}
	if req.SeatsPerTable < 2 || req.SeatsPerTable > 10 {
		return nil, fmt.Errorf("seats_per_table must be in [2,10]")
	}
	if req.StartingChips <= 0 {
		return nil, fmt.Errorf("starting_chips must be > 0")
	}
	if req.PrizePlaces < 1 {
		return nil, fmt.Errorf("prize_places must be >= 1")
	}

	blindJSON, err := marshalBlindSchedule(req.BlindSchedule)
	if err != nil {
		return nil, err
	}
	t := &repository.Tournament{
		Name:               req.Name,
		ScheduledStartTime: req.ScheduledStartTime,
		MaxPlayers:         req.MaxPlayers,
		SeatsPerTable:      req.SeatsPerTable,
		StartingChips:      req.StartingChips,
		BlindScheduleJSON:  blindJSON,
		PrizePlaces:        req.PrizePlaces,
		Status:             repository.TournamentScheduled,
	}
	if err := c.repo.SaveTournament(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// OpenRegistration implements SCHEDULED -> REGISTERING.
func (c *Controller) OpenRegistration(ctx context.Context, id string) error {
	t, err := c.requireStatus(ctx, id, repository.TournamentScheduled)
	if err != nil {
		return err
	}
	t.Status = repository.TournamentRegistering
	return c.repo.SaveTournament(ctx, t)
}

// Register implements spec.md 4.6.1's register: allowed only while
// REGISTERING and registered count < max_players; idempotent.
func (c *Controller) Register(ctx context.Context, id string, userID uint64) error {
	t, err := c.requireStatus(ctx, id, repository.TournamentRegistering)
	if err != nil {
		return err
	}
	confirmed, err := c.repo.CountConfirmedRegistrations(ctx, id)
	if err != nil {
		return err
	}
	if confirmed >= t.MaxPlayers {
		return ErrFull
	}
	return c.repo.UpsertRegistration(ctx, &repository.Registration{
		TournamentID: id,
		UserID:       userID,
		Status:       repository.RegistrationConfirmed,
	})
}

// Unregister implements spec.md 4.6.1's unregister: allowed only while
// REGISTERING.
func (c *Controller) Unregister(ctx context.Context, id string, userID uint64) error {
	if _, err := c.requireStatus(ctx, id, repository.TournamentRegistering); err != nil {
		return err
	}
	return c.repo.DeleteRegistration(ctx, id, userID)
}

// CloseRegistration implements spec.md 4.6.1's close_registration: moves to
// SEATED, partitions confirmed registrants into balanced tables, randomly
// seats them, and materializes Game/Seat records.
func (c *Controller) CloseRegistration(ctx context.Context, id string) error {
	t, err := c.requireStatus(ctx, id, repository.TournamentRegistering)
	if err != nil {
		return err
	}
	confirmed, err := c.repo.ListConfirmedRegistrations(ctx, id)
	if err != nil {
		return err
	}
	if len(confirmed) == 0 {
		return ErrInsufficientPlayers
	}

	userIDs := make([]uint64, len(confirmed))
	for i, r := range confirmed {
		userIDs[i] = r.UserID
	}
	tables := PartitionRegistrants(userIDs, t.SeatsPerTable, c.rng)

	schedule, err := unmarshalBlindSchedule(t.BlindScheduleJSON)
	if err != nil {
		return err
	}
	level0 := schedule.Level(0)

	state := &liveState{schedule: schedule, seatsPerTable: t.SeatsPerTable}
	for i, tableSeats := range tables {
		game := &repository.Game{
			TournamentID:      id,
			TableNumber:       i + 1,
			Status:            repository.GameActive,
			CurrentBlindLevel: 0,
			SmallBlind:        level0.SmallBlind,
			BigBlind:          level0.BigBlind,
		}
		seats := make([]repository.Seat, len(tableSeats))
		for j, assignment := range tableSeats {
			seats[j] = repository.Seat{
				UserID:     assignment.UserID,
				SeatNumber: assignment.SeatNumber,
				Chips:      t.StartingChips,
				Status:     repository.SeatActive,
			}
		}
		if err := c.repo.CreateGame(ctx, game, seats); err != nil {
			return err
		}
		state.gameIDs = append(state.gameIDs, game.ID)
	}

	t.Status = repository.TournamentSeated
	if err := c.repo.SaveTournament(ctx, t); err != nil {
		return err
	}

	c.mu.Lock()
	c.live[id] = state
	c.mu.Unlock()
	return nil
}

// Start implements spec.md 4.6.1's start: SEATED -> RUNNING, records
// actual_start_time, and starts the blind-level ticker (spec.md 4.6.2).
// Table hand-machine startup is delegated to OnTournamentStart.
func (c *Controller) Start(ctx context.Context, id string) error {
	t, err := c.requireStatus(ctx, id, repository.TournamentSeated)
	if err != nil {
		return err
	}
	if t.MaxPlayers > 0 {
		confirmed, err := c.repo.CountConfirmedRegistrations(ctx, id)
		if err != nil {
			return err
		}
		if confirmed < 2 {
			return ErrInsufficientPlayers
		}
	}

	c.mu.Lock()
	state, ok := c.live[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no seated tables tracked for tournament %s", ErrInvalidState, id)
	}

	now := time.Now()
	t.ActualStartTime = &now
	t.Status = repository.TournamentRunning
	if err := c.repo.SaveTournament(ctx, t); err != nil {
		return err
	}

	c.mu.Lock()
	state.startedAt = now
	state.blindTimer = c.timers.ScheduleInterval(time.Minute, func() { c.blindTick(id) })
	c.mu.Unlock()

	if c.OnTournamentStart != nil {
		games := make([]repository.Game, 0, len(state.gameIDs))
		seatsByGame := make(map[string][]repository.Seat, len(state.gameIDs))
		for _, gameID := range state.gameIDs {
			gws, err := c.repo.FindGameWithSeats(ctx, gameID)
			if err != nil {
				continue
			}
			games = append(games, gws.Game)
			seatsByGame[gameID] = gws.Seats
		}
		c.OnTournamentStart(id, games, seatsByGame)
	}
	return nil
}

// Cancel implements spec.md 4.6.1's cancel: any state except COMPLETED
// moves to CANCELLED; timers and live bookkeeping are torn down.
func (c *Controller) Cancel(ctx context.Context, id string) error {
	t, err := c.repo.FindTournament(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == repository.TournamentCompleted {
		return ErrInvalidState
	}
	t.Status = repository.TournamentCancelled
	if err := c.repo.SaveTournament(ctx, t); err != nil {
		return err
	}

	c.mu.Lock()
	state, ok := c.live[id]
	delete(c.live, id)
	c.mu.Unlock()
	if ok && state.blindTimer != 0 {
		c.timers.Cancel(state.blindTimer)
	}
	return nil
}

// blindTick implements spec.md 4.6.2: advance any table whose computed
// level has moved past its stored current_blind_level, to take effect on
// that table's next hand.
func (c *Controller) blindTick(tournamentID string) {
	c.mu.Lock()
	state, ok := c.live[tournamentID]
	c.mu.Unlock()
	if !ok {
		return
	}

	elapsed := time.Since(state.startedAt)
	levelIdx := state.schedule.LevelIndexForElapsed(elapsed)

	level := state.schedule.Level(levelIdx)

	ctx := context.Background()
	for _, gameID := range state.gameIDs {
		gws, err := c.repo.FindGameWithSeats(ctx, gameID)
		if err != nil || gws.Game.Status != repository.GameActive {
			continue
		}
		if levelIdx > gws.Game.CurrentBlindLevel {
			if err := c.repo.UpdateGameBlinds(ctx, gameID, levelIdx, level.SmallBlind, level.BigBlind); err != nil {
				continue
			}
			if c.OnBlindLevelAdvance != nil {
				c.OnBlindLevelAdvance(gameID, levelIdx, level.SmallBlind, level.BigBlind)
			}
		}
	}
}

// HandleElimination records a bust reported by C4 and, once only one
// player remains tournament-wide, completes the tournament (spec.md 4.6.4).
// It also runs table consolidation (spec.md 4.6.3).
func (c *Controller) HandleElimination(ctx context.Context, tournamentID string, userID uint64, bigBlindSeats map[string]int) ([]Move, error) {
	c.mu.Lock()
	state, ok := c.live[tournamentID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: tournament %s not running", ErrInvalidState, tournamentID)
	}

	c.mu.Lock()
	state.eliminationOrder = append(state.eliminationOrder, userID)
	gameIDs := append([]string(nil), state.gameIDs...)
	c.mu.Unlock()

	for _, gameID := range gameIDs {
		seatID, err := c.findSeatID(ctx, gameID, userID)
		if err != nil {
			continue
		}
		_ = c.repo.UpdateSeatStatus(ctx, seatID, repository.SeatEliminated)
		break
	}

	summaries, err := c.tableSummaries(ctx, state, bigBlindSeats)
	if err != nil {
		return nil, err
	}

	remaining := totalSeated(summaries)
	if remaining <= 1 {
		if err := c.complete(ctx, tournamentID, state, summaries); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return c.consolidate(ctx, summaries, state.seatsPerTable)
}

func (c *Controller) tableSummaries(ctx context.Context, state *liveState, bigBlindSeats map[string]int) ([]TableSummary, error) {
	summaries := make([]TableSummary, 0, len(state.gameIDs))
	for _, gameID := range state.gameIDs {
		gws, err := c.repo.FindGameWithSeats(ctx, gameID)
		if err != nil {
			return nil, err
		}
		seats := make([]SeatSummary, 0, len(gws.Seats))
		for _, s := range gws.Seats {
			if s.Status == repository.SeatEliminated {
				continue
			}
			seats = append(seats, SeatSummary{UserID: s.UserID, SeatNumber: s.SeatNumber})
		}
		summaries = append(summaries, TableSummary{
			TableID:      gws.Game.ID,
			TableNumber:  gws.Game.TableNumber,
			Seats:        seats,
			BigBlindSeat: bigBlindSeats[gws.Game.ID],
		})
	}
	return summaries, nil
}

// consolidate applies spec.md 4.6.3's two consolidation passes and persists
// the resulting moves and table closures.
func (c *Controller) consolidate(ctx context.Context, summaries []TableSummary, seatsPerTable int) ([]Move, error) {
	moves, closedTableIDs := PlanBreaking(summaries, seatsPerTable)
	if balance := PlanBalance(summaries, seatsPerTable); balance != nil {
		moves = append(moves, *balance)
	}

	for _, mv := range moves {
		seatID, err := c.findSeatID(ctx, mv.FromTableID, mv.UserID)
		if err != nil {
			continue // best-effort re-seat per spec.md 4.6.5; never block hand progress.
		}
		_ = c.repo.MoveSeat(ctx, seatID, mv.ToTableID, mv.ToSeatNumber)
	}
	for _, gameID := range closedTableIDs {
		_ = c.repo.UpdateGameStatus(ctx, gameID, repository.GameClosed, 0)
	}
	return moves, nil
}

func (c *Controller) findSeatID(ctx context.Context, gameID string, userID uint64) (string, error) {
	gws, err := c.repo.FindGameWithSeats(ctx, gameID)
	if err != nil {
		return "", err
	}
	for _, s := range gws.Seats {
		if s.UserID == userID {
			return s.ID, nil
		}
	}
	return "", repository.ErrNotFound
}

// complete implements spec.md 4.6.4: RUNNING -> COMPLETED, with standings
// recorded in reverse elimination order.
func (c *Controller) complete(ctx context.Context, tournamentID string, state *liveState, summaries []TableSummary) error {
	t, err := c.repo.FindTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	t.Status = repository.TournamentCompleted
	if err := c.repo.SaveTournament(ctx, t); err != nil {
		return err
	}

	c.mu.Lock()
	if state.blindTimer != 0 {
		c.timers.Cancel(state.blindTimer)
	}
	delete(c.live, tournamentID)
	c.mu.Unlock()

	standings := make([]Standing, 0, len(state.eliminationOrder)+1)
	place := 1
	for _, summary := range summaries {
		for _, seat := range summary.Seats {
			standings = append(standings, Standing{UserID: seat.UserID, Place: place})
		}
	}
	place = len(standings) + 1
	for i := len(state.eliminationOrder) - 1; i >= 0; i-- {
		standings = append(standings, Standing{UserID: state.eliminationOrder[i], Place: place})
		place++
	}
	sort.SliceStable(standings, func(i, j int) bool { return standings[i].Place < standings[j].Place })

	c.standingsCache.Add(tournamentID, standings)
	if c.OnTournamentComplete != nil {
		c.OnTournamentComplete(tournamentID, standings)
	}
	return nil
}

// Standings returns the cached final placements of a completed tournament.
func (c *Controller) Standings(tournamentID string) ([]Standing, bool) {
	return c.standingsCache.Get(tournamentID)
}

func (c *Controller) requireStatus(ctx context.Context, id string, want repository.TournamentStatus) (*repository.Tournament, error) {
	t, err := c.repo.FindTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != want {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInvalidState, t.Status, want)
	}
	return t, nil
}
