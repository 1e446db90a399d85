package tournament

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"holdem-tourney/repository"
	"holdem-tourney/timer"
)

func testSchedule() BlindSchedule {
	thirtyMin := int64(1800)
	return BlindSchedule{Levels: []BlindLevel{
		{SmallBlind: 25, BigBlind: 50, DurationSeconds: &thirtyMin},
		{SmallBlind: 50, BigBlind: 100, DurationSeconds: nil},
	}}
}

func newTestController(t *testing.T) (*Controller, repository.Repository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	timers := timer.NewService()
	t.Cleanup(timers.Stop)
	ctrl, err := NewController(repo, timers, 42)
	require.NoError(t, err)
	return ctrl, repo
}

func TestController_FullLifecycle_RegisterThroughCompletion(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name:               "Freeroll",
		ScheduledStartTime: time.Now(),
		MaxPlayers:         6,
		SeatsPerTable:      6,
		StartingChips:      10000,
		BlindSchedule:      testSchedule(),
		PrizePlaces:        2,
	})
	require.NoError(t, err)
	require.Equal(t, repository.TournamentScheduled, tour.Status)

	require.NoError(t, ctrl.OpenRegistration(ctx, tour.ID))
	for uid := uint64(1); uid <= 4; uid++ {
		require.NoError(t, ctrl.Register(ctx, tour.ID, uid))
	}
	// idempotent re-register
	require.NoError(t, ctrl.Register(ctx, tour.ID, 1))

	require.NoError(t, ctrl.CloseRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Start(ctx, tour.ID))

	moves, err := ctrl.HandleElimination(ctx, tour.ID, 1, nil)
	require.NoError(t, err)
	require.Empty(t, moves)

	require.NoError(t, ctrl.Cancel(ctx, tour.ID)) // a RUNNING tournament can still be cancelled
}

// TestController_BlindTick_AdvancesLevelAndPersistsBlinds covers conformance
// scenario S6 (spec.md 4.6.2): once elapsed time crosses a level boundary,
// blindTick must persist the new small/big blind alongside the level index,
// and notify OnBlindLevelAdvance so the live table can pick it up before its
// next hand.
func TestController_BlindTick_AdvancesLevelAndPersistsBlinds(t *testing.T) {
	ctrl, repo := newTestController(t)
	ctx := context.Background()

	zeroDuration := int64(0)
	schedule := BlindSchedule{Levels: []BlindLevel{
		{SmallBlind: 25, BigBlind: 50, DurationSeconds: &zeroDuration},
		{SmallBlind: 100, BigBlind: 200, DurationSeconds: nil},
	}}

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name: "blind-advance", ScheduledStartTime: time.Now(), MaxPlayers: 4, SeatsPerTable: 4,
		StartingChips: 1000, BlindSchedule: schedule, PrizePlaces: 1,
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.OpenRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 1))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 2))
	require.NoError(t, ctrl.CloseRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Start(ctx, tour.ID))

	var advancedGameID string
	var advancedLevel int
	var advancedSB, advancedBB int64
	ctrl.OnBlindLevelAdvance = func(gameID string, level int, smallBlind, bigBlind int64) {
		advancedGameID, advancedLevel, advancedSB, advancedBB = gameID, level, smallBlind, bigBlind
	}

	ctrl.mu.Lock()
	state := ctrl.live[tour.ID]
	gameID := state.gameIDs[0]
	ctrl.mu.Unlock()

	// Force elapsed time past level 0's zero-length duration.
	ctrl.mu.Lock()
	state.startedAt = time.Now().Add(-time.Second)
	ctrl.mu.Unlock()

	ctrl.blindTick(tour.ID)

	require.Equal(t, gameID, advancedGameID)
	require.Equal(t, 1, advancedLevel)
	require.Equal(t, int64(100), advancedSB)
	require.Equal(t, int64(200), advancedBB)

	gws, err := repo.FindGameWithSeats(ctx, gameID)
	require.NoError(t, err)
	require.Equal(t, 1, gws.Game.CurrentBlindLevel)
	require.Equal(t, int64(100), gws.Game.SmallBlind)
	require.Equal(t, int64(200), gws.Game.BigBlind)

	// A second tick at the same level must not re-fire the callback.
	advancedGameID = ""
	ctrl.blindTick(tour.ID)
	require.Empty(t, advancedGameID)
}

func TestController_Register_FailsWhenNotRegistering(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name: "x", ScheduledStartTime: time.Now(), MaxPlayers: 4, SeatsPerTable: 4,
		StartingChips: 1000, BlindSchedule: testSchedule(), PrizePlaces: 1,
	})
	require.NoError(t, err)

	err = ctrl.Register(ctx, tour.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestController_Register_FailsWhenFull(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name: "x", ScheduledStartTime: time.Now(), MaxPlayers: 2, SeatsPerTable: 2,
		StartingChips: 1000, BlindSchedule: testSchedule(), PrizePlaces: 1,
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.OpenRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 1))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 2))

	err = ctrl.Register(ctx, tour.ID, 3)
	require.ErrorIs(t, err, ErrFull)
}

func TestController_CloseRegistration_FailsWithNoConfirmed(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name: "x", ScheduledStartTime: time.Now(), MaxPlayers: 4, SeatsPerTable: 4,
		StartingChips: 1000, BlindSchedule: testSchedule(), PrizePlaces: 1,
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.OpenRegistration(ctx, tour.ID))

	err = ctrl.CloseRegistration(ctx, tour.ID)
	require.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestController_Start_FailsWithFewerThanTwoRegistrants(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name: "x", ScheduledStartTime: time.Now(), MaxPlayers: 9, SeatsPerTable: 9,
		StartingChips: 1000, BlindSchedule: testSchedule(), PrizePlaces: 1,
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.OpenRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 1))
	require.NoError(t, ctrl.CloseRegistration(ctx, tour.ID))

	err = ctrl.Start(ctx, tour.ID)
	require.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestController_HandleElimination_CompletesWhenOnePlayerRemains(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name: "heads-up", ScheduledStartTime: time.Now(), MaxPlayers: 2, SeatsPerTable: 2,
		StartingChips: 1000, BlindSchedule: testSchedule(), PrizePlaces: 1,
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.OpenRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 1))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 2))
	require.NoError(t, ctrl.CloseRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Start(ctx, tour.ID))

	var completedStandings []Standing
	ctrl.OnTournamentComplete = func(_ string, standings []Standing) {
		completedStandings = standings
	}

	_, err = ctrl.HandleElimination(ctx, tour.ID, 2, nil)
	require.NoError(t, err)

	standings, ok := ctrl.Standings(tour.ID)
	require.True(t, ok)
	require.Len(t, standings, 2)
	require.Equal(t, 1, standings[0].Place)
	require.EqualValues(t, 1, standings[0].UserID)
	require.Equal(t, 2, standings[1].Place)
	require.EqualValues(t, 2, standings[1].UserID)
	require.Equal(t, standings, completedStandings)
}

func TestController_Cancel_IsBlockedAfterCompletion(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	tour, err := ctrl.Create(ctx, CreateRequest{
		Name: "x", ScheduledStartTime: time.Now(), MaxPlayers: 2, SeatsPerTable: 2,
		StartingChips: 1000, BlindSchedule: testSchedule(), PrizePlaces: 1,
	})
	require.NoError(t, err)
	require.NoError(t, ctrl.OpenRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 1))
	require.NoError(t, ctrl.Register(ctx, tour.ID, 2))
	require.NoError(t, ctrl.CloseRegistration(ctx, tour.ID))
	require.NoError(t, ctrl.Start(ctx, tour.ID))
	_, err = ctrl.HandleElimination(ctx, tour.ID, 2, nil)
	require.NoError(t, err)

	err = ctrl.Cancel(ctx, tour.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}
