package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_TournamentRoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	tour := &Tournament{Name: "Sunday Major", MaxPlayers: 90, SeatsPerTable: 9, StartingChips: 10000, Status: TournamentScheduled}
	require.NoError(t, repo.SaveTournament(ctx, tour))
	require.NotEmpty(t, tour.ID)

	found, err := repo.FindTournament(ctx, tour.ID)
	require.NoError(t, err)
	require.Equal(t, "Sunday Major", found.Name)
	require.Equal(t, TournamentScheduled, found.Status)

	tour.Status = TournamentRunning
	require.NoError(t, repo.SaveTournament(ctx, tour))

	running, err := repo.ListTournamentsByStatus(ctx, TournamentRunning)
	require.NoError(t, err)
	require.Len(t, running, 1)
	require.Equal(t, tour.ID, running[0].ID)
}

func TestMemoryRepository_FindTournament_MissingReturnsErrNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	_, err := repo.FindTournament(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_RegistrationLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	const tournamentID = "t1"

	require.NoError(t, repo.UpsertRegistration(ctx, &Registration{TournamentID: tournamentID, UserID: 1, Status: RegistrationPending}))
	require.NoError(t, repo.UpsertRegistration(ctx, &Registration{TournamentID: tournamentID, UserID: 2, Status: RegistrationConfirmed}))

	n, err := repo.CountConfirmedRegistrations(ctx, tournamentID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, repo.UpsertRegistration(ctx, &Registration{TournamentID: tournamentID, UserID: 1, Status: RegistrationConfirmed}))
	confirmed, err := repo.ListConfirmedRegistrations(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, confirmed, 2)

	require.NoError(t, repo.DeleteRegistration(ctx, tournamentID, 1))
	n, err = repo.CountConfirmedRegistrations(ctx, tournamentID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestMemoryRepository_GameAndSeatLifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	game := &Game{TournamentID: "t1", TableNumber: 1, Status: GameActive, SmallBlind: 50, BigBlind: 100}
	seats := []Seat{
		{UserID: 11, SeatNumber: 0, Chips: 10000, Status: SeatActive},
		{UserID: 12, SeatNumber: 1, Chips: 10000, Status: SeatActive},
	}
	require.NoError(t, repo.CreateGame(ctx, game, seats))
	require.NotEmpty(t, game.ID)

	loaded, err := repo.FindGameWithSeats(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Seats, 2)
	require.Equal(t, GameActive, loaded.Game.Status)

	seatID := loaded.Seats[0].ID
	require.NoError(t, repo.UpdateSeatChips(ctx, seatID, 9500))
	require.NoError(t, repo.UpdateSeatStatus(ctx, seatID, SeatAllIn))

	reloaded, err := repo.FindGameWithSeats(ctx, game.ID)
	require.NoError(t, err)
	require.EqualValues(t, 9500, reloaded.Seats[0].Chips)
	require.Equal(t, SeatAllIn, reloaded.Seats[0].Status)

	require.NoError(t, repo.UpdateGameStatus(ctx, game.ID, GameClosed, 3))
	reloaded, err = repo.FindGameWithSeats(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, GameClosed, reloaded.Game.Status)
	require.Equal(t, 3, reloaded.Game.CurrentBlindLevel)
}

func TestMemoryRepository_MoveSeat_RelocatesToAnotherGame(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	gameA := &Game{TournamentID: "t1", TableNumber: 1, Status: GameActive}
	require.NoError(t, repo.CreateGame(ctx, gameA, []Seat{{UserID: 1, SeatNumber: 1, Chips: 1000, Status: SeatActive}}))
	gameB := &Game{TournamentID: "t1", TableNumber: 2, Status: GameActive}
	require.NoError(t, repo.CreateGame(ctx, gameB, []Seat{{UserID: 2, SeatNumber: 1, Chips: 1000, Status: SeatActive}}))

	loadedA, err := repo.FindGameWithSeats(ctx, gameA.ID)
	require.NoError(t, err)
	seatID := loadedA.Seats[0].ID

	require.NoError(t, repo.MoveSeat(ctx, seatID, gameB.ID, 2))

	afterA, err := repo.FindGameWithSeats(ctx, gameA.ID)
	require.NoError(t, err)
	require.Empty(t, afterA.Seats)

	afterB, err := repo.FindGameWithSeats(ctx, gameB.ID)
	require.NoError(t, err)
	require.Len(t, afterB.Seats, 2)
}

func TestMemoryRepository_UpdateSeatChips_UnknownSeatReturnsErrNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.UpdateSeatChips(context.Background(), "nope", 100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_AppendHandRecord(t *testing.T) {
	repo := NewMemoryRepository()
	rec := &HandRecord{GameID: "g1", HandNumber: 1, Pot: 300, WinnerUserIDs: []uint64{11}}
	require.NoError(t, repo.AppendHandRecord(context.Background(), rec))
	require.NotEmpty(t, rec.ID)
	require.Len(t, repo.hands, 1)
}
