// Package repository is the narrow persistence surface the core depends on
// (spec.md 4.8): tournaments, registrations, games/seats, and an optional
// write-only hand archive. It is grounded on apps/server/internal/ledger's
// Service-interface-plus-env-factory shape, adapted from an append-only
// audit log to the small set of durable facts C4/C6 actually need:
// final chip stacks, seat elimination, game closure, tournament status.
package repository

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type TournamentStatus string

const (
	TournamentScheduled  TournamentStatus = "SCHEDULED"
	TournamentRegistering TournamentStatus = "REGISTERING"
	TournamentSeated     TournamentStatus = "SEATED"
	TournamentRunning    TournamentStatus = "RUNNING"
	TournamentCompleted  TournamentStatus = "COMPLETED"
	TournamentCancelled  TournamentStatus = "CANCELLED"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "PENDING"
	RegistrationConfirmed RegistrationStatus = "CONFIRMED"
	RegistrationCancelled RegistrationStatus = "CANCELLED"
)

type GameStatus string

const (
	GameActive GameStatus = "ACTIVE"
	GameClosed GameStatus = "CLOSED"
)

type SeatStatus string

const (
	SeatActive     SeatStatus = "ACTIVE"
	SeatFolded     SeatStatus = "FOLDED"
	SeatAllIn      SeatStatus = "ALL_IN"
	SeatSittingOut SeatStatus = "SITTING_OUT"
	SeatEliminated SeatStatus = "ELIMINATED"
)

// Tournament mirrors spec.md 3's Tournament entity; BlindScheduleJSON is
// stored opaque since only C6 needs to interpret it.
type Tournament struct {
	ID                 string
	Name               string
	ScheduledStartTime time.Time
	ActualStartTime    *time.Time
	MaxPlayers         int
	SeatsPerTable      int
	StartingChips      int64
	BlindScheduleJSON  []byte
	PrizePlaces        int
	Status             TournamentStatus
}

// Registration mirrors spec.md 3's Registration entity.
type Registration struct {
	TournamentID string
	UserID       uint64
	Status       RegistrationStatus
}

// Game mirrors spec.md 3's Table(Game) entity.
type Game struct {
	ID                string
	TournamentID      string
	TableNumber       int
	Status            GameStatus
	CurrentBlindLevel int
	SmallBlind        int64
	BigBlind          int64
}

// Seat mirrors spec.md 3's Seat(Player) entity.
type Seat struct {
	ID         string
	GameID     string
	UserID     uint64
	SeatNumber int
	Chips      int64
	Status     SeatStatus
}

// GameWithSeats bundles a game and its seats, as returned by find_with_seats.
type GameWithSeats struct {
	Game  Game
	Seats []Seat
}

// HandRecord is the optional, write-only hand archive (spec.md 6.3's
// hand_record): enough to reconstruct a finished hand for audit/replay
// without supporting any read-path query beyond append.
type HandRecord struct {
	ID                string
	GameID            string
	HandNumber        int64
	Pot               int64
	CommunityCardsJSON []byte
	HistoryJSON       []byte
	WinnerUserIDs     []uint64
	CreatedAt         time.Time
}

// Repository is the interface spec.md 4.8 names: find/save/list_by_status
// for tournaments, upsert/delete/count_confirmed/list_confirmed for
// registrations, create/update_chips/update_status/find_with_seats for
// games and seats, plus an optional append_hand_record archive. All
// mutations are strongly consistent within a single tournament; no
// cross-tournament consistency is promised (spec.md 4.8).
type Repository interface {
	Close() error

	FindTournament(ctx context.Context, id string) (*Tournament, error)
	SaveTournament(ctx context.Context, t *Tournament) error
	ListTournamentsByStatus(ctx context.Context, status TournamentStatus) ([]Tournament, error)

	UpsertRegistration(ctx context.Context, r *Registration) error
	DeleteRegistration(ctx context.Context, tournamentID string, userID uint64) error
	CountConfirmedRegistrations(ctx context.Context, tournamentID string) (int, error)
	ListConfirmedRegistrations(ctx context.Context, tournamentID string) ([]Registration, error)

	CreateGame(ctx context.Context, g *Game, seats []Seat) error
	UpdateSeatChips(ctx context.Context, seatID string, chips int64) error
	UpdateSeatStatus(ctx context.Context, seatID string, status SeatStatus) error
	UpdateGameStatus(ctx context.Context, gameID string, status GameStatus, currentBlindLevel int) error

	// UpdateGameBlinds persists the blind level a running tournament's
	// schedule has advanced to for one table, along with the small/big
	// blind amounts that level implies (spec.md 4.6.2: "update that table's
	// in-force small_blind/big_blind for the next hand"). Separate from
	// UpdateGameStatus because a level advance never changes GameStatus.
	UpdateGameBlinds(ctx context.Context, gameID string, currentBlindLevel int, smallBlind, bigBlind int64) error

	FindGameWithSeats(ctx context.Context, gameID string) (*GameWithSeats, error)

	// MoveSeat relocates a seated player to another game/table at a new seat
	// number. Not one of spec.md 4.8's literally enumerated operations, but
	// required to realize 4.6.3's table consolidation; see DESIGN.md.
	MoveSeat(ctx context.Context, seatID string, toGameID string, seatNumber int) error

	AppendHandRecord(ctx context.Context, rec *HandRecord) error
}
