package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "holdem_tournament.db"

// SQLiteRepository is the single-node deployment target, grounded on
// ledger.SQLiteService's PRAGMA tuning and schema-bootstrap pattern.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepositoryFromEnv() (*SQLiteRepository, error) {
	dbPath, err := repositoryLocalDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteRepository(dbPath)
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteRepositorySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func (s *SQLiteRepository) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteRepository) FindTournament(ctx context.Context, id string) (*Tournament, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, start_time_ms, actual_start_time_ms, max_players, seats_per_table,
       starting_chips, blind_schedule_json, prize_places, status
FROM tournament WHERE id = ?`, id)
	return scanTournament(row)
}

func (s *SQLiteRepository) SaveTournament(ctx context.Context, t *Tournament) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	var actualStartMs any
	if t.ActualStartTime != nil {
		actualStartMs = t.ActualStartTime.UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tournament (
    id, name, start_time_ms, actual_start_time_ms, max_players, seats_per_table,
    starting_chips, blind_schedule_json, prize_places, status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    start_time_ms = excluded.start_time_ms,
    actual_start_time_ms = excluded.actual_start_time_ms,
    max_players = excluded.max_players,
    seats_per_table = excluded.seats_per_table,
    starting_chips = excluded.starting_chips,
    blind_schedule_json = excluded.blind_schedule_json,
    prize_places = excluded.prize_places,
    status = excluded.status
`, t.ID, t.Name, t.ScheduledStartTime.UnixMilli(), actualStartMs, t.MaxPlayers, t.SeatsPerTable,
		t.StartingChips, string(t.BlindScheduleJSON), t.PrizePlaces, string(t.Status))
	return err
}

func (s *SQLiteRepository) ListTournamentsByStatus(ctx context.Context, status TournamentStatus) ([]Tournament, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, start_time_ms, actual_start_time_ms, max_players, seats_per_table,
       starting_chips, blind_schedule_json, prize_places, status
FROM tournament WHERE status = ?`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *SQLiteRepository) UpsertRegistration(ctx context.Context, r *Registration) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tournament_registration (tournament_id, user_id, status)
VALUES (?, ?, ?)
ON CONFLICT(tournament_id, user_id) DO UPDATE SET status = excluded.status
`, r.TournamentID, r.UserID, string(r.Status))
	return err
}

func (s *SQLiteRepository) DeleteRegistration(ctx context.Context, tournamentID string, userID uint64) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM tournament_registration WHERE tournament_id = ? AND user_id = ?`, tournamentID, userID)
	return err
}

func (s *SQLiteRepository) CountConfirmedRegistrations(ctx context.Context, tournamentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM tournament_registration WHERE tournament_id = ? AND status = ?`,
		tournamentID, string(RegistrationConfirmed)).Scan(&n)
	return n, err
}

func (s *SQLiteRepository) ListConfirmedRegistrations(ctx context.Context, tournamentID string) ([]Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT tournament_id, user_id, status FROM tournament_registration
WHERE tournament_id = ? AND status = ?`, tournamentID, string(RegistrationConfirmed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Registration, 0)
	for rows.Next() {
		var r Registration
		var status string
		if err := rows.Scan(&r.TournamentID, &r.UserID, &status); err != nil {
			return nil, err
		}
		r.Status = RegistrationStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteRepository) CreateGame(ctx context.Context, g *Game, seats []Seat) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO game (id, tournament_id, table_number, status, current_blind_level, small_blind, big_blind)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.TournamentID, g.TableNumber, string(g.Status), g.CurrentBlindLevel, g.SmallBlind, g.BigBlind); err != nil {
		return err
	}
	for i := range seats {
		if seats[i].ID == "" {
			seats[i].ID = uuid.NewString()
		}
		seats[i].GameID = g.ID
		if _, err := tx.ExecContext(ctx, `
INSERT INTO seat (id, game_id, user_id, seat_number, chips, status)
VALUES (?, ?, ?, ?, ?, ?)`,
			seats[i].ID, seats[i].GameID, seats[i].UserID, seats[i].SeatNumber, seats[i].Chips, string(seats[i].Status)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteRepository) UpdateSeatChips(ctx context.Context, seatID string, chips int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE seat SET chips = ? WHERE id = ?`, chips, seatID)
	return requireRowsAffected(res, err)
}

func (s *SQLiteRepository) UpdateSeatStatus(ctx context.Context, seatID string, status SeatStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE seat SET status = ? WHERE id = ?`, string(status), seatID)
	return requireRowsAffected(res, err)
}

func (s *SQLiteRepository) UpdateGameStatus(ctx context.Context, gameID string, status GameStatus, currentBlindLevel int) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE game SET status = ?, current_blind_level = ? WHERE id = ?`, string(status), currentBlindLevel, gameID)
	return requireRowsAffected(res, err)
}

func (s *SQLiteRepository) UpdateGameBlinds(ctx context.Context, gameID string, currentBlindLevel int, smallBlind, bigBlind int64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE game SET current_blind_level = ?, small_blind = ?, big_blind = ? WHERE id = ?`, currentBlindLevel, smallBlind, bigBlind, gameID)
	return requireRowsAffected(res, err)
}

func (s *SQLiteRepository) FindGameWithSeats(ctx context.Context, gameID string) (*GameWithSeats, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, tournament_id, table_number, status, current_blind_level, small_blind, big_blind
FROM game WHERE id = ?`, gameID)
	var g Game
	var status string
	if err := row.Scan(&g.ID, &g.TournamentID, &g.TableNumber, &status, &g.CurrentBlindLevel, &g.SmallBlind, &g.BigBlind); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	g.Status = GameStatus(status)

	rows, err := s.db.QueryContext(ctx, `
SELECT id, game_id, user_id, seat_number, chips, status FROM seat
WHERE game_id = ? ORDER BY seat_number ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]Seat, 0)
	for rows.Next() {
		var seat Seat
		var seatStatus string
		if err := rows.Scan(&seat.ID, &seat.GameID, &seat.UserID, &seat.SeatNumber, &seat.Chips, &seatStatus); err != nil {
			return nil, err
		}
		seat.Status = SeatStatus(seatStatus)
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &GameWithSeats{Game: g, Seats: seats}, nil
}

func (s *SQLiteRepository) MoveSeat(ctx context.Context, seatID string, toGameID string, seatNumber int) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE seat SET game_id = ?, seat_number = ? WHERE id = ?`, toGameID, seatNumber, seatID)
	return requireRowsAffected(res, err)
}

func (s *SQLiteRepository) AppendHandRecord(ctx context.Context, rec *HandRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	winners, err := json.Marshal(rec.WinnerUserIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO hand_record (id, game_id, hand_number, pot, community_cards_json, history_json, winner_user_ids_json, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.GameID, rec.HandNumber, rec.Pot, string(rec.CommunityCardsJSON), string(rec.HistoryJSON),
		string(winners), rec.CreatedAt.UnixMilli())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTournament(row rowScanner) (*Tournament, error) {
	var t Tournament
	var startMs int64
	var actualStartMs sql.NullInt64
	var status string
	var blindJSON string
	if err := row.Scan(&t.ID, &t.Name, &startMs, &actualStartMs, &t.MaxPlayers, &t.SeatsPerTable,
		&t.StartingChips, &blindJSON, &t.PrizePlaces, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.ScheduledStartTime = time.UnixMilli(startMs).UTC()
	if actualStartMs.Valid {
		at := time.UnixMilli(actualStartMs.Int64).UTC()
		t.ActualStartTime = &at
	}
	t.Status = TournamentStatus(status)
	t.BlindScheduleJSON = []byte(blindJSON)
	return &t, nil
}

func requireRowsAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func ensureSQLiteRepositorySchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS tournament (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    start_time_ms INTEGER NOT NULL,
    actual_start_time_ms INTEGER,
    max_players INTEGER NOT NULL,
    seats_per_table INTEGER NOT NULL,
    starting_chips INTEGER NOT NULL,
    blind_schedule_json TEXT NOT NULL DEFAULT '[]',
    prize_places INTEGER NOT NULL,
    status TEXT NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS tournament_registration (
    tournament_id TEXT NOT NULL,
    user_id INTEGER NOT NULL,
    status TEXT NOT NULL,
    UNIQUE(tournament_id, user_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_registration_tournament ON tournament_registration(tournament_id, status)`,
		`
CREATE TABLE IF NOT EXISTS game (
    id TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL,
    table_number INTEGER NOT NULL,
    status TEXT NOT NULL,
    current_blind_level INTEGER NOT NULL DEFAULT 0,
    small_blind INTEGER NOT NULL,
    big_blind INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_game_tournament ON game(tournament_id, status)`,
		`
CREATE TABLE IF NOT EXISTS seat (
    id TEXT PRIMARY KEY,
    game_id TEXT NOT NULL,
    user_id INTEGER NOT NULL,
    seat_number INTEGER NOT NULL,
    chips INTEGER NOT NULL,
    status TEXT NOT NULL,
    UNIQUE(game_id, seat_number),
    UNIQUE(game_id, user_id)
)`,
		`
CREATE TABLE IF NOT EXISTS hand_record (
    id TEXT PRIMARY KEY,
    game_id TEXT NOT NULL,
    hand_number INTEGER NOT NULL,
    pot INTEGER NOT NULL,
    community_cards_json TEXT NOT NULL DEFAULT '[]',
    history_json TEXT NOT NULL DEFAULT '[]',
    winner_user_ids_json TEXT NOT NULL DEFAULT '[]',
    created_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_record_game ON hand_record(game_id, hand_number)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repositoryLocalDatabasePathFromEnv() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("REPOSITORY_LOCAL_DATABASE_PATH")),
		strings.TrimSpace(os.Getenv("LOCAL_DATABASE_PATH")),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return filepath.Clean(candidate), nil
		}
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "HoldemIJ", defaultLocalDBName), nil
}
