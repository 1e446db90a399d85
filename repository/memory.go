package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and by the
// "memory" factory mode, mirroring ledger.noopService's role except that it
// actually retains state rather than discarding writes: C6/C4 round-trip
// through this in unit tests without a database.
type MemoryRepository struct {
	mu            sync.Mutex
	tournaments   map[string]Tournament
	registrations map[string]map[uint64]Registration // tournamentID -> userID -> reg
	games         map[string]Game
	seats         map[string]Seat   // seatID -> seat
	seatsByGame   map[string][]string // gameID -> []seatID, insertion order
	hands         []HandRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tournaments:   make(map[string]Tournament),
		registrations: make(map[string]map[uint64]Registration),
		games:         make(map[string]Game),
		seats:         make(map[string]Seat),
		seatsByGame:   make(map[string][]string),
	}
}

func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) FindTournament(_ context.Context, id string) (*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (m *MemoryRepository) SaveTournament(_ context.Context, t *Tournament) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.tournaments[t.ID] = *t
	return nil
}

func (m *MemoryRepository) ListTournamentsByStatus(_ context.Context, status TournamentStatus) ([]Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Tournament, 0)
	for _, t := range m.tournaments {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryRepository) UpsertRegistration(_ context.Context, r *Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser, ok := m.registrations[r.TournamentID]
	if !ok {
		byUser = make(map[uint64]Registration)
		m.registrations[r.TournamentID] = byUser
	}
	byUser[r.UserID] = *r
	return nil
}

func (m *MemoryRepository) DeleteRegistration(_ context.Context, tournamentID string, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if byUser, ok := m.registrations[tournamentID]; ok {
		delete(byUser, userID)
	}
	return nil
}

func (m *MemoryRepository) CountConfirmedRegistrations(_ context.Context, tournamentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.registrations[tournamentID] {
		if r.Status == RegistrationConfirmed {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) ListConfirmedRegistrations(_ context.Context, tournamentID string) ([]Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Registration, 0)
	for _, r := range m.registrations[tournamentID] {
		if r.Status == RegistrationConfirmed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryRepository) CreateGame(_ context.Context, g *Game, seats []Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	m.games[g.ID] = *g
	ids := make([]string, 0, len(seats))
	for i := range seats {
		if seats[i].ID == "" {
			seats[i].ID = uuid.NewString()
		}
		seats[i].GameID = g.ID
		m.seats[seats[i].ID] = seats[i]
		ids = append(ids, seats[i].ID)
	}
	m.seatsByGame[g.ID] = ids
	return nil
}

func (m *MemoryRepository) UpdateSeatChips(_ context.Context, seatID string, chips int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seats[seatID]
	if !ok {
		return ErrNotFound
	}
	s.Chips = chips
	m.seats[seatID] = s
	return nil
}

func (m *MemoryRepository) UpdateSeatStatus(_ context.Context, seatID string, status SeatStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seats[seatID]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	m.seats[seatID] = s
	return nil
}

func (m *MemoryRepository) UpdateGameStatus(_ context.Context, gameID string, status GameStatus, currentBlindLevel int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.Status = status
	g.CurrentBlindLevel = currentBlindLevel
	m.games[gameID] = g
	return nil
}

func (m *MemoryRepository) UpdateGameBlinds(_ context.Context, gameID string, currentBlindLevel int, smallBlind, bigBlind int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.CurrentBlindLevel = currentBlindLevel
	g.SmallBlind = smallBlind
	g.BigBlind = bigBlind
	m.games[gameID] = g
	return nil
}

func (m *MemoryRepository) FindGameWithSeats(_ context.Context, gameID string) (*GameWithSeats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	seats := make([]Seat, 0, len(m.seatsByGame[gameID]))
	for _, id := range m.seatsByGame[gameID] {
		seats = append(seats, m.seats[id])
	}
	return &GameWithSeats{Game: g, Seats: seats}, nil
}

func (m *MemoryRepository) MoveSeat(_ context.Context, seatID string, toGameID string, seatNumber int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.seats[seatID]
	if !ok {
		return ErrNotFound
	}
	fromGameID := s.GameID
	s.GameID = toGameID
	s.SeatNumber = seatNumber
	m.seats[seatID] = s

	ids := m.seatsByGame[fromGameID]
	for i, id := range ids {
		if id == seatID {
			m.seatsByGame[fromGameID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	m.seatsByGame[toGameID] = append(m.seatsByGame[toGameID], seatID)
	return nil
}

func (m *MemoryRepository) AppendHandRecord(_ context.Context, rec *HandRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.hands = append(m.hands, *rec)
	return nil
}
