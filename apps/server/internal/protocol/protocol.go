// Package protocol defines the JSON wire envelopes exchanged between the
// gateway and connected clients (spec.md 6.1). It replaces the teacher's
// protobuf-generated pb package: the pack this module was retrieved from
// never included the generated code (no .proto source, no gen/ directory),
// so every envelope is plain JSON over the same gorilla/websocket transport.
package protocol

// ClientEnvelope is an inbound, client-to-server message.
type ClientEnvelope struct {
	Type    string `json:"type"`
	TableID string `json:"table_id,omitempty"`
	Action  string `json:"action,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
}

const (
	ClientSubscribeTable   = "subscribe-table"
	ClientUnsubscribeTable = "unsubscribe-table"
	ClientPlayerAction     = "player-action"
)

const (
	ActionFold  = "FOLD"
	ActionCheck = "CHECK"
	ActionCall  = "CALL"
	ActionBet   = "BET"
	ActionRaise = "RAISE"
	ActionAllIn = "ALL_IN"
)

// ServerEnvelope is an outbound, server-to-client message. Exactly one of
// the payload fields is populated, selected by Type.
type ServerEnvelope struct {
	Type            string           `json:"type"`
	ServerSeq       uint64           `json:"server_seq,omitempty"`
	ServerTsMs      int64            `json:"server_ts_ms,omitempty"`
	TableState      *TableState      `json:"table_state,omitempty"`
	TurnBegin       *TurnBegin       `json:"turn_begin,omitempty"`
	CountdownBegin  *CountdownBegin  `json:"countdown_begin,omitempty"`
	HandResult      *HandResult      `json:"hand_result,omitempty"`
	TournamentState *TournamentState `json:"tournament_state,omitempty"`
	Error           *Error           `json:"error,omitempty"`
}

const (
	ServerTableState      = "table-state"
	ServerTurnBegin       = "turn-begin"
	ServerCountdownBegin  = "countdown-begin"
	ServerHandResult      = "hand-result"
	ServerTournamentState = "tournament-state"
	ServerError           = "error"
)

func NewTableState(s TableState) *ServerEnvelope {
	return &ServerEnvelope{Type: ServerTableState, TableState: &s}
}

func NewTurnBegin(t TurnBegin) *ServerEnvelope {
	return &ServerEnvelope{Type: ServerTurnBegin, TurnBegin: &t}
}

func NewCountdownBegin(c CountdownBegin) *ServerEnvelope {
	return &ServerEnvelope{Type: ServerCountdownBegin, CountdownBegin: &c}
}

func NewHandResult(r HandResult) *ServerEnvelope {
	return &ServerEnvelope{Type: ServerHandResult, HandResult: &r}
}

func NewTournamentState(s TournamentState) *ServerEnvelope {
	return &ServerEnvelope{Type: ServerTournamentState, TournamentState: &s}
}

func NewError(code, message string) *ServerEnvelope {
	return &ServerEnvelope{Type: ServerError, Error: &Error{Code: code, Message: message}}
}

// Card is the wire form of a playing card: rank text ("A".."K", "2".."10")
// plus a suit letter (S, H, C, D).
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// Seat is one chair's view in a TableState snapshot. HoleCards is only
// populated for the viewer's own seat; redaction happens in
// codec.TableSnapshot when a snapshot is encoded for one viewer, never
// inside the holdem engine itself.
type Seat struct {
	SeatNumber            int    `json:"seat_number"`
	UserID                uint64 `json:"user_id,omitempty"`
	DisplayName           string `json:"display_name,omitempty"`
	Chips                 int64  `json:"chips"`
	Status                string `json:"status"`
	ContributionThisRound int64  `json:"contribution_this_round"`
	HoleCards             []Card `json:"hole_cards,omitempty"`
}

// TableState is the full, per-viewer redacted table snapshot (spec.md 6.1).
type TableState struct {
	TableID         string `json:"table_id"`
	TournamentID    string `json:"tournament_id"`
	TableNumber     int    `json:"table_number"`
	Street          string `json:"street"`
	Pot             int64  `json:"pot"`
	CurrentBet      int64  `json:"current_bet"`
	MinimumRaise    int64  `json:"minimum_raise"`
	SmallBlind      int64  `json:"small_blind"`
	BigBlind        int64  `json:"big_blind"`
	DealerSeat      int    `json:"dealer_seat"`
	SBSeat          int    `json:"sb_seat"`
	BBSeat          int    `json:"bb_seat"`
	CurrentTurnSeat *int   `json:"current_turn_seat,omitempty"`
	CommunityCards  []Card `json:"community_cards"`
	Seats           []Seat `json:"seats"`
}

type TurnBegin struct {
	TableID         string `json:"table_id"`
	UserID          uint64 `json:"user_id"`
	DeadlineEpochMs int64  `json:"deadline_epoch_ms"`
	DurationMs      int64  `json:"duration_ms"`
}

// CountdownBegin marks the end of the invisible decision grace period
// (spec.md 4.7): the client switches from no visible timer to rendering a
// live countdown to DeadlineEpochMs, the same deadline TurnBegin announced.
type CountdownBegin struct {
	TableID         string `json:"table_id"`
	UserID          uint64 `json:"user_id"`
	DeadlineEpochMs int64  `json:"deadline_epoch_ms"`
	DurationMs      int64  `json:"duration_ms"`
}

type Winner struct {
	UserID   uint64 `json:"user_id"`
	Amount   int64  `json:"amount"`
	Category string `json:"category"`
}

type Reveal struct {
	UserID uint64 `json:"user_id"`
	Cards  []Card `json:"cards"`
}

type HandResult struct {
	TableID string   `json:"table_id"`
	Winners []Winner `json:"winners"`
	Reveals []Reveal `json:"reveals"`
}

type TournamentState struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CurrentBlindLevel int    `json:"current_blind_level"`
	RemainingPlayers  int    `json:"remaining_players"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
