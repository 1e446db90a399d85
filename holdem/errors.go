package holdem

import "errors"

var (
	// ErrHandEnded is returned when an operation is attempted against a hand
	// that has already reached SHOWDOWN/award and torn down.
	ErrHandEnded = errors.New("hand already ended")
	// ErrHandInProgress is returned by StandUp/SitDown-style operations that
	// cannot be applied while a hand is live at the seat's table.
	ErrHandInProgress = errors.New("hand in progress")
	// ErrOutOfTurn is returned when the acting user is not current_turn_seat.
	ErrOutOfTurn = errors.New("action out of turn")

	// ErrInvalidAction covers a betting action that violates the current
	// round's legality rules (e.g. CHECK when current_bet > 0).
	ErrInvalidAction = errors.New("invalid action")
	// ErrBelowMinimumRaise covers a raise increment smaller than minimum_raise.
	ErrBelowMinimumRaise = errors.New("raise below minimum")
	// ErrInsufficientChips covers a committed amount exceeding the seat's stack.
	ErrInsufficientChips = errors.New("insufficient chips")

	// ErrEvaluationInsufficientCards is C2's error for any card count other
	// than exactly 7; 5- and 6-card inputs are rejected as well.
	ErrEvaluationInsufficientCards = errors.New("insufficient cards to evaluate")

	// ErrDeckExhausted marks the internal invariant violation spec.md 4.4.6
	// names explicitly: the stock deck ran out of cards mid-deal. Callers
	// must abort the hand (abortHandLocked) rather than let this surface as
	// an unrecovered panic.
	ErrDeckExhausted = errors.New("deck exhausted")
)

// InvalidStateError reports a lifecycle/state transition that is not
// permitted from the current state.
type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(msg string) error { return InvalidStateError(msg) }
