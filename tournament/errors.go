package tournament

import "errors"

// Sentinel errors for C6 lifecycle failures (spec.md 4.6.5).
var (
	ErrInsufficientPlayers = errors.New("tournament: insufficient confirmed registrants to start")
	ErrInvalidState        = errors.New("tournament: transition not valid from current state")
	ErrAlreadyRegistered   = errors.New("tournament: user already registered")
	ErrNotRegistered       = errors.New("tournament: user not registered")
	ErrFull                = errors.New("tournament: registration capacity reached")
)
