package services

import "errors"

var (
	// ErrDebateNotFound is returned when the referenced debate id does not exist.
	ErrDebateNotFound = errors.New("debate not found")

	// ErrTurnNotFound is returned when the referenced turn id does not exist,
	// or a debate has no current turn.
	ErrTurnNotFound = errors.New("turn not found")

	// ErrInvalidTransition is returned when an operation is requested on a
	// turn that is not in the required source state. Idempotent callers
	// should treat it as "already done".
	ErrInvalidTransition = errors.New("invalid turn transition")

	// ErrNotYourTurn is returned when a speak action is attempted by the
	// party whose turn it is not.
	ErrNotYourTurn = errors.New("not your turn")

	// ErrDebateEnded is returned for operations on a debate whose status is
	// terminal.
	ErrDebateEnded = errors.New("debate has ended")
)
