package game

import "errors"

var (
	// ErrInvalidFormat reports input that is not an integer.
	ErrInvalidFormat = errors.New("invalid number format")
	// ErrOutOfRange reports a guess outside the configured bounds.
	ErrOutOfRange = errors.New("guess out of range")
	// ErrNotAcceptingInput reports an action invoked in the wrong phase.
	// Callers treat it as a silent no-op.
	ErrNotAcceptingInput = errors.New("not accepting input")
	// ErrUnknownAction reports an action type the match does not handle.
	ErrUnknownAction = errors.New("unknown action")
)
