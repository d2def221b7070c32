package game

import (
	"errors"
	"fmt"
)

var (
	ErrNoHand       = errors.New("no hand in progress")
	ErrHandComplete = errors.New("hand complete")
	ErrTurnInFlight = errors.New("turn already in flight")
	ErrStaleResult  = errors.New("stale provider result")
	ErrBadDeal      = errors.New("invalid deal")
)

// Rejection reasons carried by IllegalMoveError.
const (
	ReasonNotYourTurn  = "not your turn"
	ReasonNotLegal     = "not a legal move"
	ReasonHandComplete = "hand complete"
	ReasonNoRequest    = "no move requested"
)

// IllegalMoveError rejects a move without touching state.
type IllegalMoveError struct {
	Seat   Seat
	Move   Move
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s by %s: %s", e.Move, e.Seat.Position(), e.Reason)
}

// IsIllegalMove reports whether err wraps an *IllegalMoveError.
func IsIllegalMove(err error) bool {
	var ime *IllegalMoveError
	return errors.As(err, &ime)
}

// InvariantViolationError means a mutation would have produced an
// inconsistent state. The mutation is not committed.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}
