package provider

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownBackend = errors.New("unknown AI backend")
	ErrNoLegalMoves   = errors.New("no legal moves offered")
)

// TimeoutError: the backend did not answer within the policy timeout.
type TimeoutError struct {
	Provider string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no answer within %s", e.Provider, e.After)
}

// TransportError: the backend could not be reached or answered with an error.
type TransportError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError: the backend answered but no legal move could be read from it.
type ParseError struct {
	Provider string
	Raw      string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}
