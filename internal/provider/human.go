// internal/provider/human.go
//
// Move provider for human seats.
// Responsibilities:
//   - Park the orchestrator's request for a seat until the player submits a move.
//   - Validate submissions against the pending request (turn + legality).
//   - Abandon the request when its context ends (hand reset, shutdown).
//
// Notes:
//   - One Human serves every human seat of a table; requests are keyed by seat.
//   - There is no timeout: a human turn waits as long as the hand lives.

package provider

import (
	"context"
	"sync"

	"github.com/robalobadob/pidro/internal/game"
)

// Human bridges UI submissions to the orchestrator.
type Human struct {
	mu      sync.Mutex
	pending map[game.Seat]*humanRequest
}

type humanRequest struct {
	view  game.SeatView
	legal []game.Move
	reply chan game.Move
}

var _ game.MoveProvider = (*Human)(nil)

// NewHuman returns a Human with nothing pending.
func NewHuman() *Human {
	return &Human{pending: make(map[game.Seat]*humanRequest)}
}

// RequestMove blocks until Submit delivers a legal move for view.Seat or ctx ends.
func (h *Human) RequestMove(ctx context.Context, view game.SeatView, legal []game.Move) (game.Decision, error) {
	req := &humanRequest{view: view, legal: legal, reply: make(chan game.Move, 1)}
	h.mu.Lock()
	h.pending[view.Seat] = req
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.pending[view.Seat] == req {
			delete(h.pending, view.Seat)
		}
		h.mu.Unlock()
	}()

	select {
	case m := <-req.reply:
		return game.Decision{Move: m, Source: game.SourceHuman, Provider: "human"}, nil
	case <-ctx.Done():
		return game.Decision{}, ctx.Err()
	}
}

// Submit hands seat's move to its pending request. It fails with
// *game.IllegalMoveError when no move is awaited from seat or the move is
// not legal; the request then stays pending.
func (h *Human) Submit(seat game.Seat, m game.Move) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	req, ok := h.pending[seat]
	if !ok {
		return &game.IllegalMoveError{Seat: seat, Move: m, Reason: game.ReasonNotYourTurn}
	}
	if !game.Contains(req.legal, m) {
		return &game.IllegalMoveError{Seat: seat, Move: m, Reason: game.ReasonNotLegal}
	}
	delete(h.pending, seat)
	req.reply <- m
	return nil
}

// Pending returns the view attached to seat's outstanding request.
func (h *Human) Pending(seat game.Seat) (game.SeatView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	req, ok := h.pending[seat]
	if !ok {
		return game.SeatView{}, false
	}
	return req.view, true
}
