package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pidro/internal/game"
)

func TestHumanSubmitWithoutRequest(t *testing.T) {
	h := NewHuman()
	err := h.Submit(2, game.PassMove())
	var ime *game.IllegalMoveError
	require.ErrorAs(t, err, &ime)
	assert.Equal(t, game.ReasonNotYourTurn, ime.Reason)
}

func TestHumanRoundTrip(t *testing.T) {
	h := NewHuman()
	legal := []game.Move{game.PassMove(), game.BidMove(6), game.BidMove(7)}

	type result struct {
		d   game.Decision
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := h.RequestMove(context.Background(), game.SeatView{Seat: 1}, legal)
		done <- result{d, err}
	}()
	require.Eventually(t, func() bool { _, ok := h.Pending(1); return ok }, time.Second, time.Millisecond)

	err := h.Submit(1, game.BidMove(9))
	assert.True(t, game.IsIllegalMove(err))
	_, stillPending := h.Pending(1)
	assert.True(t, stillPending)

	assert.True(t, game.IsIllegalMove(h.Submit(0, game.BidMove(6))), "wrong seat")

	require.NoError(t, h.Submit(1, game.BidMove(7)))
	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, game.BidMove(7), r.d.Move)
	assert.Equal(t, game.SourceHuman, r.d.Source)

	assert.True(t, game.IsIllegalMove(h.Submit(1, game.BidMove(7))), "request already answered")
}

func TestHumanRequestCancelled(t *testing.T) {
	h := NewHuman()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.RequestMove(ctx, game.SeatView{Seat: 3}, []game.Move{game.PassMove()})
		done <- err
	}()
	require.Eventually(t, func() bool { _, ok := h.Pending(3); return ok }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	_, ok := h.Pending(3)
	assert.False(t, ok)
}
