package table

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pidro/internal/archive"
	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/provider"
)

func bot(name string) game.Player {
	return game.Player{ID: name, Name: name, Kind: game.KindAI, AI: &game.AIConfig{Provider: "lua"}}
}

func human(name string) game.Player {
	return game.Player{ID: name, Name: name, Kind: game.KindHuman}
}

func newTable(t *testing.T, roster game.Roster, archiveCh chan<- archive.Record) *Table {
	t.Helper()
	f := &Factory{
		DefaultSeats: roster,
		Backends:     map[string]provider.Backend{"lua": provider.NewLua("")},
		Policy:       provider.Policy{Timeout: time.Second, Retries: 1, Fallback: provider.FallbackRandom},
		DealSalt:     "test-salt",
		Archive:      archiveCh,
	}
	tb, err := f.New(nil, "")
	require.NoError(t, err)
	t.Cleanup(tb.Close)
	return tb
}

func TestBotTablePlaysHandAndArchives(t *testing.T) {
	ch := make(chan archive.Record, 1)
	tb := newTable(t, game.Roster{bot("n"), bot("e"), bot("s"), bot("w")}, ch)

	hand, err := tb.Deal()
	require.NoError(t, err)
	assert.Equal(t, 1, hand)

	var rec archive.Record
	select {
	case rec = <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("hand was not archived")
	}
	assert.Equal(t, tb.ID, rec.TableID)
	assert.Equal(t, 1, rec.Hand)
	assert.Equal(t, FirstDealer, rec.Dealer)
	assert.NotEmpty(t, rec.Log)
	for _, e := range rec.Log {
		assert.Equal(t, 1, e.Hand)
	}

	sum := tb.Summary()
	assert.Equal(t, game.PhaseHandComplete, sum.Phase)
	assert.Equal(t, "South", sum.Dealer)
	assert.Equal(t, rec.Totals, sum.Scores)
	assert.Empty(t, sum.Turn)
	for _, s := range sum.Seats {
		assert.Equal(t, 0, s.Cards)
		assert.Equal(t, "lua", s.Provider)
	}

	require.Eventually(t, func() bool {
		running, _ := tb.Running()
		return !running
	}, time.Second, 5*time.Millisecond)

	hand, err = tb.Deal()
	require.NoError(t, err)
	assert.Equal(t, 2, hand)
	s, err := tb.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.Seat(3), s.Dealer, "dealer rotates")
}

func TestHumanSeatSubmit(t *testing.T) {
	tb := newTable(t, game.Roster{human("n"), bot("e"), bot("s"), bot("w")}, nil)
	_, err := tb.Deal()
	require.NoError(t, err)

	// South deals, West (bot) bids first, then North is asked.
	require.Eventually(t, func() bool {
		_, ok := tb.human.Pending(0)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	legal, err := tb.LegalMoves(0)
	require.NoError(t, err)
	require.NotEmpty(t, legal)

	err = tb.Submit(0, game.BidMove(99))
	assert.True(t, game.IsIllegalMove(err))

	require.NoError(t, tb.Submit(0, legal[0]))
	require.Eventually(t, func() bool {
		for _, e := range tb.Log() {
			if e.Seat == 0 {
				return e.Source == game.SourceHuman
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, tb.Submit(1, game.PassMove()), ErrNotHumanSeat)
}

func TestDealWhileHandRunning(t *testing.T) {
	tb := newTable(t, game.Roster{human("n"), human("e"), human("s"), human("w")}, nil)
	_, err := tb.Deal()
	require.NoError(t, err)
	_, err = tb.Deal()
	assert.ErrorIs(t, err, ErrHandInProgress)
	assert.ErrorIs(t, tb.Resume(), ErrNoStalledHand)

	sum := tb.Summary()
	assert.True(t, sum.Running)
	assert.Equal(t, "West", sum.Turn)
	for _, s := range sum.Seats {
		assert.Equal(t, 9, s.Cards)
	}
}

func TestDealIsReproduciblePerTable(t *testing.T) {
	id := uuid.New()
	roster := game.Roster{human("n"), human("e"), human("s"), human("w")}
	deal := func() *game.GameState {
		tb, err := New(Options{ID: id, Roster: roster, DealSalt: "salt"})
		require.NoError(t, err)
		defer tb.Close()
		_, err = tb.Deal()
		require.NoError(t, err)
		s, err := tb.Snapshot()
		require.NoError(t, err)
		return s
	}
	a, b := deal(), deal()
	for i := range a.Seats {
		assert.Equal(t, a.Seats[i].Hand, b.Seats[i].Hand)
	}
	assert.Equal(t, a.Stock, b.Stock)
}

func TestPasscode(t *testing.T) {
	open := newTable(t, game.Roster{human("n"), human("e"), human("s"), human("w")}, nil)
	assert.True(t, open.CheckPasscode(""))

	locked, err := New(Options{Roster: open.Roster(), Passcode: "hunter22"})
	require.NoError(t, err)
	defer locked.Close()
	assert.True(t, locked.CheckPasscode("hunter22"))
	assert.False(t, locked.CheckPasscode("hunter2"))
}

func TestSummaryBeforeFirstDeal(t *testing.T) {
	tb := newTable(t, game.Roster{human("n"), bot("e"), human("s"), bot("w")}, nil)
	sum := tb.Summary()
	assert.Equal(t, 0, sum.Hand)
	assert.False(t, sum.Running)
	assert.Equal(t, game.KindAI, sum.Seats[1].Type)
	assert.Equal(t, "North", sum.Seats[0].Position)
}

func TestFactoryRejectsUnknownBackend(t *testing.T) {
	f := &Factory{DefaultSeats: game.Roster{bot("n"), bot("e"), bot("s"), bot("w")}}
	_, err := f.New(nil, "")
	assert.ErrorIs(t, err, provider.ErrUnknownBackend)
}

func TestDealArchivesHandBeforeLoopDoes(t *testing.T) {
	ch := make(chan archive.Record, 4)
	tb := newTable(t, game.Roster{bot("n"), bot("e"), bot("s"), bot("w")}, ch)

	// Hold the table lock so the finished loop cannot archive hand 1 itself.
	tb.mu.Lock()
	hand, err := tb.dealLocked()
	require.NoError(t, err)
	require.Equal(t, 1, hand)
	require.Eventually(t, func() bool {
		s, err := tb.orch.Snapshot()
		return err == nil && s.Phase == game.PhaseHandComplete
	}, 5*time.Second, 5*time.Millisecond)
	hand, err = tb.dealLocked()
	tb.mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, 2, hand)

	got := map[int]int{}
	for len(got) < 2 {
		select {
		case rec := <-ch:
			got[rec.Hand]++
		case <-time.After(5 * time.Second):
			t.Fatalf("archived hands %v", got)
		}
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1}, got)
	select {
	case rec := <-ch:
		t.Fatalf("hand %d archived twice", rec.Hand)
	case <-time.After(50 * time.Millisecond):
	}
}
