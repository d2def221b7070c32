package archive

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pidro/assets"
	"github.com/robalobadob/pidro/internal/cards"
	"github.com/robalobadob/pidro/internal/game"
)

func finishedState(hand int) *game.GameState {
	trump := cards.Spades
	return &game.GameState{
		Hand:   hand,
		Phase:  game.PhaseHandComplete,
		Dealer: 3,
		Trump:  &trump,
		Score: game.Score{
			Totals: [2]int{11, 2},
			Rounds: []game.RoundScore{{Hand: hand, Bidder: 2, Bid: 8, Points: [2]int{11, 3}, Delta: [2]int{11, 3}, Made: true}},
		},
		Tricks: []game.CompletedTrick{{
			Plays:  []game.Play{{Seat: 0, Card: cards.MustParse("sA")}, {Seat: 1, Card: cards.MustParse("s3")}},
			Winner: 0,
		}},
	}
}

func entries(hand int) []game.LogEntry {
	return []game.LogEntry{
		{Hand: hand, Ply: 1, Seat: 0, Action: "bid", Move: game.BidMove(8), Source: game.SourceHuman},
		{Hand: hand, Ply: 2, Seat: 1, Action: "play", Move: game.PlayCard(cards.MustParse("d10")), Source: game.SourceFallback, Fallback: true, Reason: "timeout"},
	}
}

func TestFromStateRequiresCompleteHand(t *testing.T) {
	s := finishedState(1)
	s.Phase = game.PhasePlaying
	_, err := FromState(uuid.New(), s, nil, time.Now())
	assert.Error(t, err)

	s = finishedState(1)
	s.Trump = nil
	_, err = FromState(uuid.New(), s, nil, time.Now())
	assert.Error(t, err)
}

func TestPayloadRoundTrip(t *testing.T) {
	rec, err := FromState(uuid.New(), finishedState(2), entries(2), time.Now())
	require.NoError(t, err)

	data, err := encodePayload(rec)
	require.NoError(t, err)

	var got Record
	require.NoError(t, decodePayload(data, &got))
	assert.Equal(t, rec.Round, got.Round)
	assert.Equal(t, rec.Tricks, got.Tricks)
	require.Len(t, got.Log, 2)
	assert.Equal(t, game.PlayCard(cards.MustParse("d10")), got.Log[1].Move)
	assert.True(t, got.Log[1].Fallback)
}

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	defer repo.Close(ctx)

	table := uuid.New()
	other := uuid.New()
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	for hand := 1; hand <= 3; hand++ {
		rec, err := FromState(table, finishedState(hand), entries(hand), at.Add(time.Duration(hand)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.SaveHand(ctx, rec))
	}
	rec, err := FromState(other, finishedState(1), nil, at)
	require.NoError(t, err)
	require.NoError(t, repo.SaveHand(ctx, rec))

	// duplicate saves are ignored
	dup, _ := FromState(table, finishedState(3), nil, at)
	require.NoError(t, repo.SaveHand(ctx, dup))

	got, err := repo.ListHands(ctx, table, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Hand)
	assert.Equal(t, 2, got[1].Hand)
	assert.Equal(t, cards.Spades, got[0].Trump)
	assert.Equal(t, game.Seat(3), got[0].Dealer)
	assert.Equal(t, [2]int{11, 2}, got[0].Totals)
	assert.Equal(t, game.Seat(2), got[0].Round.Bidder)
	assert.Len(t, got[0].Log, 2, "first save wins")
	assert.True(t, got[0].CompletedAt.Equal(at.Add(3*time.Minute)))

	all, err := repo.ListHands(ctx, table, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, ":memory:")
	require.NoError(t, err)
	defer repo.Close(ctx)

	migrations, err := assets.Migrations("sqlite")
	require.NoError(t, err)
	require.NoError(t, migrate(ctx, repo.db, migrations))

	var n int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "mysql://localhost/pidro")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}
