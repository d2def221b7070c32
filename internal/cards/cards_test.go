package cards

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Card
	}{
		{"sA", Card{Spades, Ace}},
		{"d10", Card{Diamonds, Ten}},
		{"h2", Card{Hearts, Two}},
		{"cJ", Card{Clubs, Jack}},
		{"SQ", Card{Spades, Queen}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	_, err := Parse("0")
	assert.ErrorIs(t, err, ErrEmptySlot)

	for _, in := range []string{"", "s", "x5", "s1", "s15", "s05", "hZ"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrBadCard, in)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, c := range NewDeck() {
		got, err := Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestJSONUsesIdentifiers(t *testing.T) {
	b, err := json.Marshal([]Card{MustParse("sA"), MustParse("d10")})
	require.NoError(t, err)
	assert.JSONEq(t, `["sA","d10"]`, string(b))

	var back []Card
	require.NoError(t, json.Unmarshal([]byte(`["h5","c2"]`), &back))
	assert.Equal(t, MustParseAll("h5 c2"), back)

	assert.Error(t, json.Unmarshal([]byte(`["0"]`), &back))
}

func TestSuitHelpers(t *testing.T) {
	assert.Equal(t, Diamonds, Hearts.SameColor())
	assert.Equal(t, Spades, Clubs.SameColor())
	s, err := ParseSuit("Spades")
	require.NoError(t, err)
	assert.Equal(t, Spades, s)
	s, err = ParseSuit("d")
	require.NoError(t, err)
	assert.Equal(t, Diamonds, s)
	_, err = ParseSuit("stars")
	assert.ErrorIs(t, err, ErrBadSuit)
}

func TestDeckIsComplete(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 52)
	seen := map[Card]bool{}
	for _, c := range deck {
		assert.True(t, c.Valid())
		seen[c] = true
	}
	assert.Len(t, seen, 52)

	Shuffle(deck, rand.New(rand.NewSource(1)))
	after := map[Card]bool{}
	for _, c := range deck {
		after[c] = true
	}
	assert.Equal(t, seen, after)
}

func TestSeedDeterministic(t *testing.T) {
	a := Seed("salt", "table-1", 3)
	assert.Equal(t, a, Seed("salt", "table-1", 3))
	assert.NotEqual(t, a, Seed("salt", "table-1", 4))
	assert.NotEqual(t, a, Seed("other", "table-1", 3))
	assert.GreaterOrEqual(t, a, int64(0))
}

func TestRemove(t *testing.T) {
	hand := MustParseAll("sA hK d2")
	out, ok := Remove(hand, MustParse("hK"))
	assert.True(t, ok)
	assert.Equal(t, MustParseAll("sA d2"), out)
	assert.Len(t, hand, 3)

	_, ok = Remove(hand, MustParse("c9"))
	assert.False(t, ok)
}
