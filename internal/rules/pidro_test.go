package rules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pidro/internal/cards"
	"github.com/robalobadob/pidro/internal/game"
)

func plays(ids ...string) []game.Play {
	out := make([]game.Play, len(ids))
	for i, id := range ids {
		out[i] = game.Play{Seat: game.Seat(i), Card: cards.MustParse(id)}
	}
	return out
}

func suit(s cards.Suit) *cards.Suit { return &s }

func biddingState(dealer game.Seat) *game.GameState {
	return &game.GameState{
		Phase:       game.PhaseBidding,
		Dealer:      dealer,
		Bidder:      game.NoSeat,
		CurrentTurn: dealer.Next(),
	}
}

func TestTrickWinner(t *testing.T) {
	p := New()
	tests := []struct {
		name  string
		trick []game.Play
		trump cards.Suit
		want  game.Seat
	}{
		{"trump beats led suit", plays("hA", "hK", "s2", "hQ"), cards.Spades, 2},
		{"highest of led suit", plays("h9", "hK", "d2", "hQ"), cards.Spades, 1},
		{"off suit high card loses", plays("h3", "dA", "cA", "h4"), cards.Spades, 3},
		{"off five is trump", plays("hA", "c5", "hK", "hQ"), cards.Spades, 1},
		{"off five above the four", plays("s4", "c5", "s3", "h2"), cards.Spades, 1},
		{"five above the off five", plays("c5", "s5", "s3", "h2"), cards.Spades, 1},
		{"highest trump", plays("sJ", "sQ", "s10", "sK"), cards.Spades, 3},
		{"off five led counts as trump lead", plays("d5", "hA", "h2", "dA"), cards.Hearts, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.TrickWinner(tt.trick, tt.trump))
		})
	}
}

func TestLegalBids(t *testing.T) {
	p := New()
	s := biddingState(3)

	legal := p.LegalMoves(s, 0)
	require.Len(t, legal, 10)
	assert.Equal(t, game.PassMove(), legal[0])
	assert.Equal(t, game.BidMove(6), legal[1])
	assert.Equal(t, game.BidMove(14), legal[9])

	assert.Empty(t, p.LegalMoves(s, 1), "off turn")

	s.Seats[0].Bet = 8
	s.CurrentBid, s.Bidder, s.CurrentTurn = 8, 0, 1
	legal = p.LegalMoves(s, 1)
	assert.Equal(t, []string{"pass", "9", "10", "11", "12", "13", "14"}, game.Tokens(legal))

	s.Seats[1].Bet = 14
	s.CurrentBid, s.Bidder, s.CurrentTurn = 14, 1, 2
	assert.Equal(t, []string{"pass"}, game.Tokens(p.LegalMoves(s, 2)))
}

func TestForcedOpen(t *testing.T) {
	p := New()
	s := biddingState(3)
	s.Seats[0].Bet, s.Seats[1].Bet, s.Seats[2].Bet = game.BetPass, game.BetPass, game.BetPass
	s.CurrentTurn = 3

	legal := p.LegalMoves(s, 3)
	assert.NotContains(t, legal, game.PassMove())
	assert.Equal(t, game.BidMove(6), legal[0])
}

func TestTrumpDeclaration(t *testing.T) {
	p := New()
	s := biddingState(3)
	s.Seats[0].Bet, s.Seats[1].Bet, s.Seats[2].Bet, s.Seats[3].Bet = 6, game.BetPass, 8, game.BetPass
	s.CurrentBid, s.Bidder, s.CurrentTurn = 8, 2, 2

	assert.Equal(t, []string{"hearts", "diamonds", "clubs", "spades"}, game.Tokens(p.LegalMoves(s, 2)))
	assert.Empty(t, p.LegalMoves(s, 0))
}

func TestFollowSuit(t *testing.T) {
	p := New()
	s := &game.GameState{
		Phase:       game.PhasePlaying,
		Trump:       suit(cards.Spades),
		CurrentTurn: 1,
		Bidder:      0,
		CurrentBid:  6,
	}
	s.Seats[1].Hand = cards.MustParseAll("hK c5 d3 s9")

	s.Trick = plays("hA")
	assert.Equal(t, []string{"hK"}, game.Tokens(p.LegalMoves(s, 1)))

	s.Trick = plays("sA")
	assert.Equal(t, []string{"c5", "s9"}, game.Tokens(p.LegalMoves(s, 1)), "off five follows trump")

	s.Trick = plays("cA")
	assert.Equal(t, []string{"hK", "c5", "d3", "s9"}, game.Tokens(p.LegalMoves(s, 1)), "void in clubs")

	s.Trick = nil
	assert.Len(t, p.LegalMoves(s, 1), 4, "leader plays anything")
}

func TestNoMovesAfterHand(t *testing.T) {
	p := New()
	s := &game.GameState{Phase: game.PhaseHandComplete, CurrentTurn: 0}
	s.Seats[0].Hand = cards.MustParseAll("hK")
	assert.Empty(t, p.LegalMoves(s, 0))
}

func TestDealAndDraw(t *testing.T) {
	p := New()
	for seed := int64(1); seed <= 20; seed++ {
		d := Deal(rand.New(rand.NewSource(seed)), 2)
		for i := range d.Hands {
			require.Len(t, d.Hands[i], DealSize)
		}
		require.Len(t, d.Stock, 52-4*DealSize)

		s := &game.GameState{Dealer: 2, Trump: suit(cards.Suits[seed%4]), Stock: d.Stock}
		for i := range s.Seats {
			s.Seats[i].Hand = d.Hands[i]
		}
		res := p.Draw(s)

		seen := map[cards.Card]int{}
		for i := range res.Hands {
			assert.Len(t, res.Hands[i], HandSize)
			for _, c := range res.Hands[i] {
				seen[c]++
			}
			for _, c := range res.Discards[i] {
				seen[c]++
			}
		}
		for _, c := range res.Stock {
			seen[c]++
		}
		assert.Len(t, seen, 52)
		for c, n := range seen {
			assert.Equal(t, 1, n, c.String())
		}
	}
}

func TestDrawKeepsTrumps(t *testing.T) {
	p := New()
	s := &game.GameState{Dealer: 3, Trump: suit(cards.Spades)}
	s.Seats[0].Hand = cards.MustParseAll("sA s2 c5 h3 h4 h6 d7 d8 d9")
	s.Seats[1].Hand = cards.MustParseAll("sK sQ sJ s10 s9 s8 s7 s5 s3")
	s.Seats[2].Hand = cards.MustParseAll("hA hK hQ hJ h10 h9 h8 h7 h5")
	s.Seats[3].Hand = cards.MustParseAll("dA dK dQ dJ d10 d6 d5 d4 d3")
	s.Stock = cards.MustParseAll("cA cK cQ cJ c10 c9 c8 c7 c6 c4 c3 c2 d2 h2 s4 s6")

	res := p.Draw(s)

	assert.ElementsMatch(t, cards.MustParseAll("sA s2 c5 cA cK cQ"), res.Hands[0])
	// nine trumps: the point cards stay with the three highest others
	assert.ElementsMatch(t, cards.MustParseAll("sJ s10 s5 sK sQ s9"), res.Hands[1])
	assert.Contains(t, res.Discards[1], cards.MustParse("s3"))
	assert.Equal(t, cards.MustParseAll("cJ c10 c9 c8 c7 c6"), res.Hands[2])
	// dealer robs the rest of the stock: both remaining trumps first
	assert.Equal(t, cards.MustParseAll("s6 s4"), res.Hands[3][:2])
	assert.Empty(t, res.Stock)
}

func TestScoreHand(t *testing.T) {
	p := New()
	trick := plays("sA", "s5", "c5", "s2")
	s := &game.GameState{
		Hand:       1,
		Trump:      suit(cards.Spades),
		Bidder:     0,
		CurrentBid: 6,
		Tricks: []game.CompletedTrick{
			{Plays: trick, Winner: p.TrickWinner(trick, cards.Spades)},
			{Plays: plays("hA", "sJ", "h3", "h4"), Winner: 1},
		},
	}

	r := p.ScoreHand(s)
	assert.Equal(t, [2]int{11, 2}, r.Points)
	assert.True(t, r.Made)
	assert.Equal(t, [2]int{11, 2}, r.Delta)

	s.CurrentBid = 12
	r = p.ScoreHand(s)
	assert.False(t, r.Made)
	assert.Equal(t, [2]int{-12, 2}, r.Delta)
}

func TestPointValues(t *testing.T) {
	total := 0
	for _, c := range cards.NewDeck() {
		total += PointValue(c, cards.Hearts)
	}
	assert.Equal(t, HandPoints, total)
	assert.Equal(t, 5, PointValue(cards.MustParse("d5"), cards.Hearts))
	assert.Equal(t, 0, PointValue(cards.MustParse("c5"), cards.Hearts))
}

func TestMatchWinner(t *testing.T) {
	p := New()
	_, over := p.MatchWinner([2]int{61, 40}, game.RoundScore{Bidder: 0})
	assert.False(t, over)

	team, over := p.MatchWinner([2]int{30, 62}, game.RoundScore{Bidder: 0})
	assert.True(t, over)
	assert.Equal(t, game.Team(1), team)

	team, over = p.MatchWinner([2]int{70, 64}, game.RoundScore{Bidder: 1})
	assert.True(t, over)
	assert.Equal(t, game.Team(1), team, "bidding team wins a tie on the line")
}
