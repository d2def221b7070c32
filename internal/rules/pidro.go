// internal/rules/pidro.go
//
// Pidro rule set for the orchestrator.
// Responsibilities:
//   - Trump membership (the off-five counts as trump) and trump ranking.
//   - Legal bids, trump declaration and card plays.
//   - Trick resolution, the discard-and-draw, hand scoring, match end.
//   - Dealing a shuffled deck.
//
// Notes:
//   - Point cards exist only in trump: A, J, 10, 2 are worth 1; the five and
//     the off-five are worth 5 each. 14 points per hand.
//   - The two of trump scores for the team that played it; every other point
//     goes to the team that won the trick.

package rules

import (
	"math/rand"
	"sort"

	"github.com/robalobadob/pidro/internal/cards"
	"github.com/robalobadob/pidro/internal/game"
)

const (
	MinBid      = 6
	MaxBid      = 14
	DealSize    = 9
	HandSize    = 6
	MatchTarget = 62
	HandPoints  = 14
)

// Pidro implements game.Rules.
type Pidro struct {
	// Target is the score that ends the match.
	Target int
}

var _ game.Rules = (*Pidro)(nil)

// New returns the standard rule set (match to 62).
func New() *Pidro { return &Pidro{Target: MatchTarget} }

// IsTrump reports whether c belongs to the trump suit, counting the off-five.
func IsTrump(c cards.Card, trump cards.Suit) bool {
	return c.Suit == trump || (c.Rank == cards.Five && c.Suit == trump.SameColor())
}

// EffectiveSuit is the suit c follows: trump for the off-five, else its own.
func EffectiveSuit(c cards.Card, trump cards.Suit) cards.Suit {
	if IsTrump(c, trump) {
		return trump
	}
	return c.Suit
}

// trumpStrength orders trumps A K Q J 10 9 8 7 6 5 off-5 4 3 2.
func trumpStrength(c cards.Card, trump cards.Suit) int {
	if c.Suit != trump {
		return 2*int(cards.Five) - 1
	}
	return 2 * int(c.Rank)
}

// PointValue is what c is worth when trump is named.
func PointValue(c cards.Card, trump cards.Suit) int {
	if !IsTrump(c, trump) {
		return 0
	}
	switch c.Rank {
	case cards.Five:
		return 5
	case cards.Ace, cards.Jack, cards.Ten, cards.Two:
		return 1
	}
	return 0
}

// LegalMoves lists seat's options. It returns an empty slice off turn.
func (p *Pidro) LegalMoves(s *game.GameState, seat game.Seat) []game.Move {
	out := []game.Move{}
	if s.Phase == game.PhaseHandComplete || seat != s.CurrentTurn {
		return out
	}
	switch s.Phase {
	case game.PhaseBidding:
		if s.BiddingDone() {
			if seat != s.Bidder {
				return out
			}
			for _, su := range cards.Suits {
				out = append(out, game.NameTrump(su))
			}
			return out
		}
		if !forcedOpen(s, seat) {
			out = append(out, game.PassMove())
		}
		lo := s.CurrentBid + 1
		if lo < MinBid {
			lo = MinBid
		}
		for b := lo; b <= MaxBid; b++ {
			out = append(out, game.BidMove(b))
		}
	case game.PhasePlaying:
		hand := s.Seats[seat].Hand
		if len(s.Trick) > 0 && s.Trump != nil {
			led := EffectiveSuit(s.Trick[0].Card, *s.Trump)
			for _, c := range hand {
				if EffectiveSuit(c, *s.Trump) == led {
					out = append(out, game.PlayCard(c))
				}
			}
			if len(out) > 0 {
				return out
			}
		}
		for _, c := range hand {
			out = append(out, game.PlayCard(c))
		}
	}
	return out
}

// forcedOpen: the last seat to speak after three passes must open.
func forcedOpen(s *game.GameState, seat game.Seat) bool {
	if s.CurrentBid != 0 {
		return false
	}
	for i := range s.Seats {
		if game.Seat(i) != seat && s.Seats[i].Bet == game.BetNone {
			return false
		}
	}
	return true
}

// TrickWinner: the highest trump wins; with no trump, the highest card of the led suit.
func (p *Pidro) TrickWinner(trick []game.Play, trump cards.Suit) game.Seat {
	if len(trick) == 0 {
		return game.NoSeat
	}
	led := EffectiveSuit(trick[0].Card, trump)
	best := 0
	for i := 1; i < len(trick); i++ {
		if beats(trick[i].Card, trick[best].Card, led, trump) {
			best = i
		}
	}
	return trick[best].Seat
}

func beats(a, b cards.Card, led, trump cards.Suit) bool {
	at, bt := IsTrump(a, trump), IsTrump(b, trump)
	switch {
	case at && !bt:
		return true
	case !at && bt:
		return false
	case at && bt:
		return trumpStrength(a, trump) > trumpStrength(b, trump)
	}
	if a.Suit != led {
		return false
	}
	return b.Suit != led || a.Rank > b.Rank
}

// keepOrder sorts cards best-first for keeping: trumps with points, then
// other trumps by strength, then non-trumps by rank.
func keepOrder(cs []cards.Card, trump cards.Suit) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		at, bt := IsTrump(a, trump), IsTrump(b, trump)
		if at != bt {
			return at
		}
		if !at {
			return a.Rank > b.Rank
		}
		ap, bp := PointValue(a, trump) > 0, PointValue(b, trump) > 0
		if ap != bp {
			return ap
		}
		return trumpStrength(a, trump) > trumpStrength(b, trump)
	})
}

// Draw: each non-dealer, starting left of the dealer, throws away its
// non-trumps, keeps at most six trumps and draws back to six from the stock.
// A short stock is made up from the seat's own discards. The dealer then
// robs the pack: it takes what is left of the stock and keeps the best six.
func (p *Pidro) Draw(s *game.GameState) game.DrawResult {
	var res game.DrawResult
	if s.Trump == nil {
		for i := range s.Seats {
			res.Hands[i] = append([]cards.Card{}, s.Seats[i].Hand...)
			res.Discards[i] = append([]cards.Card{}, s.Seats[i].Discards...)
		}
		res.Stock = append([]cards.Card{}, s.Stock...)
		return res
	}
	trump := *s.Trump
	stock := append([]cards.Card{}, s.Stock...)

	for k := 1; k <= 3; k++ {
		seat := (s.Dealer + game.Seat(k)) % 4
		var keep, toss []cards.Card
		for _, c := range s.Seats[seat].Hand {
			if IsTrump(c, trump) {
				keep = append(keep, c)
			} else {
				toss = append(toss, c)
			}
		}
		keepOrder(keep, trump)
		if len(keep) > HandSize {
			toss = append(toss, keep[HandSize:]...)
			keep = keep[:HandSize]
		}
		n := HandSize - len(keep)
		if n > len(stock) {
			n = len(stock)
		}
		keep = append(keep, stock[:n]...)
		stock = stock[n:]
		if short := HandSize - len(keep); short > 0 {
			if short > len(toss) {
				short = len(toss)
			}
			keepOrder(toss, trump)
			keep = append(keep, toss[:short]...)
			toss = toss[short:]
		}
		res.Hands[seat] = keep
		res.Discards[seat] = append(append([]cards.Card{}, s.Seats[seat].Discards...), toss...)
	}

	pool := append(append([]cards.Card{}, s.Seats[s.Dealer].Hand...), stock...)
	keepOrder(pool, trump)
	n := HandSize
	if n > len(pool) {
		n = len(pool)
	}
	res.Hands[s.Dealer] = append([]cards.Card{}, pool[:n]...)
	res.Discards[s.Dealer] = append(append([]cards.Card{}, s.Seats[s.Dealer].Discards...), pool[n:]...)
	res.Stock = []cards.Card{}
	return res
}

// ScoreHand totals captured points per team and applies the contract: the
// bidding team scores its points if they reach the bid and loses the bid
// otherwise. Defenders always keep what they took.
func (p *Pidro) ScoreHand(s *game.GameState) game.RoundScore {
	r := game.RoundScore{Hand: s.Hand, Bidder: s.Bidder, Bid: s.CurrentBid}
	if s.Trump == nil || !s.Bidder.Valid() {
		return r
	}
	trump := *s.Trump
	for _, t := range s.Tricks {
		for _, pl := range t.Plays {
			v := PointValue(pl.Card, trump)
			if v == 0 {
				continue
			}
			if pl.Card.Suit == trump && pl.Card.Rank == cards.Two {
				r.Points[pl.Seat.Team()] += v
				continue
			}
			r.Points[t.Winner.Team()] += v
		}
	}
	bt := s.Bidder.Team()
	r.Made = r.Points[bt] >= s.CurrentBid
	if r.Made {
		r.Delta[bt] = r.Points[bt]
	} else {
		r.Delta[bt] = -s.CurrentBid
	}
	r.Delta[bt.Other()] = r.Points[bt.Other()]
	return r
}

// MatchWinner ends the match once a team reaches the target. When both
// teams reach it on the same hand the bidding team wins.
func (p *Pidro) MatchWinner(totals [2]int, round game.RoundScore) (game.Team, bool) {
	target := p.Target
	if target <= 0 {
		target = MatchTarget
	}
	a, b := totals[0] >= target, totals[1] >= target
	switch {
	case a && b:
		if round.Bidder.Valid() {
			return round.Bidder.Team(), true
		}
		if totals[1] > totals[0] {
			return 1, true
		}
		return 0, true
	case a:
		return 0, true
	case b:
		return 1, true
	}
	return 0, false
}

// Deal shuffles a fresh deck with rng and deals nine cards to each seat in
// packets of three, starting left of dealer. The rest is the stock.
func Deal(rng *rand.Rand, dealer game.Seat) game.Deal {
	deck := cards.NewDeck()
	cards.Shuffle(deck, rng)
	d := game.Deal{Dealer: dealer}
	i := 0
	for round := 0; round < DealSize/3; round++ {
		for k := 1; k <= 4; k++ {
			seat := (dealer + game.Seat(k)) % 4
			d.Hands[seat] = append(d.Hands[seat], deck[i:i+3]...)
			i += 3
		}
	}
	d.Stock = append([]cards.Card{}, deck[i:]...)
	return d
}
