package game

import (
	"github.com/robalobadob/pidro/internal/cards"
)

// SeatView is what one seat is allowed to see: its own cards and the public
// table state. Other seats' hands appear only as counts.
type SeatView struct {
	Seat        Seat         `json:"seat"`
	Position    string       `json:"position"`
	Team        Team         `json:"team"`
	Hand        int          `json:"hand"`
	Phase       Phase        `json:"phase"`
	Dealer      Seat         `json:"dealer"`
	IsDealer    bool         `json:"isDealer"`
	Bidder      Seat         `json:"bidder"`
	CurrentTurn Seat         `json:"currentTurn"`
	CurrentBid  int          `json:"currentBid"`
	Trump       *cards.Suit  `json:"trump,omitempty"`
	Cards       []cards.Card `json:"cards"`
	Discarded   []cards.Card `json:"discarded"`
	Trick       []Play       `json:"trick"`
	Played      []cards.Card `json:"played"`
	Bets        [4]int       `json:"bets"`
	HandSizes   [4]int       `json:"handSizes"`
	Scores      [2]int       `json:"scores"`
	Legal       []Move       `json:"legal"`
}

// NewSeatView projects s for seat. legal is attached as-is.
func NewSeatView(s *GameState, seat Seat, legal []Move) SeatView {
	v := SeatView{
		Seat:        seat,
		Position:    seat.Position(),
		Team:        seat.Team(),
		Hand:        s.Hand,
		Phase:       s.Phase,
		Dealer:      s.Dealer,
		IsDealer:    s.Dealer == seat,
		Bidder:      s.Bidder,
		CurrentTurn: s.CurrentTurn,
		CurrentBid:  s.CurrentBid,
		Cards:       cloneCards(s.Seats[seat].Hand),
		Discarded:   cloneCards(s.Seats[seat].Discards),
		Trick:       append([]Play{}, s.Trick...),
		Scores:      s.Score.Totals,
		Legal:       append([]Move{}, legal...),
	}
	if s.Trump != nil {
		t := *s.Trump
		v.Trump = &t
	}
	for i := range s.Seats {
		v.Bets[i] = s.Seats[i].Bet
		v.HandSizes[i] = len(s.Seats[i].Hand)
	}
	for _, t := range s.Tricks {
		for _, p := range t.Plays {
			v.Played = append(v.Played, p.Card)
		}
	}
	return v
}
