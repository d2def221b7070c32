package table

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/pidro/internal/game"
)

// SeatSummary is one seat line of the debug summary.
type SeatSummary struct {
	Position string          `json:"position"`
	Name     string          `json:"name"`
	Type     game.PlayerKind `json:"type"`
	Provider string          `json:"provider,omitempty"`
	Cards    int             `json:"cards"`
	Bet      int             `json:"bet"`
}

// Summary is the at-a-glance table read model: trump, turn, dealer, bid
// holder, team scores and per-seat card counts and bets.
type Summary struct {
	ID        uuid.UUID      `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Hand      int            `json:"hand"`
	Phase     game.Phase     `json:"phase,omitempty"`
	Trump     string         `json:"trump,omitempty"`
	Turn      string         `json:"turn,omitempty"`
	Dealer    string         `json:"dealer,omitempty"`
	Bidder    string         `json:"bidder,omitempty"`
	Bid       int            `json:"bid"`
	Scores    [2]int         `json:"scores"`
	Winner    *game.Team     `json:"winner,omitempty"`
	Seats     [4]SeatSummary `json:"seats"`
	Moves     int            `json:"moves"`
	Running   bool           `json:"running"`
	Error     string         `json:"error,omitempty"`
}

// Summary builds the debug summary. Before the first deal only the roster
// is filled in.
func (t *Table) Summary() Summary {
	out := Summary{ID: t.ID, CreatedAt: t.CreatedAt}
	for i, p := range t.roster {
		out.Seats[i] = SeatSummary{Position: game.Seat(i).Position(), Name: p.Name, Type: p.Kind}
		if p.AI != nil {
			out.Seats[i].Provider = p.AI.Provider
		}
	}
	running, err := t.Running()
	out.Running = running
	if err != nil {
		out.Error = err.Error()
	}

	s, serr := t.Snapshot()
	if errors.Is(serr, game.ErrNoHand) || s == nil {
		return out
	}
	out.Hand = s.Hand
	out.Phase = s.Phase
	out.Dealer = s.Dealer.Position()
	if s.Phase != game.PhaseHandComplete {
		out.Turn = s.CurrentTurn.Position()
	}
	if s.Trump != nil {
		out.Trump = s.Trump.String()
	}
	if s.Bidder.Valid() {
		out.Bidder = s.Bidder.Position()
	}
	out.Bid = s.CurrentBid
	out.Scores = s.Score.Totals
	out.Winner = s.Score.Winner
	out.Moves = s.Ply
	for i := range s.Seats {
		out.Seats[i].Cards = len(s.Seats[i].Hand)
		out.Seats[i].Bet = s.Seats[i].Bet
	}
	return out
}
