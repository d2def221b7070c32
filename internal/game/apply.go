package game

import (
	"fmt"

	"github.com/robalobadob/pidro/internal/cards"
)

// mutate applies an already validated move to s (a private copy) and returns
// the human-readable detail for the log entry.
func (o *Orchestrator) mutate(s *GameState, seat Seat, m Move) (string, error) {
	s.Ply++
	switch m.Kind {
	case MoveBid:
		return applyBid(s, seat, m), nil
	case MoveTrump:
		return o.applyTrump(s, seat, m.Suit), nil
	case MovePlay:
		return o.applyPlay(s, seat, m.Card)
	}
	return "", fmt.Errorf("%w: kind %q", ErrBadMove, m.Kind)
}

func applyBid(s *GameState, seat Seat, m Move) string {
	var detail string
	if m.IsPass() {
		s.Seats[seat].Bet = BetPass
		detail = fmt.Sprintf("%s passed", seat.Position())
	} else {
		s.Seats[seat].Bet = m.Amount
		s.CurrentBid = m.Amount
		s.Bidder = seat
		detail = fmt.Sprintf("%s bid %d", seat.Position(), m.Amount)
	}
	if s.BiddingDone() {
		s.CurrentTurn = s.Bidder
		return detail + fmt.Sprintf("; %s takes the bid at %d", s.Bidder.Position(), s.CurrentBid)
	}
	s.CurrentTurn = seat.Next()
	return detail
}

func (o *Orchestrator) applyTrump(s *GameState, seat Seat, suit cards.Suit) string {
	s.Trump = &suit
	res := o.rules.Draw(s)
	for i := range s.Seats {
		s.Seats[i].Hand = cloneCards(res.Hands[i])
		s.Seats[i].Discards = cloneCards(res.Discards[i])
	}
	s.Stock = cloneCards(res.Stock)
	s.Phase = PhasePlaying
	s.CurrentTurn, s.Leader = s.Bidder, s.Bidder
	return fmt.Sprintf("%s named %s trump; %d cards left in stock", seat.Position(), suit, len(s.Stock))
}

func (o *Orchestrator) applyPlay(s *GameState, seat Seat, c cards.Card) (string, error) {
	hand, ok := cards.Remove(s.Seats[seat].Hand, c)
	if !ok {
		return "", &InvariantViolationError{Invariant: "hand", Detail: fmt.Sprintf("%s does not hold %s", seat.Position(), c)}
	}
	s.Seats[seat].Hand = hand
	s.Trick = append(s.Trick, Play{Seat: seat, Card: c})
	detail := fmt.Sprintf("%s played %s", seat.Position(), c)

	if len(s.Trick) < 4 {
		s.CurrentTurn = seat.Next()
		return detail, nil
	}

	w := o.rules.TrickWinner(s.Trick, *s.Trump)
	if !w.Valid() {
		return "", &InvariantViolationError{Invariant: "trick", Detail: fmt.Sprintf("winner %d", w)}
	}
	for _, p := range s.Trick {
		s.Seats[w].Won = append(s.Seats[w].Won, p.Card)
	}
	s.Tricks = append(s.Tricks, CompletedTrick{Plays: s.Trick, Winner: w})
	s.Trick = []Play{}
	s.CurrentTurn, s.Leader = w, w
	detail += fmt.Sprintf("; trick %d to %s", len(s.Tricks), w.Position())

	if !handsEmpty(s) {
		return detail, nil
	}

	round := o.rules.ScoreHand(s)
	round.Hand = s.Hand
	s.Score.Totals[0] += round.Delta[0]
	s.Score.Totals[1] += round.Delta[1]
	s.Score.Rounds = append(s.Score.Rounds, round)
	if team, over := o.rules.MatchWinner(s.Score.Totals, round); over {
		s.Score.Winner = &team
		detail += fmt.Sprintf("; match won by team %d", team)
	}
	s.Phase = PhaseHandComplete
	return detail + fmt.Sprintf("; hand complete, points %d-%d, score %d-%d",
		round.Points[0], round.Points[1], s.Score.Totals[0], s.Score.Totals[1]), nil
}

func handsEmpty(s *GameState) bool {
	for i := range s.Seats {
		if len(s.Seats[i].Hand) > 0 {
			return false
		}
	}
	return true
}
