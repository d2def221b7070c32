package game

import (
	"fmt"

	"github.com/robalobadob/pidro/internal/cards"
)

// CheckInvariants verifies the structural rules every committed state obeys.
// fixed is the card set dealt at the start of the hand.
func CheckInvariants(s *GameState, fixed map[cards.Card]bool) error {
	switch s.Phase {
	case PhaseBidding, PhasePlaying, PhaseHandComplete:
	default:
		return &InvariantViolationError{Invariant: "phase", Detail: fmt.Sprintf("unknown phase %q", s.Phase)}
	}
	if !s.CurrentTurn.Valid() {
		return &InvariantViolationError{Invariant: "turn", Detail: fmt.Sprintf("current turn %d", s.CurrentTurn)}
	}
	if !s.Dealer.Valid() {
		return &InvariantViolationError{Invariant: "dealer", Detail: fmt.Sprintf("dealer %d", s.Dealer)}
	}
	if len(s.Trick) > 3 {
		return &InvariantViolationError{Invariant: "trick", Detail: fmt.Sprintf("%d cards on the table", len(s.Trick))}
	}
	if (s.CurrentBid == 0) != (s.Bidder == NoSeat) {
		return &InvariantViolationError{Invariant: "bid", Detail: fmt.Sprintf("bid %d held by %d", s.CurrentBid, s.Bidder)}
	}
	if s.Phase == PhasePlaying && s.Trump == nil {
		return &InvariantViolationError{Invariant: "trump", Detail: "playing without trump"}
	}
	for _, p := range s.Trick {
		if !p.Seat.Valid() {
			return &InvariantViolationError{Invariant: "trick", Detail: fmt.Sprintf("play by seat %d", p.Seat)}
		}
	}
	return checkConservation(s, fixed)
}

// checkConservation: every dealt card sits in exactly one place.
func checkConservation(s *GameState, fixed map[cards.Card]bool) error {
	seen := make(map[cards.Card]string, len(fixed))
	visit := func(where string, cs []cards.Card) error {
		for _, c := range cs {
			if prev, dup := seen[c]; dup {
				return &InvariantViolationError{Invariant: "cards", Detail: fmt.Sprintf("%s in %s and %s", c, prev, where)}
			}
			if !fixed[c] {
				return &InvariantViolationError{Invariant: "cards", Detail: fmt.Sprintf("%s in %s was never dealt", c, where)}
			}
			seen[c] = where
		}
		return nil
	}
	for i := range s.Seats {
		pos := Seat(i).Position()
		if err := visit(pos+" hand", s.Seats[i].Hand); err != nil {
			return err
		}
		if err := visit(pos+" discards", s.Seats[i].Discards); err != nil {
			return err
		}
		if err := visit(pos+" won", s.Seats[i].Won); err != nil {
			return err
		}
	}
	for _, p := range s.Trick {
		if err := visit("trick", []cards.Card{p.Card}); err != nil {
			return err
		}
	}
	if err := visit("stock", s.Stock); err != nil {
		return err
	}
	if len(seen) != len(fixed) {
		return &InvariantViolationError{Invariant: "cards", Detail: fmt.Sprintf("%d of %d cards accounted for", len(seen), len(fixed))}
	}
	return nil
}
