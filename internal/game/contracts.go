package game

import (
	"context"

	"github.com/robalobadob/pidro/internal/cards"
)

// Rules is the rule set the orchestrator consults. Every method is pure:
// implementations read the state they are given and never modify it.
type Rules interface {
	// LegalMoves lists the moves seat may make now. Empty when it is not
	// seat's turn or the hand is complete.
	LegalMoves(s *GameState, seat Seat) []Move

	// TrickWinner returns the seat that wins a complete trick.
	TrickWinner(trick []Play, trump cards.Suit) Seat

	// Draw runs the discard-and-draw that follows the trump declaration.
	Draw(s *GameState) DrawResult

	// ScoreHand scores a finished hand.
	ScoreHand(s *GameState) RoundScore

	// MatchWinner decides whether the match is over after the given round.
	MatchWinner(totals [2]int, round RoundScore) (Team, bool)
}

// DrawResult replaces hands, discards and stock after the draw.
type DrawResult struct {
	Hands    [4][]cards.Card
	Discards [4][]cards.Card
	Stock    []cards.Card
}

// Decision is a provider's answer for one turn.
type Decision struct {
	Move     Move
	Source   Source
	Provider string
	Reason   string
}

// MoveProvider produces the move for the seat on turn. Implementations must
// return promptly when ctx is cancelled.
type MoveProvider interface {
	RequestMove(ctx context.Context, view SeatView, legal []Move) (Decision, error)
}

// MoveProviderFunc adapts a function to MoveProvider.
type MoveProviderFunc func(ctx context.Context, view SeatView, legal []Move) (Decision, error)

func (f MoveProviderFunc) RequestMove(ctx context.Context, view SeatView, legal []Move) (Decision, error) {
	return f(ctx, view, legal)
}
