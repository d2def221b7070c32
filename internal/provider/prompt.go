package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robalobadob/pidro/internal/cards"
	"github.com/robalobadob/pidro/internal/game"
)

const systemPrompt = `You are playing Pidro, a four-player partnership trick-taking card game.
North/South play against East/West.

Rules:
- Each player gets nine cards. Players bid once each, clockwise from the dealer's left.
  A bid is a number from 6 to 14 and must beat the current bid; "pass" declines.
  If the first three players pass, the dealer must bid.
- The highest bidder names trump. Everyone then discards non-trumps and draws back to six cards.
- The five of the same-colour suit (the off-five) is also a trump. Trump order:
  A K Q J 10 9 8 7 6 5 off-5 4 3 2.
- Points (trump only): A=1, J=1, 10=1, each five=5, 2=1. 14 points per hand.
  The two of trump scores for the team that plays it; other points go to the trick winner.
- You must follow the suit led if you can; otherwise play any card.
- The bidding team scores its points if they reach the bid, otherwise loses the bid.

Cards are written suit letter then rank: h=hearts d=diamonds c=clubs s=spades, e.g. "sA", "d10", "h2".

Answer with exactly one of the legal moves you are given, as JSON:
{"move":{"type":"bid|play|trump","value":"<legal move>"},"reasoning":"<one short sentence>"}`

// promptState is the seat-scoped state shown to the model.
type promptState struct {
	Phase        string         `json:"phase"`
	Position     string         `json:"position"`
	Team         int            `json:"team"`
	IsDealer     bool           `json:"isDealer"`
	Hand         []string       `json:"hand"`
	CurrentTrick []string       `json:"currentTrick"`
	PlayedCards  []string       `json:"playedCards"`
	Discarded    []string       `json:"discardedCards"`
	CurrentBid   int            `json:"currentBid"`
	Bidder       string         `json:"bidder"`
	TrumpSuit    string         `json:"trumpSuit,omitempty"`
	Bets         map[string]int `json:"bets"`
	CardsLeft    map[string]int `json:"cardsLeft"`
	Scores       map[string]int `json:"scores"`
}

func newPromptState(v game.SeatView) promptState {
	ps := promptState{
		Phase:        string(v.Phase),
		Position:     v.Position,
		Team:         int(v.Team) + 1,
		IsDealer:     v.IsDealer,
		Hand:         cards.Strings(v.Cards),
		CurrentTrick: make([]string, 0, len(v.Trick)),
		PlayedCards:  cards.Strings(v.Played),
		Discarded:    cards.Strings(v.Discarded),
		CurrentBid:   v.CurrentBid,
		Bidder:       v.Bidder.Position(),
		Bets:         map[string]int{},
		CardsLeft:    map[string]int{},
		Scores:       map[string]int{"team1": v.Scores[0], "team2": v.Scores[1]},
	}
	if v.Trump != nil {
		ps.TrumpSuit = v.Trump.String()
	}
	for _, p := range v.Trick {
		ps.CurrentTrick = append(ps.CurrentTrick, p.Seat.Position()+":"+p.Card.String())
	}
	for i := 0; i < 4; i++ {
		pos := game.Seat(i).Position()
		ps.Bets[pos] = v.Bets[i]
		ps.CardsLeft[pos] = v.HandSizes[i]
	}
	return ps
}

// BuildRequest renders the prompt for one decision.
func BuildRequest(cfg game.AIConfig, v game.SeatView, legal []game.Move) Request {
	tokens := game.Tokens(legal)
	state, _ := json.MarshalIndent(newPromptState(v), "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s (team %d).\n", v.Position, int(v.Team)+1)
	b.WriteString("Game state:\n")
	b.Write(state)
	b.WriteString("\n\n")
	switch {
	case v.Phase == game.PhasePlaying:
		b.WriteString("It is your turn to play a card.\n")
	case len(legal) > 0 && legal[0].Kind == game.MoveTrump:
		b.WriteString("You won the bid. Name the trump suit.\n")
	default:
		b.WriteString("It is your turn to bid (bets: 0 = not yet spoken, -1 = passed).\n")
	}
	fmt.Fprintf(&b, "Legal moves: %s\n", strings.Join(tokens, ", "))

	return Request{
		Model:       cfg.Model,
		System:      systemPrompt,
		Prompt:      b.String(),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		View:        v,
		Legal:       tokens,
	}
}
