// internal/game/types.go
//
// Core type definitions for a four-seat Pidro hand.
// Defines:
//   - Seat/Team addressing and the fixed North/East/South/West positions.
//   - Player: the roster entry for a seat (human or AI with its config).
//   - SeatState and GameState: the authoritative state of the hand in play.
//   - Score and RoundScore: cumulative per-team totals with per-hand deltas.
//
// Notes:
//   - The roster lives beside GameState (Orchestrator), never inside it.
//   - Clone returns a deep copy; read paths hand out clones only.

package game

import (
	"github.com/robalobadob/pidro/internal/cards"
)

// Seat indexes one of the four seats, 0..3, clockwise from North.
type Seat int

// NoSeat marks "nobody", e.g. the bidder before anyone has bid.
const NoSeat Seat = -1

var positions = [4]string{"North", "East", "South", "West"}

// Next returns the seat to the left (clockwise).
func (s Seat) Next() Seat { return (s + 1) % 4 }

// Valid reports whether s addresses a real seat.
func (s Seat) Valid() bool { return s >= 0 && s < 4 }

// Team returns the partnership of s: seats 0 and 2 are team 0, seats 1 and 3 team 1.
func (s Seat) Team() Team { return Team(s % 2) }

// Position is the compass name of the seat.
func (s Seat) Position() string {
	if !s.Valid() {
		return "none"
	}
	return positions[s]
}

// Team is a partnership index, 0 (North/South) or 1 (East/West).
type Team int

// Other returns the opposing partnership.
func (t Team) Other() Team { return 1 - t }

// Phase is the lifecycle stage of a hand.
type Phase string

const (
	PhaseBidding      Phase = "bidding"
	PhasePlaying      Phase = "playing"
	PhaseHandComplete Phase = "hand_complete"
)

// PlayerKind tags the Player variant.
type PlayerKind string

const (
	KindHuman PlayerKind = "human"
	KindAI    PlayerKind = "ai"
)

// AIConfig selects and tunes the backend behind an AI seat.
type AIConfig struct {
	Provider    string  `json:"provider"` // "openai" | "anthropic" | "lua"
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

// Player is the roster entry for one seat. AI is set only when Kind is KindAI.
type Player struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Kind PlayerKind `json:"type"`
	AI   *AIConfig  `json:"aiConfig,omitempty"`
}

// IsAI reports whether the seat is driven by an AI backend.
func (p Player) IsAI() bool { return p.Kind == KindAI && p.AI != nil }

// Roster assigns a Player to each seat.
type Roster [4]Player

// Bet values stored in SeatState.Bet besides a real bid amount.
const (
	BetNone = 0
	BetPass = -1
)

// SeatState is everything the table knows about one seat during a hand.
type SeatState struct {
	PlayerID string       `json:"playerId,omitempty"`
	Hand     []cards.Card `json:"hand"`
	Bet      int          `json:"bet"`
	Discards []cards.Card `json:"discards"`
	Won      []cards.Card `json:"won"`
}

// Play is a single card laid to a trick.
type Play struct {
	Seat Seat       `json:"seat"`
	Card cards.Card `json:"card"`
}

// CompletedTrick records a resolved trick.
type CompletedTrick struct {
	Plays  []Play `json:"plays"`
	Winner Seat   `json:"winner"`
}

// RoundScore is the scoring result of one hand.
type RoundScore struct {
	Hand   int    `json:"hand"`
	Bidder Seat   `json:"bidder"`
	Bid    int    `json:"bid"`
	Points [2]int `json:"points"` // points captured per team
	Delta  [2]int `json:"delta"`  // change applied to Totals
	Made   bool   `json:"made"`   // bidding team reached the bid
}

// Score is the cumulative match score.
type Score struct {
	Totals [2]int       `json:"totals"`
	Rounds []RoundScore `json:"rounds"`
	Winner *Team        `json:"winner,omitempty"`
}

// GameState is the authoritative state of the current hand.
// Mutated only by Orchestrator.ApplyMove.
type GameState struct {
	Hand        int              `json:"hand"`
	Generation  uint64           `json:"generation"`
	Phase       Phase            `json:"phase"`
	Seats       [4]SeatState     `json:"seats"`
	Trump       *cards.Suit      `json:"trump,omitempty"`
	Dealer      Seat             `json:"dealer"`
	Bidder      Seat             `json:"bidder"`
	CurrentTurn Seat             `json:"currentTurn"`
	CurrentBid  int              `json:"currentBid"`
	Score       Score            `json:"score"`
	Trick       []Play           `json:"trick"`
	Leader      Seat             `json:"leader"`
	Stock       []cards.Card     `json:"stock"`
	Ply         int              `json:"ply"`
	Tricks      []CompletedTrick `json:"tricks"`
}

// BiddingDone reports whether all four seats have spoken.
func (s *GameState) BiddingDone() bool {
	for i := range s.Seats {
		if s.Seats[i].Bet == BetNone {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	for i := range s.Seats {
		c.Seats[i].Hand = cloneCards(s.Seats[i].Hand)
		c.Seats[i].Discards = cloneCards(s.Seats[i].Discards)
		c.Seats[i].Won = cloneCards(s.Seats[i].Won)
	}
	if s.Trump != nil {
		t := *s.Trump
		c.Trump = &t
	}
	c.Trick = append([]Play{}, s.Trick...)
	c.Stock = cloneCards(s.Stock)
	c.Tricks = make([]CompletedTrick, len(s.Tricks))
	for i, t := range s.Tricks {
		c.Tricks[i] = CompletedTrick{Plays: append([]Play{}, t.Plays...), Winner: t.Winner}
	}
	c.Score = s.Score.clone()
	return &c
}

func (sc Score) clone() Score {
	out := Score{Totals: sc.Totals, Rounds: append([]RoundScore{}, sc.Rounds...)}
	if sc.Winner != nil {
		w := *sc.Winner
		out.Winner = &w
	}
	return out
}

func cloneCards(cs []cards.Card) []cards.Card {
	return append([]cards.Card{}, cs...)
}
