package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robalobadob/pidro/internal/cards"
)

// MoveKind tags the Move variant.
type MoveKind string

const (
	MoveBid   MoveKind = "bid"
	MovePlay  MoveKind = "play"
	MoveTrump MoveKind = "trump"
)

var ErrBadMove = errors.New("unrecognised move")

// Move is a bid (Amount 0 is a pass), a card play, or the bidder naming trump.
// Every move has a unique text token: "pass", "8", "sA", "spades".
type Move struct {
	Kind   MoveKind
	Amount int
	Card   cards.Card
	Suit   cards.Suit
}

func BidMove(amount int) Move { return Move{Kind: MoveBid, Amount: amount} }
func PassMove() Move { return Move{Kind: MoveBid} }
func PlayCard(c cards.Card) Move { return Move{Kind: MovePlay, Card: c} }
func NameTrump(s cards.Suit) Move { return Move{Kind: MoveTrump, Suit: s} }
func (m Move) IsPass() bool { return m.Kind == MoveBid && m.Amount == 0 }

// String returns the move token.
func (m Move) String() string {
	switch m.Kind {
	case MoveBid:
		if m.Amount == 0 {
			return "pass"
		}
		return strconv.Itoa(m.Amount)
	case MovePlay:
		return m.Card.String()
	case MoveTrump:
		return m.Suit.String()
	}
	return "?"
}

// ParseMove reads a move token. Numbers are bids, "pass" passes, suit names
// name trump and anything else must be a card identifier.
func ParseMove(tok string) (Move, error) {
	t := strings.TrimSpace(tok)
	if strings.EqualFold(t, "pass") {
		return PassMove(), nil
	}
	if n, err := strconv.Atoi(t); err == nil {
		if n <= 0 {
			return Move{}, fmt.Errorf("%w: %q", ErrBadMove, tok)
		}
		return BidMove(n), nil
	}
	if len(t) > 1 {
		if s, err := cards.ParseSuit(t); err == nil {
			return NameTrump(s), nil
		}
	}
	c, err := cards.Parse(t)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrBadMove, tok)
	}
	return PlayCard(c), nil
}

// Contains reports whether m is one of moves.
func Contains(moves []Move, m Move) bool {
	for _, x := range moves {
		if x == m {
			return true
		}
	}
	return false
}

// Tokens renders moves as their tokens.
func Tokens(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

type moveJSON struct {
	Type  MoveKind `json:"type"`
	Value string   `json:"value"`
}

// MarshalJSON encodes {"type": "bid"|"play"|"trump", "value": token}.
func (m Move) MarshalJSON() ([]byte, error) {
	return json.Marshal(moveJSON{Type: m.Kind, Value: m.String()})
}

// UnmarshalJSON accepts the object form or a bare token string.
func (m *Move) UnmarshalJSON(b []byte) error {
	var tok string
	if err := json.Unmarshal(b, &tok); err == nil {
		v, err := ParseMove(tok)
		if err != nil {
			return err
		}
		*m = v
		return nil
	}
	var mj moveJSON
	if err := json.Unmarshal(b, &mj); err != nil {
		return err
	}
	v, err := ParseMove(mj.Value)
	if err != nil {
		return err
	}
	if mj.Type != "" && mj.Type != v.Kind {
		return fmt.Errorf("%w: %s %q", ErrBadMove, mj.Type, mj.Value)
	}
	*m = v
	return nil
}
