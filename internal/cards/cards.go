// internal/cards/cards.go
//
// Card primitives shared by the rules, the orchestrator and the providers.
// Responsibilities:
//   - Suit and Rank enums with their text tokens ("h", "d", "c", "s"; "2".."10", "J", "Q", "K", "A").
//   - Card identifiers ("sA", "d10") in both directions.
//   - Text/JSON marshalling so cards travel as identifiers.
//
// Notes:
//   - "0" marks an empty hand slot in client payloads. It is never a card.

package cards

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits. The numeric order (hearts, diamonds,
// clubs, spades) is the order used wherever suits are enumerated.
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists every suit in enumeration order.
var Suits = [4]Suit{Hearts, Diamonds, Clubs, Spades}

var (
	suitLetters = [4]string{"h", "d", "c", "s"}
	suitNames   = [4]string{"hearts", "diamonds", "clubs", "spades"}
)

var (
	ErrEmptySlot = errors.New("empty card slot")
	ErrBadCard   = errors.New("invalid card")
	ErrBadSuit   = errors.New("invalid suit")
)

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool { return s >= Hearts && s <= Spades }

// Letter returns the one-letter suit token.
func (s Suit) Letter() string {
	if !s.Valid() {
		return "?"
	}
	return suitLetters[s]
}

func (s Suit) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// SameColor returns the other suit of the same colour (hearts/diamonds, clubs/spades).
func (s Suit) SameColor() Suit {
	switch s {
	case Hearts:
		return Diamonds
	case Diamonds:
		return Hearts
	case Clubs:
		return Spades
	default:
		return Clubs
	}
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrBadSuit
	}
	return []byte(suitNames[s]), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	v, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSuit accepts a suit letter or name in any case.
func ParseSuit(tok string) (Suit, error) {
	t := strings.ToLower(strings.TrimSpace(tok))
	for i := range suitLetters {
		if t == suitLetters[i] || t == suitNames[i] {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadSuit, tok)
}

// Rank is the face value, 2 through 14 (ace high).
type Rank int

const (
	Two   Rank = 2
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
	Five  Rank = 5
)

func (r Rank) Valid() bool { return r >= Two && r <= Ace }

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	if r.Valid() {
		return strconv.Itoa(int(r))
	}
	return "?"
}

func parseRank(tok string) (Rank, bool) {
	switch strings.ToUpper(tok) {
	case "J":
		return Jack, true
	case "Q":
		return Queen, true
	case "K":
		return King, true
	case "A":
		return Ace, true
	}
	n, err := strconv.Atoi(tok)
	if err != nil || strconv.Itoa(n) != tok {
		return 0, false
	}
	r := Rank(n)
	return r, r.Valid()
}

// Card is a single playing card.
type Card struct {
	Suit Suit
	Rank Rank
}

// String returns the card identifier, suit letter followed by rank: "sA", "d10", "h2".
func (c Card) String() string { return c.Suit.Letter() + c.Rank.String() }

// Valid reports whether c is a real card of the 52-card deck.
func (c Card) Valid() bool { return c.Suit.Valid() && c.Rank.Valid() }

// Parse converts an identifier such as "sA" back into a Card.
// The empty-slot marker "0" yields ErrEmptySlot.
func Parse(id string) (Card, error) {
	id = strings.TrimSpace(id)
	if id == "0" {
		return Card{}, ErrEmptySlot
	}
	if len(id) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrBadCard, id)
	}
	s, err := ParseSuit(id[:1])
	if err != nil {
		return Card{}, fmt.Errorf("%w: %q", ErrBadCard, id)
	}
	r, ok := parseRank(id[1:])
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrBadCard, id)
	}
	return Card{Suit: s, Rank: r}, nil
}

// MustParse is Parse for literals in tests and fixtures; it panics on bad input.
func MustParse(id string) Card {
	c, err := Parse(id)
	if err != nil {
		panic(err)
	}
	return c
}

// MustParseAll parses a space separated list of identifiers.
func MustParseAll(ids string) []Card {
	fields := strings.Fields(ids)
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		out = append(out, MustParse(f))
	}
	return out
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrBadCard
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Strings renders a slice of cards as identifiers.
func Strings(cs []Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// IndexOf returns the position of c in cs, or -1.
func IndexOf(cs []Card, c Card) int {
	for i := range cs {
		if cs[i] == c {
			return i
		}
	}
	return -1
}

// Remove returns cs without the first occurrence of c, and whether it was found.
// The input slice is not modified.
func Remove(cs []Card, c Card) ([]Card, bool) {
	i := IndexOf(cs, c)
	if i < 0 {
		return cs, false
	}
	out := make([]Card, 0, len(cs)-1)
	out = append(out, cs[:i]...)
	return append(out, cs[i+1:]...), true
}
