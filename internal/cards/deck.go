package cards

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"strconv"
)

// NewDeck returns the 52 cards in suit order, ranks ascending.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits {
		for r := Two; r <= Ace; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle permutes deck in place using rng.
func Shuffle(deck []Card, rng *rand.Rand) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}

// Seed derives a deterministic shuffle seed using HMAC(salt, table|hand).
// The same table and hand number always deal the same cards for a given salt.
func Seed(salt, table string, hand int) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(table))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(hand)))
	sum := h.Sum(nil)
	// first 8 bytes, sign bit cleared
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}
