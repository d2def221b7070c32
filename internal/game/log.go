package game

import (
	"sync"
	"time"
)

// Source records who produced a move.
type Source string

const (
	SourceHuman    Source = "human"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
	SourceExternal Source = "external"
)

// LogEntry is one applied move. Entries are never edited once appended.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Generation uint64    `json:"generation"`
	Hand       int       `json:"hand"`
	Ply        int       `json:"ply"`
	Seat       Seat      `json:"seat"`
	Player     string    `json:"player"`
	Action     string    `json:"action"`
	Move       Move      `json:"move"`
	Detail     string    `json:"detail"`
	Source     Source    `json:"source"`
	Provider   string    `json:"provider,omitempty"`
	Fallback   bool      `json:"fallback,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// GameLog is the append-only move history of a table, kept for the process lifetime.
type GameLog struct {
	mu      sync.RWMutex
	entries []LogEntry
}

func (l *GameLog) append(e LogEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
}

// Entries returns a copy of the log in append order.
func (l *GameLog) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]LogEntry{}, l.entries...)
}

// Len returns the number of entries.
func (l *GameLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ForHand returns the entries of one hand, in order.
func (l *GameLog) ForHand(hand int) []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []LogEntry
	for _, e := range l.entries {
		if e.Hand == hand {
			out = append(out, e)
		}
	}
	return out
}
