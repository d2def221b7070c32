package table

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/game"
)

const subscriberBuffer = 32

// Hub is the table's observer: it fans every update out to its subscribers
// (websocket clients). A subscriber that falls behind loses updates instead
// of slowing the others.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan game.Update]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan game.Update]struct{})}
}

// Observe implements game.Observer.
func (h *Hub) Observe(u game.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- u:
		default:
			log.Debug().Str("kind", string(u.Kind)).Msg("subscriber behind; update dropped")
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func
// unregisters it and closes the channel.
func (h *Hub) Subscribe() (<-chan game.Update, func()) {
	ch := make(chan game.Update, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
