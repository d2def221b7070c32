package game

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// UpdateKind tags an Update.
type UpdateKind string

const (
	UpdateHandStarted UpdateKind = "hand_started"
	UpdateMove        UpdateKind = "move"
)

// Update is delivered to observers after every committed change.
type Update struct {
	Kind  UpdateKind `json:"kind"`
	Entry *LogEntry  `json:"entry,omitempty"`
	State *GameState `json:"state"`
}

// Observer receives updates. Observe runs on the dispatcher goroutine, never
// on the turn loop.
type Observer interface {
	Observe(u Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Update)

func (f ObserverFunc) Observe(u Update) { f(u) }

const dispatchBuffer = 64

// dispatcher fans updates out to observers from its own goroutine.
// publish never blocks: when the buffer is full the update is dropped.
type dispatcher struct {
	ch        chan Update
	observers []Observer
	done      chan struct{}
	closeOnce sync.Once
}

func newDispatcher(obs []Observer) *dispatcher {
	d := &dispatcher{
		ch:        make(chan Update, dispatchBuffer),
		observers: obs,
		done:      make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for u := range d.ch {
		for _, o := range d.observers {
			o.Observe(u)
		}
	}
}

func (d *dispatcher) publish(u Update) {
	if len(d.observers) == 0 {
		return
	}
	select {
	case d.ch <- u:
	default:
		log.Warn().Str("kind", string(u.Kind)).Msg("observer queue full; update dropped")
	}
}

func (d *dispatcher) close() {
	d.closeOnce.Do(func() {
		close(d.ch)
		<-d.done
	})
}
