// internal/table/table.go
//
// One live Pidro table.
// Responsibilities:
//   - Bind the roster, its MoveProviders and the orchestrator together.
//   - Deal hands (rotating dealer, reproducible per-table shuffle) and drive
//     each hand's turn loop in the background.
//   - Hand completed hands to the archive worker.
//   - Accept human moves and expose read models (state, log, seat views, summary).
//
// Notes:
//   - Tables live in memory only; the archive is write-only history.
//   - A table passcode, when set, is stored as a bcrypt hash.

package table

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/pidro/internal/archive"
	"github.com/robalobadob/pidro/internal/cards"
	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/provider"
	"github.com/robalobadob/pidro/internal/rules"
)

// FirstDealer deals the first hand of every table.
const FirstDealer game.Seat = 2

var (
	ErrHandInProgress = errors.New("hand in progress")
	ErrNoStalledHand  = errors.New("no stalled hand to resume")
	ErrNotHumanSeat   = errors.New("seat is not played by a human")
	ErrClosed         = errors.New("table closed")
)

type Options struct {
	ID       uuid.UUID
	Roster   game.Roster
	Rules    *rules.Pidro
	Backends map[string]provider.Backend
	Policy   provider.Policy
	// Passcode guards seat claims; empty means an open table.
	Passcode string
	DealSalt string
	// Archive receives completed hands; sends never block.
	Archive          chan<- archive.Record
	StrictInvariants bool
	Clock            func() time.Time
	// Seed seeds the AI fallback RNGs; zero uses the clock.
	Seed int64
}

type Table struct {
	ID        uuid.UUID
	CreatedAt time.Time

	roster       game.Roster
	orch         *game.Orchestrator
	human        *provider.Human
	hub          *Hub
	passcodeHash []byte
	salt         string
	archive      chan<- archive.Record
	clock        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	nextDealer game.Seat
	running    bool
	loop       uint64 // identifies the newest turn loop goroutine
	archived   int    // last hand handed to the archive
	lastErr    error
}

// New builds a table with no hand dealt yet.
func New(opts Options) (*Table, error) {
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	rs := opts.Rules
	if rs == nil {
		rs = rules.New()
	}

	human := provider.NewHuman()
	providers, err := provider.ForRoster(opts.Roster, provider.Deps{
		Human:    human,
		Backends: opts.Backends,
		Policy:   opts.Policy,
		Seed:     opts.Seed,
	})
	if err != nil {
		return nil, err
	}

	var hash []byte
	if opts.Passcode != "" {
		if hash, err = bcrypt.GenerateFromPassword([]byte(opts.Passcode), bcrypt.DefaultCost); err != nil {
			return nil, fmt.Errorf("hash passcode: %w", err)
		}
	}

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t := &Table{
		ID:           id,
		CreatedAt:    clock().UTC(),
		roster:       opts.Roster,
		human:        human,
		hub:          hub,
		passcodeHash: hash,
		salt:         opts.DealSalt,
		archive:      opts.Archive,
		clock:        clock,
		ctx:          ctx,
		cancel:       cancel,
		nextDealer:   FirstDealer,
	}
	t.orch = game.NewOrchestrator(game.Options{
		Rules:            rs,
		Roster:           opts.Roster,
		Providers:        providers,
		Observers:        []game.Observer{hub},
		Clock:            clock,
		StrictInvariants: opts.StrictInvariants,
	})
	return t, nil
}

// Deal starts the next hand and its turn loop. It returns the hand number.
func (t *Table) Deal() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dealLocked()
}

func (t *Table) dealLocked() (int, error) {
	if t.ctx.Err() != nil {
		return 0, ErrClosed
	}

	hand := 1
	if s, err := t.orch.Snapshot(); err == nil {
		if s.Phase != game.PhaseHandComplete && t.running {
			return 0, ErrHandInProgress
		}
		if s.Phase == game.PhaseHandComplete {
			// The previous loop may not have archived it yet.
			t.completeLocked(s)
		}
		hand = s.Hand + 1
	}

	dealer := t.nextDealer
	rng := rand.New(rand.NewSource(cards.Seed(t.salt, t.ID.String(), hand)))
	if err := t.orch.StartHand(rules.Deal(rng, dealer)); err != nil {
		return 0, err
	}
	t.nextDealer = dealer.Next()
	t.lastErr = nil
	t.running = true
	t.loop++

	log.Info().Str("table", t.ID.String()).Int("hand", hand).Str("dealer", dealer.Position()).Msg("hand dealt")
	go t.run(hand, t.loop)
	return hand, nil
}

// Resume restarts the turn loop of a hand whose loop stopped on an error
// (for example an AI seat with the fail policy).
func (t *Table) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctx.Err() != nil {
		return ErrClosed
	}
	s, err := t.orch.Snapshot()
	if err != nil {
		return err
	}
	if t.running || s.Phase == game.PhaseHandComplete {
		return ErrNoStalledHand
	}
	t.lastErr = nil
	t.running = true
	t.loop++
	go t.run(s.Hand, t.loop)
	return nil
}

func (t *Table) run(hand int, loop uint64) {
	err := t.orch.Run(t.ctx)

	t.mu.Lock()
	current := t.loop == loop
	if current {
		t.running = false
	}
	if err == nil {
		if s, serr := t.orch.Snapshot(); serr == nil && s.Hand == hand {
			t.completeLocked(s)
		}
	}
	t.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, game.ErrStaleResult), errors.Is(err, context.Canceled):
		log.Debug().Str("table", t.ID.String()).Int("hand", hand).Msg("turn loop stopped")
	default:
		if current {
			t.mu.Lock()
			t.lastErr = err
			t.mu.Unlock()
		}
		log.Error().Err(err).Str("table", t.ID.String()).Int("hand", hand).Msg("turn loop failed")
	}
}

// completeLocked logs a completed hand and hands it to the archive, once per hand.
func (t *Table) completeLocked(s *game.GameState) {
	hand := s.Hand
	if s.Phase != game.PhaseHandComplete || hand <= t.archived {
		return
	}
	t.archived = hand
	ev := log.Info().Str("table", t.ID.String()).Int("hand", hand).
		Int("ns", s.Score.Totals[0]).Int("ew", s.Score.Totals[1])
	if s.Score.Winner != nil {
		ev = ev.Int("winner", int(*s.Score.Winner))
	}
	ev.Msg("hand complete")

	if t.archive == nil {
		return
	}
	rec, err := archive.FromState(t.ID, s, t.orch.GameLog().ForHand(hand), t.clock())
	if err != nil {
		log.Warn().Err(err).Str("table", t.ID.String()).Msg("archive record")
		return
	}
	select {
	case t.archive <- rec:
	default:
		log.Warn().Str("table", t.ID.String()).Int("hand", hand).Msg("archive queue full; hand not archived")
	}
}

// Submit answers a human seat's pending move request.
func (t *Table) Submit(seat game.Seat, m game.Move) error {
	if !seat.Valid() {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if t.roster[seat].Kind != game.KindHuman {
		return ErrNotHumanSeat
	}
	return t.human.Submit(seat, m)
}

// CheckPasscode reports whether p opens this table.
func (t *Table) CheckPasscode(p string) bool {
	if len(t.passcodeHash) == 0 {
		return true
	}
	return bcrypt.CompareHashAndPassword(t.passcodeHash, []byte(p)) == nil
}

// Close stops the turn loop and observer delivery.
func (t *Table) Close() {
	t.cancel()
	t.orch.Close()
	t.hub.Close()
}

func (t *Table) Roster() game.Roster { return t.roster }
func (t *Table) Hub() *Hub { return t.hub }
func (t *Table) Snapshot() (*game.GameState, error) { return t.orch.Snapshot() }
func (t *Table) Log() []game.LogEntry { return t.orch.Log() }
func (t *Table) View(seat game.Seat) (game.SeatView, error) { return t.orch.View(seat) }
func (t *Table) LegalMoves(seat game.Seat) ([]game.Move, error) { return t.orch.LegalMoves(seat) }

// Running reports whether a turn loop is active, and the error that stopped
// the last one, if any.
func (t *Table) Running() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running, t.lastErr
}
