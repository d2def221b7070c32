// internal/game/engine.go
//
// Turn orchestration for a single four-seat table.
// Responsibilities:
//   - Install hands (StartHand) and carry the match score across them.
//   - Drive turns: ask the seat's MoveProvider, validate, apply (Advance/Trigger/Run).
//   - Single mutation point for GameState (ApplyMove): validate, mutate a copy,
//     verify invariants, commit, append exactly one log entry.
//   - Read side for UIs: Snapshot, Log, View, LegalMoves; push Updates to observers.
//
// Notes:
//   - A turn is identified by TurnKey (hand generation, ply). Only one request per
//     key is ever outstanding; results whose key went stale are discarded.
//   - Providers are awaited without holding the state lock.
//   - StartHand cancels the previous hand's outstanding request; an external
//     ApplyMove cancels the request of the turn it just played.

package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/cards"
)

// Options configures an Orchestrator.
type Options struct {
	Rules     Rules
	Roster    Roster
	Providers [4]MoveProvider
	Observers []Observer
	// Clock stamps log entries; defaults to time.Now.
	Clock func() time.Time
	// StrictInvariants panics on an invariant violation instead of rejecting the move.
	StrictInvariants bool
}

// Contract starts a hand directly in the playing phase with a known bidder and trump.
type Contract struct {
	Bidder Seat       `json:"bidder"`
	Bid    int        `json:"bid"`
	Trump  cards.Suit `json:"trump"`
}

// Deal is a freshly dealt hand.
type Deal struct {
	Dealer   Seat
	Hands    [4][]cards.Card
	Stock    []cards.Card
	Contract *Contract
}

// TurnKey identifies one turn: the hand generation and the number of moves
// already applied in that hand.
type TurnKey struct {
	Generation uint64 `json:"generation"`
	Ply        int    `json:"ply"`
}

// Orchestrator owns the GameState of one table and drives its turn loop.
type Orchestrator struct {
	rules     Rules
	roster    Roster
	providers [4]MoveProvider
	clock     func() time.Time
	strict    bool
	log       *GameLog
	obs       *dispatcher

	mu         sync.Mutex
	state      *GameState
	fixed      map[cards.Card]bool
	generation uint64
	inFlight   *TurnKey
	cancelTurn context.CancelFunc
	handCtx    context.Context
	cancelHand context.CancelFunc
	sig        chan struct{}
	closed     bool
}

// NewOrchestrator builds an orchestrator with no hand in progress.
func NewOrchestrator(opts Options) *Orchestrator {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		rules:     opts.Rules,
		roster:    opts.Roster,
		providers: opts.Providers,
		clock:     clock,
		strict:    opts.StrictInvariants,
		log:       &GameLog{},
		obs:       newDispatcher(opts.Observers),
		sig:       make(chan struct{}),
	}
}

// StartHand installs a new hand. The cumulative score carries over unless the
// previous match already has a winner. No log entry is written.
func (o *Orchestrator) StartHand(d Deal) error {
	fixed, err := validateDeal(d)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	hand := 1
	var score Score
	if o.state != nil {
		hand = o.state.Hand + 1
		if o.state.Score.Winner == nil {
			score = o.state.Score.clone()
		}
	}

	s := &GameState{
		Hand:        hand,
		Generation:  o.generation + 1,
		Phase:       PhaseBidding,
		Dealer:      d.Dealer,
		Bidder:      NoSeat,
		CurrentTurn: d.Dealer.Next(),
		Leader:      d.Dealer.Next(),
		Score:       score,
		Trick:       []Play{},
		Stock:       cloneCards(d.Stock),
		Tricks:      []CompletedTrick{},
	}
	for i := range s.Seats {
		s.Seats[i] = SeatState{
			PlayerID: o.roster[i].ID,
			Hand:     cloneCards(d.Hands[i]),
			Discards: []cards.Card{},
			Won:      []cards.Card{},
		}
	}
	if c := d.Contract; c != nil {
		trump := c.Trump
		s.Phase = PhasePlaying
		s.Trump = &trump
		s.Bidder, s.CurrentBid = c.Bidder, c.Bid
		s.CurrentTurn, s.Leader = c.Bidder, c.Bidder
		for i := range s.Seats {
			s.Seats[i].Bet = BetPass
		}
		s.Seats[c.Bidder].Bet = c.Bid
	}
	if err := CheckInvariants(s, fixed); err != nil {
		return err
	}

	o.generation++
	if o.cancelHand != nil {
		o.cancelHand()
	}
	o.handCtx, o.cancelHand = context.WithCancel(context.Background())
	o.inFlight = nil
	o.cancelTurn = nil
	o.state = s
	o.fixed = fixed
	o.notifyLocked()
	o.publishLocked(Update{Kind: UpdateHandStarted, State: s.Clone()})

	log.Info().
		Uint64("generation", s.Generation).
		Int("hand", s.Hand).
		Str("dealer", s.Dealer.Position()).
		Msg("hand started")
	return nil
}

func validateDeal(d Deal) (map[cards.Card]bool, error) {
	if !d.Dealer.Valid() {
		return nil, fmt.Errorf("%w: dealer %d", ErrBadDeal, d.Dealer)
	}
	fixed := make(map[cards.Card]bool, 52)
	add := func(cs []cards.Card) error {
		for _, c := range cs {
			if !c.Valid() {
				return fmt.Errorf("%w: bad card %v", ErrBadDeal, c)
			}
			if fixed[c] {
				return fmt.Errorf("%w: %s dealt twice", ErrBadDeal, c)
			}
			fixed[c] = true
		}
		return nil
	}
	for _, h := range d.Hands {
		if err := add(h); err != nil {
			return nil, err
		}
	}
	if err := add(d.Stock); err != nil {
		return nil, err
	}
	if c := d.Contract; c != nil {
		if !c.Bidder.Valid() || c.Bid <= 0 || !c.Trump.Valid() {
			return nil, fmt.Errorf("%w: contract %+v", ErrBadDeal, *c)
		}
	}
	return fixed, nil
}

// ApplyMove applies move for seat on behalf of an external caller. It is
// rejected with *IllegalMoveError, leaving state and log untouched, unless
// seat is on turn and move is legal.
func (o *Orchestrator) ApplyMove(seat Seat, move Move) (LogEntry, error) {
	return o.commit(seat, Decision{Move: move, Source: SourceExternal}, nil)
}

type turn struct {
	key      TurnKey
	seat     Seat
	view     SeatView
	legal    []Move
	provider MoveProvider
	ctx      context.Context
	cancel   context.CancelFunc
}

// Advance runs one turn: it asks the provider of the seat on turn for a move
// and applies it. It returns ErrTurnInFlight if this turn is already being
// requested and ErrStaleResult if the hand moved on while waiting.
func (o *Orchestrator) Advance(ctx context.Context) error {
	t, err := o.reserve(nil)
	if err != nil {
		return err
	}
	return o.await(ctx, t)
}

// Trigger starts Advance in the background. It reports false, without doing
// anything, when the current turn is already in flight or cannot be played.
func (o *Orchestrator) Trigger(ctx context.Context) bool {
	t, err := o.reserve(nil)
	if err != nil {
		return false
	}
	go func() {
		if err := o.await(ctx, t); err != nil && !errors.Is(err, ErrStaleResult) {
			log.Warn().Err(err).Uint64("generation", t.key.Generation).Int("ply", t.key.Ply).Msg("triggered turn failed")
		}
	}()
	return true
}

// Run drives the current hand until it completes. It returns nil on hand
// completion, ErrStaleResult once a newer hand has been started, or the
// first provider error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	gen := o.generation
	o.mu.Unlock()
	if gen == 0 {
		return ErrNoHand
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait := o.changed()
		t, err := o.reserve(&gen)
		if err == nil {
			err = o.await(ctx, t)
		}
		switch {
		case err == nil:
		case errors.Is(err, ErrHandComplete):
			return nil
		case errors.Is(err, ErrTurnInFlight):
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-wait:
			}
		case errors.Is(err, ErrStaleResult):
			if o.Generation() != gen {
				return err
			}
		default:
			return err
		}
	}
}

// reserve marks the current turn as in flight and captures what the
// provider needs. With gen set it refuses to act on any other generation.
func (o *Orchestrator) reserve(gen *uint64) (turn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == nil {
		return turn{}, ErrNoHand
	}
	if gen != nil && *gen != o.state.Generation {
		return turn{}, ErrStaleResult
	}
	if o.state.Phase == PhaseHandComplete {
		return turn{}, ErrHandComplete
	}
	key := TurnKey{Generation: o.state.Generation, Ply: o.state.Ply}
	if o.inFlight != nil && *o.inFlight == key {
		return turn{}, ErrTurnInFlight
	}
	seat := o.state.CurrentTurn
	p := o.providers[seat]
	if p == nil {
		return turn{}, fmt.Errorf("no move provider for %s", seat.Position())
	}
	legal := o.rules.LegalMoves(o.state, seat)
	if len(legal) == 0 {
		return turn{}, o.violationLocked(&InvariantViolationError{
			Invariant: "legal moves",
			Detail:    fmt.Sprintf("%s is on turn with no legal move", seat.Position()),
		})
	}
	turnCtx, cancel := context.WithCancel(o.handCtx)
	o.inFlight = &key
	o.cancelTurn = cancel
	return turn{
		key:      key,
		seat:     seat,
		view:     NewSeatView(o.state, seat, legal),
		legal:    legal,
		provider: p,
		ctx:      turnCtx,
		cancel:   cancel,
	}, nil
}

func (o *Orchestrator) release(key TurnKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight != nil && *o.inFlight == key {
		o.inFlight = nil
		o.cancelTurn = nil
		o.notifyLocked()
	}
}

// await calls the provider outside the lock and applies its answer if the
// turn is still current.
func (o *Orchestrator) await(ctx context.Context, t turn) error {
	defer o.release(t.key)
	defer t.cancel()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(t.ctx, cancel)
	defer stop()

	dec, err := t.provider.RequestMove(reqCtx, t.view, t.legal)
	if !o.isCurrent(t.key) {
		log.Debug().
			Uint64("generation", t.key.Generation).
			Int("ply", t.key.Ply).
			Str("seat", t.seat.Position()).
			Msg("discarding stale provider result")
		return ErrStaleResult
	}
	if err != nil {
		return fmt.Errorf("%s provider: %w", t.seat.Position(), err)
	}
	_, err = o.commit(t.seat, dec, &t.key)
	return err
}

func (o *Orchestrator) isCurrent(key TurnKey) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state != nil && o.state.Generation == key.Generation && o.state.Ply == key.Ply
}

// commit is the single mutation point. key, when set, must still match the
// current turn.
func (o *Orchestrator) commit(seat Seat, dec Decision, key *TurnKey) (LogEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == nil {
		return LogEntry{}, ErrNoHand
	}
	if key != nil && (o.state.Generation != key.Generation || o.state.Ply != key.Ply) {
		return LogEntry{}, ErrStaleResult
	}
	if o.state.Phase == PhaseHandComplete {
		return LogEntry{}, &IllegalMoveError{Seat: seat, Move: dec.Move, Reason: ReasonHandComplete}
	}
	if seat != o.state.CurrentTurn {
		return LogEntry{}, &IllegalMoveError{Seat: seat, Move: dec.Move, Reason: ReasonNotYourTurn}
	}
	if !Contains(o.rules.LegalMoves(o.state, seat), dec.Move) {
		return LogEntry{}, &IllegalMoveError{Seat: seat, Move: dec.Move, Reason: ReasonNotLegal}
	}

	next := o.state.Clone()
	detail, err := o.mutate(next, seat, dec.Move)
	if err != nil {
		return LogEntry{}, o.violationLocked(err)
	}
	if err := CheckInvariants(next, o.fixed); err != nil {
		return LogEntry{}, o.violationLocked(err)
	}
	o.state = next
	if key == nil && o.cancelTurn != nil {
		// The turn a provider was working on has been played.
		o.cancelTurn()
	}

	entry := LogEntry{
		Timestamp:  o.clock(),
		Generation: next.Generation,
		Hand:       next.Hand,
		Ply:        next.Ply,
		Seat:       seat,
		Player:     o.roster[seat].Name,
		Action:     actionName(dec.Move),
		Move:       dec.Move,
		Detail:     detail,
		Source:     dec.Source,
		Provider:   dec.Provider,
		Fallback:   dec.Source == SourceFallback,
		Reason:     dec.Reason,
	}
	o.log.append(entry)
	o.notifyLocked()
	e := entry
	o.publishLocked(Update{Kind: UpdateMove, Entry: &e, State: next.Clone()})

	ev := log.Debug()
	if dec.Source == SourceFallback {
		ev = log.Warn().Str("reason", dec.Reason)
	}
	ev.Uint64("generation", next.Generation).
		Int("hand", next.Hand).
		Str("seat", seat.Position()).
		Str("move", dec.Move.String()).
		Str("source", string(dec.Source)).
		Msg(detail)
	return entry, nil
}

func actionName(m Move) string {
	if m.IsPass() {
		return "pass"
	}
	return string(m.Kind)
}

func (o *Orchestrator) violationLocked(err error) error {
	log.Error().Err(err).Msg("invariant violation")
	var iv *InvariantViolationError
	if o.strict && errors.As(err, &iv) {
		panic(err)
	}
	return err
}

// notifyLocked wakes everything waiting on changed().
func (o *Orchestrator) notifyLocked() {
	close(o.sig)
	o.sig = make(chan struct{})
}

func (o *Orchestrator) changed() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sig
}

func (o *Orchestrator) publishLocked(u Update) {
	if o.closed {
		return
	}
	o.obs.publish(u)
}

// Close cancels any outstanding request and stops observer delivery.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	if o.cancelHand != nil {
		o.cancelHand()
	}
	o.mu.Unlock()
	o.obs.close()
}

// ------------------------------ read side ----------------------------------

// Snapshot returns a deep copy of the current state.
func (o *Orchestrator) Snapshot() (*GameState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == nil {
		return nil, ErrNoHand
	}
	return o.state.Clone(), nil
}

// Log returns the full move history in order.
func (o *Orchestrator) Log() []LogEntry { return o.log.Entries() }

// GameLog exposes the underlying log for incremental readers.
func (o *Orchestrator) GameLog() *GameLog { return o.log }

// View returns seat's information-hiding view, including its legal moves.
func (o *Orchestrator) View(seat Seat) (SeatView, error) {
	if !seat.Valid() {
		return SeatView{}, fmt.Errorf("invalid seat %d", seat)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == nil {
		return SeatView{}, ErrNoHand
	}
	return NewSeatView(o.state, seat, o.legalLocked(seat)), nil
}

// LegalMoves lists seat's legal moves right now.
func (o *Orchestrator) LegalMoves(seat Seat) ([]Move, error) {
	if !seat.Valid() {
		return nil, fmt.Errorf("invalid seat %d", seat)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == nil {
		return nil, ErrNoHand
	}
	return o.legalLocked(seat), nil
}

func (o *Orchestrator) legalLocked(seat Seat) []Move {
	if o.state.Phase == PhaseHandComplete || seat != o.state.CurrentTurn {
		return []Move{}
	}
	return o.rules.LegalMoves(o.state, seat)
}

// Roster returns the seat assignments.
func (o *Orchestrator) Roster() Roster { return o.roster }

// Generation returns the current hand generation (0 before the first hand).
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// InFlight reports the turn currently awaiting its provider, if any.
func (o *Orchestrator) InFlight() (TurnKey, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight == nil {
		return TurnKey{}, false
	}
	return *o.inFlight, true
}
