// internal/provider/ai.go
//
// Move provider for AI seats.
// Responsibilities:
//   - Build the prompt for the seat's view and ask the configured Backend.
//   - Bound the whole exchange by Policy.Timeout, retrying at most Policy.Retries times.
//   - Classify failures (timeout / transport / parse) and log them with the raw answer.
//   - Fall back to a uniformly random legal move when the policy allows it.
//
// Notes:
//   - Cancellation of the caller's context (hand reset) is returned as-is,
//     never turned into a fallback move.

package provider

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/game"
)

// Fallback selects what happens when the backend fails.
type Fallback string

const (
	FallbackRandom Fallback = "random"
	FallbackFail   Fallback = "fail"
)

// MaxRetries is the most extra attempts a Policy may allow.
const MaxRetries = 1

// Policy bounds an AI request.
type Policy struct {
	Timeout  time.Duration
	Retries  int
	Fallback Fallback
}

// DefaultPolicy: 10s budget, one retry, random legal fallback.
func DefaultPolicy() Policy {
	return Policy{Timeout: 10 * time.Second, Retries: 1, Fallback: FallbackRandom}
}

// AI asks a Backend for moves.
type AI struct {
	backend Backend
	config  game.AIConfig
	policy  Policy

	mu  sync.Mutex
	rng *rand.Rand
}

var _ game.MoveProvider = (*AI)(nil)

// NewAIOptions configures NewAI.
type NewAIOptions struct {
	Backend Backend
	Config  game.AIConfig
	Policy  Policy
	Rand    *rand.Rand
}

// NewAI creates an AI provider. Zero policy fields take DefaultPolicy values;
// Retries is clamped to 0..MaxRetries.
func NewAI(opts NewAIOptions) *AI {
	def := DefaultPolicy()
	p := opts.Policy
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.Retries > MaxRetries {
		p.Retries = MaxRetries
	}
	if p.Fallback == "" {
		p.Fallback = def.Fallback
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AI{backend: opts.Backend, config: opts.Config, policy: p, rng: rng}
}

// RequestMove asks the backend, validates the answer against legal and
// falls back per policy.
func (a *AI) RequestMove(ctx context.Context, view game.SeatView, legal []game.Move) (game.Decision, error) {
	if len(legal) == 0 {
		return game.Decision{}, ErrNoLegalMoves
	}
	name := a.backend.Name()
	req := BuildRequest(a.config, view, legal)

	callCtx, cancel := context.WithTimeout(ctx, a.policy.Timeout)
	defer cancel()

	var (
		lastErr error
		raw     string
	)
	for attempt := 0; attempt <= a.policy.Retries; attempt++ {
		var err error
		raw, err = a.complete(callCtx, req)
		if err == nil {
			m, perr := ParseMove(name, raw, legal)
			if perr == nil {
				return game.Decision{Move: m, Source: game.SourceAI, Provider: name}, nil
			}
			err = perr
		}
		if ctx.Err() != nil {
			return game.Decision{}, ctx.Err()
		}
		lastErr = a.classify(callCtx, err)
		log.Warn().
			Err(lastErr).
			Str("provider", name).
			Str("seat", view.Seat.Position()).
			Int("attempt", attempt+1).
			Str("raw", raw).
			Msg("AI move request failed")
		if callCtx.Err() != nil {
			break
		}
	}

	if a.policy.Fallback == FallbackFail {
		return game.Decision{}, lastErr
	}
	m := a.randomLegal(legal)
	log.Warn().
		Str("provider", name).
		Str("seat", view.Seat.Position()).
		Str("move", m.String()).
		Msg("using random legal fallback")
	return game.Decision{Move: m, Source: game.SourceFallback, Provider: name, Reason: lastErr.Error()}, nil
}

// complete returns as soon as ctx ends, even if the backend ignores it.
func (a *AI) complete(ctx context.Context, req Request) (string, error) {
	type result struct {
		raw string
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, err := a.backend.Complete(ctx, req)
		done <- result{raw: raw, err: err}
	}()
	select {
	case r := <-done:
		return r.raw, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *AI) classify(callCtx context.Context, err error) error {
	var (
		te *TransportError
		pe *ParseError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return &TimeoutError{Provider: a.backend.Name(), After: a.policy.Timeout}
	case errors.As(err, &te), errors.As(err, &pe):
		return err
	}
	return &TransportError{Provider: a.backend.Name(), Err: err}
}

func (a *AI) randomLegal(legal []game.Move) game.Move {
	a.mu.Lock()
	defer a.mu.Unlock()
	return legal[a.rng.Intn(len(legal))]
}

// Name reports the backend name.
func (a *AI) Name() string { return a.backend.Name() }
