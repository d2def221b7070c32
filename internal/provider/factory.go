package provider

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/robalobadob/pidro/internal/game"
)

// Deps carries what ForRoster needs to build seat providers.
type Deps struct {
	Human    *Human
	Backends map[string]Backend
	Policy   Policy
	// Seed seeds the fallback RNG of each AI seat; zero uses the clock.
	Seed int64
}

// ForPlayer resolves a roster entry to its MoveProvider.
func ForPlayer(p game.Player, deps Deps, rng *rand.Rand) (game.MoveProvider, error) {
	switch p.Kind {
	case game.KindHuman:
		if deps.Human == nil {
			return nil, fmt.Errorf("human seat %q without a human provider", p.Name)
		}
		return deps.Human, nil
	case game.KindAI:
		if p.AI == nil {
			return nil, fmt.Errorf("AI seat %q has no config", p.Name)
		}
		b, ok := deps.Backends[p.AI.Provider]
		if !ok || b == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, p.AI.Provider)
		}
		return NewAI(NewAIOptions{Backend: b, Config: *p.AI, Policy: deps.Policy, Rand: rng}), nil
	}
	return nil, fmt.Errorf("seat %q: unknown player type %q", p.Name, p.Kind)
}

// ForRoster builds the four seat providers of a table.
func ForRoster(r game.Roster, deps Deps) ([4]game.MoveProvider, error) {
	var out [4]game.MoveProvider
	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	for i, p := range r {
		mp, err := ForPlayer(p, deps, rand.New(rand.NewSource(seed+int64(i))))
		if err != nil {
			return out, fmt.Errorf("%s: %w", game.Seat(i).Position(), err)
		}
		out[i] = mp
	}
	return out, nil
}
