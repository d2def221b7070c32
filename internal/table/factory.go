package table

import (
	"time"

	"github.com/robalobadob/pidro/internal/archive"
	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/provider"
	"github.com/robalobadob/pidro/internal/rules"
)

// Factory builds tables that share server-wide settings.
type Factory struct {
	DefaultSeats     game.Roster
	Backends         map[string]provider.Backend
	Policy           provider.Policy
	MatchTarget      int
	DealSalt         string
	Archive          chan<- archive.Record
	StrictInvariants bool
	Clock            func() time.Time
}

// New creates a table. A nil seats uses DefaultSeats.
func (f *Factory) New(seats *game.Roster, passcode string) (*Table, error) {
	roster := f.DefaultSeats
	if seats != nil {
		roster = *seats
	}
	rs := rules.New()
	if f.MatchTarget > 0 {
		rs.Target = f.MatchTarget
	}
	return New(Options{
		Roster:           roster,
		Rules:            rs,
		Backends:         f.Backends,
		Policy:           f.Policy,
		Passcode:         passcode,
		DealSalt:         f.DealSalt,
		Archive:          f.Archive,
		StrictInvariants: f.StrictInvariants,
		Clock:            f.Clock,
	})
}
