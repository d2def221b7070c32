package provider

import (
	"context"

	"github.com/robalobadob/pidro/internal/game"
)

// Request is one completion request for an AI seat.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	View        game.SeatView
	Legal       []string
}

// Backend produces a raw text answer for a Request. OpenAI, Anthropic and
// the Lua bot are interchangeable behind it.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
