// internal/config/config.go
//
// Environment-driven configuration for the Pidro server.
// Responsibilities:
//   - Read every setting from the environment (main loads .env first via godotenv).
//   - Apply defaults so a bare `go run .` starts a playable table.
//   - Parse the default seat roster ("human,anthropic,human,openai").
//
// Notes:
//   - Malformed numeric/duration values fall back to the default with a warning.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/provider"
)

// Config holds all server settings.
type Config struct {
	Port             string
	LogLevel         string
	ClientOrigin     string
	JWTSecret        string
	DatabaseURL      string
	DealSalt         string
	MatchTarget      int
	StrictInvariants bool

	Seats     game.Roster
	AIPolicy  provider.Policy
	AIDefault game.AIConfig

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	AnthropicKey     string
	AnthropicModel   string
	AnthropicBaseURL string

	LuaBotScript string
}

const defaultSeats = "human,anthropic,human,openai"

// Load reads the configuration from the environment.
func Load() (Config, error) {
	c := Config{
		Port:             getEnv("PORT", "5175"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:        getEnv("JWT_SECRET", "dev_secret_change_me"),
		DatabaseURL:      getEnv("DATABASE_URL", "sqlite://./data/pidro.db"),
		DealSalt:         getEnv("DEAL_SALT", "pidro-dev-salt"),
		MatchTarget:      getInt("MATCH_TARGET", 62),
		StrictInvariants: getBool("STRICT_INVARIANTS", false),
		AIPolicy: provider.Policy{
			Timeout:  getDuration("AI_TIMEOUT", 10*time.Second),
			Retries:  getInt("AI_RETRIES", 1),
			Fallback: provider.Fallback(getEnv("AI_FALLBACK", string(provider.FallbackRandom))),
		},
		AIDefault: game.AIConfig{
			Temperature: getFloat("AI_TEMPERATURE", 0.7),
			MaxTokens:   getInt("AI_MAX_TOKENS", 64),
		},
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   os.Getenv("ANTHROPIC_MODEL"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		LuaBotScript:     os.Getenv("LUA_BOT_SCRIPT"),
	}

	switch c.AIPolicy.Fallback {
	case provider.FallbackRandom, provider.FallbackFail:
	default:
		return c, fmt.Errorf("AI_FALLBACK: unknown value %q", c.AIPolicy.Fallback)
	}
	if r := c.AIPolicy.Retries; r < 0 || r > provider.MaxRetries {
		return c, fmt.Errorf("AI_RETRIES: %d out of range 0..%d", r, provider.MaxRetries)
	}

	seats, err := ParseSeats(getEnv("TABLE_SEATS", defaultSeats), c.AIDefault)
	if err != nil {
		return c, fmt.Errorf("TABLE_SEATS: %w", err)
	}
	c.Seats = seats
	return c, nil
}

// ParseSeats reads a comma separated roster of four entries. Each entry is
// "human" or an AI backend name, optionally with a model: "openai:gpt-4o".
func ParseSeats(list string, ai game.AIConfig) (game.Roster, error) {
	var r game.Roster
	parts := strings.Split(list, ",")
	if len(parts) != 4 {
		return r, fmt.Errorf("want 4 seats, got %d", len(parts))
	}
	for i, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		seat := game.Seat(i)
		if p == "" {
			return r, fmt.Errorf("seat %s is empty", seat.Position())
		}
		if p == string(game.KindHuman) {
			r[i] = game.Player{ID: strings.ToLower(seat.Position()), Name: seat.Position(), Kind: game.KindHuman}
			continue
		}
		cfg := ai
		name, model, _ := strings.Cut(p, ":")
		cfg.Provider = name
		if model != "" {
			cfg.Model = model
		}
		r[i] = game.Player{ID: strings.ToLower(seat.Position()), Name: seat.Position(), Kind: game.KindAI, AI: &cfg}
	}
	return r, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer; using default")
		return def
	}
	return n
}

func getFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid number; using default")
		return def
	}
	return f
}

func getBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid boolean; using default")
		return def
	}
	return b
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid duration; using default")
		return def
	}
	return d
}
