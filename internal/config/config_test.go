package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/provider"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "TABLE_SEATS", "AI_TIMEOUT", "AI_RETRIES", "AI_FALLBACK", "MATCH_TARGET", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5175", c.Port)
	assert.Equal(t, "sqlite://./data/pidro.db", c.DatabaseURL)
	assert.Equal(t, 62, c.MatchTarget)
	assert.Equal(t, provider.Policy{Timeout: 10 * time.Second, Retries: 1, Fallback: provider.FallbackRandom}, c.AIPolicy)

	assert.Equal(t, game.KindHuman, c.Seats[0].Kind)
	assert.Equal(t, "anthropic", c.Seats[1].AI.Provider)
	assert.Equal(t, game.KindHuman, c.Seats[2].Kind)
	assert.Equal(t, "openai", c.Seats[3].AI.Provider)
	assert.Equal(t, 0.7, c.Seats[3].AI.Temperature)
	assert.Equal(t, "West", c.Seats[3].Name)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AI_TIMEOUT", "250ms")
	t.Setenv("AI_RETRIES", "0")
	t.Setenv("AI_FALLBACK", "fail")
	t.Setenv("TABLE_SEATS", "lua, lua, openai:gpt-4o, human")
	t.Setenv("MATCH_TARGET", "not-a-number")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.AIPolicy.Timeout)
	assert.Equal(t, 0, c.AIPolicy.Retries)
	assert.Equal(t, provider.FallbackFail, c.AIPolicy.Fallback)
	assert.Equal(t, 62, c.MatchTarget)
	assert.Equal(t, "gpt-4o", c.Seats[2].AI.Model)
	assert.Equal(t, "lua", c.Seats[0].AI.Provider)
	assert.NotSame(t, c.Seats[0].AI, c.Seats[1].AI)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("AI_FALLBACK", "pray")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AI_FALLBACK", "")
	t.Setenv("AI_RETRIES", "5")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("AI_RETRIES", "1")
	t.Setenv("TABLE_SEATS", "human,human,human")
	_, err = Load()
	assert.Error(t, err)
}
