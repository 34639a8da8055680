package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "MODEL_PATH", "AUTH_MODE", "USE_AI", "MARKOV_ORDER", "EVOLUTION_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "markov_model.json"), cfg.ModelPath)
	assert.Equal(t, 2, cfg.MarkovOrder)
	assert.True(t, cfg.UseAI)
	assert.Equal(t, time.Hour, cfg.EvolutionInterval)
	assert.False(t, cfg.IsJWTMode())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/tidal")
	t.Setenv("MODEL_PATH", "")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("USE_AI", "false")
	t.Setenv("MARKOV_ORDER", "3")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("EVOLUTION_INTERVAL", "15m")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	assert.Equal(t, filepath.Join("/srv/tidal", "markov_model.json"), cfg.ModelPath)
	assert.True(t, cfg.IsJWTMode())
	assert.False(t, cfg.UseAI)
	assert.Equal(t, 3, cfg.MarkovOrder)
	assert.Equal(t, uint64(42), cfg.RandomSeed)
	assert.Equal(t, 15*time.Minute, cfg.EvolutionInterval)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MARKOV_ORDER", "two")
	t.Setenv("EVOLUTION_INTERVAL", "soon")
	cfg := Load()
	assert.Equal(t, 2, cfg.MarkovOrder)
	assert.Equal(t, time.Hour, cfg.EvolutionInterval)
}
