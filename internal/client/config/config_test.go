package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventcall-app/eventcall/internal/timex"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "main", c.Branch)
	assert.Equal(t, BackendAuto, c.Backend)
	assert.Equal(t, 30*time.Second, c.PollTimeout)
	assert.Equal(t, 2*time.Second, c.PollInterval)
	assert.Equal(t, 3, c.RetryMaxAttempts)
	assert.Equal(t, 1*time.Second, c.RetryBaseDelay)
	assert.Equal(t, 15*time.Second, c.AttemptTimeout)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, BackendAuto, cfg.Backend)
	assert.Equal(t, 30*time.Second, cfg.PollTimeout)
}

func TestApplyJson_PartialOverlayKeepsDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	demo := true
	applyJson(&cfg, &JsonConfig{
		Owner:       "acme",
		Repo:        "events",
		Tokens:      []string{"t1", "t2"},
		Demo:        &demo,
		PollTimeout: timex.Duration{Duration: 10 * time.Second},
	})

	assert.Equal(t, "acme", cfg.Owner)
	assert.Equal(t, "events", cfg.Repo)
	assert.Equal(t, []string{"t1", "t2"}, cfg.Tokens)
	assert.True(t, cfg.Demo)
	assert.Equal(t, 10*time.Second, cfg.PollTimeout)

	// untouched fields keep their defaults
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, BackendAuto, cfg.Backend)
}
