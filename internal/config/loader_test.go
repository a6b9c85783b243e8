package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default().Fetch.Timeout, cfg.Fetch.Timeout)
	assert.Equal(t, Default().Cache.Backend, cfg.Cache.Backend)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("LLMSTXT_FETCH_MAX_RETRIES", "7")
	t.Setenv("LLMSTXT_CACHE_TTL", "2h")
	t.Setenv("LLMSTXT_CACHE_BACKEND", "none")
	t.Setenv("LLMSTXT_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Fetch.MaxRetries)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalidBackendFromEnvironment(t *testing.T) {
	t.Setenv("LLMSTXT_CACHE_BACKEND", "memcached")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memcached")
}
