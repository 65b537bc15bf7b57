package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCacheConfigDefaults(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "")
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "cache", cfg.Prefix)
}

func TestLoadRateLimitConfigScopeOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "60")
	t.Setenv("RATE_LIMIT_PREDICTIONS_CAPACITY", "5")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig("predictions")
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, "rl:predictions", cfg.Prefix)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	// TTL is raised to five refill intervals.
	assert.Equal(t, 10*time.Second, cfg.TTL)

	global := LoadRateLimitConfig("")
	assert.Equal(t, 60, global.Capacity)
	assert.Equal(t, "rl", global.Prefix)
}

func TestRoomsCacheTTL(t *testing.T) {
	t.Setenv("ROOMS_CACHE_TTL", "")
	assert.Equal(t, 10*time.Minute, LoadRoomsCacheTTL())
	t.Setenv("ROOMS_CACHE_TTL", "90s")
	assert.Equal(t, 90*time.Second, LoadRoomsCacheTTL())
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "Asia/Riyadh"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Riyadh", loc.String())

	_, err = Config{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}

func TestCronSpec(t *testing.T) {
	assert.Equal(t, "@daily", cronSpec("TOKEN_PURGE_CRON_UNSET_FOR_TEST", "@daily"))

	t.Setenv("TOKEN_PURGE_CRON", "")
	assert.Equal(t, "", cronSpec("TOKEN_PURGE_CRON", "@daily"))

	t.Setenv("TOKEN_PURGE_CRON", "0 4 * * *")
	assert.Equal(t, "0 4 * * *", cronSpec("TOKEN_PURGE_CRON", "@daily"))
}
