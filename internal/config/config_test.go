package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET": "test-secret",
		"DB_USER":    "app",
		"DB_NAME":    "guestlist",
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(env.Options{Environment: baseEnv()})
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3, cfg.AdmissionMaxAttempts)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.True(t, cfg.QueueConsumerEnabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.Allows("get"))
	assert.False(t, cfg.Cache.Allows("POST"))
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.TTL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestParse_Overrides(t *testing.T) {
	vars := baseEnv()
	vars["EVENT_TIMEZONE"] = "Europe/Berlin"
	vars["REDIS_HOST"] = "cache"
	vars["REDIS_PORT"] = "6380"
	vars["RATE_LIMIT_BURST"] = "5"
	vars["RATE_LIMIT_REFILL_EVERY"] = "1m"
	vars["CACHE_METHODS"] = "GET, HEAD"
	vars["ADMISSION_MAX_ATTEMPTS"] = "0"

	cfg, err := Parse(env.Options{Environment: vars})
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Redis.Address())
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.Equal(t, 1, cfg.RateLimit.RefillTokens)
	assert.Equal(t, time.Minute, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.TTL)
	assert.True(t, cfg.Cache.Allows("HEAD"))
	assert.Equal(t, 1, cfg.AdmissionMaxAttempts)
}

func TestParse_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		vars := baseEnv()
		delete(vars, "JWT_SECRET")
		_, err := Parse(env.Options{Environment: vars})
		assert.Error(t, err)
	})
	t.Run("bad timezone", func(t *testing.T) {
		vars := baseEnv()
		vars["EVENT_TIMEZONE"] = "Mars/Olympus"
		_, err := Parse(env.Options{Environment: vars})
		assert.ErrorContains(t, err, "EVENT_TIMEZONE")

		loc, err := Config{EventTimezone: "Mars/Olympus"}.Location()
		assert.Nil(t, loc)
		assert.ErrorContains(t, err, "Mars/Olympus")
	})
}
