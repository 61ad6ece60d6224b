package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.SquareAccessToken)
	assert.Equal(t, 3, cfg.RetryMaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 5*time.Minute, cfg.InsightTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RETRY_MAX_RETRIES", "5")
	t.Setenv("RETRY_BASE_DELAY", "200ms")
	t.Setenv("INSIGHT_TTL", "1m")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5, cfg.RetryMaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, time.Minute, cfg.InsightTTL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RETRY_MAX_RETRIES", "not-a-number")
	t.Setenv("RETRY_BASE_DELAY", "soon")

	cfg := Load()

	assert.Equal(t, 3, cfg.RetryMaxRetries)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
}
