// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server settings.
type Config struct {
	ServerPort string

	RedisAddr string
	RedisPass string
	RedisDB   int

	SquareBaseURL     string
	SquareAccessToken string

	RetryMaxRetries int
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
	RetryJitter     time.Duration

	InsightTTL time.Duration
}

// Load reads the configuration from environment variables, applying
// defaults for anything unset. An empty REDIS_ADDR selects the in-memory
// store; an empty SQUARE_ACCESS_TOKEN disables the POS client.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASSWORD", ""),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		SquareBaseURL:     getEnv("SQUARE_BASE_URL", ""),
		SquareAccessToken: getEnv("SQUARE_ACCESS_TOKEN", ""),

		RetryMaxRetries: getEnvInt("RETRY_MAX_RETRIES", 3),
		RetryBaseDelay:  getEnvDuration("RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:   getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),
		RetryJitter:     getEnvDuration("RETRY_JITTER", 250*time.Millisecond),

		InsightTTL: getEnvDuration("INSIGHT_TTL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
