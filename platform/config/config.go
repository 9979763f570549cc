// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the background job scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetScoreDecayInterval() time.Duration
	GetJourneyRefreshInterval() time.Duration
}

// ScoringConfig provides tunables for the scoring engine.
type ScoringConfig interface {
	GetDefaultDecayRate() float64
}

// Config holds all application configuration loaded from environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL               string
	RedisTLSInsecure       bool
	AsynqQueueName         string
	AsynqConcurrency       int
	ScoreDecayInterval     time.Duration
	JourneyRefreshInterval time.Duration

	DefaultDecayRate float64
}

// Load reads configuration from the environment, consulting a .env file when
// present. Missing required values produce an error rather than a fallback.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		JWTAccessSecret:        os.Getenv("JWT_ACCESS_SECRET"),
		CORSAllowAll:           getBoolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:            splitCSV(getEnv("CORS_ORIGINS", "")),
		CORSAllowCreds:         getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:               os.Getenv("REDIS_URL"),
		RedisTLSInsecure:       getBoolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "tracking"),
		AsynqConcurrency:       getIntEnv("ASYNQ_CONCURRENCY", 10),
		ScoreDecayInterval:     getDurationEnv("SCORE_DECAY_INTERVAL", 24*time.Hour),
		JourneyRefreshInterval: getDurationEnv("JOURNEY_REFRESH_INTERVAL", 6*time.Hour),
		DefaultDecayRate:       getFloatEnv("SCORE_DECAY_RATE", 0.1),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" && !strings.EqualFold(cfg.Env, "development") {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}

	return cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection string.
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// GetJWTAccessSecret returns the JWT access token secret.
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// GetHTTPAddr returns the HTTP listen address.
func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }

// GetCORSAllowAll reports whether all origins are allowed.
func (c *Config) GetCORSAllowAll() bool { return c.CORSAllowAll }

// GetCORSOrigins returns the allowed CORS origins.
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// GetCORSAllowCreds reports whether CORS credentials are allowed.
func (c *Config) GetCORSAllowCreds() bool { return c.CORSAllowCreds }

// GetRedisURL returns the Redis connection string for the scheduler.
func (c *Config) GetRedisURL() string { return c.RedisURL }

// GetRedisTLSInsecure reports whether Redis TLS verification is skipped.
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// GetAsynqQueueName returns the asynq queue name.
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }

// GetAsynqConcurrency returns the asynq worker concurrency.
func (c *Config) GetAsynqConcurrency() int { return c.AsynqConcurrency }

// GetScoreDecayInterval returns how often score decay runs.
func (c *Config) GetScoreDecayInterval() time.Duration { return c.ScoreDecayInterval }

// GetJourneyRefreshInterval returns how often journey rollups are refreshed.
func (c *Config) GetJourneyRefreshInterval() time.Duration { return c.JourneyRefreshInterval }

// GetDefaultDecayRate returns the default score decay per day of inactivity.
func (c *Config) GetDefaultDecayRate() float64 { return c.DefaultDecayRate }

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloatEnv(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
