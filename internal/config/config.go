// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/spendilog/internal/models"
)

// Rate cache backends.
const (
	RateCacheSQLite = "sqlite"
	RateCacheRedis  = "redis"
	RateCacheNone   = "none"
)

type Config struct {
	// HTTP Server
	Port int

	// Database
	DBPath string

	// Logging
	LogLevel string

	// Auth
	JWTSecret   string
	TokenTTL    time.Duration
	RequireAuth bool

	// Exchange rates
	RatesBase            string
	RatesAPIURL          string
	RatesMaxAge          time.Duration
	RatesRefreshInterval time.Duration
	RatesTimeout         time.Duration
	RateCache            string
	RedisAddr            string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// Missing .env is fine outside local development
	_ = godotenv.Load()

	return &Config{
		Port:   getEnvInt("PORT", 8080),
		DBPath: getEnv("DB_PATH", "./data/spendilog.db"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),
		RequireAuth: getEnvBool("REQUIRE_AUTH", true),

		RatesBase:            models.NormalizeCurrency(getEnv("RATES_BASE", "EUR")),
		RatesAPIURL:          getEnv("RATES_API_URL", "https://open.er-api.com/v6"),
		RatesMaxAge:          getEnvDuration("RATES_MAX_AGE", 24*time.Hour),
		RatesRefreshInterval: getEnvDuration("RATES_REFRESH_INTERVAL", time.Hour),
		RatesTimeout:         getEnvDuration("RATES_TIMEOUT", 10*time.Second),
		RateCache:            strings.ToLower(getEnv("RATE_CACHE", RateCacheSQLite)),
		RedisAddr:            getEnv("REDIS_ADDR", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendilog"),
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.RequireAuth && c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required when REQUIRE_AUTH is true")
	}
	if c.TokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}

	if err := models.ValidateCurrency(c.RatesBase); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rates base: %v", err))
	}
	if parsed, err := url.Parse(c.RatesAPIURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid rates API URL '%s': must be http or https", c.RatesAPIURL))
	}
	if c.RatesMaxAge < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rates max age %v: must be at least 1 minute", c.RatesMaxAge))
	}
	if c.RatesRefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rates refresh interval %v: must be at least 1 minute", c.RatesRefreshInterval))
	}
	if c.RatesTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rates timeout %v: must be positive", c.RatesTimeout))
	}

	switch c.RateCache {
	case RateCacheSQLite, RateCacheNone:
	case RateCacheRedis:
		if c.RedisAddr == "" {
			errors = append(errors, "REDIS_ADDR is required when RATE_CACHE is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid rate cache '%s': must be one of sqlite, redis, none", c.RateCache))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
