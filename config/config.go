package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingJWTSecret is returned when JWT_SECRET_KEY is empty.
var ErrMissingJWTSecret = errors.New("JWT_SECRET_KEY must be set")

// Config holds application configuration.
type Config struct {
	// Application
	HTTPPort        int
	LogLevel        string
	ShutdownTimeout time.Duration

	// Task storage
	TaskStoreDriver string
	TaskDBPath      string

	// Auth
	AuthDBPath    string
	JWTSecretKey  string
	JWTIssuer     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	// Redis (rate limiting and token revocation); empty disables both.
	RedisAddr string

	// Rate limits, requests per minute
	RateLimitUserRPM int
	RateLimitIPRPM   int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 3000),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		TaskStoreDriver: strings.ToLower(getEnv("TASK_STORE_DRIVER", "sqlite")),
		TaskDBPath:      getEnv("TASK_DB_PATH", "tasks.db"),

		AuthDBPath:    getEnv("AUTH_DB_PATH", "users.db"),
		JWTSecretKey:  getEnv("JWT_SECRET_KEY", ""),
		JWTIssuer:     getEnv("JWT_ISSUER", "task-manager"),
		JWTAccessTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		RateLimitUserRPM: getEnvInt("RATE_LIMIT_USER_RPM", 300),
		RateLimitIPRPM:   getEnvInt("RATE_LIMIT_IP_RPM", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that would prevent startup.
func (c *Config) Validate() error {
	switch c.TaskStoreDriver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown TASK_STORE_DRIVER %q (want memory or sqlite)", c.TaskStoreDriver)
	}
	if c.JWTSecretKey == "" {
		return ErrMissingJWTSecret
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.RateLimitUserRPM <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_USER_RPM %d (must be positive)", c.RateLimitUserRPM)
	}
	if c.RateLimitIPRPM <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_IP_RPM %d (must be positive)", c.RateLimitIPRPM)
	}
	return nil
}

// QuietLogs reports whether LOG_LEVEL asks for errors only.
func (c *Config) QuietLogs() bool {
	return strings.EqualFold(c.LogLevel, "error")
}

// RateLimitEnabled reports whether a Redis address was configured.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
// Logs a warning if the value cannot be parsed as an integer.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
		log.Printf("Warning: invalid integer value for %s: %q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %q, using default %s", key, value, defaultValue)
	}
	return defaultValue
}
