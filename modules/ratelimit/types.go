// Package ratelimit provides per-identity and per-IP request limiting backed by Redis.
package ratelimit

import (
	"context"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request is rejected.
	RetryAfter time.Duration
}

// Limiter is the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a request identified by key is allowed under the rate limit.
	Allow(ctx context.Context, key string) (*Result, error)
	Limit() int
}

// MiddlewareConfig configures the rate limiting middleware.
type MiddlewareConfig struct {
	// UserConfig limits authenticated task traffic per identity.
	UserConfig Config
	// IPConfig limits unauthenticated auth traffic per client IP.
	IPConfig Config
	// KeyPrefix is the prefix for all rate limit keys in Redis.
	KeyPrefix string
}

// DefaultMiddlewareConfig returns 300 requests per minute per identity and 30 per IP.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		UserConfig: Config{
			RequestsPerWindow: 300,
			WindowSize:        time.Minute,
		},
		IPConfig: Config{
			RequestsPerWindow: 30,
			WindowSize:        time.Minute,
		},
		KeyPrefix: "ratelimit:",
	}
}
