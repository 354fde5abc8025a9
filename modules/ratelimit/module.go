package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// ModuleConfig configures the rate limiting module.
type ModuleConfig struct {
	RedisAddr  string
	Middleware MiddlewareConfig
	Breaker    BreakerSettings
}

// Module provides rate limiting middleware as a mono module.
type Module struct {
	config      ModuleConfig
	client      *redis.Client
	userLimiter *BreakerLimiter
	ipLimiter   *BreakerLimiter
	middleware  *Middleware
}

var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new rate limiting module.
func NewModule(config ModuleConfig) *Module {
	return &Module{config: config}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rate-limiter"
}

// Start connects to Redis and builds the middleware. An unreachable Redis is
// logged, not fatal: the breaker trips and requests are let through.
func (m *Module) Start(ctx context.Context) error {
	if m.config.RedisAddr == "" {
		return fmt.Errorf("rate limiter requires a Redis address")
	}

	m.client = redis.NewClient(&redis.Options{
		Addr: m.config.RedisAddr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.client.Ping(pingCtx).Err(); err != nil {
		log.Printf("[rate-limiter] Warning: Redis at %s unavailable: %v", m.config.RedisAddr, err)
	} else {
		log.Printf("[rate-limiter] Connected to Redis at %s", m.config.RedisAddr)
	}

	prefix := m.config.Middleware.KeyPrefix
	m.userLimiter = NewBreakerLimiter("ratelimit-user",
		NewSlidingWindowLimiter(m.client, m.config.Middleware.UserConfig, prefix), m.config.Breaker)
	m.ipLimiter = NewBreakerLimiter("ratelimit-ip",
		NewSlidingWindowLimiter(m.client, m.config.Middleware.IPConfig, prefix), m.config.Breaker)
	m.middleware = NewMiddleware(m.userLimiter, m.ipLimiter)

	log.Println("[rate-limiter] Module started")
	return nil
}

// Stop stops the module and closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			log.Printf("[rate-limiter] Error closing Redis connection: %v", err)
		}
	}
	log.Println("[rate-limiter] Module stopped")
	return nil
}

// GetMiddleware returns the rate limiting middleware; nil before Start.
func (m *Module) GetMiddleware() *Middleware {
	return m.middleware
}

// Health reports Redis reachability. Rate limiting fails open, so an
// unreachable Redis is degraded rather than unhealthy.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "Redis client not initialized",
		}
	}

	details := map[string]any{
		"redis":        m.config.RedisAddr,
		"user_breaker": m.userLimiter.State(),
		"ip_breaker":   m.ipLimiter.State(),
		"user_rpm":     m.config.Middleware.UserConfig.RequestsPerWindow,
		"ip_rpm":       m.config.Middleware.IPConfig.RequestsPerWindow,
	}

	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: fmt.Sprintf("degraded: redis ping failed: %v", err),
			Details: details,
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
