package ratelimit

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrLimiterUnavailable is returned while the breaker is open.
var ErrLimiterUnavailable = errors.New("rate limiter unavailable")

// BreakerSettings tunes the circuit breaker around a Limiter.
type BreakerSettings struct {
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout     time.Duration
	MaxRequests uint32
}

// DefaultBreakerSettings opens after 5 consecutive failures for 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// BreakerLimiter stops calling a failing backend until it recovers.
type BreakerLimiter struct {
	next    Limiter
	breaker *gobreaker.CircuitBreaker[*Result]
}

var _ Limiter = (*BreakerLimiter)(nil)

// NewBreakerLimiter wraps next with a named circuit breaker.
func NewBreakerLimiter(name string, next Limiter, settings BreakerSettings) *BreakerLimiter {
	breaker := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[rate-limiter] Circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	})
	return &BreakerLimiter{next: next, breaker: breaker}
}

func (l *BreakerLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	result, err := l.breaker.Execute(func() (*Result, error) {
		return l.next.Allow(ctx, key)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrLimiterUnavailable
	}
	return result, err
}

func (l *BreakerLimiter) Limit() int {
	return l.next.Limit()
}

// State reports the breaker state for health checks.
func (l *BreakerLimiter) State() string {
	return l.breaker.State().String()
}
