package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLimiter allows the first limit calls per key, then rejects.
type countingLimiter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
	err    error
	keys   []string
}

func newCountingLimiter(limit int) *countingLimiter {
	return &countingLimiter{limit: limit, counts: make(map[string]int)}
}

func (l *countingLimiter) Allow(_ context.Context, key string) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	if l.counts[key] >= l.limit {
		return &Result{Allowed: false, ResetAt: time.Now().Add(time.Minute), RetryAfter: 42 * time.Second}, nil
	}
	l.counts[key]++
	return &Result{Allowed: true, Remaining: l.limit - l.counts[key], ResetAt: time.Now().Add(time.Minute)}, nil
}

func (l *countingLimiter) Limit() int { return l.limit }

func newTestApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/test", handler, func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func userFromHeader(c *fiber.Ctx) string {
	return c.Get("X-User")
}

func TestMiddleware_UserRateLimit(t *testing.T) {
	user := newCountingLimiter(2)
	ip := newCountingLimiter(100)
	mw := NewMiddleware(user, ip)
	app := newTestApp(mw.UserRateLimit(userFromHeader))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-User", "alice")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Reset"))
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-User", "alice")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Rate limit exceeded. Please retry after 42 seconds.", body["error"])

	// Another identity has its own budget.
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-User", "bob")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, ip.keys)
}

func TestMiddleware_UserRateLimitFallsBackToIP(t *testing.T) {
	user := newCountingLimiter(10)
	ip := newCountingLimiter(10)
	mw := NewMiddleware(user, ip)
	app := newTestApp(mw.UserRateLimit(userFromHeader))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, user.keys)
	require.Len(t, ip.keys, 1)
	assert.Contains(t, ip.keys[0], "ip:")
}

func TestMiddleware_IPRateLimit(t *testing.T) {
	ip := newCountingLimiter(1)
	app := newTestApp(NewMiddleware(newCountingLimiter(10), ip).IPRateLimit())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	user := newCountingLimiter(1)
	user.err = errors.New("connection refused")
	app := newTestApp(NewMiddleware(user, newCountingLimiter(1)).UserRateLimit(userFromHeader))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-User", "alice")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "connection refused", resp.Header.Get("X-RateLimit-Error"))
	}
}

func TestSendRateLimitExceeded_MinimumRetry(t *testing.T) {
	app := fiber.New()
	app.Get("/test", func(c *fiber.Ctx) error {
		return sendRateLimitExceeded(c, &Result{RetryAfter: 200 * time.Millisecond})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/test", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}
