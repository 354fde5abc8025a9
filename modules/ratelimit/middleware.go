package ratelimit

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// KeyFunc extracts the rate limit key from a request; "" means no key.
type KeyFunc func(c *fiber.Ctx) string

// Middleware provides rate limiting middleware for Fiber.
type Middleware struct {
	userLimiter Limiter
	ipLimiter   Limiter
}

// NewMiddleware creates rate limiting middleware over the given limiters.
func NewMiddleware(userLimiter, ipLimiter Limiter) *Middleware {
	return &Middleware{
		userLimiter: userLimiter,
		ipLimiter:   ipLimiter,
	}
}

// IPRateLimit returns middleware that limits requests by client IP.
func (m *Middleware) IPRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Unable to determine client IP address",
			})
		}
		return m.limit(c, m.ipLimiter, "ip:"+ip)
	}
}

// UserRateLimit returns middleware that limits requests by the key returned
// from key, falling back to the client IP when it is empty.
func (m *Middleware) UserRateLimit(key KeyFunc) fiber.Handler {
	ipLimit := m.IPRateLimit()
	return func(c *fiber.Ctx) error {
		userID := key(c)
		if userID == "" {
			return ipLimit(c)
		}
		return m.limit(c, m.userLimiter, "user:"+userID)
	}
}

func (m *Middleware) limit(c *fiber.Ctx, limiter Limiter, key string) error {
	result, err := limiter.Allow(c.UserContext(), key)
	if err != nil {
		// Fail open: a limiter outage must not take the API down.
		log.Printf("[rate-limiter] Allowing request for %s: %v", key, err)
		c.Set("X-RateLimit-Error", err.Error())
		return c.Next()
	}

	setRateLimitHeaders(c, result, limiter.Limit())

	if !result.Allowed {
		return sendRateLimitExceeded(c, result)
	}

	return c.Next()
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *fiber.Ctx, result *Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// sendRateLimitExceeded sends a 429 Too Many Requests envelope.
func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"error":   fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
	})
}
