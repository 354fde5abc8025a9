package api

import (
	"strings"

	taskdomain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
	// TokenContextKey holds the raw bearer token, needed to revoke it on logout.
	TokenContextKey = "token"
)

// notAuthenticated is the only failure a caller sees from AuthMiddleware.
func notAuthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(Envelope{
		Error: taskdomain.ErrNotAuthenticated.Message,
	})
}

// AuthMiddleware creates a middleware that resolves the bearer token to an identity.
func AuthMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return notAuthenticated(c)
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return notAuthenticated(c)
		}

		claims, err := authAdapter.ValidateToken(c.UserContext(), token)
		if err != nil || claims == nil || claims.UserID == "" {
			return notAuthenticated(c)
		}

		c.Locals(UserContextKey, claims)
		c.Locals(TokenContextKey, token)

		return c.Next()
	}
}

// identityFrom returns the caller resolved by AuthMiddleware, or Anonymous.
func identityFrom(c *fiber.Ctx) taskdomain.Identity {
	claims, ok := c.Locals(UserContextKey).(*user.Claims)
	if !ok || claims == nil {
		return taskdomain.Anonymous
	}
	return taskdomain.Identity(claims.UserID)
}

// userKey keys the per-user rate limit.
func userKey(c *fiber.Ctx) string {
	return identityFrom(c).String()
}
