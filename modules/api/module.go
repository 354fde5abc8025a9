package api

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/notification"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP API module.
type APIModule struct {
	app             *fiber.App
	port            int
	taskAdapter     task.TaskPort
	authAdapter     auth.AuthPort
	notifyAdapter   notification.NotificationPort
	rateLimitModule *ratelimit.Module
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule listening on port.
func NewModule(port int) *APIModule {
	return &APIModule{port: port}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"task", "auth", "notification"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		m.taskAdapter = task.NewTaskAdapter(container)
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "notification":
		m.notifyAdapter = notification.NewNotificationAdapter(container)
	}
}

// SetRateLimitModule enables rate limiting on the auth and task routes.
func (m *APIModule) SetRateLimitModule(rlm *ratelimit.Module) {
	m.rateLimitModule = rlm
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	switch {
	case m.taskAdapter == nil:
		return fmt.Errorf("task dependency not set")
	case m.authAdapter == nil:
		return fmt.Errorf("auth dependency not set")
	case m.notifyAdapter == nil:
		return fmt.Errorf("notification dependency not set")
	}

	m.app = m.newApp()

	addr := fmt.Sprintf(":%d", m.port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":          m.port,
			"rate_limiting": m.rateLimitModule != nil,
		},
	}
}

// newApp builds the Fiber app with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	m.setupRoutes(app)
	return app
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	handlers := NewHandlers(m.taskAdapter, m.authAdapter, m.notifyAdapter)
	requireAuth := AuthMiddleware(m.authAdapter)
	ipLimit := m.limit(func(mw *ratelimit.Middleware) fiber.Handler { return mw.IPRateLimit() })
	userLimit := m.limit(func(mw *ratelimit.Middleware) fiber.Handler { return mw.UserRateLimit(userKey) })

	app.Get("/health", handlers.Health)

	v1 := app.Group("/api/v1")

	// Public auth routes are limited per client IP.
	authRoutes := v1.Group("/auth")
	authRoutes.Post("/signup", ipLimit, handlers.Signup)
	authRoutes.Post("/login", ipLimit, handlers.Login)
	authRoutes.Post("/refresh", ipLimit, handlers.Refresh)
	authRoutes.Post("/logout", requireAuth, handlers.Logout)
	authRoutes.Get("/me", requireAuth, handlers.Me)

	tasks := v1.Group("/tasks", requireAuth, userLimit)
	tasks.Get("/", handlers.ListTasks)
	tasks.Post("/", handlers.CreateTask)
	tasks.Put("/:id", handlers.UpdateTask)
	tasks.Patch("/:id/complete", handlers.CompleteTask)
	tasks.Delete("/:id", handlers.DeleteTask)

	v1.Get("/notifications", requireAuth, userLimit, handlers.Notifications)
}

// limit resolves the rate limit middleware per request, so the API works
// whether or not the rate limiter is registered or started.
func (m *APIModule) limit(pick func(*ratelimit.Middleware) fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.rateLimitModule == nil {
			return c.Next()
		}
		mw := m.rateLimitModule.GetMiddleware()
		if mw == nil {
			return c.Next()
		}
		return pick(mw)(c)
	}
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal error occurred"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(Envelope{Error: message})
}
