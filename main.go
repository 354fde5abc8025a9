// Task Manager - a modular monolith serving per-user to-do lists over HTTP.
//
// Modules:
// - task: task store with ownership and validation (SQLite or in-memory)
// - auth: signup, login and JWT sessions with a revocation list
// - notification: per-user notices fed by task events
// - rate-limiter: Redis sliding-window limits (only when REDIS_ADDR is set)
// - api: Fiber HTTP binding
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/notification"
	"github.com/example/task-manager/modules/ratelimit"
	"github.com/example/task-manager/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Task Manager ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if cfg.QuietLogs() {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecretKey)
	jwtConfig.Issuer = cfg.JWTIssuer
	jwtConfig.AccessTokenDuration = cfg.JWTAccessTTL
	jwtConfig.RefreshTokenDuration = cfg.JWTRefreshTTL

	apiModule := api.NewModule(cfg.HTTPPort)

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(task.NewModule(task.ModuleConfig{
		Driver: cfg.TaskStoreDriver,
		DBPath: cfg.TaskDBPath,
	}))
	app.Register(notification.NewModule())
	app.Register(auth.NewModule(auth.ModuleConfig{
		DBPath:    cfg.AuthDBPath,
		JWT:       jwtConfig,
		RedisAddr: cfg.RedisAddr,
	}))

	if cfg.RateLimitEnabled() {
		rateLimitModule := ratelimit.NewModule(ratelimit.ModuleConfig{
			RedisAddr:  cfg.RedisAddr,
			Middleware: rateLimitConfig(cfg),
			Breaker:    ratelimit.DefaultBreakerSettings(),
		})
		apiModule.SetRateLimitModule(rateLimitModule)
		app.Register(rateLimitModule)
	}

	app.Register(apiModule) // Depends on task, auth and notification

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func rateLimitConfig(cfg *config.Config) ratelimit.MiddlewareConfig {
	mw := ratelimit.DefaultMiddlewareConfig()
	mw.UserConfig = ratelimit.Config{RequestsPerWindow: cfg.RateLimitUserRPM, WindowSize: time.Minute}
	mw.IPConfig = ratelimit.Config{RequestsPerWindow: cfg.RateLimitIPRPM, WindowSize: time.Minute}
	return mw
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("  Task store:    %s (%s)", cfg.TaskStoreDriver, cfg.TaskDBPath)
	if cfg.RateLimitEnabled() {
		log.Printf("  Rate limiting: %d/min per user, %d/min per IP (Redis %s)",
			cfg.RateLimitUserRPM, cfg.RateLimitIPRPM, cfg.RedisAddr)
	} else {
		log.Println("  Rate limiting: disabled (REDIS_ADDR not set)")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.HTTPPort)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/signup          - Create an account")
	log.Println("  POST   /api/v1/auth/login           - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh         - Refresh access token")
	log.Println("  GET    /health                      - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /api/v1/auth/logout          - Revoke the current session")
	log.Println("  GET    /api/v1/auth/me              - Current user profile")
	log.Println("  GET    /api/v1/tasks                - List tasks (?status=active|completed)")
	log.Println("  POST   /api/v1/tasks                - Create a task")
	log.Println("  PUT    /api/v1/tasks/:id            - Update a task")
	log.Println("  PATCH  /api/v1/tasks/:id/complete   - Mark a task completed or active")
	log.Println("  DELETE /api/v1/tasks/:id            - Delete a task")
	log.Println("  GET    /api/v1/notifications        - Drain pending notices")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
