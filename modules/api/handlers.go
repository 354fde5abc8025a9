package api

import (
	"log"
	"strings"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/notification"
	"github.com/example/task-manager/modules/task"
	"github.com/gofiber/fiber/v2"
)

const (
	invalidBodyMessage   = "Invalid request body"
	invalidStatusMessage = "Status must be active or completed"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	tasks         task.TaskPort
	auth          auth.AuthPort
	notifications notification.NotificationPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(tasks task.TaskPort, authAdapter auth.AuthPort, notifications notification.NotificationPort) *Handlers {
	return &Handlers{
		tasks:         tasks,
		auth:          authAdapter,
		notifications: notifications,
	}
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Error: message})
}

// Health handles the health check endpoint.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Module: "api",
	})
}

// ListTasks returns the caller's tasks, optionally narrowed by ?status.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && status != "active" && status != "completed" {
		return fail(c, fiber.StatusBadRequest, invalidStatusMessage)
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), identityFrom(c))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	active, completed := domain.Partition(tasks)
	switch status {
	case "active":
		tasks = active
	case "completed":
		tasks = completed
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	return ok(c, fiber.StatusOK, tasks)
}

// CreateTask handles task creation.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, invalidBodyMessage)
	}

	created, err := h.tasks.CreateTask(c.UserContext(), identityFrom(c), domain.NewTask{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return ok(c, fiber.StatusCreated, created)
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	// Absent fields stay nil and are left untouched.
	var upd domain.Update
	if err := c.BodyParser(&upd); err != nil {
		return fail(c, fiber.StatusBadRequest, invalidBodyMessage)
	}

	updated, err := h.tasks.UpdateTask(c.UserContext(), identityFrom(c), c.Params("id"), upd)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return ok(c, fiber.StatusOK, updated)
}

// CompleteTask sets the completion flag of one of the caller's tasks.
func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	var req CompleteTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, invalidBodyMessage)
	}
	if req.Completed == nil {
		return h.handleTaskError(c, domain.ErrCompletedRequired)
	}

	toggled, err := h.tasks.ToggleTask(c.UserContext(), identityFrom(c), c.Params("id"), *req.Completed)
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return ok(c, fiber.StatusOK, toggled)
}

// DeleteTask removes one of the caller's tasks.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	confirmation, err := h.tasks.DeleteTask(c.UserContext(), identityFrom(c), c.Params("id"))
	if err != nil {
		return h.handleTaskError(c, err)
	}

	return ok(c, fiber.StatusOK, confirmation)
}

// Notifications drains the caller's pending notices.
func (h *Handlers) Notifications(c *fiber.Ctx) error {
	notices, err := h.notifications.Drain(c.UserContext(), identityFrom(c).String())
	if err != nil {
		log.Printf("[api] Failed to drain notifications: %v", err)
		return fail(c, fiber.StatusInternalServerError, domain.ErrInternal.Message)
	}

	return ok(c, fiber.StatusOK, notices)
}

// handleTaskError maps a task failure to its status code. Anything that is
// not a task error is reported as the generic internal failure.
func (h *Handlers) handleTaskError(c *fiber.Ctx, err error) error {
	result := domain.Fail[struct{}](err)

	var status int
	switch result.Kind {
	case domain.KindUnauthenticated:
		status = fiber.StatusUnauthorized
	case domain.KindValidation:
		status = fiber.StatusBadRequest
	case domain.KindNotFound:
		status = fiber.StatusNotFound
	default:
		log.Printf("[api] Internal error: %v", err)
		status = fiber.StatusInternalServerError
	}

	return fail(c, status, result.Error)
}

// Signup handles user registration.
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, invalidBodyMessage)
	}

	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	u, tokens, err := h.auth.Signup(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return ok(c, fiber.StatusCreated, SignupResponse{
		User:   toUserResponse(u),
		Tokens: toTokenResponse(tokens),
	})
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, invalidBodyMessage)
	}

	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	tokens, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return ok(c, fiber.StatusOK, toTokenResponse(tokens))
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, invalidBodyMessage)
	}

	if req.RefreshToken == "" {
		return fail(c, fiber.StatusBadRequest, "Refresh token is required")
	}

	tokens, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		log.Printf("[api] Refresh rejected: %v", err)
		return fail(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}

	return ok(c, fiber.StatusOK, toTokenResponse(tokens))
}

// Logout revokes the caller's access token and, if given, their refresh token.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	var req LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, invalidBodyMessage)
		}
	}

	token, _ := c.Locals(TokenContextKey).(string)
	if err := h.auth.Logout(c.UserContext(), token, req.RefreshToken); err != nil {
		if strings.Contains(err.Error(), "invalid token") {
			return fail(c, fiber.StatusBadRequest, "Invalid refresh token")
		}
		return h.handleAuthError(c, err)
	}

	return ok(c, fiber.StatusOK, fiber.Map{"logged_out": true})
}

// Me returns the current user's profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims, isClaims := c.Locals(UserContextKey).(*user.Claims)
	if !isClaims {
		return notAuthenticated(c)
	}

	u, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "user not found") {
			return notAuthenticated(c)
		}
		return h.handleAuthError(c, err)
	}

	return ok(c, fiber.StatusOK, toUserResponse(u))
}

// handleAuthError handles authentication errors and returns appropriate responses.
// It matches error messages to provide user-friendly responses without exposing internals.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid email or password"):
		return fail(c, fiber.StatusUnauthorized, "Invalid email or password")
	case strings.Contains(errStr, "user with this email already exists"):
		return fail(c, fiber.StatusConflict, "User with this email already exists")
	case strings.Contains(errStr, "invalid email format"):
		return fail(c, fiber.StatusBadRequest, "Invalid email address")
	case strings.Contains(errStr, "name is required"):
		return fail(c, fiber.StatusBadRequest, "Name is required")
	case strings.Contains(errStr, "name must be less than"):
		return fail(c, fiber.StatusBadRequest, "Name must be less than 100 characters")
	case strings.Contains(errStr, "password must be at least"):
		return fail(c, fiber.StatusBadRequest, "Password must be at least 8 characters")
	case strings.Contains(errStr, "password must be at most"):
		return fail(c, fiber.StatusBadRequest, "Password must be at most 72 characters")
	case strings.Contains(errStr, "password must contain"):
		return fail(c, fiber.StatusBadRequest, "Password must contain an uppercase letter, a lowercase letter and a digit")
	default:
		log.Printf("[api] Internal error: %v", err)
		return fail(c, fiber.StatusInternalServerError, domain.ErrInternal.Message)
	}
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toTokenResponse(t *user.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		TokenType:    t.TokenType,
	}
}
