package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Notice messages shown to the user.
const (
	MessageCreated   = "Task created successfully"
	MessageUpdated   = "Task updated successfully"
	MessageCompleted = "Task marked as completed"
	MessageReopened  = "Task marked as active"
	MessageDeleted   = "Task deleted successfully"
)

// DrainRequest asks for a user's pending notices.
type DrainRequest struct {
	UserID string `json:"user_id"`
}

// DrainResponse carries the drained notices, oldest first.
type DrainResponse struct {
	Notifications []Notice `json:"notifications"`
}

// NotificationModule turns task events into per-user notices.
// It subscribes to domain events using the EventConsumerModule interface.
type NotificationModule struct {
	feed *Feed
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)
var _ mono.HealthCheckableModule = (*NotificationModule)(nil)

func NewModule() *NotificationModule {
	return &NotificationModule{
		feed: NewFeed(MaxNoticesPerUser),
	}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletionChangedV1, m.handleTaskCompletionChanged, m); err != nil {
		return fmt.Errorf("failed to register TaskCompletionChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: TaskCreated, TaskUpdated, TaskCompletionChanged, TaskDeleted")
	return nil
}

func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "drain-notifications", json.Unmarshal, json.Marshal, m.drainNotifications,
	); err != nil {
		return fmt.Errorf("failed to register drain-notifications service: %w", err)
	}

	log.Printf("[notification] Registered services: drain-notifications")
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task created: %s - %s", event.TaskID, event.Title)
	m.feed.Push(event.UserID, event.TaskID, TypeTaskCreated, MessageCreated)
	return nil
}

func (m *NotificationModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task updated: %s", event.TaskID)
	m.feed.Push(event.UserID, event.TaskID, TypeTaskUpdated, MessageUpdated)
	return nil
}

func (m *NotificationModule) handleTaskCompletionChanged(_ context.Context, event events.TaskCompletionChangedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task %s completed=%t", event.TaskID, event.Completed)
	if event.Completed {
		m.feed.Push(event.UserID, event.TaskID, TypeTaskCompleted, MessageCompleted)
	} else {
		m.feed.Push(event.UserID, event.TaskID, TypeTaskReopened, MessageReopened)
	}
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Task deleted: %s", event.TaskID)
	m.feed.Push(event.UserID, event.TaskID, TypeTaskDeleted, MessageDeleted)
	return nil
}

func (m *NotificationModule) drainNotifications(_ context.Context, req DrainRequest, _ *mono.Msg) (DrainResponse, error) {
	if req.UserID == "" {
		return DrainResponse{}, fmt.Errorf("user_id is required")
	}
	return DrainResponse{Notifications: m.feed.Drain(req.UserID)}, nil
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for task events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}

func (m *NotificationModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"users_with_pending": m.feed.Users(),
		},
	}
}
