package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// NotificationPort is how the API reads a user's notices.
type NotificationPort interface {
	Drain(ctx context.Context, userID string) ([]Notice, error)
}

type notificationAdapter struct {
	container mono.ServiceContainer
}

// NewNotificationAdapter creates a NotificationPort over the module's services.
func NewNotificationAdapter(container mono.ServiceContainer) NotificationPort {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &notificationAdapter{container: container}
}

func (a *notificationAdapter) Drain(ctx context.Context, userID string) ([]Notice, error) {
	req := DrainRequest{UserID: userID}
	var resp DrainResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"drain-notifications",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("drain-notifications service call failed: %w", err)
	}

	if resp.Notifications == nil {
		return []Notice{}, nil
	}
	return resp.Notifications, nil
}
