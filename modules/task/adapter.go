package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
// This is the adapter that implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// ListTasks lists the caller's tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, caller domain.Identity) ([]domain.Task, error) {
	req := ListTasksRequest{UserID: caller.String()}
	var resp ListTasksResponse
	if err := call(ctx, a.container, "list-tasks", &req, &resp); err != nil {
		return nil, err
	}
	tasks, err := resp.Unwrap()
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// CreateTask creates a new task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, caller domain.Identity, in domain.NewTask) (domain.Task, error) {
	req := CreateTaskRequest{UserID: caller.String(), Title: in.Title, Description: in.Description}
	var resp TaskResponse
	if err := call(ctx, a.container, "create-task", &req, &resp); err != nil {
		return domain.Task{}, err
	}
	return resp.Unwrap()
}

// UpdateTask applies a partial update via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, caller domain.Identity, taskID string, upd domain.Update) (domain.Task, error) {
	req := UpdateTaskRequest{UserID: caller.String(), TaskID: taskID, Update: upd}
	var resp TaskResponse
	if err := call(ctx, a.container, "update-task", &req, &resp); err != nil {
		return domain.Task{}, err
	}
	return resp.Unwrap()
}

// ToggleTask sets the completion flag via the toggle-task service.
func (a *taskAdapter) ToggleTask(ctx context.Context, caller domain.Identity, taskID string, completed bool) (domain.Task, error) {
	req := ToggleTaskRequest{UserID: caller.String(), TaskID: taskID, Completed: completed}
	var resp TaskResponse
	if err := call(ctx, a.container, "toggle-task", &req, &resp); err != nil {
		return domain.Task{}, err
	}
	return resp.Unwrap()
}

// DeleteTask deletes a task via the delete-task service.
func (a *taskAdapter) DeleteTask(ctx context.Context, caller domain.Identity, taskID string) (DeleteConfirmation, error) {
	req := DeleteTaskRequest{UserID: caller.String(), TaskID: taskID}
	var resp DeleteTaskResponse
	if err := call(ctx, a.container, "delete-task", &req, &resp); err != nil {
		return DeleteConfirmation{}, err
	}
	return resp.Unwrap()
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}
