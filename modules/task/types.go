package task

import (
	"context"

	domain "github.com/example/task-manager/domain/task"
)

// DeletedMessage confirms a successful delete.
const DeletedMessage = "Task deleted successfully"

// ListTasksRequest is the request for listing the caller's tasks.
type ListTasksRequest struct {
	UserID string `json:"user_id"`
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTaskRequest is the request for a partial task update.
type UpdateTaskRequest struct {
	UserID string        `json:"user_id"`
	TaskID string        `json:"task_id"`
	Update domain.Update `json:"update"`
}

// ToggleTaskRequest is the request for setting a task's completion flag.
type ToggleTaskRequest struct {
	UserID    string `json:"user_id"`
	TaskID    string `json:"task_id"`
	Completed bool   `json:"completed"`
}

// DeleteTaskRequest is the request for deleting a task.
type DeleteTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// DeleteConfirmation is the data returned by a successful delete.
type DeleteConfirmation struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ListTasksResponse is the envelope for list-tasks.
type ListTasksResponse = domain.Result[[]domain.Task]

// TaskResponse is the envelope for operations returning a single task.
type TaskResponse = domain.Result[domain.Task]

// DeleteTaskResponse is the envelope for delete-task.
type DeleteTaskResponse = domain.Result[DeleteConfirmation]

// TaskPort defines the interface for task operations (hexagonal port).
// Driving adapters such as the HTTP API use it to reach the task store.
// Expected failures come back as *domain.Error; anything else is a transport failure.
type TaskPort interface {
	ListTasks(ctx context.Context, caller domain.Identity) ([]domain.Task, error)
	CreateTask(ctx context.Context, caller domain.Identity, in domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, caller domain.Identity, taskID string, upd domain.Update) (domain.Task, error)
	ToggleTask(ctx context.Context, caller domain.Identity, taskID string, completed bool) (domain.Task, error)
	DeleteTask(ctx context.Context, caller domain.Identity, taskID string) (DeleteConfirmation, error)
}
