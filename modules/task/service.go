package task

import (
	"context"
	"errors"
	"log"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
)

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.store.List(ctx, domain.Identity(req.UserID))
	if err != nil {
		return failure[[]domain.Task]("list-tasks", err), nil
	}
	return domain.OK(tasks), nil
}

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	created, err := m.store.Create(ctx, domain.Identity(req.UserID), domain.NewTask{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return failure[domain.Task]("create-task", err), nil
	}

	if m.eventBus != nil {
		event := events.TaskCreatedEvent{
			TaskID:    created.ID,
			UserID:    req.UserID,
			Title:     created.Title,
			CreatedAt: created.CreatedAt,
		}
		if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
			// Event publishing is best-effort; log but don't fail the operation
			log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", created.ID, err)
		}
	}

	return domain.OK(created), nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	prev, updated, err := m.store.update(ctx, domain.Identity(req.UserID), req.TaskID, req.Update)
	if err != nil {
		return failure[domain.Task]("update-task", err), nil
	}

	if m.eventBus != nil {
		event := events.TaskUpdatedEvent{
			TaskID:    updated.ID,
			UserID:    req.UserID,
			Title:     updated.Title,
			UpdatedAt: updated.UpdatedAt,
		}
		if err := events.TaskUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", updated.ID, err)
		}
	}
	if prev.Completed != updated.Completed {
		m.publishCompletion(req.UserID, updated)
	}

	return domain.OK(updated), nil
}

// toggleTask handles the toggle-task service request.
func (m *TaskModule) toggleTask(ctx context.Context, req ToggleTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	updated, err := m.store.SetCompleted(ctx, domain.Identity(req.UserID), req.TaskID, req.Completed)
	if err != nil {
		return failure[domain.Task]("toggle-task", err), nil
	}

	m.publishCompletion(req.UserID, updated)
	return domain.OK(updated), nil
}

// deleteTask handles the delete-task service request.
func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.store.Delete(ctx, domain.Identity(req.UserID), req.TaskID); err != nil {
		return failure[DeleteConfirmation]("delete-task", err), nil
	}

	if m.eventBus != nil {
		event := events.TaskDeletedEvent{
			TaskID:    req.TaskID,
			UserID:    req.UserID,
			DeletedAt: time.Now().UTC(),
		}
		if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", req.TaskID, err)
		}
	}

	return domain.OK(DeleteConfirmation{ID: req.TaskID, Message: DeletedMessage}), nil
}

func (m *TaskModule) publishCompletion(userID string, t domain.Task) {
	if m.eventBus == nil {
		return
	}
	event := events.TaskCompletionChangedEvent{
		TaskID:    t.ID,
		UserID:    userID,
		Completed: t.Completed,
		UpdatedAt: t.UpdatedAt,
	}
	if err := events.TaskCompletionChangedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCompletionChanged event for task %s: %v", t.ID, err)
	}
}

// failure converts err into an envelope, logging the cause of internal failures.
func failure[T any](op string, err error) domain.Result[T] {
	if domain.KindOf(err) == domain.KindInternal {
		cause := errors.Unwrap(err)
		if cause == nil {
			cause = err
		}
		log.Printf("[task] %s failed: %v", op, cause)
	}
	return domain.Fail[T](err)
}
