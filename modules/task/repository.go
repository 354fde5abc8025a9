package task

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/example/task-manager/domain/task"
)

// ErrDuplicateTask is returned when a task id is inserted twice.
var ErrDuplicateTask = errors.New("task id already exists")

// Repository persists tasks. Lookups are scoped by owner: a task that exists
// under another owner is reported as domain.ErrNotFound.
type Repository interface {
	Insert(ctx context.Context, task *domain.Task) error
	Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	Save(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, ownerID, taskID string) error
	// ListByOwner returns the owner's tasks in insertion order.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error)
}

// MemoryRepository provides in-memory task storage.
type MemoryRepository struct {
	tasks map[string]*domain.Task
	order map[string][]string
	seq   int64
	mu    sync.RWMutex
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks: make(map[string]*domain.Task),
		order: make(map[string][]string),
	}
}

// Insert stores a copy of task and appends it to its owner's ordering.
func (r *MemoryRepository) Insert(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
	}

	r.seq++
	task.Seq = r.seq
	stored := *task
	r.tasks[task.ID] = &stored
	r.order[task.UserID] = append(r.order[task.UserID], task.ID)
	return nil
}

// Get finds a task by ID for the given owner.
func (r *MemoryRepository) Get(_ context.Context, ownerID, taskID string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, found := r.tasks[taskID]
	if !found || task.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := *task
	return &out, nil
}

// Save replaces a stored task.
func (r *MemoryRepository) Save(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, found := r.tasks[task.ID]
	if !found || current.UserID != task.UserID {
		return domain.ErrNotFound
	}
	stored := *task
	stored.Seq = current.Seq
	r.tasks[task.ID] = &stored
	return nil
}

// Delete removes a task owned by ownerID.
func (r *MemoryRepository) Delete(_ context.Context, ownerID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, found := r.tasks[taskID]
	if !found || task.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.tasks, taskID)

	ids := r.order[ownerID]
	for i, id := range ids {
		if id == taskID {
			r.order[ownerID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(r.order[ownerID]) == 0 {
		delete(r.order, ownerID)
	}
	return nil
}

// ListByOwner returns copies of the owner's tasks in insertion order.
func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.order[ownerID]
	result := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		out := *r.tasks[id]
		result = append(result, &out)
	}
	return result, nil
}

// Count returns the number of stored tasks across all owners.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
