package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/google/uuid"
)

// Store is the single authority over tasks. Every operation takes the caller
// identity explicitly; mutations are serialized per identity.
type Store struct {
	repo  Repository
	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	locks map[domain.Identity]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the task id generator.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore creates a Store backed by repo.
func NewStore(repo Repository, opts ...StoreOption) *Store {
	s := &Store{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
		locks: make(map[domain.Identity]*identityLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every task owned by caller in insertion order.
func (s *Store) List(ctx context.Context, caller domain.Identity) ([]domain.Task, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	stored, err := s.repo.ListByOwner(ctx, caller.String())
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("list tasks for %s: %w", caller, err))
	}

	tasks := make([]domain.Task, 0, len(stored))
	for _, t := range stored {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// Create validates in and stores a new active task owned by caller.
func (s *Store) Create(ctx context.Context, caller domain.Identity, in domain.NewTask) (domain.Task, error) {
	if !caller.Authenticated() {
		return domain.Task{}, domain.ErrNotAuthenticated
	}
	if err := in.Validate(); err != nil {
		return domain.Task{}, err
	}

	unlock := s.lock(caller)
	defer unlock()

	now := s.clock()
	task := &domain.Task{
		ID:          s.newID(),
		UserID:      caller.String(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, task); err != nil {
		return domain.Task{}, domain.Internal(fmt.Errorf("insert task: %w", err))
	}
	return *task, nil
}

// Update merges the supplied fields into the caller's task.
func (s *Store) Update(ctx context.Context, caller domain.Identity, taskID string, upd domain.Update) (domain.Task, error) {
	_, updated, err := s.update(ctx, caller, taskID, upd)
	return updated, err
}

// update is Update that also returns the task as it was before the merge.
func (s *Store) update(ctx context.Context, caller domain.Identity, taskID string, upd domain.Update) (prev, next domain.Task, err error) {
	if !caller.Authenticated() {
		return domain.Task{}, domain.Task{}, domain.ErrNotAuthenticated
	}
	if err := upd.Validate(); err != nil {
		return domain.Task{}, domain.Task{}, err
	}
	return s.mutate(ctx, caller, taskID, upd.Apply)
}

// SetCompleted moves the caller's task to the completed or active state.
func (s *Store) SetCompleted(ctx context.Context, caller domain.Identity, taskID string, completed bool) (domain.Task, error) {
	if !caller.Authenticated() {
		return domain.Task{}, domain.ErrNotAuthenticated
	}
	_, updated, err := s.mutate(ctx, caller, taskID, func(t *domain.Task) {
		t.Completed = completed
	})
	return updated, err
}

// Delete permanently removes the caller's task.
func (s *Store) Delete(ctx context.Context, caller domain.Identity, taskID string) error {
	if !caller.Authenticated() {
		return domain.ErrNotAuthenticated
	}

	unlock := s.lock(caller)
	defer unlock()

	if err := s.repo.Delete(ctx, caller.String(), taskID); err != nil {
		return lookupError("delete", taskID, err)
	}
	return nil
}

// mutate runs read-merge-write under the caller's lock and refreshes UpdatedAt.
func (s *Store) mutate(ctx context.Context, caller domain.Identity, taskID string, apply func(*domain.Task)) (prev, next domain.Task, err error) {
	unlock := s.lock(caller)
	defer unlock()

	task, err := s.repo.Get(ctx, caller.String(), taskID)
	if err != nil {
		return domain.Task{}, domain.Task{}, lookupError("get", taskID, err)
	}
	prev = *task

	apply(task)
	task.UpdatedAt = s.after(prev.UpdatedAt)

	if err := s.repo.Save(ctx, task); err != nil {
		return domain.Task{}, domain.Task{}, lookupError("save", taskID, err)
	}
	return prev, *task, nil
}

// clock returns the current time in UTC at microsecond precision.
func (s *Store) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// after returns a timestamp strictly later than prev.
func (s *Store) after(prev time.Time) time.Time {
	now := s.clock()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// lock acquires the per-identity mutex and returns its release function.
// Entries are dropped once no caller holds or waits on them.
func (s *Store) lock(id domain.Identity) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &identityLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func lookupError(op, taskID string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	return domain.Internal(fmt.Errorf("%s task %s: %w", op, taskID, err))
}
