package task

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"gorm.io/gorm"
)

// GormRepository handles task persistence using GORM.
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a new GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the tasks table.
func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.Task{})
}

// Insert creates a new task row.
func (r *GormRepository) Insert(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, task.ID)
		}
		return err
	}
	return nil
}

// Get finds a task by ID for the given owner.
func (r *GormRepository) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	var task domain.Task
	result := r.db.WithContext(ctx).First(&task, "id = ? AND user_id = ?", taskID, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// Save writes the mutable columns of task in a single statement.
func (r *GormRepository) Save(ctx context.Context, task *domain.Task) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
			"completed":   task.Completed,
			"updated_at":  task.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a task owned by ownerID.
func (r *GormRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, ownerID).
		Delete(&domain.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByOwner returns the owner's tasks ordered by insertion sequence.
func (r *GormRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	result := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("seq ASC").
		Find(&tasks)
	if result.Error != nil {
		return nil, result.Error
	}
	return tasks, nil
}

// Ping checks the underlying database connection.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
