package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-manager/database"
	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Repository drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ModuleConfig selects the task repository.
type ModuleConfig struct {
	Driver string
	DBPath string
}

// TaskModule provides task management services (core domain).
type TaskModule struct {
	config   ModuleConfig
	db       *gorm.DB
	repo     Repository
	store    *Store
	eventBus mono.EventBus
}

var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(config ModuleConfig) *TaskModule {
	if config.Driver == "" {
		config.Driver = DriverSQLite
	}
	return &TaskModule{config: config}
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskCompletionChangedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle-task", json.Unmarshal, json.Marshal, m.toggleTask,
	); err != nil {
		return fmt.Errorf("failed to register toggle-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	log.Printf("[task] Registered services: list-tasks, create-task, update-task, toggle-task, delete-task")
	return nil
}

func (m *TaskModule) Start(_ context.Context) error {
	switch m.config.Driver {
	case DriverMemory:
		m.repo = NewMemoryRepository()
	case DriverSQLite:
		db, err := database.OpenSQLite(m.config.DBPath)
		if err != nil {
			return err
		}
		repo := NewGormRepository(db)
		if err := repo.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		m.db = db
		m.repo = repo
	default:
		return fmt.Errorf("unknown task store driver %q", m.config.Driver)
	}

	m.store = NewStore(m.repo)

	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	log.Printf("[task] Module started (driver: %s)", m.config.Driver)
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[task] Module stopped")
	return nil
}

// Health reports the repository driver and, for SQLite, a ping result.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}

	if repo, ok := m.repo.(*GormRepository); ok {
		if err := repo.Ping(ctx); err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("database ping failed: %v", err),
			}
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.config.Driver,
		},
	}
}
