package task

import "time"

const (
	// MaxTitleLength is the maximum number of characters in a task title.
	MaxTitleLength = 255
	// MaxDescriptionLength is the maximum number of characters in a task description.
	MaxDescriptionLength = 1000
)

// Identity is the resolved caller of a task operation.
// The zero value is a caller without a session.
type Identity string

// Anonymous is the identity of an unauthenticated caller.
const Anonymous Identity = ""

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i != Anonymous
}

func (i Identity) String() string {
	return string(i)
}

// Task is the core domain entity representing a to-do item.
// UserID and Seq are storage concerns and never leave the service.
type Task struct {
	Seq         int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	ID          string    `json:"id" gorm:"uniqueIndex;not null;type:text"`
	UserID      string    `json:"-" gorm:"index;not null;type:text"`
	Title       string    `json:"title" gorm:"not null;type:text"`
	Description string    `json:"description" gorm:"not null;type:text"`
	Completed   bool      `json:"completed" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// OwnedBy reports whether the task belongs to the given identity.
func (t Task) OwnedBy(id Identity) bool {
	return id.Authenticated() && t.UserID == string(id)
}

// Active reports whether the task is in the active partition.
func (t Task) Active() bool {
	return !t.Completed
}

// Partition splits tasks into the active and completed views, keeping order.
func Partition(tasks []Task) (active, completed []Task) {
	active = make([]Task, 0, len(tasks))
	completed = make([]Task, 0)
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	return active, completed
}
