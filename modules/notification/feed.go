package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxNoticesPerUser bounds each user's feed; older notices are dropped.
const MaxNoticesPerUser = 20

// Notice types.
const (
	TypeTaskCreated   = "task_created"
	TypeTaskUpdated   = "task_updated"
	TypeTaskCompleted = "task_completed"
	TypeTaskReopened  = "task_reopened"
	TypeTaskDeleted   = "task_deleted"
)

// Notice is a short user-facing message about one of the user's tasks.
type Notice struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed keeps the most recent notices per user.
type Feed struct {
	mu      sync.Mutex
	limit   int
	notices map[string][]Notice
	now     func() time.Time
}

// NewFeed creates a feed holding up to limit notices per user.
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = MaxNoticesPerUser
	}
	return &Feed{
		limit:   limit,
		notices: make(map[string][]Notice),
		now:     time.Now,
	}
}

// Push appends a notice to the user's feed.
func (f *Feed) Push(userID, taskID, noticeType, message string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Type:      noticeType,
		Message:   message,
		CreatedAt: f.now().UTC(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	list := append(f.notices[userID], n)
	if len(list) > f.limit {
		list = append([]Notice(nil), list[len(list)-f.limit:]...)
	}
	f.notices[userID] = list
	return n
}

// Drain returns the user's notices oldest first and clears them.
func (f *Feed) Drain(userID string) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.notices[userID]
	delete(f.notices, userID)
	if list == nil {
		return []Notice{}
	}
	return list
}

// Pending returns the number of undrained notices for the user.
func (f *Feed) Pending(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices[userID])
}

// Users returns how many users have undrained notices.
func (f *Feed) Users() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}
