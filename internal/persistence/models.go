package persistence

import "time"

// User is a human identity able to authenticate against the planner.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	WorkspaceID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Workspace is the multi-tenant isolation boundary. Every calendar, event,
// task and session is partitioned by workspace identifier.
type Workspace struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Calendar belongs to exactly one workspace and is the collision domain for
// conflict detection: only intervals attached to the same calendar compete.
type Calendar struct {
	ID          string
	WorkspaceID string
	Name        string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Event is a committed placement on a calendar with a half-open interval.
type Event struct {
	ID          string
	WorkspaceID string
	CalendarID  string
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Task lifecycle states.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
	TaskStatusArchived   = "archived"
)

// Task is a unit of work. A task without a scheduled interval sits in the
// backlog; placing it on a calendar fills CalendarID and both instants
// atomically. Due is independent of scheduling: a backlog task can carry a
// deadline without occupying a calendar slot.
type Task struct {
	ID             string
	WorkspaceID    string
	Title          string
	Status         string
	Due            *time.Time
	CalendarID     *string
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	Source         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Scheduled reports whether the task has been placed on a calendar.
func (t Task) Scheduled() bool {
	return t.CalendarID != nil && t.ScheduledStart != nil && t.ScheduledEnd != nil
}

// Overdue reports whether the task's deadline has passed. A task with no due
// date is never overdue, done and archived tasks are excluded, and the
// comparison is strict: a task is not overdue at its due instant.
func (t Task) Overdue(now time.Time) bool {
	if t.Due == nil {
		return false
	}
	if t.Status == TaskStatusDone || t.Status == TaskStatusArchived {
		return false
	}
	return now.After(*t.Due)
}

// Session is the durable record behind a bearer credential. It is valid iff
// RevokedAt is unset and ExpiresAt is strictly in the future.
type Session struct {
	ID          string
	UserID      string
	WorkspaceID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
}
