package persistence

import (
	"context"
	"time"
)

// UserRepository exposes identity lookups for authentication.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// WorkspaceRepository exposes workspace CRUD.
type WorkspaceRepository interface {
	CreateWorkspace(ctx context.Context, workspace Workspace) error
	GetWorkspace(ctx context.Context, id string) (Workspace, error)
}

// CalendarRepository exposes calendar CRUD scoped to a workspace.
type CalendarRepository interface {
	CreateCalendar(ctx context.Context, calendar Calendar) error
	GetCalendar(ctx context.Context, workspaceID, id string) (Calendar, error)
	ListCalendars(ctx context.Context, workspaceID string) ([]Calendar, error)
}

// TaskRepository exposes task CRUD and the atomic placement commit.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, workspaceID, id string) (Task, error)
	// ListBacklogTasks returns the workspace's unscheduled tasks.
	ListBacklogTasks(ctx context.Context, workspaceID string) ([]Task, error)
	// ListScheduledTasks returns tasks whose interval overlaps [from, to).
	ListScheduledTasks(ctx context.Context, workspaceID string, from, to time.Time) ([]Task, error)
	// PlaceTask atomically assigns the task to a calendar with the given
	// interval. Calendar assignment and interval always change together; a
	// storage-level overlap rejection surfaces as ErrOverlap.
	PlaceTask(ctx context.Context, workspaceID, taskID, calendarID string, start, end time.Time) error
}

// EventRepository exposes event CRUD and the atomic relocation commit.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, workspaceID, id string) (Event, error)
	// ListEventsInRange returns the workspace's events overlapping [from, to).
	ListEventsInRange(ctx context.Context, workspaceID string, from, to time.Time) ([]Event, error)
	// ListOverlappingEvents returns events on the calendar whose interval
	// overlaps [start, end), excluding excludeEventID when non-empty. The
	// window is deliberately overlap-based, not start-bucketed, so an event
	// starting before the candidate but running into it is always included.
	ListOverlappingEvents(ctx context.Context, workspaceID, calendarID string, start, end time.Time, excludeEventID string) ([]Event, error)
	// MoveEvent atomically rewrites the event's interval. A storage-level
	// overlap rejection surfaces as ErrOverlap.
	MoveEvent(ctx context.Context, workspaceID, eventID string, start, end time.Time) error
}

// SessionRepository stores the durable side of issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	// RevokeSession stamps the record rather than deleting it, preserving the
	// audit trail.
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) (Session, error)
	// DeleteExpiredSessions prunes sessions whose expiry is at or before the
	// reference instant.
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
