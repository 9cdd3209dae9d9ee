package application

import (
	"time"

	"github.com/example/dayflow/internal/calendar"
	"github.com/example/dayflow/internal/persistence"
)

// Session is the resolved identity behind a bearer credential: who is
// calling and which workspace every query must be scoped to.
type Session struct {
	ID          string
	UserID      string
	WorkspaceID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    persistence.User
	Session Session
}

// ScheduleTaskParams wraps a request to place a task on a calendar.
type ScheduleTaskParams struct {
	Session    Session
	TaskID     string
	CalendarID string
	Start      time.Time
	End        time.Time
}

// MoveEventParams wraps a request to relocate an existing event. The target
// calendar never changes; only the interval does.
type MoveEventParams struct {
	Session Session
	EventID string
	Start   time.Time
	End     time.Time
}

// CreateCalendarParams wraps the data required to create a calendar.
type CreateCalendarParams struct {
	Session Session
	Name    string
	Color   string
}

// CreateTaskParams wraps the data required to create a backlog task. Due is
// optional; a task may carry a deadline without ever being scheduled.
type CreateTaskParams struct {
	Session Session
	Title   string
	Due     *time.Time
	Source  string
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Session    Session
	CalendarID string
	Title      string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Source     string
}

// WeekView is everything a client needs to render one week of the planner.
type WeekView struct {
	WeekID    string
	Range     calendar.Range
	Calendars []persistence.Calendar
	Events    []persistence.Event
	Scheduled []persistence.Task
	Backlog   []persistence.Task
}
