// Package testfixtures provides deterministic clocks, identifier generators
// and canned planner entities shared across test suites.
package testfixtures

import (
	"time"

	"github.com/example/dayflow/internal/persistence"
)

// ReferenceTime is the shared anchor instant for deterministic tests. It is
// a Monday at 09:00 UTC, ISO week 2024-W11.
func ReferenceTime() time.Time {
	return time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)
}

// Workspace returns a canned workspace.
func Workspace() persistence.Workspace {
	return persistence.Workspace{
		ID:        "ws-fixture",
		Name:      "Fixture Workspace",
		Slug:      "fixture",
		CreatedAt: ReferenceTime(),
	}
}

// User returns a canned user bound to the fixture workspace. The password
// hash is intentionally absent; tests that authenticate hash their own.
func User() persistence.User {
	return persistence.User{
		ID:          "user-fixture",
		Email:       "ada@example.com",
		DisplayName: "Ada",
		WorkspaceID: Workspace().ID,
		CreatedAt:   ReferenceTime(),
	}
}

// Calendar returns a canned calendar in the fixture workspace.
func Calendar() persistence.Calendar {
	return persistence.Calendar{
		ID:          "cal-fixture",
		WorkspaceID: Workspace().ID,
		Name:        "Work",
		Color:       "#2563eb",
		CreatedAt:   ReferenceTime(),
		UpdatedAt:   ReferenceTime(),
	}
}

// BacklogTask returns a canned unscheduled task.
func BacklogTask() persistence.Task {
	return persistence.Task{
		ID:          "task-fixture",
		WorkspaceID: Workspace().ID,
		Title:       "Write report",
		Status:      "todo",
		Source:      "local",
		CreatedAt:   ReferenceTime(),
		UpdatedAt:   ReferenceTime(),
	}
}

// Event returns a canned one-hour event starting at the given offset from
// ReferenceTime.
func Event(id string, offset time.Duration) persistence.Event {
	start := ReferenceTime().Add(offset)
	return persistence.Event{
		ID:          id,
		WorkspaceID: Workspace().ID,
		CalendarID:  Calendar().ID,
		Title:       "Fixture event",
		Start:       start,
		End:         start.Add(time.Hour),
		Source:      "local",
		CreatedAt:   ReferenceTime(),
		UpdatedAt:   ReferenceTime(),
	}
}

// Session returns a canned unexpired session for the fixture user.
func Session(ttl time.Duration) persistence.Session {
	return persistence.Session{
		ID:          "session-fixture",
		UserID:      User().ID,
		WorkspaceID: Workspace().ID,
		CreatedAt:   ReferenceTime(),
		ExpiresAt:   ReferenceTime().Add(ttl),
	}
}
