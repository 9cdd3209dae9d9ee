package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/dayflow/internal/persistence"
	"github.com/example/dayflow/internal/testfixtures"
)

func openTestPool(t *testing.T) *ConnectionPool {
	t.Helper()
	pool, err := Open(filepath.Join(t.TempDir(), "dayflow_test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func seedWorkspace(t *testing.T, pool *ConnectionPool) (workspaceID, userID, calendarID string) {
	t.Helper()
	ctx := context.Background()

	workspace := testfixtures.Workspace()
	if err := NewWorkspaceRepository(pool).CreateWorkspace(ctx, workspace); err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}

	user := testfixtures.User()
	user.PasswordHash = "not-a-real-hash"
	if err := NewUserRepository(pool).CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	cal := testfixtures.Calendar()
	if err := NewCalendarRepository(pool).CreateCalendar(ctx, cal); err != nil {
		t.Fatalf("CreateCalendar: %v", err)
	}
	return workspace.ID, user.ID, cal.ID
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	workspaceID, userID, _ := seedWorkspace(t, pool)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	created, err := repo.CreateSession(ctx, persistence.Session{
		ID:          "sess-1",
		UserID:      userID,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.RevokedAt != nil {
		t.Fatal("fresh session must not carry a revocation timestamp")
	}

	loaded, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if loaded.UserID != userID || loaded.WorkspaceID != workspaceID {
		t.Fatalf("loaded identity mismatch: %+v", loaded)
	}
	if !loaded.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expiry round-trip broken: %v", loaded.ExpiresAt)
	}

	revoked, err := repo.RevokeSession(ctx, "sess-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("revocation timestamp not recorded: %+v", revoked.RevokedAt)
	}

	// Revoking twice keeps the original stamp.
	again, err := repo.RevokeSession(ctx, "sess-1", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second RevokeSession: %v", err)
	}
	if !again.RevokedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("second revoke moved the stamp to %v", again.RevokedAt)
	}

	if _, err := repo.GetSession(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
	}
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	workspaceID, userID, _ := seedWorkspace(t, pool)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for _, s := range []persistence.Session{
		{ID: "expired", UserID: userID, WorkspaceID: workspaceID, ExpiresAt: now.Add(-time.Minute)},
		{ID: "live", UserID: userID, WorkspaceID: workspaceID, ExpiresAt: now.Add(time.Hour)},
	} {
		if _, err := repo.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s): %v", s.ID, err)
		}
	}

	if err := repo.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}

	if _, err := repo.GetSession(ctx, "expired"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expired session should be pruned, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "live"); err != nil {
		t.Fatalf("live session should survive pruning: %v", err)
	}
}

func TestEventRepository_OverlapTriggerRejectsDoubleBooking(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	workspaceID, _, calendarID := seedWorkspace(t, pool)
	repo := NewEventRepository(pool)
	ctx := context.Background()

	start := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	if err := repo.CreateEvent(ctx, persistence.Event{
		ID:          "ev-1",
		WorkspaceID: workspaceID,
		CalendarID:  calendarID,
		Title:       "Standup",
		Start:       start,
		End:         start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	err := repo.CreateEvent(ctx, persistence.Event{
		ID:          "ev-2",
		WorkspaceID: workspaceID,
		CalendarID:  calendarID,
		Title:       "Overlapping",
		Start:       start.Add(30 * time.Minute),
		End:         start.Add(90 * time.Minute),
	})
	if !errors.Is(err, persistence.ErrOverlap) {
		t.Fatalf("expected ErrOverlap from trigger, got %v", err)
	}

	// Touching intervals are allowed.
	if err := repo.CreateEvent(ctx, persistence.Event{
		ID:          "ev-3",
		WorkspaceID: workspaceID,
		CalendarID:  calendarID,
		Title:       "Adjacent",
		Start:       start.Add(time.Hour),
		End:         start.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("adjacent event should commit: %v", err)
	}
}

func TestEventRepository_ListOverlappingEvents_WidenedWindow(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	workspaceID, _, calendarID := seedWorkspace(t, pool)
	repo := NewEventRepository(pool)
	ctx := context.Background()

	base := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	events := []persistence.Event{
		// Starts before the candidate window but runs into it.
		{ID: "early", Start: base.Add(8 * time.Hour), End: base.Add(11 * time.Hour)},
		{ID: "inside", Start: base.Add(12 * time.Hour), End: base.Add(13 * time.Hour)},
		// Touches the window end; half-open, so not overlapping.
		{ID: "after", Start: base.Add(14 * time.Hour), End: base.Add(15 * time.Hour)},
	}
	for _, ev := range events {
		ev.WorkspaceID = workspaceID
		ev.CalendarID = calendarID
		ev.Title = ev.ID
		if err := repo.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("CreateEvent(%s): %v", ev.ID, err)
		}
	}

	got, err := repo.ListOverlappingEvents(ctx, workspaceID, calendarID, base.Add(10*time.Hour), base.Add(14*time.Hour), "")
	if err != nil {
		t.Fatalf("ListOverlappingEvents: %v", err)
	}
	if len(got) != 2 || got[0].ID != "early" || got[1].ID != "inside" {
		t.Fatalf("unexpected overlap set: %+v", got)
	}

	got, err = repo.ListOverlappingEvents(ctx, workspaceID, calendarID, base.Add(10*time.Hour), base.Add(14*time.Hour), "early")
	if err != nil {
		t.Fatalf("ListOverlappingEvents with exclusion: %v", err)
	}
	if len(got) != 1 || got[0].ID != "inside" {
		t.Fatalf("exclusion not applied: %+v", got)
	}
}

func TestEventRepository_MoveEvent_WorkspaceScoped(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	workspaceID, _, calendarID := seedWorkspace(t, pool)
	repo := NewEventRepository(pool)
	ctx := context.Background()

	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	if err := repo.CreateEvent(ctx, persistence.Event{
		ID:          "ev-1",
		WorkspaceID: workspaceID,
		CalendarID:  calendarID,
		Title:       "Focus",
		Start:       start,
		End:         start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if err := repo.MoveEvent(ctx, workspaceID, "ev-1", start.Add(30*time.Minute), start.Add(90*time.Minute)); err != nil {
		t.Fatalf("MoveEvent over own slot should succeed: %v", err)
	}

	moved, err := repo.GetEvent(ctx, workspaceID, "ev-1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if !moved.Start.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("move not committed: %+v", moved)
	}

	if err := repo.MoveEvent(ctx, "other-workspace", "ev-1", start, start.Add(time.Hour)); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("cross-workspace move must look like not-found, got %v", err)
	}
}

func TestTaskRepository_PlaceTask(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	workspaceID, _, calendarID := seedWorkspace(t, pool)
	tasks := NewTaskRepository(pool)
	events := NewEventRepository(pool)
	ctx := context.Background()

	if err := tasks.CreateTask(ctx, persistence.Task{
		ID:          "task-1",
		WorkspaceID: workspaceID,
		Title:       "Write report",
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	backlog, err := tasks.ListBacklogTasks(ctx, workspaceID)
	if err != nil {
		t.Fatalf("ListBacklogTasks: %v", err)
	}
	if len(backlog) != 1 || backlog[0].Scheduled() {
		t.Fatalf("task should sit unscheduled in the backlog: %+v", backlog)
	}

	start := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	if err := events.CreateEvent(ctx, persistence.Event{
		ID:          "ev-1",
		WorkspaceID: workspaceID,
		CalendarID:  calendarID,
		Title:       "Standup",
		Start:       start,
		End:         start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	// Placement over the event is rejected by the trigger.
	err = tasks.PlaceTask(ctx, workspaceID, "task-1", calendarID, start.Add(30*time.Minute), start.Add(90*time.Minute))
	if !errors.Is(err, persistence.ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	// Adjacent placement commits calendar and interval together.
	if err := tasks.PlaceTask(ctx, workspaceID, "task-1", calendarID, start.Add(time.Hour), start.Add(2*time.Hour)); err != nil {
		t.Fatalf("PlaceTask: %v", err)
	}

	placed, err := tasks.GetTask(ctx, workspaceID, "task-1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !placed.Scheduled() || *placed.CalendarID != calendarID {
		t.Fatalf("placement not committed atomically: %+v", placed)
	}

	scheduled, err := tasks.ListScheduledTasks(ctx, workspaceID, start, start.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("ListScheduledTasks: %v", err)
	}
	if len(scheduled) != 1 || scheduled[0].ID != "task-1" {
		t.Fatalf("scheduled listing mismatch: %+v", scheduled)
	}
}

func TestTaskRepository_DueDateRoundTrip(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	workspaceID, _, _ := seedWorkspace(t, pool)
	repo := NewTaskRepository(pool)
	ctx := context.Background()

	due := time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC)
	if err := repo.CreateTask(ctx, persistence.Task{
		ID:          "task-due",
		WorkspaceID: workspaceID,
		Title:       "File taxes",
		Due:         &due,
	}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := repo.CreateTask(ctx, persistence.Task{
		ID:          "task-open",
		WorkspaceID: workspaceID,
		Title:       "Someday",
	}); err != nil {
		t.Fatalf("CreateTask without due: %v", err)
	}

	loaded, err := repo.GetTask(ctx, workspaceID, "task-due")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if loaded.Due == nil || !loaded.Due.Equal(due) {
		t.Fatalf("due date round-trip broken: %+v", loaded.Due)
	}
	if !loaded.Overdue(due.Add(time.Minute)) {
		t.Fatal("task past its deadline should report overdue")
	}
	if loaded.Overdue(due) {
		t.Fatal("task exactly at its deadline is not overdue")
	}

	open, err := repo.GetTask(ctx, workspaceID, "task-open")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if open.Due != nil {
		t.Fatalf("expected nil due date, got %v", open.Due)
	}
}

func TestCalendarRepository_CrossWorkspaceLookupIsNotFound(t *testing.T) {
	t.Parallel()

	pool := openTestPool(t)
	_, _, calendarID := seedWorkspace(t, pool)
	repo := NewCalendarRepository(pool)

	if _, err := repo.GetCalendar(context.Background(), "other-workspace", calendarID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("cross-workspace calendar must be not-found, got %v", err)
	}
}
