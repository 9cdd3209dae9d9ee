package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/dayflow/internal/interval"
	"github.com/example/dayflow/internal/persistence"
)

// TaskRepository captures the task interactions the planner needs.
type TaskRepository interface {
	CreateTask(ctx context.Context, task persistence.Task) error
	GetTask(ctx context.Context, workspaceID, id string) (persistence.Task, error)
	ListBacklogTasks(ctx context.Context, workspaceID string) ([]persistence.Task, error)
	ListScheduledTasks(ctx context.Context, workspaceID string, from, to time.Time) ([]persistence.Task, error)
	PlaceTask(ctx context.Context, workspaceID, taskID, calendarID string, start, end time.Time) error
}

// EventRepository captures the event interactions the planner needs.
type EventRepository interface {
	CreateEvent(ctx context.Context, event persistence.Event) error
	GetEvent(ctx context.Context, workspaceID, id string) (persistence.Event, error)
	ListEventsInRange(ctx context.Context, workspaceID string, from, to time.Time) ([]persistence.Event, error)
	ListOverlappingEvents(ctx context.Context, workspaceID, calendarID string, start, end time.Time, excludeEventID string) ([]persistence.Event, error)
	MoveEvent(ctx context.Context, workspaceID, eventID string, start, end time.Time) error
}

// CalendarRepository captures the calendar interactions the planner needs.
type CalendarRepository interface {
	CreateCalendar(ctx context.Context, calendar persistence.Calendar) error
	GetCalendar(ctx context.Context, workspaceID, id string) (persistence.Calendar, error)
	ListCalendars(ctx context.Context, workspaceID string) ([]persistence.Calendar, error)
}

// PlannerService is the single authority for placing tasks on calendars and
// relocating events. Every mutation follows the same shape: validate the
// interval, authorize the session, load the targets workspace-scoped, check
// the candidate against its calendar's committed intervals, then commit
// atomically. The store's overlap rejection backs the in-memory check, so a
// race between two writers still yields a conflict, never a double booking.
type PlannerService struct {
	tasks     TaskRepository
	events    EventRepository
	calendars CalendarRepository
	logger    *slog.Logger
}

// NewPlannerService wires dependencies for scheduling operations.
func NewPlannerService(tasks TaskRepository, events EventRepository, calendars CalendarRepository, logger *slog.Logger) *PlannerService {
	return &PlannerService{
		tasks:     tasks,
		events:    events,
		calendars: calendars,
		logger:    defaultLogger(logger),
	}
}

func (s *PlannerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlannerService", operation, attrs...)
}

// requireWorkspace rejects requests without a workspace-bound session.
func requireWorkspace(session Session) error {
	if session.UserID == "" {
		return ErrUnauthenticated
	}
	if session.WorkspaceID == "" {
		return ErrNoWorkspace
	}
	return nil
}

// candidateInterval validates the requested placement up front so malformed
// input never reaches the store.
func candidateInterval(start, end time.Time) (interval.Interval, error) {
	iv, err := interval.New(start, end)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return iv, nil
}

// ScheduleTask places a backlog task onto a calendar for the requested
// interval. The placement is rejected when the interval overlaps any event
// already committed to that calendar.
func (s *PlannerService) ScheduleTask(ctx context.Context, params ScheduleTaskParams) (task persistence.Task, err error) {
	if s == nil || s.tasks == nil || s.events == nil || s.calendars == nil {
		err = fmt.Errorf("planner service not configured")
		return
	}

	logger := s.loggerWith(ctx, "ScheduleTask",
		"task_id", params.TaskID,
		"calendar_id", params.CalendarID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "task scheduling failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "task scheduled")
	}()

	if err = requireWorkspace(params.Session); err != nil {
		return
	}
	if params.TaskID == "" || params.CalendarID == "" {
		err = fmt.Errorf("%w: task and calendar identifiers are required", ErrInvalidInput)
		return
	}
	candidate, err := candidateInterval(params.Start, params.End)
	if err != nil {
		return
	}

	workspaceID := params.Session.WorkspaceID
	if _, err = s.tasks.GetTask(ctx, workspaceID, params.TaskID); err != nil {
		err = mapLookupError(err)
		return
	}
	if _, err = s.calendars.GetCalendar(ctx, workspaceID, params.CalendarID); err != nil {
		err = mapLookupError(err)
		return
	}

	if err = s.checkCalendarConflicts(ctx, workspaceID, params.CalendarID, candidate, ""); err != nil {
		return
	}

	if err = s.tasks.PlaceTask(ctx, workspaceID, params.TaskID, params.CalendarID, candidate.Start, candidate.End); err != nil {
		err = mapCommitError(err)
		return
	}

	task, err = s.tasks.GetTask(ctx, workspaceID, params.TaskID)
	if err != nil {
		err = mapLookupError(err)
	}
	return
}

// MoveEvent relocates an existing event to a new interval on its own
// calendar. The event's previous slot does not count against it.
func (s *PlannerService) MoveEvent(ctx context.Context, params MoveEventParams) (event persistence.Event, err error) {
	if s == nil || s.tasks == nil || s.events == nil || s.calendars == nil {
		err = fmt.Errorf("planner service not configured")
		return
	}

	logger := s.loggerWith(ctx, "MoveEvent", "event_id", params.EventID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "event move failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event moved")
	}()

	if err = requireWorkspace(params.Session); err != nil {
		return
	}
	if params.EventID == "" {
		err = fmt.Errorf("%w: event identifier is required", ErrInvalidInput)
		return
	}
	candidate, err := candidateInterval(params.Start, params.End)
	if err != nil {
		return
	}

	workspaceID := params.Session.WorkspaceID
	existing, err := s.events.GetEvent(ctx, workspaceID, params.EventID)
	if err != nil {
		err = mapLookupError(err)
		return
	}

	if err = s.checkCalendarConflicts(ctx, workspaceID, existing.CalendarID, candidate, existing.ID); err != nil {
		return
	}

	if err = s.events.MoveEvent(ctx, workspaceID, params.EventID, candidate.Start, candidate.End); err != nil {
		err = mapCommitError(err)
		return
	}

	event, err = s.events.GetEvent(ctx, workspaceID, params.EventID)
	if err != nil {
		err = mapLookupError(err)
	}
	return
}

// CreateCalendar creates a calendar in the session's workspace.
func (s *PlannerService) CreateCalendar(ctx context.Context, params CreateCalendarParams, id string, now time.Time) (persistence.Calendar, error) {
	if err := requireWorkspace(params.Session); err != nil {
		return persistence.Calendar{}, err
	}
	if params.Name == "" {
		return persistence.Calendar{}, fmt.Errorf("%w: calendar name is required", ErrInvalidInput)
	}

	calendar := persistence.Calendar{
		ID:          id,
		WorkspaceID: params.Session.WorkspaceID,
		Name:        params.Name,
		Color:       params.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.calendars.CreateCalendar(ctx, calendar); err != nil {
		return persistence.Calendar{}, mapCommitError(err)
	}
	return calendar, nil
}

// CreateTask creates a backlog task in the session's workspace.
func (s *PlannerService) CreateTask(ctx context.Context, params CreateTaskParams, id string, now time.Time) (persistence.Task, error) {
	if err := requireWorkspace(params.Session); err != nil {
		return persistence.Task{}, err
	}
	if params.Title == "" {
		return persistence.Task{}, fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}

	task := persistence.Task{
		ID:          id,
		WorkspaceID: params.Session.WorkspaceID,
		Title:       params.Title,
		Status:      persistence.TaskStatusTodo,
		Due:         params.Due,
		Source:      params.Source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return persistence.Task{}, mapCommitError(err)
	}
	return task, nil
}

// CreateEvent creates an event, subject to the same conflict rules as any
// other placement on the target calendar.
func (s *PlannerService) CreateEvent(ctx context.Context, params CreateEventParams, id string, now time.Time) (persistence.Event, error) {
	if err := requireWorkspace(params.Session); err != nil {
		return persistence.Event{}, err
	}
	if params.CalendarID == "" || params.Title == "" {
		return persistence.Event{}, fmt.Errorf("%w: calendar and title are required", ErrInvalidInput)
	}
	candidate, err := candidateInterval(params.Start, params.End)
	if err != nil {
		return persistence.Event{}, err
	}

	workspaceID := params.Session.WorkspaceID
	if _, err := s.calendars.GetCalendar(ctx, workspaceID, params.CalendarID); err != nil {
		return persistence.Event{}, mapLookupError(err)
	}
	if err := s.checkCalendarConflicts(ctx, workspaceID, params.CalendarID, candidate, ""); err != nil {
		return persistence.Event{}, err
	}

	event := persistence.Event{
		ID:          id,
		WorkspaceID: workspaceID,
		CalendarID:  params.CalendarID,
		Title:       params.Title,
		Start:       candidate.Start,
		End:         candidate.End,
		AllDay:      params.AllDay,
		Source:      params.Source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return persistence.Event{}, mapCommitError(err)
	}
	return event, nil
}

// ListCalendars returns the workspace's calendars.
func (s *PlannerService) ListCalendars(ctx context.Context, session Session) ([]persistence.Calendar, error) {
	if err := requireWorkspace(session); err != nil {
		return nil, err
	}
	calendars, err := s.calendars.ListCalendars(ctx, session.WorkspaceID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return calendars, nil
}

// ListBacklog returns the workspace's unscheduled tasks.
func (s *PlannerService) ListBacklog(ctx context.Context, session Session) ([]persistence.Task, error) {
	if err := requireWorkspace(session); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListBacklogTasks(ctx, session.WorkspaceID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return tasks, nil
}

// checkCalendarConflicts fetches the calendar's committed intervals around
// the candidate and runs the half-open overlap check against each.
func (s *PlannerService) checkCalendarConflicts(ctx context.Context, workspaceID, calendarID string, candidate interval.Interval, excludeEventID string) error {
	siblings, err := s.events.ListOverlappingEvents(ctx, workspaceID, calendarID, candidate.Start, candidate.End, excludeEventID)
	if err != nil {
		return mapStoreError(err)
	}

	existing := make([]interval.Interval, 0, len(siblings))
	for _, sibling := range siblings {
		iv, err := interval.New(sibling.Start, sibling.End)
		if err != nil {
			return fmt.Errorf("stored event %s has invalid interval: %w", sibling.ID, err)
		}
		existing = append(existing, iv)
	}

	conflict, err := interval.HasConflict(candidate, existing)
	if err != nil {
		return err
	}
	if conflict {
		return fmt.Errorf("%w: interval overlaps an existing event on calendar %s", ErrConflict, calendarID)
	}
	return nil
}

// mapLookupError normalizes load failures: absent rows and rows owned by
// another workspace are both ErrNotFound.
func mapLookupError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return mapStoreError(err)
}

// mapCommitError normalizes commit failures. A storage-level overlap
// rejection is the last line of defence against racing writers and surfaces
// as the same conflict the up-front check produces.
func mapCommitError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrOverlap):
		return fmt.Errorf("%w: placement rejected by store", ErrConflict)
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate), errors.Is(err, persistence.ErrConstraintViolation), errors.Is(err, persistence.ErrForeignKeyViolation):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return mapStoreError(err)
}
