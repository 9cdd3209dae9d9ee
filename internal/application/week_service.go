package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/dayflow/internal/calendar"
)

// WeekService assembles read models for week navigation and exports.
type WeekService struct {
	calendars CalendarRepository
	events    EventRepository
	tasks     TaskRepository
	weekStart time.Weekday
	now       func() time.Time
	logger    *slog.Logger
}

// NewWeekService wires dependencies for week read models. weekStart selects
// the first day of the viewing window; only Monday and Sunday are meaningful
// and anything else is treated as Monday.
func NewWeekService(calendars CalendarRepository, events EventRepository, tasks TaskRepository, weekStart time.Weekday, now func() time.Time, logger *slog.Logger) *WeekService {
	if now == nil {
		now = time.Now
	}
	if weekStart != time.Sunday {
		weekStart = time.Monday
	}
	return &WeekService{
		calendars: calendars,
		events:    events,
		tasks:     tasks,
		weekStart: weekStart,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *WeekService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WeekService", operation, attrs...)
}

// Resolve maps a requested week identifier to its half-open viewing range.
// A malformed or out-of-range identifier resolves to the current week, so
// navigation always lands somewhere sensible. Identifiers stay ISO (Monday
// anchored) regardless of the week-start policy; a Sunday policy only shifts
// the viewing window back one day, keeping navigation stable.
func (s *WeekService) Resolve(weekID string) (string, calendar.Range) {
	r := calendar.WeekRangeAt(weekID, s.now())
	id := calendar.WeekID(r.Start)
	if s.weekStart == time.Sunday {
		start := calendar.StartOfWeek(r.Start, time.Sunday)
		r = calendar.Range{Start: start, End: start.AddDate(0, 0, 7)}
	}
	return id, r
}

// WeekView loads everything needed to render one week of the planner for the
// session's workspace: the calendars, the events and scheduled tasks whose
// intervals overlap the week, and the backlog.
func (s *WeekService) WeekView(ctx context.Context, session Session, weekID string) (view WeekView, err error) {
	if s == nil || s.calendars == nil || s.events == nil || s.tasks == nil {
		err = fmt.Errorf("week service not configured")
		return
	}

	logger := s.loggerWith(ctx, "WeekView", "week_id", weekID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "week view failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if err = requireWorkspace(session); err != nil {
		return
	}

	resolvedID, weekRange := s.Resolve(weekID)
	workspaceID := session.WorkspaceID

	calendars, err := s.calendars.ListCalendars(ctx, workspaceID)
	if err != nil {
		err = mapStoreError(err)
		return
	}
	events, err := s.events.ListEventsInRange(ctx, workspaceID, weekRange.Start, weekRange.End)
	if err != nil {
		err = mapStoreError(err)
		return
	}
	scheduled, err := s.tasks.ListScheduledTasks(ctx, workspaceID, weekRange.Start, weekRange.End)
	if err != nil {
		err = mapStoreError(err)
		return
	}
	backlog, err := s.tasks.ListBacklogTasks(ctx, workspaceID)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	view = WeekView{
		WeekID:    resolvedID,
		Range:     weekRange,
		Calendars: calendars,
		Events:    events,
		Scheduled: scheduled,
		Backlog:   backlog,
	}
	return
}

// ExportICS renders the week's committed placements as an iCalendar
// document. Scheduled tasks are included alongside events so the export
// mirrors what the week view shows.
func (s *WeekService) ExportICS(ctx context.Context, session Session, weekID string) (string, error) {
	view, err := s.WeekView(ctx, session, weekID)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//dayflow//week planner//EN")
	cal.SetXWRCalName(fmt.Sprintf("dayflow %s", view.WeekID))

	stamp := s.now()
	for _, event := range view.Events {
		entry := cal.AddEvent(fmt.Sprintf("event-%s@dayflow", event.ID))
		entry.SetDtStampTime(stamp)
		entry.SetSummary(event.Title)
		if event.AllDay {
			entry.SetAllDayStartAt(event.Start)
			entry.SetAllDayEndAt(event.End)
		} else {
			entry.SetStartAt(event.Start)
			entry.SetEndAt(event.End)
		}
	}
	for _, task := range view.Scheduled {
		if !task.Scheduled() {
			continue
		}
		entry := cal.AddEvent(fmt.Sprintf("task-%s@dayflow", task.ID))
		entry.SetDtStampTime(stamp)
		entry.SetSummary(task.Title)
		entry.SetStartAt(*task.ScheduledStart)
		entry.SetEndAt(*task.ScheduledEnd)
	}

	return cal.Serialize(), nil
}
