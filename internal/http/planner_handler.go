package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/dayflow/internal/application"
	"github.com/example/dayflow/internal/persistence"
)

type plannerService interface {
	ScheduleTask(ctx context.Context, params application.ScheduleTaskParams) (persistence.Task, error)
	MoveEvent(ctx context.Context, params application.MoveEventParams) (persistence.Event, error)
	CreateCalendar(ctx context.Context, params application.CreateCalendarParams, id string, now time.Time) (persistence.Calendar, error)
	CreateTask(ctx context.Context, params application.CreateTaskParams, id string, now time.Time) (persistence.Task, error)
	CreateEvent(ctx context.Context, params application.CreateEventParams, id string, now time.Time) (persistence.Event, error)
	ListCalendars(ctx context.Context, session application.Session) ([]persistence.Calendar, error)
	ListBacklog(ctx context.Context, session application.Session) ([]persistence.Task, error)
}

// PlannerHandler exposes scheduling mutations and planner CRUD.
type PlannerHandler struct {
	service   plannerService
	idGen     func() string
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewPlannerHandler builds the planner endpoints.
func NewPlannerHandler(service plannerService, idGen func() string, now func() time.Time, logger *slog.Logger) *PlannerHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &PlannerHandler{
		service:   service,
		idGen:     idGen,
		now:       now,
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *PlannerHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PlannerHandler", operation, attrs...)
}

type intervalRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r intervalRequest) parse() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, r.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

type scheduleTaskRequest struct {
	CalendarID string `json:"calendar_id"`
	intervalRequest
}

type mutationResponse struct {
	OK    bool        `json:"ok"`
	Task  *taskDTO    `json:"task,omitempty"`
	Event *eventDTO   `json:"event,omitempty"`
	Error string      `json:"error,omitempty"`
}

type taskDTO struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Status         string  `json:"status"`
	Due            *string `json:"due,omitempty"`
	Overdue        bool    `json:"overdue,omitempty"`
	CalendarID     *string `json:"calendar_id,omitempty"`
	ScheduledStart *string `json:"scheduled_start,omitempty"`
	ScheduledEnd   *string `json:"scheduled_end,omitempty"`
	Source         string  `json:"source,omitempty"`
}

type eventDTO struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendar_id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	AllDay     bool   `json:"all_day"`
	Source     string `json:"source,omitempty"`
}

type calendarDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func toTaskDTO(task persistence.Task, now time.Time) taskDTO {
	dto := taskDTO{
		ID:         task.ID,
		Title:      task.Title,
		Status:     task.Status,
		Overdue:    task.Overdue(now),
		CalendarID: task.CalendarID,
		Source:     task.Source,
	}
	if task.Due != nil {
		due := task.Due.UTC().Format(time.RFC3339)
		dto.Due = &due
	}
	if task.ScheduledStart != nil {
		start := task.ScheduledStart.UTC().Format(time.RFC3339)
		dto.ScheduledStart = &start
	}
	if task.ScheduledEnd != nil {
		end := task.ScheduledEnd.UTC().Format(time.RFC3339)
		dto.ScheduledEnd = &end
	}
	return dto
}

func toEventDTO(event persistence.Event) eventDTO {
	return eventDTO{
		ID:         event.ID,
		CalendarID: event.CalendarID,
		Title:      event.Title,
		Start:      event.Start.UTC().Format(time.RFC3339),
		End:        event.End.UTC().Format(time.RFC3339),
		AllDay:     event.AllDay,
		Source:     event.Source,
	}
}

func toCalendarDTO(calendar persistence.Calendar) calendarDTO {
	return calendarDTO{ID: calendar.ID, Name: calendar.Name, Color: calendar.Color}
}

// writeMutationError reports a failed scheduling mutation in the `ok` shape
// the planner clients consume, with the status derived from the taxonomy.
func (h *PlannerHandler) writeMutationError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		h.responder.writeJSON(ctx, w, http.StatusUnprocessableEntity, mutationResponse{OK: false, Error: "the submitted input is invalid"})
		return
	}
	h.responder.writeJSON(ctx, w, statusForError(err), mutationResponse{OK: false, Error: messageForError(err)})
}

func (h *PlannerHandler) requireSession(w http.ResponseWriter, r *http.Request, operation string) (application.Session, bool) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.log(r.Context(), operation, "error_kind", "unauthenticated").ErrorContext(r.Context(), "request reached handler without a session")
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "authentication is required"})
		return application.Session{}, false
	}
	return session, true
}

// ScheduleTask handles POST /tasks/{id}/schedule.
func (h *PlannerHandler) ScheduleTask(w http.ResponseWriter, r *http.Request, taskID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, ok := h.requireSession(w, r, "ScheduleTask")
	if !ok {
		return
	}

	var req scheduleTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	start, end, err := req.parse()
	if err != nil {
		h.writeMutationError(r.Context(), w, fmt.Errorf("%w: %v", application.ErrInvalidInput, err))
		return
	}

	logger := h.log(r.Context(), "ScheduleTask", "task_id", taskID, "calendar_id", req.CalendarID)

	task, err := h.service.ScheduleTask(r.Context(), application.ScheduleTaskParams{
		Session:    session,
		TaskID:     taskID,
		CalendarID: req.CalendarID,
		Start:      start,
		End:        end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "task scheduling rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.writeMutationError(r.Context(), w, err)
		return
	}

	dto := toTaskDTO(task, h.now())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mutationResponse{OK: true, Task: &dto})
}

// MoveEvent handles POST /events/{id}/move.
func (h *PlannerHandler) MoveEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, ok := h.requireSession(w, r, "MoveEvent")
	if !ok {
		return
	}

	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	start, end, err := req.parse()
	if err != nil {
		h.writeMutationError(r.Context(), w, fmt.Errorf("%w: %v", application.ErrInvalidInput, err))
		return
	}

	logger := h.log(r.Context(), "MoveEvent", "event_id", eventID)

	event, err := h.service.MoveEvent(r.Context(), application.MoveEventParams{
		Session: session,
		EventID: eventID,
		Start:   start,
		End:     end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event move rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.writeMutationError(r.Context(), w, err)
		return
	}

	dto := toEventDTO(event)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, mutationResponse{OK: true, Event: &dto})
}

// CreateCalendar handles POST /calendars.
func (h *PlannerHandler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r, "CreateCalendar")
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	calendar, err := h.service.CreateCalendar(r.Context(), application.CreateCalendarParams{
		Session: session,
		Name:    req.Name,
		Color:   req.Color,
	}, h.idGen(), h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toCalendarDTO(calendar))
}

// ListCalendars handles GET /calendars.
func (h *PlannerHandler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r, "ListCalendars")
	if !ok {
		return
	}

	calendars, err := h.service.ListCalendars(r.Context(), session)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]calendarDTO, 0, len(calendars))
	for _, calendar := range calendars {
		dtos = append(dtos, toCalendarDTO(calendar))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

// CreateTask handles POST /tasks.
func (h *PlannerHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r, "CreateTask")
	if !ok {
		return
	}

	var req struct {
		Title  string `json:"title"`
		Due    string `json:"due"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var due *time.Time
	if req.Due != "" {
		parsed, err := time.Parse(time.RFC3339, req.Due)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, fmt.Errorf("%w: due: %v", application.ErrInvalidInput, err))
			return
		}
		due = &parsed
	}

	task, err := h.service.CreateTask(r.Context(), application.CreateTaskParams{
		Session: session,
		Title:   req.Title,
		Due:     due,
		Source:  req.Source,
	}, h.idGen(), h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTaskDTO(task, h.now()))
}

// ListBacklog handles GET /backlog.
func (h *PlannerHandler) ListBacklog(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r, "ListBacklog")
	if !ok {
		return
	}

	tasks, err := h.service.ListBacklog(r.Context(), session)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	now := h.now()
	dtos := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		dtos = append(dtos, toTaskDTO(task, now))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

// CreateEvent handles POST /events.
func (h *PlannerHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r, "CreateEvent")
	if !ok {
		return
	}

	var req struct {
		CalendarID string `json:"calendar_id"`
		Title      string `json:"title"`
		AllDay     bool   `json:"all_day"`
		Source     string `json:"source"`
		intervalRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	start, end, err := req.parse()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, fmt.Errorf("%w: %v", application.ErrInvalidInput, err))
		return
	}

	event, err := h.service.CreateEvent(r.Context(), application.CreateEventParams{
		Session:    session,
		CalendarID: req.CalendarID,
		Title:      req.Title,
		Start:      start,
		End:        end,
		AllDay:     req.AllDay,
		Source:     req.Source,
	}, h.idGen(), h.now())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(event))
}
