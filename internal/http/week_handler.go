package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/dayflow/internal/application"
)

type weekService interface {
	WeekView(ctx context.Context, session application.Session, weekID string) (application.WeekView, error)
	ExportICS(ctx context.Context, session application.Session, weekID string) (string, error)
}

// WeekHandler exposes the week read model and its iCalendar export.
type WeekHandler struct {
	service   weekService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewWeekHandler builds the week endpoints.
func NewWeekHandler(service weekService, now func() time.Time, logger *slog.Logger) *WeekHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &WeekHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

func (h *WeekHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WeekHandler", operation, attrs...)
}

type weekViewResponse struct {
	WeekID    string        `json:"week_id"`
	Start     string        `json:"start"`
	End       string        `json:"end"`
	Calendars []calendarDTO `json:"calendars"`
	Events    []eventDTO    `json:"events"`
	Scheduled []taskDTO     `json:"scheduled_tasks"`
	Backlog   []taskDTO     `json:"backlog"`
}

// View handles GET /weeks/{weekId}.
func (h *WeekHandler) View(w http.ResponseWriter, r *http.Request, weekID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "authentication is required"})
		return
	}

	logger := h.log(r.Context(), "View", "week_id", weekID)

	view, err := h.service.WeekView(r.Context(), session, weekID)
	if err != nil {
		logger.ErrorContext(r.Context(), "week view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := weekViewResponse{
		WeekID:    view.WeekID,
		Start:     view.Range.Start.UTC().Format(time.RFC3339),
		End:       view.Range.End.UTC().Format(time.RFC3339),
		Calendars: make([]calendarDTO, 0, len(view.Calendars)),
		Events:    make([]eventDTO, 0, len(view.Events)),
		Scheduled: make([]taskDTO, 0, len(view.Scheduled)),
		Backlog:   make([]taskDTO, 0, len(view.Backlog)),
	}
	for _, calendar := range view.Calendars {
		response.Calendars = append(response.Calendars, toCalendarDTO(calendar))
	}
	for _, event := range view.Events {
		response.Events = append(response.Events, toEventDTO(event))
	}
	now := h.now()
	for _, task := range view.Scheduled {
		response.Scheduled = append(response.Scheduled, toTaskDTO(task, now))
	}
	for _, task := range view.Backlog {
		response.Backlog = append(response.Backlog, toTaskDTO(task, now))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// ExportICS handles GET /weeks/{weekId}/calendar.ics.
func (h *WeekHandler) ExportICS(w http.ResponseWriter, r *http.Request, weekID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	session, ok := SessionFromContext(r.Context())
	if !ok {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: "authentication is required"})
		return
	}

	logger := h.log(r.Context(), "ExportICS", "week_id", weekID)

	payload, err := h.service.ExportICS(r.Context(), session, weekID)
	if err != nil {
		logger.ErrorContext(r.Context(), "ICS export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dayflow-week.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(payload)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write ICS payload", "error", err)
	}
}
