package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/dayflow/internal/application"
	"github.com/example/dayflow/internal/integrations"
)

// IntegrationHandler exposes read-only access to external providers.
type IntegrationHandler struct {
	dispatcher *integrations.Dispatcher
	now        func() time.Time
	responder  responder
	logger     *slog.Logger
}

// NewIntegrationHandler builds the integration endpoints.
func NewIntegrationHandler(dispatcher *integrations.Dispatcher, now func() time.Time, logger *slog.Logger) *IntegrationHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &IntegrationHandler{dispatcher: dispatcher, now: now, responder: newResponder(base), logger: base}
}

func (h *IntegrationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "IntegrationHandler", operation, attrs...)
}

type externalTaskDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Source    string `json:"source"`
}

type externalEventDTO struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Source string `json:"source"`
}

// ListProviders handles GET /integrations.
func (h *IntegrationHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.dispatcher == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	providers := h.dispatcher.Providers()
	names := make([]string, 0, len(providers))
	for _, provider := range providers {
		names = append(names, string(provider))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]string{"providers": names})
}

// FetchTasks handles GET /integrations/{provider}/tasks.
func (h *IntegrationHandler) FetchTasks(w http.ResponseWriter, r *http.Request, provider string) {
	if h == nil || h.dispatcher == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "FetchTasks", "provider", provider)

	tasks, err := h.dispatcher.FetchTasks(r.Context(), integrations.Provider(provider))
	if err != nil {
		logger.ErrorContext(r.Context(), "provider task fetch failed", "error", err)
		h.writeDispatchError(r.Context(), w, err)
		return
	}

	dtos := make([]externalTaskDTO, 0, len(tasks))
	for _, task := range tasks {
		dtos = append(dtos, externalTaskDTO{
			ID:        task.ID,
			Title:     task.Title,
			Completed: task.Completed,
			Source:    string(task.Source),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

// FetchEvents handles GET /integrations/{provider}/events. The window
// defaults to the seven days starting now when the query omits it.
func (h *IntegrationHandler) FetchEvents(w http.ResponseWriter, r *http.Request, provider string) {
	if h == nil || h.dispatcher == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "FetchEvents", "provider", provider)

	from, to := h.now(), h.now().AddDate(0, 0, 7)
	query := r.URL.Query()
	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, application.ErrInvalidInput)
			return
		}
		from = parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, application.ErrInvalidInput)
			return
		}
		to = parsed
	}

	events, err := h.dispatcher.FetchEvents(r.Context(), integrations.Provider(provider), from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "provider event fetch failed", "error", err)
		h.writeDispatchError(r.Context(), w, err)
		return
	}

	dtos := make([]externalEventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, externalEventDTO{
			ID:     event.ID,
			Title:  event.Title,
			Start:  event.Start.UTC().Format(time.RFC3339),
			End:    event.End.UTC().Format(time.RFC3339),
			Source: string(event.Source),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

func (h *IntegrationHandler) writeDispatchError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, integrations.ErrUnknownProvider) {
		h.responder.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "no connector is registered for this provider"})
		return
	}
	h.responder.handleServiceError(ctx, w, err)
}
