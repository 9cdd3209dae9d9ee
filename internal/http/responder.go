package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/dayflow/internal/application"
)

var (
	errBadRequestBody      = errors.New("request body is not valid JSON")
	errMissingSessionToken = errors.New("a session token is required")
)

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates the application error taxonomy into HTTP
// status codes and a uniform error payload.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the submitted input is invalid",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	status := statusForError(err)
	response := errorResponse{Message: messageForError(err)}
	if code := codeForError(err); code != "" {
		response.ErrorCode = code
	}
	if status >= http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err, "error_kind", application.ErrorKind(err))
	}
	r.writeJSON(ctx, w, status, response)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrUnauthenticated),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrNoWorkspace):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, application.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageForError(err error) string {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		return "the request is invalid"
	case errors.Is(err, application.ErrInvalidCredentials):
		return "email or password is incorrect"
	case errors.Is(err, application.ErrSessionExpired):
		return "the session has expired, sign in again"
	case errors.Is(err, application.ErrSessionRevoked):
		return "the session has been revoked, sign in again"
	case errors.Is(err, application.ErrUnauthenticated):
		return "authentication is required"
	case errors.Is(err, application.ErrNoWorkspace):
		return "the session is not bound to a workspace"
	case errors.Is(err, application.ErrNotFound):
		return "the requested resource was not found"
	case errors.Is(err, application.ErrConflict):
		return "the requested time conflicts with an existing placement"
	case errors.Is(err, application.ErrStoreUnavailable):
		return "the planner store is temporarily unavailable"
	default:
		return "an internal error occurred"
	}
}

func codeForError(err error) string {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return "AUTH_INVALID_CREDENTIALS"
	case errors.Is(err, application.ErrSessionExpired):
		return "AUTH_SESSION_EXPIRED"
	case errors.Is(err, application.ErrSessionRevoked):
		return "AUTH_SESSION_REVOKED"
	case errors.Is(err, application.ErrConflict):
		return "PLANNER_CONFLICT"
	default:
		return ""
	}
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request is invalid"
	case http.StatusUnauthorized:
		return "authentication is required"
	case http.StatusForbidden:
		return "this operation is not permitted"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with the current state"
	case http.StatusUnprocessableEntity:
		return "the submitted input is invalid"
	default:
		return "an internal error occurred"
	}
}
