package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires handlers and the middleware chain. Authenticated groups
// receive the session middleware; the login endpoint stays outside it.
type RouterConfig struct {
	Auth         *AuthHandler
	Planner      *PlannerHandler
	Weeks        *WeekHandler
	Integrations *IntegrationHandler
	// SessionMiddleware wraps every route that requires a resolved session.
	SessionMiddleware func(http.Handler) http.Handler
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter assembles the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireSession := cfg.SessionMiddleware
	if requireSession == nil {
		requireSession = func(next http.Handler) http.Handler { return next }
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})
	}

	if cfg.Planner != nil {
		mux.Handle("/calendars", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Planner.ListCalendars(w, r)
			case http.MethodPost:
				cfg.Planner.CreateCalendar(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/backlog", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Planner.ListBacklog(w, r)
		})))
		mux.Handle("/tasks", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Planner.CreateTask(w, r)
		})))
		mux.Handle("/tasks/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
			id, action, found := strings.Cut(rest, "/")
			if !found || id == "" || action != "schedule" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Planner.ScheduleTask(w, r, id)
		})))
		mux.Handle("/events", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Planner.CreateEvent(w, r)
		})))
		mux.Handle("/events/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/events/")
			id, action, found := strings.Cut(rest, "/")
			if !found || id == "" || action != "move" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Planner.MoveEvent(w, r, id)
		})))
	}

	if cfg.Weeks != nil {
		mux.Handle("/weeks/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			rest := strings.TrimPrefix(r.URL.Path, "/weeks/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}
			weekID, suffix, found := strings.Cut(rest, "/")
			switch {
			case !found:
				cfg.Weeks.View(w, r, weekID)
			case suffix == "calendar.ics":
				cfg.Weeks.ExportICS(w, r, weekID)
			default:
				http.NotFound(w, r)
			}
		})))
	}

	if cfg.Integrations != nil {
		mux.Handle("/integrations", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Integrations.ListProviders(w, r)
		})))
		mux.Handle("/integrations/", requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			rest := strings.TrimPrefix(r.URL.Path, "/integrations/")
			provider, resource, found := strings.Cut(rest, "/")
			if !found || provider == "" {
				http.NotFound(w, r)
				return
			}
			switch resource {
			case "tasks":
				cfg.Integrations.FetchTasks(w, r, provider)
			case "events":
				cfg.Integrations.FetchEvents(w, r, provider)
			default:
				http.NotFound(w, r)
			}
		})))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
