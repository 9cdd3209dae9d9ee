// Package http provides the HTTP handlers and middleware for the planner API.
//
// The router exposes the following endpoints:
//   - POST /sessions: exchanges {"email","password"} for a session. The
//     credential is returned in the body and set as the `dayflow_session`
//     cookie (HttpOnly, SameSite=Lax, Secure outside development).
//   - DELETE /sessions/current: revokes the presented credential and clears
//     the cookie. Returns 204 No Content.
//   - GET /calendars, POST /calendars: calendar catalog for the session's
//     workspace.
//   - POST /tasks, GET /backlog: backlog task creation and listing.
//   - POST /tasks/{id}/schedule: places a backlog task on a calendar. Body:
//     {"calendar_id","start","end"} with RFC 3339 instants. Responds with
//     {"ok":true,"task":...} or {"ok":false,"error":...} (409 on conflict).
//   - POST /events, POST /events/{id}/move: event creation and relocation,
//     with the same ok-shaped mutation response.
//   - GET /weeks/{weekId}: the week read model. A malformed week identifier
//     resolves to the current week.
//   - GET /weeks/{weekId}/calendar.ics: the week as an iCalendar document.
//   - GET /integrations, GET /integrations/{provider}/tasks,
//     GET /integrations/{provider}/events: read-only access to the registered
//     external providers.
//
// All routes except POST /sessions sit behind the session middleware.
// Request and response DTOs live alongside their handlers.
package http
