package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/dayflow/internal/persistence"
)

// EventRepository implements persistence.EventRepository on SQLite.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates a SQLite-backed event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, workspace_id, calendar_id, title, start_at, end_at, all_day, source, created_at, updated_at`

// CreateEvent stores a new event. The overlap trigger rejects the insert
// when the interval collides with a sibling on the same calendar.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || event.WorkspaceID == "" || event.CalendarID == "" {
		return persistence.ErrConstraintViolation
	}
	if !event.End.After(event.Start) {
		return persistence.ErrConstraintViolation
	}

	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = now
	}

	const query = `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		event.ID,
		event.WorkspaceID,
		event.CalendarID,
		strings.TrimSpace(event.Title),
		formatTime(event.Start),
		formatTime(event.End),
		boolToInt(event.AllDay),
		event.Source,
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	return mapError(err)
}

// GetEvent retrieves an event inside the workspace.
func (r *EventRepository) GetEvent(ctx context.Context, workspaceID, id string) (persistence.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = ? AND workspace_id = ?
	`
	rows, err := r.pool.db.QueryContext(ctx, query, id, workspaceID)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return persistence.Event{}, mapError(err)
		}
		return persistence.Event{}, persistence.ErrNotFound
	}
	return scanEvent(rows)
}

// ListEventsInRange returns the workspace's events overlapping [from, to),
// ordered by start.
func (r *EventRepository) ListEventsInRange(ctx context.Context, workspaceID string, from, to time.Time) ([]persistence.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE workspace_id = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at, id
	`
	return r.queryEvents(ctx, query, workspaceID, formatTime(to), formatTime(from))
}

// ListOverlappingEvents returns events on the calendar overlapping
// [start, end). The window is overlap-based rather than start-bucketed so an
// event that begins before the candidate but runs into it is never missed.
func (r *EventRepository) ListOverlappingEvents(ctx context.Context, workspaceID, calendarID string, start, end time.Time, excludeEventID string) ([]persistence.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE workspace_id = ? AND calendar_id = ? AND start_at < ? AND end_at > ?
	`
	args := []any{workspaceID, calendarID, formatTime(end), formatTime(start)}
	if excludeEventID != "" {
		query += ` AND id <> ?`
		args = append(args, excludeEventID)
	}
	query += ` ORDER BY start_at, id`

	return r.queryEvents(ctx, query, args...)
}

// MoveEvent atomically rewrites the event's interval. The workspace filter
// makes a cross-workspace identifier indistinguishable from an absent one,
// and the overlap trigger turns a concurrent double-booking into ErrOverlap.
func (r *EventRepository) MoveEvent(ctx context.Context, workspaceID, eventID string, start, end time.Time) error {
	if !end.After(start) {
		return persistence.ErrConstraintViolation
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE events
		SET start_at = ?, end_at = ?, updated_at = ?
		WHERE id = ? AND workspace_id = ?
	`,
		formatTime(start),
		formatTime(end),
		formatTime(time.Now()),
		eventID,
		workspaceID,
	)
	if err != nil {
		return mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]persistence.Event, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (persistence.Event, error) {
	var event persistence.Event
	var startAt, endAt, createdAt, updatedAt string
	var allDay int

	err := rows.Scan(
		&event.ID,
		&event.WorkspaceID,
		&event.CalendarID,
		&event.Title,
		&startAt,
		&endAt,
		&allDay,
		&event.Source,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}

	event.AllDay = allDay != 0
	if event.Start, err = parseTime(startAt); err != nil {
		return persistence.Event{}, err
	}
	if event.End, err = parseTime(endAt); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
