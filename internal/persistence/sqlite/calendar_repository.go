package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/dayflow/internal/persistence"
)

// CalendarRepository implements persistence.CalendarRepository on SQLite.
// Every query carries the workspace filter; an identifier that exists in a
// different workspace behaves exactly like one that does not exist.
type CalendarRepository struct {
	pool *ConnectionPool
}

// NewCalendarRepository creates a SQLite-backed calendar repository.
func NewCalendarRepository(pool *ConnectionPool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

// CreateCalendar stores a new calendar.
func (r *CalendarRepository) CreateCalendar(ctx context.Context, calendar persistence.Calendar) error {
	if calendar.ID == "" || calendar.WorkspaceID == "" || strings.TrimSpace(calendar.Name) == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now()
	if calendar.CreatedAt.IsZero() {
		calendar.CreatedAt = now
	}
	if calendar.UpdatedAt.IsZero() {
		calendar.UpdatedAt = now
	}

	const query = `
		INSERT INTO calendars (id, workspace_id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		calendar.ID,
		calendar.WorkspaceID,
		strings.TrimSpace(calendar.Name),
		calendar.Color,
		formatTime(calendar.CreatedAt),
		formatTime(calendar.UpdatedAt),
	)
	return mapError(err)
}

// GetCalendar retrieves a calendar inside the workspace.
func (r *CalendarRepository) GetCalendar(ctx context.Context, workspaceID, id string) (persistence.Calendar, error) {
	const query = `
		SELECT id, workspace_id, name, color, created_at, updated_at
		FROM calendars
		WHERE id = ? AND workspace_id = ?
	`
	var calendar persistence.Calendar
	var createdAt, updatedAt string

	err := r.pool.db.QueryRowContext(ctx, query, id, workspaceID).Scan(
		&calendar.ID,
		&calendar.WorkspaceID,
		&calendar.Name,
		&calendar.Color,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Calendar{}, mapError(err)
	}

	if calendar.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Calendar{}, err
	}
	if calendar.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Calendar{}, err
	}
	return calendar, nil
}

// ListCalendars returns the workspace's calendars ordered by name.
func (r *CalendarRepository) ListCalendars(ctx context.Context, workspaceID string) ([]persistence.Calendar, error) {
	const query = `
		SELECT id, workspace_id, name, color, created_at, updated_at
		FROM calendars
		WHERE workspace_id = ?
		ORDER BY name, id
	`
	rows, err := r.pool.db.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var calendars []persistence.Calendar
	for rows.Next() {
		var calendar persistence.Calendar
		var createdAt, updatedAt string
		if err := rows.Scan(
			&calendar.ID,
			&calendar.WorkspaceID,
			&calendar.Name,
			&calendar.Color,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, mapError(err)
		}
		if calendar.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if calendar.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		calendars = append(calendars, calendar)
	}
	return calendars, rows.Err()
}
