package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/dayflow/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository on SQLite.
type TaskRepository struct {
	pool *ConnectionPool
}

// NewTaskRepository creates a SQLite-backed task repository.
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `id, workspace_id, title, status, due, calendar_id, scheduled_start, scheduled_end, source, created_at, updated_at`

// CreateTask stores a new task, scheduled or not.
func (r *TaskRepository) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" || task.WorkspaceID == "" || strings.TrimSpace(task.Title) == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = now
	}
	if task.Status == "" {
		task.Status = persistence.TaskStatusTodo
	}
	if task.Source == "" {
		task.Source = "local"
	}

	const query = `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		task.ID,
		task.WorkspaceID,
		strings.TrimSpace(task.Title),
		task.Status,
		formatTimePtr(task.Due),
		nullString(task.CalendarID),
		formatTimePtr(task.ScheduledStart),
		formatTimePtr(task.ScheduledEnd),
		task.Source,
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	return mapError(err)
}

// GetTask retrieves a task inside the workspace.
func (r *TaskRepository) GetTask(ctx context.Context, workspaceID, id string) (persistence.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = ? AND workspace_id = ?
	`
	rows, err := r.pool.db.QueryContext(ctx, query, id, workspaceID)
	if err != nil {
		return persistence.Task{}, mapError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return persistence.Task{}, mapError(err)
		}
		return persistence.Task{}, persistence.ErrNotFound
	}
	return scanTask(rows)
}

// ListBacklogTasks returns the workspace's unscheduled tasks ordered by
// creation time.
func (r *TaskRepository) ListBacklogTasks(ctx context.Context, workspaceID string) ([]persistence.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE workspace_id = ? AND scheduled_start IS NULL
		ORDER BY created_at, id
	`
	return r.queryTasks(ctx, query, workspaceID)
}

// ListScheduledTasks returns tasks whose scheduled interval overlaps
// [from, to).
func (r *TaskRepository) ListScheduledTasks(ctx context.Context, workspaceID string, from, to time.Time) ([]persistence.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE workspace_id = ?
		  AND scheduled_start IS NOT NULL
		  AND scheduled_start < ?
		  AND scheduled_end > ?
		ORDER BY scheduled_start, id
	`
	return r.queryTasks(ctx, query, workspaceID, formatTime(to), formatTime(from))
}

// PlaceTask atomically assigns calendar and interval in a single update, so
// a partially placed task is never observable. The overlap trigger is the
// final guard against a concurrent conflicting commit.
func (r *TaskRepository) PlaceTask(ctx context.Context, workspaceID, taskID, calendarID string, start, end time.Time) error {
	if calendarID == "" || !end.After(start) {
		return persistence.ErrConstraintViolation
	}

	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE tasks
		SET calendar_id = ?, scheduled_start = ?, scheduled_end = ?, updated_at = ?
		WHERE id = ? AND workspace_id = ?
	`,
		calendarID,
		formatTime(start),
		formatTime(end),
		formatTime(time.Now()),
		taskID,
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

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]persistence.Task, error) {
	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tasks []persistence.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(rows *sql.Rows) (persistence.Task, error) {
	var task persistence.Task
	var due, calendarID, scheduledStart, scheduledEnd sql.NullString
	var createdAt, updatedAt string

	err := rows.Scan(
		&task.ID,
		&task.WorkspaceID,
		&task.Title,
		&task.Status,
		&due,
		&calendarID,
		&scheduledStart,
		&scheduledEnd,
		&task.Source,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Task{}, mapError(err)
	}

	task.CalendarID = stringPtr(calendarID)
	if task.Due, err = parseTimePtr(due); err != nil {
		return persistence.Task{}, err
	}
	if task.ScheduledStart, err = parseTimePtr(scheduledStart); err != nil {
		return persistence.Task{}, err
	}
	if task.ScheduledEnd, err = parseTimePtr(scheduledEnd); err != nil {
		return persistence.Task{}, err
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Task{}, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Task{}, err
	}
	return task, nil
}
