package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/dayflow/internal/persistence"
)

// UserRepository implements persistence.UserRepository on SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser stores a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" || user.WorkspaceID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	const query = `
		INSERT INTO users (id, email, display_name, password_hash, workspace_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		user.ID,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.DisplayName,
		user.PasswordHash,
		user.WorkspaceID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// GetUser retrieves a user by identifier.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	const query = `
		SELECT id, email, display_name, password_hash, workspace_id, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	return r.scanUser(r.pool.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by normalized email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	const query = `
		SELECT id, email, display_name, password_hash, workspace_id, created_at, updated_at
		FROM users
		WHERE email = ?
	`
	return r.scanUser(r.pool.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) scanUser(row *sql.Row) (persistence.User, error) {
	var user persistence.User
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.WorkspaceID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

// WorkspaceRepository implements persistence.WorkspaceRepository on SQLite.
type WorkspaceRepository struct {
	pool *ConnectionPool
}

// NewWorkspaceRepository creates a SQLite-backed workspace repository.
func NewWorkspaceRepository(pool *ConnectionPool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// CreateWorkspace stores a new workspace.
func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, workspace persistence.Workspace) error {
	if workspace.ID == "" || strings.TrimSpace(workspace.Slug) == "" {
		return persistence.ErrConstraintViolation
	}
	if workspace.CreatedAt.IsZero() {
		workspace.CreatedAt = time.Now()
	}

	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		workspace.ID,
		workspace.Name,
		strings.ToLower(strings.TrimSpace(workspace.Slug)),
		formatTime(workspace.CreatedAt),
	)
	return mapError(err)
}

// GetWorkspace retrieves a workspace by identifier.
func (r *WorkspaceRepository) GetWorkspace(ctx context.Context, id string) (persistence.Workspace, error) {
	var workspace persistence.Workspace
	var createdAt string

	err := r.pool.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM workspaces WHERE id = ?`, id,
	).Scan(&workspace.ID, &workspace.Name, &workspace.Slug, &createdAt)
	if err != nil {
		return persistence.Workspace{}, mapError(err)
	}

	if workspace.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Workspace{}, err
	}
	return workspace, nil
}
