package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/dayflow/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository on SQLite.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a SQLite-backed session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession stores a new durable session record.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if strings.TrimSpace(session.ID) == "" || session.UserID == "" || session.WorkspaceID == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if session.ExpiresAt.IsZero() {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	normalized := session
	normalized.ID = strings.TrimSpace(session.ID)
	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = time.Now()
	}
	normalized.CreatedAt = normalized.CreatedAt.UTC().Truncate(time.Second)
	normalized.ExpiresAt = normalized.ExpiresAt.UTC().Truncate(time.Second)

	const query = `
		INSERT INTO sessions (id, user_id, workspace_id, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		normalized.ID,
		normalized.UserID,
		normalized.WorkspaceID,
		formatTime(normalized.CreatedAt),
		formatTime(normalized.ExpiresAt),
		formatTimePtr(normalized.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}
	return normalized, nil
}

// GetSession retrieves a session by identifier regardless of validity;
// expiry and revocation policy belongs to the caller.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	const query = `
		SELECT id, user_id, workspace_id, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = ?
	`
	return scanSession(r.pool.db.QueryRowContext(ctx, query, trimmed))
}

// RevokeSession stamps the record with a revocation time. The row is kept
// for auditability. Stamp and reread run in one transaction so the returned
// record always reflects the committed state; revoking an already revoked
// session keeps the original stamp.
func (r *SessionRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	stamp := revokedAt.UTC().Truncate(time.Second)
	var session persistence.Session
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
			formatTime(stamp), trimmed,
		); err != nil {
			return mapError(err)
		}

		row := tx.QueryRowContext(ctx,
			`SELECT id, user_id, workspace_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`,
			trimmed,
		)
		var scanErr error
		session, scanErr = scanSession(row)
		return scanErr
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// DeleteExpiredSessions prunes rows whose expiry is at or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`,
		formatTime(reference),
	)
	return mapError(err)
}

func scanSession(row *sql.Row) (persistence.Session, error) {
	var session persistence.Session
	var createdAt, expiresAt string
	var revokedAt sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.WorkspaceID,
		&createdAt,
		&expiresAt,
		&revokedAt,
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}

	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseTimePtr(revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
