package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/dayflow/internal/cache"
	"github.com/example/dayflow/internal/persistence"
)

// SessionRepository captures the durable-store interactions for sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, id string) (persistence.Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthMode selects how the session service establishes identity.
type AuthMode int

const (
	// AuthModeNormal resolves sessions against the cache and durable store.
	AuthModeNormal AuthMode = iota
	// AuthModeFixedIdentity fabricates a long-lived fixed identity without
	// consulting any store. Local development only; the config loader
	// refuses to combine it with a production environment.
	AuthModeFixedIdentity
)

const fixedIdentityTTL = 365 * 24 * time.Hour

// sessionCachePayload is the string-serialized projection stored in the
// cache. The embedded expiry lets a cache hit be trusted without a round
// trip to the durable store.
type sessionCachePayload struct {
	UserID      string    `json:"user_id"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionService answers "is there a currently valid session, and for which
// user and workspace". The durable store owns the truth; the cache is a
// disposable projection consulted first for latency and rebuilt on demand.
type SessionService struct {
	sessions       SessionRepository
	cache          cache.Store
	mode           AuthMode
	tokenGenerator func() string
	now            func() time.Time
	ttl            time.Duration
	logger         *slog.Logger
}

// NewSessionService wires dependencies for session management.
func NewSessionService(sessions SessionRepository, cacheStore cache.Store, mode AuthMode, tokenGenerator func() string, now func() time.Time, ttl time.Duration, logger *slog.Logger) *SessionService {
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{
		sessions:       sessions,
		cache:          cacheStore,
		mode:           mode,
		tokenGenerator: tokenGenerator,
		now:            now,
		ttl:            ttl,
		logger:         defaultLogger(logger),
	}
}

// TTL returns the lifetime applied to newly created sessions.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

func cacheKey(id string) string {
	return "session:" + id
}

// Create issues a fresh session for the user bound to the workspace,
// writing the durable record and mirroring it into the cache with the same
// TTL. The returned identifier is the opaque bearer credential.
func (s *SessionService) Create(ctx context.Context, userID, workspaceID string) (result Session, err error) {
	if s == nil || s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}
	if userID == "" {
		err = ErrUnauthenticated
		return
	}
	if workspaceID == "" {
		err = ErrNoWorkspace
		return
	}

	logger := s.loggerWith(ctx, "Create", "user_id", userID, "workspace_id", workspaceID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", result.ID).InfoContext(ctx, "session created")
	}()

	now := s.now()
	record := persistence.Session{
		ID:          s.tokenGenerator(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	persisted, err := s.sessions.CreateSession(ctx, record)
	if err != nil {
		err = mapStoreError(err)
		return
	}

	s.writeCache(ctx, logger, persisted, s.ttl)

	result = toSession(persisted)
	return
}

// Resolve validates a bearer credential and returns the identity it binds.
// The cache is consulted first; a live cached entry is trusted without
// touching the durable store. On miss, expiry, or cache failure the durable
// record decides, and a still-valid record repopulates the cache with its
// remaining lifetime. Cache errors degrade to store reads and are only
// logged; durable-store errors are fatal to the request.
func (s *SessionService) Resolve(ctx context.Context, token string) (result Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	if s.mode == AuthModeFixedIdentity {
		return s.fixedIdentity(), nil
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	token = strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "Resolve", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session resolution failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", result.ID, "user_id", result.UserID).DebugContext(ctx, "session resolved")
	}()

	if token == "" {
		err = ErrUnauthenticated
		return
	}

	if cached, ok := s.readCache(ctx, logger, token); ok {
		if cached.ExpiresAt.After(s.now()) {
			if cached.WorkspaceID == "" {
				err = ErrNoWorkspace
				return
			}
			result = Session{
				ID:          token,
				UserID:      cached.UserID,
				WorkspaceID: cached.WorkspaceID,
				CreatedAt:   cached.CreatedAt,
				ExpiresAt:   cached.ExpiresAt,
			}
			return
		}
		// Stale projection; the durable record decides.
	}

	record, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			s.clearCache(ctx, logger, token)
			err = ErrUnauthenticated
			return
		}
		err = mapStoreError(err)
		return
	}

	now := s.now()
	switch {
	case record.RevokedAt != nil && !record.RevokedAt.IsZero():
		s.clearCache(ctx, logger, token)
		err = ErrSessionRevoked
		return
	case !record.ExpiresAt.After(now):
		s.clearCache(ctx, logger, token)
		err = ErrSessionExpired
		return
	case record.WorkspaceID == "":
		err = ErrNoWorkspace
		return
	}

	if remaining := record.ExpiresAt.Sub(now); remaining > 0 {
		s.writeCache(ctx, logger, record, remaining)
	}

	result = toSession(record)
	return
}

// Revoke stamps the durable record, deletes the cache entry synchronously
// so the credential stops resolving immediately, and leaves the row behind
// for auditing.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrUnauthenticated
	}

	logger := s.loggerWith(ctx, "Revoke", "token_provided", true)

	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			s.clearCache(ctx, logger, token)
			return ErrUnauthenticated
		}
		err = mapStoreError(err)
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.clearCache(ctx, logger, token)
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// DeleteExpired prunes durable session rows past their expiry.
func (s *SessionService) DeleteExpired(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (s *SessionService) fixedIdentity() Session {
	now := s.now()
	return Session{
		ID:          "fixed-identity-session",
		UserID:      "fixed-identity-user",
		WorkspaceID: "fixed-identity-workspace",
		CreatedAt:   now,
		ExpiresAt:   now.Add(fixedIdentityTTL),
	}
}

func (s *SessionService) readCache(ctx context.Context, logger *slog.Logger, token string) (sessionCachePayload, bool) {
	if s.cache == nil {
		return sessionCachePayload{}, false
	}

	raw, ok, err := s.cache.Get(ctx, cacheKey(token))
	if err != nil {
		logger.WarnContext(ctx, "session cache read failed, falling back to store", "error", err)
		return sessionCachePayload{}, false
	}
	if !ok {
		return sessionCachePayload{}, false
	}

	var payload sessionCachePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		logger.WarnContext(ctx, "session cache entry corrupt, falling back to store", "error", err)
		return sessionCachePayload{}, false
	}
	return payload, true
}

func (s *SessionService) writeCache(ctx context.Context, logger *slog.Logger, record persistence.Session, ttl time.Duration) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(sessionCachePayload{
		UserID:      record.UserID,
		WorkspaceID: record.WorkspaceID,
		CreatedAt:   record.CreatedAt,
		ExpiresAt:   record.ExpiresAt,
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to encode session cache payload", "error", err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey(record.ID), string(payload), ttl); err != nil {
		logger.WarnContext(ctx, "session cache write failed", "error", err)
	}
}

func (s *SessionService) clearCache(ctx context.Context, logger *slog.Logger, token string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(token)); err != nil {
		logger.WarnContext(ctx, "session cache delete failed", "error", err)
	}
}

func toSession(record persistence.Session) Session {
	return Session{
		ID:          record.ID,
		UserID:      record.UserID,
		WorkspaceID: record.WorkspaceID,
		CreatedAt:   record.CreatedAt,
		ExpiresAt:   record.ExpiresAt,
	}
}

// mapStoreError converts persistence failures into the application taxonomy.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
