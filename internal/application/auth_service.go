package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/dayflow/internal/persistence"
)

// UserRepository captures the user lookups the auth service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
}

// AuthService authenticates credentials and exchanges them for sessions.
type AuthService struct {
	users    UserRepository
	sessions *SessionService
	idGen    func() string
	now      func() time.Time
	logger   *slog.Logger
}

// NewAuthService wires dependencies for authentication.
func NewAuthService(users UserRepository, sessions *SessionService, idGen func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		idGen:    idGen,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate verifies an email and password pair and, on success, issues a
// session bound to the user's workspace. Unknown accounts and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil || s.users == nil || s.sessions == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "user authenticated")
	}()

	validation := &ValidationError{}
	if email == "" {
		validation.add("email", "email is required")
	}
	if params.Password == "" {
		validation.add("password", "password is required")
	}
	if validation.HasErrors() {
		err = validation
		return
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = mapStoreError(err)
		return
	}

	if err = VerifyPassword(user.PasswordHash, params.Password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			err = fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return
	}
	if user.WorkspaceID == "" {
		err = ErrNoWorkspace
		return
	}

	session, err := s.sessions.Create(ctx, user.ID, user.WorkspaceID)
	if err != nil {
		return
	}

	// Opportunistic housekeeping; a failed prune never fails the login.
	if pruneErr := s.sessions.DeleteExpired(ctx); pruneErr != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", pruneErr)
	}

	result = AuthenticateResult{User: user, Session: session}
	return
}

// Register creates a user with a freshly hashed password. Emails are
// normalized to lower case before storage.
func (s *AuthService) Register(ctx context.Context, workspaceID, email, displayName, password string) (user persistence.User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	email = strings.ToLower(strings.TrimSpace(email))
	logger := s.loggerWith(ctx, "Register", "email", email, "workspace_id", workspaceID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user registered")
	}()

	validation := &ValidationError{}
	if workspaceID == "" {
		validation.add("workspace_id", "workspace is required")
	}
	if email == "" {
		validation.add("email", "email is required")
	}
	if len(password) < 8 {
		validation.add("password", "password must be at least 8 characters")
	}
	if validation.HasErrors() {
		err = validation
		return
	}

	hash, err := HashPassword(password, DefaultArgon2idParams)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	id := ""
	if s.idGen != nil {
		id = s.idGen()
	}
	user = persistence.User{
		ID:           id,
		WorkspaceID:  workspaceID,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err = s.users.CreateUser(ctx, user); err != nil {
		user = persistence.User{}
		if errors.Is(err, persistence.ErrDuplicate) {
			err = fmt.Errorf("%w: email already registered", ErrInvalidInput)
			return
		}
		err = mapStoreError(err)
		return
	}
	return
}
