package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/dayflow/internal/persistence"
	"github.com/example/dayflow/internal/testfixtures"
)

type stubSessionRepository struct {
	createFunc        func(ctx context.Context, session persistence.Session) (persistence.Session, error)
	getFunc           func(ctx context.Context, id string) (persistence.Session, error)
	revokeFunc        func(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error)
	deleteExpiredFunc func(ctx context.Context, reference time.Time) error
}

func (s *stubSessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, session)
	}
	return session, nil
}

func (s *stubSessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, id)
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *stubSessionRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error) {
	if s.revokeFunc != nil {
		return s.revokeFunc(ctx, id, revokedAt)
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *stubSessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if s.deleteExpiredFunc != nil {
		return s.deleteExpiredFunc(ctx, reference)
	}
	return nil
}

type stubCache struct {
	entries    map[string]string
	getErr     error
	setErr     error
	deleteErr  error
	getCalls   int
	setCalls   int
	deleteKeys []string
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]string{}}
}

func (c *stubCache) Get(_ context.Context, key string) (string, bool, error) {
	c.getCalls++
	if c.getErr != nil {
		return "", false, c.getErr
	}
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *stubCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *stubCache) Delete(_ context.Context, key string) error {
	c.deleteKeys = append(c.deleteKeys, key)
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.entries, key)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)
}

func newTestSessionService(repo SessionRepository, cacheStore *stubCache) *SessionService {
	return NewSessionService(repo, cacheStore, AuthModeNormal, func() string { return "token-1" }, fixedNow, time.Hour, nil)
}

func TestSessionServiceCreateWritesStoreAndCache(t *testing.T) {
	t.Parallel()

	var created persistence.Session
	repo := &stubSessionRepository{
		createFunc: func(_ context.Context, session persistence.Session) (persistence.Session, error) {
			created = session
			return session, nil
		},
	}
	cacheStore := newStubCache()
	service := newTestSessionService(repo, cacheStore)

	session, err := service.Create(context.Background(), "user-1", "ws-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if session.ID != "token-1" {
		t.Fatalf("expected generated token, got %q", session.ID)
	}
	if got, want := session.ExpiresAt, fixedNow().Add(time.Hour); !got.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, got)
	}
	if created.UserID != "user-1" || created.WorkspaceID != "ws-1" {
		t.Fatalf("unexpected persisted session: %+v", created)
	}

	raw, ok := cacheStore.entries["session:token-1"]
	if !ok {
		t.Fatal("expected cache entry for new session")
	}
	var payload sessionCachePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("cache payload not valid JSON: %v", err)
	}
	if payload.UserID != "user-1" || payload.WorkspaceID != "ws-1" {
		t.Fatalf("unexpected cache payload: %+v", payload)
	}
}

func TestSessionServiceCreateValidatesIdentity(t *testing.T) {
	t.Parallel()

	service := newTestSessionService(&stubSessionRepository{}, newStubCache())

	if _, err := service.Create(context.Background(), "", "ws-1"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := service.Create(context.Background(), "user-1", ""); !errors.Is(err, ErrNoWorkspace) {
		t.Fatalf("expected ErrNoWorkspace, got %v", err)
	}
}

func TestSessionServiceResolveTrustsLiveCacheEntry(t *testing.T) {
	t.Parallel()

	repo := &stubSessionRepository{
		getFunc: func(context.Context, string) (persistence.Session, error) {
			t.Fatal("durable store must not be consulted on a live cache hit")
			return persistence.Session{}, nil
		},
	}
	cacheStore := newStubCache()
	payload, _ := json.Marshal(sessionCachePayload{
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		CreatedAt:   fixedNow().Add(-time.Minute),
		ExpiresAt:   fixedNow().Add(30 * time.Minute),
	})
	cacheStore.entries["session:token-1"] = string(payload)

	service := newTestSessionService(repo, cacheStore)

	session, err := service.Resolve(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if session.UserID != "user-1" || session.WorkspaceID != "ws-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestSessionServiceResolveFallsBackOnCacheMiss(t *testing.T) {
	t.Parallel()

	record := persistence.Session{
		ID:          "token-1",
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		CreatedAt:   fixedNow().Add(-10 * time.Minute),
		ExpiresAt:   fixedNow().Add(50 * time.Minute),
	}
	repo := &stubSessionRepository{
		getFunc: func(_ context.Context, id string) (persistence.Session, error) {
			if id != "token-1" {
				return persistence.Session{}, persistence.ErrNotFound
			}
			return record, nil
		},
	}
	cacheStore := newStubCache()
	service := newTestSessionService(repo, cacheStore)

	session, err := service.Resolve(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if session.UserID != "user-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if _, ok := cacheStore.entries["session:token-1"]; !ok {
		t.Fatal("expected cache repopulated after store read")
	}
}

func TestSessionServiceResolveFallsBackWhenCacheUnreachable(t *testing.T) {
	t.Parallel()

	record := persistence.Session{
		ID:          "token-1",
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		CreatedAt:   fixedNow(),
		ExpiresAt:   fixedNow().Add(time.Hour),
	}
	repo := &stubSessionRepository{
		getFunc: func(context.Context, string) (persistence.Session, error) {
			return record, nil
		},
	}
	cacheStore := newStubCache()
	cacheStore.getErr = fmt.Errorf("connection refused")
	cacheStore.setErr = fmt.Errorf("connection refused")
	service := newTestSessionService(repo, cacheStore)

	session, err := service.Resolve(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("expected cache failure to degrade to store read, got %v", err)
	}
	if session.UserID != "user-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestSessionServiceResolveIgnoresStaleCacheEntry(t *testing.T) {
	t.Parallel()

	record := persistence.Session{
		ID:          "token-1",
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		CreatedAt:   fixedNow().Add(-2 * time.Hour),
		ExpiresAt:   fixedNow().Add(20 * time.Minute),
	}
	storeReads := 0
	repo := &stubSessionRepository{
		getFunc: func(context.Context, string) (persistence.Session, error) {
			storeReads++
			return record, nil
		},
	}
	cacheStore := newStubCache()
	payload, _ := json.Marshal(sessionCachePayload{
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		CreatedAt:   record.CreatedAt,
		ExpiresAt:   fixedNow().Add(-time.Minute),
	})
	cacheStore.entries["session:token-1"] = string(payload)

	service := newTestSessionService(repo, cacheStore)

	if _, err := service.Resolve(context.Background(), "token-1"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if storeReads != 1 {
		t.Fatalf("expected one durable read after stale cache entry, got %d", storeReads)
	}
}

func TestSessionServiceResolveErrors(t *testing.T) {
	t.Parallel()

	revokedAt := fixedNow().Add(-time.Minute)
	cases := []struct {
		name    string
		record  persistence.Session
		getErr  error
		wantErr error
	}{
		{
			name:    "unknown token",
			getErr:  persistence.ErrNotFound,
			wantErr: ErrUnauthenticated,
		},
		{
			name: "expired session",
			record: persistence.Session{
				ID:          "token-1",
				UserID:      "user-1",
				WorkspaceID: "ws-1",
				ExpiresAt:   fixedNow().Add(-time.Second),
			},
			wantErr: ErrSessionExpired,
		},
		{
			name: "revoked session",
			record: persistence.Session{
				ID:          "token-1",
				UserID:      "user-1",
				WorkspaceID: "ws-1",
				ExpiresAt:   fixedNow().Add(time.Hour),
				RevokedAt:   &revokedAt,
			},
			wantErr: ErrSessionRevoked,
		},
		{
			name: "session without workspace",
			record: persistence.Session{
				ID:        "token-1",
				UserID:    "user-1",
				ExpiresAt: fixedNow().Add(time.Hour),
			},
			wantErr: ErrNoWorkspace,
		},
		{
			name:    "store unavailable",
			getErr:  persistence.ErrUnavailable,
			wantErr: ErrStoreUnavailable,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubSessionRepository{
				getFunc: func(context.Context, string) (persistence.Session, error) {
					if tc.getErr != nil {
						return persistence.Session{}, tc.getErr
					}
					return tc.record, nil
				},
			}
			service := newTestSessionService(repo, newStubCache())

			_, err := service.Resolve(context.Background(), "token-1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSessionServiceResolveRejectsEmptyToken(t *testing.T) {
	t.Parallel()

	service := newTestSessionService(&stubSessionRepository{}, newStubCache())

	if _, err := service.Resolve(context.Background(), "   "); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionServiceFixedIdentityModeSkipsStores(t *testing.T) {
	t.Parallel()

	repo := &stubSessionRepository{
		getFunc: func(context.Context, string) (persistence.Session, error) {
			t.Fatal("fixed identity mode must not touch the durable store")
			return persistence.Session{}, nil
		},
	}
	cacheStore := newStubCache()
	cacheStore.getErr = fmt.Errorf("must not be called")
	service := NewSessionService(repo, cacheStore, AuthModeFixedIdentity, nil, fixedNow, time.Hour, nil)

	session, err := service.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if session.UserID == "" || session.WorkspaceID == "" {
		t.Fatalf("expected a fully bound fixed identity, got %+v", session)
	}
	if cacheStore.getCalls != 0 {
		t.Fatal("fixed identity mode must not touch the cache")
	}
}

func TestSessionServiceRevokeClearsCacheSynchronously(t *testing.T) {
	t.Parallel()

	revoked := false
	repo := &stubSessionRepository{
		revokeFunc: func(_ context.Context, id string, revokedAt time.Time) (persistence.Session, error) {
			revoked = true
			stamp := revokedAt
			return persistence.Session{ID: id, RevokedAt: &stamp}, nil
		},
	}
	cacheStore := newStubCache()
	payload, _ := json.Marshal(sessionCachePayload{
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		ExpiresAt:   fixedNow().Add(time.Hour),
	})
	cacheStore.entries["session:token-1"] = string(payload)
	service := newTestSessionService(repo, cacheStore)

	if err := service.Revoke(context.Background(), "token-1"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if !revoked {
		t.Fatal("expected durable record stamped")
	}
	if _, ok := cacheStore.entries["session:token-1"]; ok {
		t.Fatal("expected cache entry removed on revoke")
	}

	// A subsequent resolve must not be served from any leftover projection.
	if _, err := service.Resolve(context.Background(), "token-1"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after revoke, got %v", err)
	}
}

func TestSessionServiceRevokeUnknownToken(t *testing.T) {
	t.Parallel()

	service := newTestSessionService(&stubSessionRepository{}, newStubCache())

	if err := service.Revoke(context.Background(), "missing"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionServiceResolveExpiresAsClockAdvances(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(fixedNow())
	record := persistence.Session{
		ID:          "token-1",
		UserID:      "user-1",
		WorkspaceID: "ws-1",
		CreatedAt:   fixedNow(),
		ExpiresAt:   fixedNow().Add(time.Hour),
	}
	repo := &stubSessionRepository{
		getFunc: func(context.Context, string) (persistence.Session, error) {
			return record, nil
		},
	}
	service := NewSessionService(repo, newStubCache(), AuthModeNormal, func() string { return "token-1" }, clock.NowFunc(), time.Hour, nil)

	if _, err := service.Resolve(context.Background(), "token-1"); err != nil {
		t.Fatalf("session should resolve before expiry: %v", err)
	}

	clock.Advance(2 * time.Hour)
	if _, err := service.Resolve(context.Background(), "token-1"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired after clock advanced, got %v", err)
	}
}

func TestSessionServiceDeleteExpired(t *testing.T) {
	t.Parallel()

	var reference time.Time
	repo := &stubSessionRepository{
		deleteExpiredFunc: func(_ context.Context, ref time.Time) error {
			reference = ref
			return nil
		},
	}
	service := newTestSessionService(repo, newStubCache())

	if err := service.DeleteExpired(context.Background()); err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if !reference.Equal(fixedNow()) {
		t.Fatalf("expected prune reference %v, got %v", fixedNow(), reference)
	}
}
