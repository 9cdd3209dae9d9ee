package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/dayflow/internal/application"
	"github.com/example/dayflow/internal/cache"
	"github.com/example/dayflow/internal/config"
	httptransport "github.com/example/dayflow/internal/http"
	"github.com/example/dayflow/internal/integrations"
	"github.com/example/dayflow/internal/logging"
	"github.com/example/dayflow/internal/persistence/sqlite"
)

const sessionCacheSize = 4096

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Environment)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	sessionCache, closeCache, err := newSessionCache(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect session cache", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	userRepo := sqlite.NewUserRepository(pool)
	calendarRepo := sqlite.NewCalendarRepository(pool)
	taskRepo := sqlite.NewTaskRepository(pool)
	eventRepo := sqlite.NewEventRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	authMode := application.AuthModeNormal
	if cfg.AuthMode == config.AuthModeFixedIdentity {
		authMode = application.AuthModeFixedIdentity
		logger.Warn("running with a fixed identity, all requests share one development user")
	}

	sessionService := application.NewSessionService(sessionRepo, sessionCache, authMode, tokenGenerator, now, cfg.SessionTTL, logger)
	authService := application.NewAuthService(userRepo, sessionService, idGenerator, now, logger)
	plannerService := application.NewPlannerService(taskRepo, eventRepo, calendarRepo, logger)
	weekService := application.NewWeekService(calendarRepo, eventRepo, taskRepo, cfg.WeekStartDay(), now, logger)
	dispatcher := integrations.NewDispatcher(integrations.DefaultFixtures(now())...)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:              httptransport.NewAuthHandler(authService, sessionService, cfg.Production(), logger),
		Planner:           httptransport.NewPlannerHandler(plannerService, idGenerator, now, logger),
		Weeks:             httptransport.NewWeekHandler(weekService, now, logger),
		Integrations:      httptransport.NewIntegrationHandler(dispatcher, now, logger),
		SessionMiddleware: httptransport.RequireSession(sessionService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	janitor := cron.New()
	if _, err := janitor.AddFunc("@hourly", func() {
		pruneCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := sessionService.DeleteExpired(pruneCtx); err != nil {
			logger.Error("failed to prune expired sessions", "error", err)
			return
		}
		logger.Debug("pruned expired sessions")
	}); err != nil {
		logger.Error("failed to schedule session janitor", "error", err)
		os.Exit(1)
	}
	janitor.Start()
	defer janitor.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("dayflow API listening", "addr", server.Addr, "environment", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newSessionCache picks Redis when an address is configured and falls back
// to the in-process LRU otherwise.
func newSessionCache(ctx context.Context, cfg config.Config) (cache.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(sessionCacheSize), func() {}, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	redisCache, err := cache.DialRedis(dialCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return redisCache, func() { _ = redisCache.Close() }, nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
