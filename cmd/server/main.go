package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classhub.app/api-server/common/id"
	"classhub.app/api-server/core/config"
	"classhub.app/api-server/core/db"
	"classhub.app/api-server/core/observability"
	"classhub.app/api-server/internal/http/handler"
	"classhub.app/api-server/internal/http/middleware"
	"classhub.app/api-server/internal/http/router"
	"classhub.app/api-server/internal/jobs"
	"classhub.app/api-server/internal/provider"
	"classhub.app/api-server/internal/service"
	"classhub.app/api-server/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "classhub-api"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := id.Init(cfg.SnowflakeNodeID); err != nil {
		return err
	}

	shutdownObs, err := observability.Setup(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownObs(shutdownCtx); err != nil {
			slog.Error("observability shutdown failed", "error", err)
		}
	}()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	stores := store.New(pool)
	org := provider.NewGitLab(cfg.GitLabBaseURL)
	dispatcher := jobs.NewRedisDispatcher(redisClient, jobs.DestroyQueue)

	authService := service.NewAuthService(stores.Users(), stores.Sessions(), org, cfg.WorkOS)
	classroomService := service.NewClassroomService(stores, stores, org, dispatcher, cfg.Flags)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(serviceName))

	authHandler := handler.NewAuthHandler(authService, cfg.DashboardURL, cfg.IsProduction())
	providerHandler := handler.NewProviderHandler(authService)
	classroomHandler := handler.NewClassroomHandler(classroomService, authService, cfg.IsProduction())

	router.AuthRouter(engine.Group("/auth"), authHandler)

	requireSession := middleware.RequireSession(authService, "/auth/login")
	router.ProviderRouter(engine.Group("/provider", requireSession), providerHandler)
	router.ClassroomRouter(engine.Group("/classrooms", requireSession), classroomHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
