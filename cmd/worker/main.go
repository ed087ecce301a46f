package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classhub.app/api-server/common/id"
	"classhub.app/api-server/core/config"
	"classhub.app/api-server/core/db"
	"classhub.app/api-server/core/observability"
	"classhub.app/api-server/internal/jobs"
	"github.com/redis/go-redis/v9"

	"classhub.app/api-server/internal/store"
)

const serviceName = "classhub-worker"

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker exited", "error", err)
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

	worker := jobs.NewWorker(redisClient, jobs.DestroyQueue, store.New(pool))
	return worker.Run(ctx)
}
