package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ravenhq/raven/internal/config"
	"github.com/ravenhq/raven/internal/database"
	"github.com/ravenhq/raven/internal/lifecycle"
	"github.com/ravenhq/raven/internal/moderation"
	"github.com/ravenhq/raven/internal/queue"
	"github.com/ravenhq/raven/internal/queue/workers"
	"github.com/ravenhq/raven/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Addr == "" {
		slog.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	ctx := context.Background()

	// The worker must share the API's blob backend so reconciliation sees
	// the collections the API wrote.
	var blob store.Blob
	if cfg.Database.URL != "" {
		db, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		blob = store.NewPostgres(db)
	} else {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		blob = store.NewRedis(rdb)
	}

	st := store.New(blob)
	mod := moderation.New(cfg.Moderation)
	slog.Info("moderation configured", "enabled", mod.Enabled(), "provider", cfg.Moderation.Provider)

	// The worker never dispatches new checks; its manager only reconciles.
	disp := lifecycle.NewAsyncDispatcher(mod)
	manager := lifecycle.NewManager(st, disp)
	disp.Bind(manager)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	moderationWorker := workers.NewModerationWorker(mod, manager)
	registry.Register(queue.TypeModerationCheck, asynq.HandlerFunc(moderationWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
