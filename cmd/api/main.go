package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ravenhq/raven/internal/api"
	"github.com/ravenhq/raven/internal/config"
	"github.com/ravenhq/raven/internal/database"
	"github.com/ravenhq/raven/internal/lifecycle"
	"github.com/ravenhq/raven/internal/moderation"
	"github.com/ravenhq/raven/internal/queue"
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

	if err := cfg.Validate(); err != nil {
		slog.Warn("running with development identity", "error", err)
	}

	ctx := context.Background()

	// Pick the blob backend: Postgres when configured, then Redis, then the
	// in-process store for local development.
	var blob store.Blob

	db, err := dbPool(ctx, cfg)
	if err != nil {
		slog.Warn("database unavailable, running without Postgres", "error", err)
	} else if db != nil {
		defer db.Close()
		blob = store.NewPostgres(db)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable", "error", err)
			rdb = nil
		} else {
			defer rdb.Close()
			if blob == nil {
				blob = store.NewRedis(rdb)
			}
		}
	}

	if blob == nil {
		slog.Warn("no backend configured, conversation state is in-memory only")
		blob = store.NewMemory()
	}

	st := store.New(blob)
	mod := moderation.New(cfg.Moderation)
	slog.Info("moderation configured", "enabled", mod.Enabled(), "provider", cfg.Moderation.Provider)

	// Moderation dispatch: through asynq when Redis is up (the worker binary
	// reconciles), otherwise in-process goroutines.
	var manager *lifecycle.Manager
	if rdb != nil {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		manager = lifecycle.NewManager(st, qc)
	} else {
		disp := lifecycle.NewAsyncDispatcher(mod)
		manager = lifecycle.NewManager(st, disp)
		disp.Bind(manager)
	}

	router := api.NewRouter(db, rdb, cfg, st, manager, mod)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func dbPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, nil
	}
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Warn("migrations failed", "error", err)
	}
	return db, nil
}
