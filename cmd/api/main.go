// Package main is the entry point for the trip proposal API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/tripproposal/internal/config"
	"github.com/pkordes/tripproposal/internal/handler"
	"github.com/pkordes/tripproposal/internal/middleware"
	"github.com/pkordes/tripproposal/internal/ratelimit"
	"github.com/pkordes/tripproposal/internal/reconcile"
	"github.com/pkordes/tripproposal/internal/repo"
	"github.com/pkordes/tripproposal/internal/service"
	"github.com/pkordes/tripproposal/migrations"
	"github.com/pkordes/tripproposal/openapi"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A local .env fills in whatever the environment leaves unset.
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Trip store -------------------------------------------------------
	store, closeStore, err := openTripStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open trip store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Every call for one trip shares a token bucket so a burst of edits on a
	// single itinerary cannot flood the store.
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.StoreRPS,
		BurstSize:         cfg.StoreBurst,
	})
	reconciler := reconcile.New(repo.Throttle(store, limiter), reconcile.Options{
		RefetchDelay: cfg.RefetchDelay,
		Strict:       cfg.StrictMatching,
		Logger:       logger,
	})

	// --- Plan cache -------------------------------------------------------
	plans, closePlans, err := openPlanCache(ctx, cfg)
	if err != nil {
		logger.Error("failed to open plan cache", "backend", cfg.PlanCache, "error", err)
		os.Exit(1)
	}
	defer closePlans()

	// --- Services ---------------------------------------------------------
	trips := service.NewTripService(reconciler)
	splits := service.NewSplitStayService(reconciler, plans, logger)
	api := handler.NewServer(trips, splits, openapi.Document, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → MaxBodySize.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", api.Routes())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for an apply that waits on the delayed re-fetch.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "store", cfg.StoreBackend, "plan_cache", cfg.PlanCache)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// openTripStore returns the configured trip store and a func that releases it.
func openTripStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repo.TripStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store := repo.NewMemoryTripStore()
		if cfg.MemorySeed != "" {
			f, err := os.Open(cfg.MemorySeed)
			if err != nil {
				return nil, nil, fmt.Errorf("open seed: %w", err)
			}
			defer f.Close()
			if err := store.Seed(f); err != nil {
				return nil, nil, err
			}
			logger.Info("memory trip store seeded", "file", cfg.MemorySeed)
		}
		return store, func() {}, nil

	default:
		// pgxpool manages a pool of Postgres connections.
		// New() does not open connections immediately; the first query does.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("create database pool: %w", err)
		}
		// Verify the DB is reachable before accepting traffic.
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}

		// goose needs database/sql; the wrapper shares the pool's connections.
		db := stdlib.OpenDBFromPool(pool)
		n, err := migrations.Up(ctx, db)
		db.Close()
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connection established", "migrations_applied", n)
		return repo.NewTripStore(pool), pool.Close, nil
	}
}

// openPlanCache returns the configured plan cache and a func that releases it.
func openPlanCache(ctx context.Context, cfg config.Config) (repo.PlanCache, func(), error) {
	if cfg.PlanCache != config.BackendRedis {
		return repo.NewMemoryPlanCache(), func() {}, nil
	}
	client, err := repo.NewRedisClient(ctx, repo.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return repo.NewRedisPlanCache(client, cfg.PlanCacheTTL), func() { client.Close() }, nil
}
