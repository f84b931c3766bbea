// Package main is the entry point for the HOS logbook API server.
// It only wires dependencies together and runs the server; the rules live in
// internal/hos and internal/service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/hos-logbook/internal/config"
	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/handler"
	"github.com/pkordes/hos-logbook/internal/middleware"
	"github.com/pkordes/hos-logbook/internal/repo"
	"github.com/pkordes/hos-logbook/internal/routing"
	"github.com/pkordes/hos-logbook/internal/service"
	"github.com/pkordes/hos-logbook/migrations"
)

// maxRequestBody caps JSON request bodies. The largest is a trip plan with
// three coordinates.
const maxRequestBody = 64 << 10

func main() {
	// --- Config -----------------------------------------------------------
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool, logger); err != nil {
			logger.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	// --- Routing provider -------------------------------------------------
	provider, closeCache, err := newRoutingProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up routing", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	// --- Services ---------------------------------------------------------
	clock := domain.SystemClock{}
	timeline := service.NewTimelineService(repo.NewStatusRepo(pool), clock)
	tripRepo := repo.NewTripRepo(pool)
	accountant := service.NewAccountant(timeline, cfg.Rules, logger)
	dailyLogs := service.NewDailyLogService(timeline, repo.NewDailyLogRepo(pool), tripRepo, cfg.Rules, cfg.Carrier, logger)
	trips := service.NewTripService(tripRepo, provider, cfg.Rules, clock, logger)

	// --- Router -----------------------------------------------------------
	// RequestID tags each request, RealIP trusts the proxy headers, SlogLogger
	// writes one JSON line per request and Recoverer turns panics into 500s.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBody))

	srv := handler.NewServer(timeline, accountant, dailyLogs, trips,
		handler.WithClock(clock),
		handler.WithLogger(logger),
	)
	srv.Routes(r)

	// --- HTTP Server ------------------------------------------------------
	// Routing calls can take a few seconds with retries, so WriteTimeout is
	// longer than ReadTimeout.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr,
			"daily_driving_limit", cfg.Rules.DailyDrivingLimit,
			"default_cycle", cfg.Rules.DefaultCycle,
			"timezone", cfg.Rules.Loc().String())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// migrate applies the embedded goose migrations through a database/sql
// handle borrowed from the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		logger.Info("migration applied", "source", res.Source.Path, "duration", res.Duration)
	}
	return nil
}

// newRoutingProvider picks OpenRouteService when an API key is configured and
// the straight-line provider otherwise, then puts the SQLite cache in front.
// The returned func closes the cache database.
func newRoutingProvider(ctx context.Context, cfg config.Config, logger *slog.Logger) (routing.Provider, func(), error) {
	var provider routing.Provider = routing.StaticProvider{}
	if cfg.ORSAPIKey != "" {
		ors, err := routing.NewORSProvider(cfg.ORSAPIKey, cfg.ORSProfile, logger)
		if err != nil {
			return nil, nil, err
		}
		provider = ors
		logger.Info("routing via openrouteservice", "profile", cfg.ORSProfile)
	} else {
		logger.Warn("ORS_API_KEY not set, routing with straight-line estimates")
	}

	if cfg.RouteCachePath == "" {
		return provider, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.RouteCachePath), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := routing.OpenCache(cfg.RouteCachePath)
	if err != nil {
		return nil, nil, err
	}
	cached, err := routing.NewCachedProvider(ctx, db, provider, cfg.RouteCacheTTL, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return cached, func() { db.Close() }, nil
}
