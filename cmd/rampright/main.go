// RampRight — Employee Onboarding Platform API
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rjirving6-commits/rampright/internal/access"
	rampapi "github.com/rjirving6-commits/rampright/internal/api"
	"github.com/rjirving6-commits/rampright/internal/api/handler"
	"github.com/rjirving6-commits/rampright/internal/config"
	"github.com/rjirving6-commits/rampright/internal/db"
	"github.com/rjirving6-commits/rampright/internal/health"
	"github.com/rjirving6-commits/rampright/internal/observability"
	"github.com/rjirving6-commits/rampright/internal/seed"
	"github.com/rjirving6-commits/rampright/internal/version"
	"github.com/rjirving6-commits/rampright/internal/worker"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability -------------------------------------------------------
	obs, log, err := observability.New(ctx, &observability.Config{
		ServiceName:    "rampright",
		ServiceVersion: version.Version,
		LogLevel:       cfg.Log.Level,
		LogFormat:      cfg.Log.Format,
		OTLPEndpoint:   cfg.OTel.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer obs.Shutdown(context.Background())
	slog.SetDefault(log)
	log.Info("starting rampright", "version", version.Version, "commit", version.Commit, "db_driver", cfg.DB.Driver)

	// --- Database ------------------------------------------------------------
	// db.New opens the connection, runs migrations (AutoMigrate for SQLite,
	// golang-migrate for Postgres), and returns the GORM handle plus an
	// optional pgxpool (non-nil only for postgres, used by River).
	gormDB, pool, err := db.New(ctx, &cfg.DB, log)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}
	log.Info("database ready", "driver", cfg.DB.Driver)

	// --- Seed manager --------------------------------------------------------
	if err := seed.EnsureManager(ctx, gormDB, seed.ManagerOptions{
		Email:    cfg.App.SeedManagerEmail,
		Password: cfg.App.SeedManagerPassword,
	}, log); err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}

	// --- Worker queue --------------------------------------------------------
	// River migrations only run when Postgres is available.
	if pool != nil {
		if err := worker.MigrateRiver(ctx, pool); err != nil {
			return fmt.Errorf("river migrations: %w", err)
		}
		log.Info("river migrations applied")
	}

	wq, err := worker.New(ctx, pool, gormDB, cfg.DB.Driver, cfg.Worker.Concurrency, cfg.Worker.RolloverInterval, log)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	if err := wq.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := wq.Stop(stopCtx); err != nil {
			log.Error("worker stop error", "err", err)
		}
	}()

	// --- HTTP routes ---------------------------------------------------------
	checker := access.New(gormDB, cfg.Auth.OpenCompanyAccess)
	if cfg.Auth.OpenCompanyAccess {
		log.Warn("company access checks disabled; any authenticated user can reach any company")
	}

	handlers := rampapi.Handlers{
		Health:      health.New(db.NewPinger(gormDB)),
		Auth:        handler.NewAuthHandler(gormDB, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL),
		Companies:   handler.NewCompanyHandler(gormDB, checker),
		Templates:   handler.NewTemplateHandler(gormDB, checker),
		Modules:     handler.NewModuleHandler(gormDB, checker),
		People:      handler.NewPersonHandler(gormDB, checker),
		Plans:       handler.NewPlanHandler(gormDB, checker),
		Tasks:       handler.NewTaskHandler(gormDB),
		Reflections: handler.NewReflectionHandler(gormDB),
	}

	mux := http.NewServeMux()
	rampapi.RegisterRoutes(mux, handlers, cfg.JWT.Secret)
	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      corsMiddleware.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Start server --------------------------------------------------------
	log.Info("http server listening", "addr", srv.Addr)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped cleanly")
	return nil
}
