// Package main implements the entry point for the exam-prep API server which
// serves question review, assessment sessions, study progress and
// subscription gating for the web and iOS clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/musaabMD/expoiosweb/internal/config"
	"github.com/musaabMD/expoiosweb/internal/platform/logger"
	"github.com/musaabMD/expoiosweb/internal/platform/tracing"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run a database migration command: up, down, status, version")
	sweepOnce := flag.Bool("sweep-once", false, "Run the subscription expiry sweep once and exit")
	flag.Parse()

	if err := run(*migrateCmd, *sweepOnce); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// run loads configuration, prepares the shared infrastructure and then either
// executes a one-shot command or serves HTTP until a shutdown signal arrives.
// Once newApplication is called the application owns the database handle.
func run(migrateCmd string, sweepOnce bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"sweep_enabled", cfg.Sweep.Enabled,
		"redis_enabled", cfg.Redis.Addr != "",
		"tracing_enabled", cfg.Tracing.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			appLogger.Error("Error flushing traces", "error", err)
		}
	}()

	db, err := setupAppDatabase(ctx, cfg.Database, appLogger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer closeDatabase(db, appLogger)
		return runMigrations(ctx, db.DB, migrateCmd, appLogger)
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if sweepOnce {
		expired, skipped, err := app.sweeper.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("expiry sweep failed: %w", err)
		}
		appLogger.Info("Expiry sweep finished",
			slog.Int("expired", expired),
			slog.Bool("skipped", skipped))
		return nil
	}

	return app.Run(ctx)
}
