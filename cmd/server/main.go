// Package main runs the review server: it loads configuration, opens the
// review store, applies migrations and serves the review API until it
// receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-review/internal/config"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/platform/postgres"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("scry-review", pflag.ExitOnError)
	config.RegisterFlags(fs)
	migrate := fs.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, fs, *migrate); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run wires the application from configuration and blocks until ctx is done.
// When migrateCmd is set it runs that migration command instead of serving.
func run(ctx context.Context, fs *pflag.FlagSet, migrateCmd string) error {
	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("lock_backend", cfg.Locks.Backend))

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	if migrateCmd != "" {
		if cfg.Database.Driver != driverPostgres {
			return errors.New("migrations are only run for the postgres driver")
		}
		return postgres.Migrate(ctx, db, migrateCmd, log)
	}

	if cfg.Database.Driver == driverPostgres {
		if err := postgres.Migrate(ctx, db, "up", log); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		return err
	}
	defer app.cleanup()

	return app.Run(ctx)
}
