package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/phrazzld/scry-review/internal/config"
	"github.com/phrazzld/scry-review/internal/platform/postgres"
	"github.com/phrazzld/scry-review/internal/platform/sqlite"
	"github.com/phrazzld/scry-review/internal/store"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// openDatabase connects to the configured database.
// SQLite databases get their schema on open; Postgres uses migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case driverPostgres:
		db, err = postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns)
	case driverSQLite:
		db, err = sqlite.Open(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("database connection established",
		slog.String("driver", cfg.Driver),
		slog.String("url", maskDatabaseURL(cfg.URL)))
	return db, nil
}

// newReviewStore returns the review store implementation for driver.
func newReviewStore(driver string, db *sql.DB, logger *slog.Logger) (store.ReviewStore, error) {
	switch driver {
	case driverPostgres:
		return postgres.NewPostgresReviewStore(db, logger), nil
	case driverSQLite:
		return sqlite.NewSQLiteReviewStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// maskDatabaseURL hides the password of a connection URL for logging.
// Values that are not URLs, such as sqlite paths, are returned unchanged.
func maskDatabaseURL(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil || parsed.User == nil {
		return dbURL
	}
	if _, hasPassword := parsed.User.Password(); hasPassword {
		parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	}
	return parsed.String()
}
