package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-review/internal/config"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/platform/locks"
	"github.com/phrazzld/scry-review/internal/service/auth"
	"github.com/phrazzld/scry-review/internal/service/card_review"
	"github.com/phrazzld/scry-review/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	reviewStore store.ReviewStore
	locker      locks.Locker
	redisClient *goredis.Client

	jwtService    auth.JWTService
	srsService    srs.Service
	reviewService card_review.ReviewService
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection is owned by the caller.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.reviewStore, err = newReviewStore(cfg.Database.Driver, db, logger)
	if err != nil {
		return nil, err
	}

	params, err := cfg.SRS.Params()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler parameters: %w", err)
	}
	app.srsService, err = srs.NewServiceWithParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}

	if err := app.setupLocker(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	app.reviewService = card_review.NewReviewService(app.reviewStore, app.srsService, app.locker, logger)

	logger.Info("application initialized",
		slog.Int("again_review_minutes", params.AgainReviewMinutes),
		slog.Int("learning_review_minutes", params.LearningReviewMinutes))
	return app, nil
}

// setupLocker selects the per-item lock backend.
func (app *application) setupLocker(ctx context.Context) error {
	switch app.config.Locks.Backend {
	case "redis":
		client, err := locks.NewRedisClient(ctx, app.config.Locks.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redisClient = client
		app.locker = locks.NewRedisLocker(client, app.config.Locks.TTL(), app.logger)
	case "local", "":
		app.locker = locks.NewLocalLocker()
	default:
		return fmt.Errorf("unsupported lock backend %q", app.config.Locks.Backend)
	}
	return nil
}

// Run serves the API until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources the application opened itself.
func (app *application) cleanup() {
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
		app.redisClient = nil
	}
	app.logger.Info("application shutdown completed")
}
