package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-review/internal/api"
	apiMiddleware "github.com/phrazzld/scry-review/internal/api/middleware"
	"github.com/phrazzld/scry-review/internal/platform/logger"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(app.config.Server.RequestTimeout()))

	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/reviews/due", reviewHandler.GetDueItems)
			r.Get("/reviews/stats", reviewHandler.GetReviewStats)
			r.Post("/reviews/{id}/answer", reviewHandler.RecordReview)
		})
	})

	r.Get("/health", app.handleHealth)

	return r
}

// handleHealth reports whether the database is reachable.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), app.logger)

	status, body := http.StatusOK, "OK"
	if err := app.db.PingContext(r.Context()); err != nil {
		log.Error("health check failed", slog.String("error", err.Error()))
		status, body = http.StatusServiceUnavailable, "database unavailable"
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Error("failed to write health check response", slog.String("error", err.Error()))
	}
}
