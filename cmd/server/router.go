package main

import (
	"net/http"

	"github.com/examgen/examgen-api/internal/api"
	apiMiddleware "github.com/examgen/examgen-api/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)

	paperHandler := api.NewPaperHandler(app.papers, app.config.Server.MaxBodyBytes)

	r.Group(func(r chi.Router) {
		// Bounds the whole generation request, retries included.
		r.Use(middleware.Timeout(app.config.Server.WriteTimeout))
		r.Post("/generate", paperHandler.Generate)
	})

	r.Get("/health", api.Health)
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}
