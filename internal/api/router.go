package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the handlers behind the standard middleware stack.
func NewRouter(h *Handlers, logger *slog.Logger, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(MaxBodySize)

	r.Get("/health", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/collection", h.Collection)
		r.Post("/ingest", h.Ingest)
		r.Post("/query", h.Query)
	})

	return r
}
