/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route table. This is the
  wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     request logging
  2. Recoverer:  panic recovery (500 instead of crash)
  3. RequestID:  unique id per request for tracing
  4. CORS:       cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/flock/*    batches, deaths, population timeline
  /api/feed/*     feed bag lifecycle
  /api/reports/*  derived feed periods and monthly trends

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/flock", func(r chi.Router) {
			r.Route("/batches", func(r chi.Router) {
				r.Get("/", h.ListBatches)
				r.Post("/", h.CreateBatch)
				r.Post("/{id}/deactivate", h.DeactivateBatch)
			})
			r.Route("/deaths", func(r chi.Router) {
				r.Get("/", h.ListDeaths)
				r.Post("/", h.CreateDeath)
			})
			r.Get("/timeline", h.GetTimeline)
		})

		r.Route("/feed", func(r chi.Router) {
			r.Route("/bags", func(r chi.Router) {
				r.Get("/", h.ListFeedBags)
				r.Post("/", h.CreateFeedBag)
				r.Post("/{id}/deplete", h.DepleteFeedBag)
				r.Delete("/{id}", h.DeleteFeedBag)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/feed-periods", h.GetFeedPeriods)
			r.Get("/monthly-trends", h.GetMonthlyTrends)
		})
	})

	return r
}
