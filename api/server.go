/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for ops dashboards

ROUTE GROUPS:
  /api/shifts/*        Shift scheduling and lifecycle
  /api/bonuses/*       Bonus recording and settlement
  /api/periods/*       Pay period lifecycle
  /api/payments/*      Payment provider callbacks
  /api/contractors/*   Per-contractor reads, placement, analytics
  /api/rates/*         Rate table
  /api/holidays/*      Holiday calendar

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
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

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Post("/", h.CreateShift)
			r.Post("/{id}/transition", h.TransitionShift)
		})

		// Bonus routes
		r.Route("/bonuses", func(r chi.Router) {
			r.Post("/", h.CreateBonus)
			r.Post("/{id}/settle", h.SettleBonus)
		})

		// Pay period routes
		r.Route("/periods", func(r chi.Router) {
			r.Post("/", h.OpenPeriod)
			r.Get("/{id}", h.GetPeriod)
			r.Post("/{id}/advance", h.AdvancePeriod)
			r.Post("/{id}/abort", h.AbortPeriod)
		})

		// Payment provider callbacks
		r.Route("/payments", func(r chi.Router) {
			r.Post("/{id}/confirmed", h.PaymentConfirmed)
			r.Post("/{id}/failed", h.PaymentFailed)
		})

		// Per-contractor routes
		r.Route("/contractors/{id}", func(r chi.Router) {
			r.Get("/shifts", h.ListShifts)
			r.Get("/bonuses", h.ListBonuses)
			r.Get("/periods", h.ListPeriods)
			r.Get("/analytics", h.GetAnalytics)
			r.Route("/placement", func(r chi.Router) {
				r.Get("/", h.GetPlacement)
				r.Post("/assignments", h.RecordAssignment)
				r.Post("/feedback", h.RecordFeedback)
				r.Post("/advance", h.AdvancePlacement)
				r.Post("/decline", h.DeclinePlacement)
			})
		})

		// Rate routes
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Put("/{role}", h.SetRate)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})
	})

	return r
}
