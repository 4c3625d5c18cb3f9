// Package rest exposes the portfolio over a JSON API under /api/v1.
package rest

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"
)

// HealthPath is served without authentication
const HealthPath = "/api/v1/health"

// RouterConfig holds the cross-cutting settings of the router
type RouterConfig struct {
	APIToken    string
	CORSOrigins []string
	Logger      *log.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(Recovery(cfg.Logger))
	r.Use(RequestID)
	r.Use(AccessLog(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader, "X-API-Key"},
		ExposedHeaders: []string{RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(APIKeyAuth(cfg.APIToken, HealthPath))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/investments", func(r chi.Router) {
			r.Get("/", h.ListInvestments)
			r.Post("/", h.CreateInvestment)
			r.Get("/{id}", h.GetInvestment)
			r.Patch("/{id}", h.UpdateInvestment)
			r.Put("/{id}", h.UpdateInvestment)
			r.Delete("/{id}", h.DeleteInvestment)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Post("/refresh-all", h.RefreshAll)
			r.Post("/refresh/{id}", h.RefreshPrice)
		})

		r.Route("/price-history/{id}", func(r chi.Router) {
			r.Get("/", h.PriceHistory)
			r.Get("/latest", h.LatestPrice)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/summary", h.Summary)
			r.Get("/value-history", h.ValueHistory)
			r.Get("/top-performers", h.TopPerformers)
			r.Get("/report", h.Report)
		})
	})

	return r
}
