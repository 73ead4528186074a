package api

import (
	"net/http"

	"stock-valuator/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(RequestContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.HTTP.Timeout()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(MetricsMiddleware)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(NoStore)

		r.Get("/health", h.HandleHealth)
		r.Get("/diagnose", h.HandleDiagnose)

		// Scoring
		r.Get("/metrics", h.HandleMetrics)
		r.Post("/score", h.HandleScore)
		r.Get("/templates", h.HandleTemplates)
		r.Get("/screen", h.HandleScreen)

		// Market data
		r.Get("/search", h.HandleSearch)
		r.Get("/movers", h.HandleMovers)
		r.Get("/quote", h.HandleQuotes)
	})

	return r
}
