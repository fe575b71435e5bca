package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// The dashboard frontend is served from a separate origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Raw dashboard data (cache-backed, original dashboard contract)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/regions", h.GetRegions)
		r.Post("/sync", h.TriggerSync)
		r.Get("/audiences", h.GetAudiences)
		r.Get("/test-credentials", h.TestCredentials)

		// Campaign cache management
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.GetCacheStats)
			r.Post("/clear", h.ClearCache)
		})

		// Computed analytics
		r.Route("/metrics", func(r chi.Router) {
			r.Get("/overview", h.GetOverview)
			r.Get("/region/{region}", h.GetRegionDetail)
		})

		// Alert/review thresholds
		r.Route("/thresholds", func(r chi.Router) {
			r.Get("/", h.GetThresholds)
			r.Put("/{key}", h.SetThreshold)
			r.Post("/reset", h.ResetThresholds)
		})
	})

	return r
}
