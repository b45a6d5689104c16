package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Versus/internal/comparison"
	"github.com/MikeSquared-Agency/Versus/internal/hermes"
	"github.com/MikeSquared-Agency/Versus/internal/resolver"
)

func NewRouter(res *resolver.Resolver, reg *comparison.Registry, h hermes.Client, adminToken string, requestsPerMinute int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(requestsPerMinute))

	catalogH := NewCatalogHandler(res)
	sessions := NewSessionsHandler(res, reg, h, logger)
	admin := NewAdminHandler(res, reg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", catalogH.ListProducts)
		r.Get("/products/{id}", catalogH.GetProduct)
		r.Get("/categories", catalogH.ListCategories)
		r.Get("/categories/{id}", catalogH.GetCategory)

		r.Post("/sessions", sessions.Create)
		r.Get("/sessions/{id}", sessions.Get)
		r.Delete("/sessions/{id}", sessions.Delete)
		r.Post("/sessions/{id}/products", sessions.AddProduct)
		r.Delete("/sessions/{id}/products", sessions.ClearProducts)
		r.Delete("/sessions/{id}/products/{product_id}", sessions.RemoveProduct)
		r.Post("/sessions/{id}/scan", sessions.Scan)
		r.Get("/sessions/{id}/config", sessions.Config)
		r.Put("/sessions/{id}/weights", sessions.SetWeights)
		r.Post("/sessions/{id}/compare", sessions.Compare)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/admin/stats", admin.Stats)
			r.Post("/admin/refresh", admin.Refresh)
			r.Delete("/admin/cache/categories/{id}", admin.ClearCategory)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
