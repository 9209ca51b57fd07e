package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/health"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/middleware"
)

// NewRouter creates a chi router with all cart service routes registered.
func NewRouter(
	cartHandler *CartHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(CORS(allowedOrigins))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart"))
	r.Use(middleware.Tracing("cart"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", cartHandler.GetCart)
		r.Get("/notifications", cartHandler.ListNotifications)

		r.Post("/items/{productId}", cartHandler.AddProduct)
		r.Put("/items/{productId}", cartHandler.UpdateProductAmount)
		r.Delete("/items/{productId}", cartHandler.RemoveProduct)
	})

	return r
}
