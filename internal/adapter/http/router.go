// Package http exposes the payment service over REST: submit a transfer,
// read a balance, plus health and metrics endpoints.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/kiamesdavies/money-transfer/internal/adapter/http/handler"
	"github.com/kiamesdavies/money-transfer/internal/adapter/http/middleware"
	"github.com/kiamesdavies/money-transfer/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PaymentHandler *handler.PaymentHandler
	HealthHandler  *handler.HealthHandler
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.PaymentHandler.CreateTransfer)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{id}/balance", cfg.PaymentHandler.GetBalance)
		})
	})

	return r
}
