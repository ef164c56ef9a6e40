// Package handler assembles the top-level HTTP router: shared middleware,
// health and metrics endpoints, and the /api/v1 sub-router.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linkshelf/linkshelf/internal/metrics"
)

// CORSOptions controls cross-origin access for browser clients.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	API     http.Handler
	Log     logrus.FieldLogger
	CORS    CORSOptions
	Tracing bool
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(deps.Log))
	r.Use(middleware.Recoverer)
	// CORS must run before auth so pre-flight OPTIONS requests are answered.
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   deps.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: deps.CORS.AllowCredentials,
	}).Handler)
	r.Use(metrics.Middleware)

	r.Get("/healthz", health)
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api/v1", deps.API)

	if deps.Tracing {
		return otelhttp.NewHandler(r, "http")
	}
	return r
}
