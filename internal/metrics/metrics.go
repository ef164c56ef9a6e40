// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkshelf_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkshelf_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"})

	HTTPInflightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkshelf_http_inflight_requests",
		Help: "Requests currently being served.",
	})

	// CredentialVerificationsTotal counts bearer credential checks.
	// outcome is one of ok, missing, expired, invalid, error.
	CredentialVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkshelf_credential_verifications_total",
		Help: "Bearer credential verification attempts by outcome.",
	}, []string{"outcome"})

	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkshelf_mutations_total",
		Help: "Successful create, update and delete operations by entity.",
	}, []string{"entity", "op"})
)
