// Package metrics exposes routing outcomes as Prometheus metrics.
//
// Metrics (with the default namespace/subsystem):
//   - ganymede_router_requests_total: outcomes by provider, model, status
//   - ganymede_router_request_duration_seconds: end-to-end route duration
//   - ganymede_router_tokens_total: tokens used by successful requests
//   - ganymede_router_rate_limit_hits_total: rate-limited attempts
//   - ganymede_router_retry_attempts: provider invocations per request
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercator-hq/ganymede/pkg/config"
)

// Outcome status label values.
const (
	StatusSuccess       = "success"
	StatusRateLimited   = "rate_limited"
	StatusProviderError = "provider_error"
	StatusNoCredential  = "no_credential"
)

// RouteMetrics tracks Prometheus metrics for routing outcomes.
type RouteMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	rateLimitHits   *prometheus.CounterVec
	retryAttempts   *prometheus.HistogramVec
}

// NewRouteMetrics creates and registers routing metrics with the provided
// registry. A nil registry gets a fresh private one.
func NewRouteMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RouteMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	buckets := cfg.RequestDurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	rm := &RouteMetrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of routed requests by outcome",
			},
			[]string{"provider", "model", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end duration of routed requests in seconds",
				Buckets:   buckets,
			},
			[]string{"provider", "model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Total tokens used by successful requests",
			},
			[]string{"provider", "model"},
		),

		rateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rate_limit_hits_total",
				Help:      "Total rate-limited provider invocations",
			},
			[]string{"provider", "model"},
		),

		retryAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retry_attempts",
				Help:      "Provider invocations made per routed request",
				Buckets:   []float64{1, 2, 3, 4, 5, 8},
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.tokensTotal,
		rm.rateLimitHits,
		rm.retryAttempts,
	)

	return rm
}

// RecordOutcome records one terminal routing outcome.
func (rm *RouteMetrics) RecordOutcome(provider, model, status string, duration time.Duration, attempts, tokens int) {
	rm.requestsTotal.WithLabelValues(provider, model, status).Inc()
	rm.requestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	if attempts > 0 {
		rm.retryAttempts.WithLabelValues(provider, model).Observe(float64(attempts))
	}
	if tokens > 0 {
		rm.tokensTotal.WithLabelValues(provider, model).Add(float64(tokens))
	}
}

// RecordRateLimitHit records one rate-limited provider invocation.
func (rm *RouteMetrics) RecordRateLimitHit(provider, model string) {
	rm.rateLimitHits.WithLabelValues(provider, model).Inc()
}

// Handler returns the HTTP handler serving the Prometheus exposition
// endpoint for this registry.
func (rm *RouteMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(rm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
