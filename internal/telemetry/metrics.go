// Package telemetry holds the Prometheus collectors exposed on /metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bi_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bi_warehouse_query_duration_seconds",
			Help:    "Duration of warehouse aggregation queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	WarehouseQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_warehouse_query_errors_total",
			Help: "Failed warehouse aggregation queries",
		},
		[]string{"operation"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bi_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bi_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter or an active ban",
		},
		[]string{"reason"},
	)
)

// ObserveQuery records one warehouse query.
func ObserveQuery(operation string, start time.Time, err error) {
	WarehouseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		WarehouseQueryErrors.WithLabelValues(operation).Inc()
	}
}
