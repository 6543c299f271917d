package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mach_lagbe_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mach_lagbe_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mach_lagbe_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	catalogOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mach_lagbe_catalog_operations_total",
			Help: "Total number of fish catalog write operations",
		},
		[]string{"operation", "status"},
	)

	orderEventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mach_lagbe_order_events_consumed_total",
			Help: "Order events read from the broker",
		},
		[]string{"type", "status"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mach_lagbe_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)

// PrometheusMiddleware records request counts and latencies per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordOrderOperation counts an order operation by outcome.
func RecordOrderOperation(operation string, success bool) {
	orderOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordCatalogOperation(operation string, success bool) {
	catalogOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordConsumedEvent(eventType string, success bool) {
	orderEventsConsumed.WithLabelValues(eventType, outcome(success)).Inc()
}

// Succeeded reports whether the handler wrote a 2xx status.
func Succeeded(c *gin.Context) bool {
	status := c.Writer.Status()
	return status >= 200 && status < 300
}
