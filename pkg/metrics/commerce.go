package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records outbound calls to the commerce platform.
type CommerceMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewCommerceMetrics registers the vendor call metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commerce_request_duration_seconds",
		Help:    "Duration of commerce platform requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_requests_total",
		Help: "Commerce platform requests by operation and status.",
	}, []string{"operation", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_request_failures_total",
		Help: "Commerce platform requests that failed before a response or with a non-2xx status.",
	}, []string{"operation"})
	reg.MustRegister(duration, calls, failures)
	return &CommerceMetrics{
		duration: duration,
		calls:    calls,
		failures: failures,
	}
}

// Observe records one finished call. status is 0 when no response was received.
func (c *CommerceMetrics) Observe(operation string, status int, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	c.calls.WithLabelValues(op, statusLabel(status)).Inc()
	if status < 200 || status > 299 {
		c.failures.WithLabelValues(op).Inc()
	}
}

func statusLabel(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
