package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gousers", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gousers", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	UserOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gousers", Name: "user_operations_total", Help: "User resource operations by handler and outcome."},
		[]string{"op", "outcome"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gousers", Name: "http_requests_total", Help: "Count of HTTP requests."},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "gousers", Name: "http_request_duration_seconds", Help: "Latency of HTTP requests.", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)
)

// Outcomes recorded on UserOperations.
const (
	OutcomeOK       = "ok"
	OutcomeCreated  = "created"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(UserOperations)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPLatency)
}
