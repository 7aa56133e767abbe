package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

var (
	// LoginAttempts counts password and OAuth sign-ins by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts partitioned by provider and result.",
	}, []string{"provider", "result"})

	// AdminMessages counts processed admin queue messages.
	AdminMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_messages_total",
		Help: "Admin queue messages partitioned by kind and result.",
	}, []string{"kind", "result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests partitioned by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ObserveLogin records one login attempt.
func ObserveLogin(provider string, ok bool) {
	result := ResultFailure
	if ok {
		result = ResultSuccess
	}
	LoginAttempts.WithLabelValues(provider, result).Inc()
}
