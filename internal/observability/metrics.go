package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by route template, method and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zenplan",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	// HTTPLatency records handler latency by route template and method.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zenplan",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ActivityOperations counts list operations by name and outcome.
	ActivityOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zenplan",
		Subsystem: "activities",
		Name:      "operations_total",
		Help:      "Activity operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// Logins counts login attempts by outcome.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zenplan",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})
)

// RecordActivityOp increments the operation counter; err decides the outcome label.
func RecordActivityOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ActivityOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordLogin increments the login counter.
func RecordLogin(ok bool) {
	if ok {
		Logins.WithLabelValues("ok").Inc()
		return
	}
	Logins.WithLabelValues("rejected").Inc()
}

// ObserveRequest records one served request.
func ObserveRequest(route, method, status string, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(route, method, status).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
