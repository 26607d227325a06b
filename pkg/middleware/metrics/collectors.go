package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	responseTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "response_time",
			Help:    "http response time.",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60},
		},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)

	webhookDispatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_dispatch_total", Help: "webhook requests by dispatch outcome"},
		[]string{"outcome"},
	)

	handlerInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "webhook_handler_invocations_total", Help: "handler invocations by handler and outcome"},
		[]string{"handler", "outcome"},
	)

	handlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_handler_duration_seconds",
			Help:    "handler invocation latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsToUri,
		totalHttpRequests,
		webhookDispatch,
		handlerInvocations,
		handlerDuration,
	)
}

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	// OutcomeRejected marks requests dropped before any handler ran
	// (wrong content type, unreadable or malformed body).
	OutcomeRejected = "rejected"
)

// ObserveDispatch counts one webhook request by outcome.
func ObserveDispatch(outcome string) {
	webhookDispatch.WithLabelValues(outcome).Inc()
}

// ObserveHandler records one handler invocation.
func ObserveHandler(handler string, err error, took time.Duration) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	handlerInvocations.WithLabelValues(handler, outcome).Inc()
	handlerDuration.WithLabelValues(handler).Observe(took.Seconds())
}
