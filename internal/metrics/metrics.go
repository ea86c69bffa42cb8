package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP requests served by the BFF
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTP request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buzz_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Calls made to the remote event API
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buzz_api_request_duration_seconds",
			Help:    "Remote API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	// Checkout state machine transitions
	CheckoutTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_checkout_transitions_total",
			Help: "Total number of checkout state transitions",
		},
		[]string{"from", "to"},
	)

	// Checkout outcomes that are not states (auth required, repriced, ...)
	CheckoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buzz_checkout_outcomes_total",
			Help: "Total number of checkout outcomes",
		},
		[]string{"outcome"},
	)
)
