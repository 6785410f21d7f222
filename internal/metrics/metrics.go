// Package metrics registers the prometheus instruments the server exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by method, route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "godesk",
		Name:      "http_requests_total",
		Help:      "HTTP requests processed, by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "godesk",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AccessDenials counts scope and permission denials.
	AccessDenials = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "godesk",
		Name:      "access_denials_total",
		Help:      "Requests denied by the authorization core.",
	})

	// SweepTickets counts tickets examined by escalation sweeps.
	SweepTickets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "godesk",
		Subsystem: "escalation",
		Name:      "sweep_tickets_total",
		Help:      "Tickets examined by escalation sweeps.",
	})

	// SweepResults counts rule outcomes by status.
	SweepResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "godesk",
		Subsystem: "escalation",
		Name:      "sweep_results_total",
		Help:      "Escalation rule outcomes, by result status.",
	}, []string{"status"})

	// SweepDuration observes full-sweep latency.
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "godesk",
		Subsystem: "escalation",
		Name:      "sweep_duration_seconds",
		Help:      "Escalation sweep latency.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60},
	})
)
