package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_runs_total",
			Help: "Dispatch runs by outcome (planned, infeasible, invalid, error).",
		},
		[]string{"outcome"},
	)

	DispatchAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_attempts",
			Help:    "Attempts needed per dispatch run, including the final one.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	FleetMileage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_fleet_miles",
			Help:    "Total replayed fleet mileage of successful dispatch runs.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 8),
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served.",
		},
	)
)
