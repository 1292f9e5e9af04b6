package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_http_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter",
	})

	suspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_http_suspicious_requests_total",
		Help: "Requests matching scanner patterns",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status class",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)
