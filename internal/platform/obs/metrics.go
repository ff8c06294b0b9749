package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scwm",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scwm",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scwm",
		Name:      "scans_total",
		Help:      "Analyzed scans by detected waste type and persistence outcome.",
	}, []string{"waste_type", "saved"})

	MapSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scwm",
		Name:      "map_sessions_active",
		Help:      "Open map sessions.",
	})

	RouteFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scwm",
		Name:      "route_fetches_total",
		Help:      "Route overlay fetches by outcome (ready, failed, released).",
	}, []string{"outcome"})
)
