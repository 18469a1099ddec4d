// Package metrics registers the console's Prometheus collectors. They are
// served on /metrics by the router.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripconsole_http_requests_total",
		Help: "Console API requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripconsole_http_request_seconds",
		Help:    "Console API latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	BackendCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripconsole_backend_calls_total",
		Help: "Calls to the transactional backend by message type and outcome.",
	}, []string{"message_type", "outcome"})

	BackendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tripconsole_backend_call_seconds",
		Help:    "Transactional backend round trip time.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"message_type"})

	TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripconsole_backend_token_refreshes_total",
		Help: "Bearer token refreshes triggered by a 401.",
	})

	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripconsole_saves_total",
		Help: "Drawer saves by plan and outcome.",
	}, []string{"plan", "outcome"})

	OpenDrawers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tripconsole_open_drawers",
		Help: "Drawer sessions currently open.",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripconsole_cache_lookups_total",
		Help: "Picker page and preset cache lookups.",
	}, []string{"cache", "result"})
)

// ObserveHTTP records one finished console request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveBackend records one backend round trip.
func ObserveBackend(messageType, outcome string, elapsed time.Duration) {
	BackendCalls.WithLabelValues(messageType, outcome).Inc()
	BackendLatency.WithLabelValues(messageType).Observe(elapsed.Seconds())
}
