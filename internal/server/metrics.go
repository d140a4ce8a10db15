package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixspace_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pixspace_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "endpoint"},
	)

	// Spacing metrics
	spacingResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixspace_spacing_resolutions_total",
			Help: "Total number of resolved pixel spacings",
		},
		[]string{"unit", "path"},
	)

	// Rounding metrics
	roundingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixspace_rounding_requests_total",
			Help: "Total number of rounding requests",
		},
		[]string{"kind", "status"}, // kind: uncertainty, generic, diagonal
	)

	// Calibration metrics
	calibrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixspace_calibrations_total",
			Help: "Total number of calibration changes",
		},
		[]string{"action"}, // action: calibrate, reset, clear, clear_all
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixspace_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, hour, day
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pixspace_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixspace_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
