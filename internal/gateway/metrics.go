package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedPeers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "videohubd",
		Subsystem: "gateway",
		Name:      "connected_peers",
		Help:      "Number of currently connected Videohub controllers",
	})

	sessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "videohubd",
		Subsystem: "gateway",
		Name:      "sessions_total",
		Help:      "Total controller sessions accepted",
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videohubd",
		Subsystem: "gateway",
		Name:      "commands_total",
		Help:      "Command blocks processed by header and result",
	}, []string{"command", "result"})

	routeChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videohubd",
		Subsystem: "gateway",
		Name:      "route_changes_total",
		Help:      "Applied route changes per output",
	}, []string{"output"})

	actuatorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videohubd",
		Subsystem: "gateway",
		Name:      "actuator_errors_total",
		Help:      "Route actuator failures per output",
	}, []string{"output"})

	broadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "videohubd",
		Subsystem: "gateway",
		Name:      "broadcasts_dropped_total",
		Help:      "Broadcast messages dropped because the peer was already gone",
	})

	outboxDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "videohubd",
		Subsystem: "gateway",
		Name:      "outbox_depth",
		Help:      "Outbound queue depth observed at broadcast time",
		Buckets:   []float64{0, 1, 2, 5, 10, 50, 100, 1000},
	})
)
