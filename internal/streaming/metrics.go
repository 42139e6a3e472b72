package streaming

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayProducers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "videohubd",
		Subsystem: "relay",
		Name:      "producers",
		Help:      "Number of sources currently announced to the relay",
	})

	relayConsumers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "videohubd",
		Subsystem: "relay",
		Name:      "output_consumers",
		Help:      "Number of RTSP clients playing an output path",
	})

	// Per-output switch counter.
	relaySwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videohubd",
		Subsystem: "relay",
		Name:      "output_switches_total",
		Help:      "Source changes applied to an output path",
	}, []string{"path"})

	relayConnections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "videohubd",
		Subsystem: "relay",
		Name:      "connections_total",
		Help:      "RTSP connections accepted by role",
	}, []string{"role"})
)
