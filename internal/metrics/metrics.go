// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "worldhost"

var (
	// GroupLoadDuration observes wall time of group load/unload, suspensions included.
	GroupLoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "group_load_seconds",
		Help:      "Duration of scene group load and unload operations.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"op"})

	// GroupEntities counts entities registered or removed by group loads.
	GroupEntities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "group_entities_total",
		Help:      "Entities registered or removed by scene groups.",
	}, []string{"kind", "op"})

	// PacketsRejected counts packets refused by the state gate.
	PacketsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_rejected_total",
		Help:      "Packets rejected because the connection state did not satisfy the packet's requirement.",
	}, []string{"packet", "kind"})

	// PacketsDispatched counts packets handed to a handler.
	PacketsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_dispatched_total",
		Help:      "Packets dispatched to handlers.",
	}, []string{"packet"})

	// AuthorityChanges counts entries flushed in authority change notifications.
	AuthorityChanges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authority_changes_total",
		Help:      "Entity authority changes delivered to clients.",
	})

	// Worlds tracks live worlds by mode.
	Worlds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worlds",
		Help:      "Live worlds by mode.",
	}, []string{"mode"})

	// TickPhaseDuration observes time spent in each phase of the game loop.
	TickPhaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_phase_seconds",
		Help:      "Game loop time per tick phase.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"phase"})

	// FramesFlushed counts outbound frames handed to session writers.
	FramesFlushed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_flushed_total",
		Help:      "Outbound frames flushed to session writers.",
	})

	// Sessions tracks connected sessions.
	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Connected client sessions.",
	})
)

func init() {
	prometheus.MustRegister(
		GroupLoadDuration,
		GroupEntities,
		PacketsRejected,
		PacketsDispatched,
		AuthorityChanges,
		Worlds,
		TickPhaseDuration,
		FramesFlushed,
		Sessions,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
