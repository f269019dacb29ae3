// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ActiveConnections prometheus.Gauge
	EditsApplied      prometheus.Counter
	PresenceRelayed   prometheus.Counter
	BroadcastsDropped prometheus.Counter
	MalformedMessages prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sketchrelay_active_connections",
			Help: "Number of open websocket connections.",
		}),
		EditsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "sketchrelay_edits_applied_total",
			Help: "Number of drawing updates merged into a room.",
		}),
		PresenceRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sketchrelay_presence_relayed_total",
			Help: "Number of pointer updates relayed to room members.",
		}),
		BroadcastsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "sketchrelay_broadcasts_dropped_total",
			Help: "Messages dropped because a member's send buffer was full.",
		}),
		MalformedMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "sketchrelay_malformed_messages_total",
			Help: "Inbound messages dropped as malformed.",
		}),
	}
}

// RegisterRoomGauge exposes the registry's live room count.
func RegisterRoomGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sketchrelay_active_rooms",
		Help: "Number of live rooms, including those in their grace period.",
	}, func() float64 { return float64(count()) }))
}

// Handler exposes Prometheus metrics at /metrics
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
