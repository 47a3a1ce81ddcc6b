// Package metrics defines the Prometheus instruments for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debugircd_connections_total",
		Help: "Total accepted connections",
	})

	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "debugircd_connections_active",
		Help: "Currently open sessions",
	})

	LinesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debugircd_lines_received_total",
		Help: "Protocol lines read from clients",
	})

	MessagesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debugircd_messages_delivered_total",
		Help: "Messages written to client sockets",
	})

	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debugircd_bytes_written_total",
		Help: "Bytes written to client sockets",
	})

	BroadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debugircd_broadcasts_total",
		Help: "Channel and global broadcast operations",
	})

	Timeouts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "debugircd_timeouts_total",
		Help: "Sessions dropped by timer, by kind",
	}, []string{"kind"})

	AuthFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debugircd_auth_failures_total",
		Help: "Registrations rejected by the auth policy",
	})

	FloodDisconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "debugircd_flood_disconnects_total",
		Help: "Sessions dropped by the inbound rate limiter",
	})

	NATSMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "debugircd_nats_messages_total",
		Help: "Messages moved over the NATS bridge, by direction",
	}, []string{"direction"})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		ConnectionsActive,
		LinesReceived,
		MessagesDelivered,
		BytesWritten,
		BroadcastsTotal,
		Timeouts,
		AuthFailures,
		FloodDisconnects,
		NATSMessages,
	)
}
