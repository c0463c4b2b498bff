package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Relay metrics
	OpenRoomConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_room_connections",
			Help: "Currently open room signaling connections",
		},
	)

	OpenRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_rooms",
			Help: "Rooms with at least one connected participant",
		},
	)

	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_relayed_total",
			Help: "Messages relayed to room participants",
		},
		[]string{"type"},
	)

	JoinsRefused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_joins_refused_total",
			Help: "Join attempts refused at the handshake",
		},
		[]string{"reason"}, // "not_authenticated", "not_member", "room_not_found", "room_ended", "internal"
	)

	MalformedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_malformed_messages_total",
			Help: "Inbound messages dropped as unparseable",
		},
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_delivery_failures_total",
			Help: "Writes to participants that failed and triggered cleanup",
		},
	)

	// Dashboard fan-out metrics
	DashboardConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_dashboard_connections",
			Help: "Currently open dashboard connections",
		},
	)

	DashboardEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dashboard_events_total",
			Help: "Events fanned out to dashboard subscribers",
		},
		[]string{"type"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)
)
