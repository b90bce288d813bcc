package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Overlay hub metrics
var (
	// OverlayConnectedClients tracks the number of connected display clients
	OverlayConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "overlay_connected_clients",
			Help: "Number of currently connected overlay display clients",
		},
	)

	// OverlayBroadcastsTotal tracks broadcasts by message type
	OverlayBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_broadcasts_total",
			Help: "Total overlay broadcasts by message type",
		},
		[]string{"type"},
	)

	// OverlayDroppedSendsTotal tracks messages dropped due to slow clients
	OverlayDroppedSendsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "overlay_dropped_sends_total",
			Help: "Total messages dropped because a client send buffer was full",
		},
	)
)

// Chat metrics
var (
	// ChatCommandsTotal tracks dispatched commands by name and status
	ChatCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_total",
			Help: "Total chat commands dispatched by name and status",
		},
		[]string{"command", "status"},
	)

	// ChatReconnectsTotal tracks chat connection reconnect attempts
	ChatReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_reconnects_total",
			Help: "Total chat transport reconnect attempts",
		},
	)

	// ChatConnectionState tracks current chat connection state
	// (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=failed)
	ChatConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connection_state",
			Help: "Current chat connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting, 4=failed)",
		},
	)
)

// Rating lookup metrics
var (
	// RatingCacheTotal tracks cache lookups by provider and result (hit/miss/stale)
	RatingCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_cache_total",
			Help: "Rating cache lookups by provider and result",
		},
		[]string{"provider", "result"},
	)

	// RatingFetchesTotal tracks external rating fetches by provider and status
	RatingFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_fetches_total",
			Help: "External rating provider fetches by provider and status",
		},
		[]string{"provider", "status"},
	)
)

// Reward redemption metrics
var (
	// RedemptionsTotal tracks processed reward redemptions by outcome
	RedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Reward redemptions by outcome (mapped/unknown)",
		},
		[]string{"outcome"},
	)
)
