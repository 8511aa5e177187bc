// Package observability provides domain metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "putevoditel_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// Registrations counts completed user registrations.
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "putevoditel_registrations_total",
		Help: "Total number of registered users",
	})

	// SubscriptionEvents counts subscription ledger changes by outcome
	// (created, existing, deleted, absent).
	SubscriptionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "putevoditel_subscription_events_total",
		Help: "Total subscription ledger operations by outcome",
	}, []string{"outcome"})

	// GoalConversions counts dreams converted into aims.
	GoalConversions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "putevoditel_goal_conversions_total",
		Help: "Total number of dreams converted into aims",
	})

	// PostsCreated counts published posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "putevoditel_posts_created_total",
		Help: "Total number of published posts",
	})

	// MediaStored counts uploaded media files by kind.
	MediaStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "putevoditel_media_stored_total",
		Help: "Total number of stored media files",
	}, []string{"kind"})

	// CacheLookups counts cache-aside lookups by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "putevoditel_cache_lookups_total",
		Help: "Total cache lookups by result",
	}, []string{"result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "putevoditel_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "putevoditel_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
