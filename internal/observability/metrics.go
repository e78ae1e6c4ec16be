// Package observability holds Prometheus domain metrics and OpenTelemetry
// tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts posts published since process start.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_posts_created_total",
		Help: "Total number of posts created",
	})

	// CommentsCreated counts comments attached to posts since process start.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_comments_created_total",
		Help: "Total number of comments created",
	})

	// AccountsRegistered counts successful registrations.
	AccountsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_accounts_registered_total",
		Help: "Total number of accounts registered",
	})

	// AuthorizationDenials counts denied write attempts by outcome
	// ("anonymous" or "forbidden") and resource ("post" or "comment").
	AuthorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_authorization_denials_total",
		Help: "Total number of denied write attempts by outcome and resource",
	}, []string{"outcome", "resource"})

	// DatabaseQueryLatency records database query latency by operation
	// (select, insert, update, delete).
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// FeedEventsPublished counts realtime feed events by type.
	FeedEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_feed_events_published_total",
		Help: "Total number of realtime feed events published by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// CacheRequests counts cache lookups by key class and result ("hit" or "miss").
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_requests_total",
		Help: "Total number of cache lookups by key class and result",
	}, []string{"class", "result"})
)

// ObserveQuery records one database query's latency. The GORM logger calls it
// from its Trace hook with the leading SQL keyword as the operation.
func ObserveQuery(operation string, elapsed time.Duration) {
	DatabaseQueryLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
