// Package metrics defines and registers the custom Prometheus metrics of the
// todo service. It is the single source of truth for metric names, labels and
// help strings. All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "todo"

// ── Todo metrics ──────────────────────────────────────────────────────────────

// TodoQueriesTotal counts listing queries.
// Labels:
//   - filter: all, today, upcoming, completed, overdue
//   - result: "ok" or "error"
var TodoQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Total number of todo listing queries, by filter and result.",
	},
	[]string{"filter", "result"},
)

// TodoMutationsTotal counts successful todo writes.
// Label:
//   - type: insert, update or delete
var TodoMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of todo mutations, by change type.",
	},
	[]string{"type"},
)

// ── Change feed metrics ───────────────────────────────────────────────────────

// ChangesPublishedTotal counts change events handed to the feed.
// Label:
//   - result: "ok" or "error"
var ChangesPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "changes_published_total",
		Help:      "Total number of todo change events published to the change feed.",
	},
	[]string{"result"},
)

// ChangesReceivedTotal counts change events delivered to session listeners.
// Label:
//   - type: insert, update or delete
var ChangesReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "changes_received_total",
		Help:      "Total number of change events received by session listeners.",
	},
	[]string{"type"},
)

// PublishQueueDepth tracks pending events in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var PublishQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "publish_queue_depth",
		Help:      "Current number of change events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ActiveSubscriptions is the number of open change-feed subscriptions.
var ActiveSubscriptions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_subscriptions",
		Help:      "Number of open change-feed subscriptions.",
	},
)

// ── Session and notification metrics ──────────────────────────────────────────

// ActiveSessions is the number of live sessions held by this process.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of live sessions held in memory.",
	},
)

// SessionsReapedTotal counts live sessions closed because their backing
// session record expired or was revoked.
var SessionsReapedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_reaped_total",
		Help:      "Total number of live sessions closed after their session record disappeared.",
	},
)

// NotificationRefreshesTotal counts notification set refreshes.
// Label:
//   - result: "applied", "stale" (older than the last applied), "discarded"
//     (session closed or cancelled) or "error"
var NotificationRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_refreshes_total",
		Help:      "Total number of notification refreshes, by outcome.",
	},
	[]string{"result"},
)

// NotificationRefreshDuration measures derive latency.
var NotificationRefreshDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_refresh_duration_seconds",
		Help:      "Duration of a notification derive from fetch to apply.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ToastsTotal counts toasts emitted to sessions.
// Label:
//   - kind: "created" or "completed"
var ToastsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "toasts_total",
		Help:      "Total number of toasts emitted, by kind.",
	},
	[]string{"kind"},
)
