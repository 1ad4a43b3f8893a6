// Package metrics defines all custom Prometheus metrics of the salon web
// frontend. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register themselves with the default Prometheus registry on import
// and are exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "salonweb"

// ── Backend API metrics ───────────────────────────────────────────────────────

// APIRequestDuration measures backend round trips made by the HTTP client adapter.
// Labels:
//   - method: HTTP method
//   - status: response status code, or "none" when no response arrived
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of requests to the backend REST API.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "password_change_required", or the error kind (e.g. "invalid_credentials")
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// BootstrapTotal counts session bootstraps.
// Label:
//   - result: "anonymous", "restored", "decayed" or "superseded"
var BootstrapTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_bootstrap_total",
		Help:      "Total number of session bootstraps, by outcome.",
	},
	[]string{"result"},
)

// SessionsActive tracks the number of in-memory session stores.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of browser sessions currently held in memory.",
	},
)

// ThemeBroadcastsTotal counts "business theme updated" signals.
// Label:
//   - kind: "updated" or "reset"
var ThemeBroadcastsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "theme_broadcasts_total",
		Help:      "Total number of theme update signals sent.",
	},
	[]string{"kind"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Labels:
//   - guard: "protected", "guest", or "resolver"
//   - action: "render", "placeholder", or "redirect"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions.",
	},
	[]string{"guard", "action"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit trail writes.
// Label:
//   - result: "stored", "failed", or "dropped" (queue full)
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of session audit events, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each worker channel.",
	},
	[]string{"worker_id"},
)
