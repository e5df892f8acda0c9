// Package telemetry provides application-level observability for Worknest.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// served by the side-channel HTTP server started by main.go:
//
//	GET http://<host>:<WN_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint is not served by the Gin router.
//
// # Metric Groups
//
//   - HTTP request counters and latency histograms (labelled by route template, not raw URL)
//   - Account activity: registrations and logins by outcome
//   - Authorization denials by action
//   - Outbound email by template and outcome
//   - File storage operations by backend
//   - Team membership compare-and-swap conflicts
//   - Rate limiter rejections
//   - Database connection pool gauge (polled every 30 s)
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/project/get/:projectId)
// rather than the raw request URL. No metric is labelled with a user, organisation
// or project id.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPRequestsTotal is a CounterVec with labels {method, path, status}.
// HTTPRequestDuration is a HistogramVec with labels {method, path}.
//
// Example PromQL queries:
//   - Error rate (%):       sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route: histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Account metrics.
//
// RegistrationsTotal has label {kind}: "user" (self sign-up), "organisation"
// (organisation plus admin) or "employee" (invited by an Organisation Admin).
//
// LoginsTotal has label {outcome}: "success", "unknown_user" or "bad_password".
// A spike in bad_password against a flat success rate suggests credential stuffing.
//
// Example PromQL queries:
//   - Failed login ratio: sum(rate(worknest_logins_total{outcome!="success"}[15m])) / sum(rate(worknest_logins_total[15m]))
var (
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worknest_registrations_total",
			Help: "Total number of accounts created, by kind.",
		},
		[]string{"kind"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worknest_logins_total",
			Help: "Total number of login attempts, by outcome.",
		},
		[]string{"outcome"},
	)
)

// AuthorizationDenialsTotal has label {action} naming the rule that denied the
// request (e.g. "project.add_members", "organisation.list").
var AuthorizationDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worknest_authorization_denials_total",
		Help: "Total number of requests denied by an authorization rule, by action.",
	},
	[]string{"action"},
)

// EmailsSentTotal has labels {template, outcome} where outcome is "sent" or
// "failed". Emails are best-effort, so a rising failed count is the only
// signal that users are not receiving confirmation links.
//
// Example PromQL queries:
//   - Alert expression: increase(worknest_emails_sent_total{outcome="failed"}[30m]) > 5
var EmailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worknest_emails_sent_total",
		Help: "Total number of outbound emails, by template and outcome.",
	},
	[]string{"template", "outcome"},
)

// StorageOperationsTotal has labels {backend, operation, outcome}.
var StorageOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worknest_storage_operations_total",
		Help: "Total number of file storage operations, by backend, operation and outcome.",
	},
	[]string{"backend", "operation", "outcome"},
)

// TeamMemberConflictsTotal counts team membership updates that lost a
// compare-and-swap race and had to be retried.
var TeamMemberConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "worknest_team_member_conflicts_total",
		Help: "Total number of team membership updates retried after a concurrent modification.",
	},
)

// RateLimitedTotal has label {backend}: "memory" or "redis".
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worknest_rate_limited_requests_total",
		Help: "Total number of requests rejected by the rate limiter, by backend.",
	},
	[]string{"backend"},
)

// RefreshTokensPurgedTotal counts expired refresh tokens removed by the sweeper.
var RefreshTokensPurgedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "worknest_refresh_tokens_purged_total",
		Help: "Total number of expired refresh tokens deleted by the background sweeper.",
	},
)

// DBOpenConnections is a Gauge that tracks the number of open connections currently
// held by the sql.DB connection pool. It is sampled every 30 seconds by
// StartDBStatsCollector rather than per-request.
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB connection
// pool statistics every 30 seconds and updates the DBOpenConnections gauge.
// The goroutine exits once db.Ping fails, which happens after shutdown closes the pool.
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
