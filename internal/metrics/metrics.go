// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LedgerMutations counts transaction writes by operation and type.
var LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "ledger",
	Name:      "mutations_total",
	Help:      "Transaction creates, updates and deletes that were persisted.",
}, []string{"operation", "type"})

// GoalTransitions counts goal lifecycle operations.
var GoalTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "goals",
	Name:      "transitions_total",
	Help:      "Goal operations that were persisted, by operation.",
}, []string{"operation"})

// StorageWriteFailures counts collection saves that returned false.
var StorageWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "storage",
	Name:      "write_failures_total",
	Help:      "Collection writes rejected by the backing store.",
}, []string{"collection"})

// RateFetches counts exchange rate fetches by result (ok, error).
var RateFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "rates",
	Name:      "fetches_total",
	Help:      "Exchange rate fetches by result.",
}, []string{"result"})

// DashboardRefreshes counts periodic summary recomputations.
var DashboardRefreshes = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "dashboard",
	Name:      "refreshes_total",
	Help:      "Dashboard snapshot recomputations.",
})

// RateLimitRejections counts requests refused by the per-IP limiter.
var RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
})

// HTTPDuration observes request latency per route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "fintrack",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// ActivityEvents counts ledger events handled by the activity worker.
var ActivityEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fintrack",
	Subsystem: "worker",
	Name:      "events_total",
	Help:      "Ledger events consumed, by result (stored, requeued, dropped).",
}, []string{"result"})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
