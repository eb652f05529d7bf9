// Package metrics объявляет prometheus-метрики сервиса
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoutingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_planner_routing_requests_total",
		Help: "Routing engine requests by outcome (ok, rejected, error)",
	}, []string{"outcome"})

	RoutingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_planner_routing_request_duration_seconds",
		Help:    "Routing engine request latency",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	RoutingCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_planner_routing_cache_total",
		Help: "Routing cache lookups by result (hit, miss)",
	}, []string{"result"})

	EditorOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_planner_editor_operations_total",
		Help: "Editor operations by name and result (applied, noop)",
	}, []string{"op", "result"})

	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_planner_reconciliations_total",
		Help: "Routing results merged into sessions by outcome (resolved, stale, error, rolled_back, straight)",
	}, []string{"outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "route_planner_active_sessions",
		Help: "Editor sessions currently held in memory",
	})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_planner_exports_total",
		Help: "Track exports by format",
	}, []string{"format"})
)
