// Package metrics exposes the swarm core's Prometheus instrumentation.
// Grounded on the teacher's internal/metrics/prometheus.go promauto
// registration idiom; the metric set itself is redefined entirely for
// this domain (the teacher's claims-extracted/verified/rejected and
// per-RPC-service metrics have no equivalent here — this core's external
// calls are subprocess invocations, not gRPC).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swarmcore_tick_duration_seconds",
			Help:    "Executor Tick duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"outcome"}, // waiting, dispatched, completed, failed
	)

	nodesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarmcore_nodes_dispatched_total",
			Help: "Total number of DAG nodes dispatched as supervised tasks",
		},
		[]string{"node_type"},
	)

	nodeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarmcore_node_outcomes_total",
			Help: "Total number of DAG node terminal outcomes by status",
		},
		[]string{"node_type", "status"}, // completed, failed, skipped
	)

	taskKills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarmcore_task_kills_total",
			Help: "Total number of supervised tasks killed, by reason",
		},
		[]string{"reason"}, // tool_limit, budget, wall_clock, inactivity
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swarmcore_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"name"},
	)

	budgetSpent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swarmcore_budget_spent_usd",
			Help: "Cumulative USD spent on a graph's budget",
		},
		[]string{"graph_id"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swarmcore_delivery_queue_depth",
			Help: "Current number of undelivered entries in the delivery queue",
		},
	)

	activeGraphs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "swarmcore_active_graphs",
			Help: "Current number of graphs in the executor's active set",
		},
	)
)

// RecordTick records one Executor.Tick's wall-clock duration and outcome.
func RecordTick(durationSeconds float64, outcome string) {
	tickDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

// RecordNodeDispatched increments the dispatch counter for nodeType.
func RecordNodeDispatched(nodeType string) {
	nodesDispatched.WithLabelValues(nodeType).Inc()
}

// RecordNodeOutcome increments the terminal-outcome counter.
func RecordNodeOutcome(nodeType, status string) {
	nodeOutcomes.WithLabelValues(nodeType, status).Inc()
}

// RecordTaskKill increments the kill counter for reason.
func RecordTaskKill(reason string) {
	taskKills.WithLabelValues(reason).Inc()
}

// SetBreakerState publishes a circuit breaker's current numeric state.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}

// SetBudgetSpent publishes a graph's cumulative spend.
func SetBudgetSpent(graphID string, usd float64) {
	budgetSpent.WithLabelValues(graphID).Set(usd)
}

// SetQueueDepth publishes the delivery queue's current depth.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// SetActiveGraphs publishes the executor's current active-graph count.
func SetActiveGraphs(n int) {
	activeGraphs.Set(float64(n))
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
