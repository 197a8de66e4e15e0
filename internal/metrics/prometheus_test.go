package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndGauges(t *testing.T) {
	RecordNodeDispatched("research")
	if got := testutil.ToFloat64(nodesDispatched.WithLabelValues("research")); got < 1 {
		t.Fatalf("expected dispatch counter >= 1, got %v", got)
	}

	RecordNodeOutcome("research", "completed")
	if got := testutil.ToFloat64(nodeOutcomes.WithLabelValues("research", "completed")); got < 1 {
		t.Fatalf("expected outcome counter >= 1, got %v", got)
	}

	RecordTaskKill("wall_clock")
	if got := testutil.ToFloat64(taskKills.WithLabelValues("wall_clock")); got < 1 {
		t.Fatalf("expected kill counter >= 1, got %v", got)
	}

	SetBreakerState("research", 2)
	if got := testutil.ToFloat64(breakerState.WithLabelValues("research")); got != 2 {
		t.Fatalf("expected breaker state 2, got %v", got)
	}

	SetBudgetSpent("g-1", 1.5)
	if got := testutil.ToFloat64(budgetSpent.WithLabelValues("g-1")); got != 1.5 {
		t.Fatalf("expected budget spent 1.5, got %v", got)
	}

	SetQueueDepth(3)
	if got := testutil.ToFloat64(queueDepth); got != 3 {
		t.Fatalf("expected queue depth 3, got %v", got)
	}

	SetActiveGraphs(2)
	if got := testutil.ToFloat64(activeGraphs); got != 2 {
		t.Fatalf("expected active graphs 2, got %v", got)
	}
}

func TestTickDurationHistogramUpdates(t *testing.T) {
	RecordTick(0.02, "dispatched")

	expected := `
# HELP swarmcore_tick_duration_seconds Executor Tick duration in seconds
# TYPE swarmcore_tick_duration_seconds histogram
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="0.001"} 0
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="0.005"} 0
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="0.01"} 0
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="0.05"} 1
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="0.1"} 1
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="0.5"} 1
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="1"} 1
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="5"} 1
swarmcore_tick_duration_seconds_bucket{outcome="dispatched",le="+Inf"} 1
swarmcore_tick_duration_seconds_sum{outcome="dispatched"} 0.02
swarmcore_tick_duration_seconds_count{outcome="dispatched"} 1
`
	if err := testutil.CollectAndCompare(tickDuration, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected histogram output: %v", err)
	}
}
