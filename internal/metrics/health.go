package metrics

import (
	"encoding/json"
	"net/http"
)

// HealthSource supplies the breaker issues an aggregate health check
// needs; implemented by internal/breaker.Registry, so this package does
// not import it. The running-task and active-graph counts are passed to
// HealthHandler as plain funcs.
type HealthSource interface {
	HealthIssues() []string
}

// healthResponse is the JSON body served at /health.
type healthResponse struct {
	Status        string   `json:"status"` // ok, degraded
	BreakerIssues []string `json:"breakerIssues,omitempty"`
	RunningTasks  int      `json:"runningTasks"`
	ActiveGraphs  int      `json:"activeGraphs"`
}

// HealthHandler builds the aggregate /health handler named in
// SPEC_FULL.md's ambient-stack section: degraded whenever any circuit
// breaker is non-closed, per spec.md §4.5's health-check hook. Grounded
// on the teacher's cmd/server/main.go handleHealth.
func HealthHandler(breakers HealthSource, runningTasks func() int, activeGraphs func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issues := breakers.HealthIssues()
		resp := healthResponse{
			Status:        "ok",
			BreakerIssues: issues,
			RunningTasks:  runningTasks(),
			ActiveGraphs:  activeGraphs(),
		}
		if len(issues) > 0 {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
