package supervisor

import (
	"context"
	"os"
	"time"
)

// Check runs the periodic supervisor sweep spec.md §4.3 names: the four
// killable conditions (first to trip wins; natural exit is handled by
// spawn.go) plus output-file polling for research tasks. It is meant to be driven by a cron job at
// the configured inactivity cadence (5s default).
func (r *Registry) Check() {
	for _, t := range r.List() {
		r.checkTask(t)
	}
}

func (r *Registry) checkTask(t *Task) {
	t.Lock()
	t.LastCheckedAt = time.Now()
	status := t.Status
	t.Unlock()
	if status != StatusRunning {
		return
	}

	if reason, ok := r.tripped(t); ok {
		r.kill(t, reason)
		return
	}

	if t.Kind == KindResearch && t.OutputPath != "" {
		r.pollOutputFile(t)
	}
}

// tripped evaluates the four killable conditions in fixed priority order
// (natural exit is handled by spawn.go once the process actually ends).
func (r *Registry) tripped(t *Task) (ExitReason, bool) {
	t.Lock()
	defer t.Unlock()

	if t.ToolCallCount > t.ToolLimit {
		return ExitToolLimit, true
	}
	if t.BudgetUSD > 0 && t.CostUSD > t.BudgetUSD {
		return ExitBudget, true
	}
	if t.Timeout > 0 && t.elapsed() > t.Timeout {
		return ExitWallClock, true
	}
	if t.idleFor() > r.inactivityTimeout() {
		return ExitInactivity, true
	}
	return "", false
}

// inactivityTimeout is the idle ceiling each sweep checks: four times
// ProgressInterval, or one minute when ProgressInterval is not positive.
func (r *Registry) inactivityTimeout() time.Duration {
	if r.cfg.ProgressInterval > 0 {
		return 4 * r.cfg.ProgressInterval
	}
	return time.Minute
}

// kill sends the platform termination signal exactly once and records the
// reason; spawn.go's finalize() observes the stamped ExitReason once the
// process actually exits and will not overwrite it.
func (r *Registry) kill(t *Task, reason ExitReason) {
	t.Lock()
	if t.ExitReason != "" {
		t.Unlock()
		return
	}
	t.ExitReason = reason
	if reason == ExitWallClock || reason == ExitInactivity {
		t.Status = StatusTimeout
	} else {
		t.Status = StatusFailed
	}
	cancel := t.cancel
	t.Unlock()

	if cancel != nil {
		cancel()
	}

	if r.log != nil {
		r.log.Event(context.Background(), "supervisor", "task_killed", map[string]any{
			"taskId": t.ID, "reason": string(reason),
		})
	}
}

// pollOutputFile implements spec.md §4.3's research-task output polling:
// promote to completed once the file appears; on wall-clock exceedance
// with retries remaining, respawn with a backoff delay instead of
// terminating outright.
func (r *Registry) pollOutputFile(t *Task) {
	t.Lock()
	path := t.OutputPath
	exceeded := t.Timeout > 0 && t.elapsed() > t.Timeout
	retriesLeft := t.RetryCount < t.MaxRetries
	t.Unlock()

	data, err := os.ReadFile(path)
	if err == nil {
		preview := string(data)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		t.Lock()
		t.Status = StatusCompleted
		t.ExitReason = ExitCompleted
		t.Result = "Output saved to " + path
		t.CompletedAt = time.Now()
		t.Unlock()
		r.complete(t)
		return
	}

	if !exceeded {
		return
	}

	if retriesLeft {
		r.respawnResearchTask(t)
		return
	}

	r.kill(t, ExitWallClock)
}

// respawnResearchTask kills the stalled child (if any), applies a jittered
// backoff, resets the clock, and relaunches with the same prompt.
func (r *Registry) respawnResearchTask(t *Task) {
	t.Lock()
	cancel := t.cancel
	t.RetryCount++
	t.Unlock()
	if cancel != nil {
		cancel()
	}

	delay := respawnBackoff(t.RetryCount)
	time.Sleep(delay)

	t.Lock()
	t.StartedAt = time.Now()
	t.LastActivity = t.StartedAt
	t.PID = 0
	t.ExitReason = ""
	t.Status = StatusPending
	t.Unlock()

	go r.spawn(t)
}
