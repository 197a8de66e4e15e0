package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// ProgressInfo is delivered to the registry's progress callback whenever a
// task's tool-call cadence crosses ProgressInterval, per spec.md §4.3.
type ProgressInfo struct {
	ToolName      string
	ToolCallCount int
	ElapsedSec    float64
	LastFile      string
	CostUSD       float64
}

// spawn starts t's child process and streams its output until the process
// exits or the watchdog cancels it. It runs on its own goroutine; the
// caller does not block on it.
func (r *Registry) spawn(t *Task) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Lock()
	t.cancel = cancel
	t.Unlock()

	// Smooths a large ready-batch's simultaneous forks; never an admission
	// gate — the concurrency ceiling in register/registerCodeTask is.
	_ = r.spawnLimiter.Wait(ctx)

	args := buildArgs(t)
	cmd := exec.CommandContext(ctx, r.cfg.ClaudePath, args...)
	cmd.Dir = t.Cwd

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.finalizeSpawnError(t, err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.finalizeSpawnError(t, err)
		return
	}

	if err := cmd.Start(); err != nil {
		r.finalizeSpawnError(t, err)
		return
	}

	t.Lock()
	t.cmd = cmd
	t.PID = cmd.Process.Pid
	t.Status = StatusRunning
	t.StartedAt = time.Now()
	t.LastActivity = t.StartedAt
	t.Unlock()

	go drainStderr(stderr)

	streamErr := scanEvents(stdout, func(ev streamEvent) { r.handleEvent(t, ev) })
	waitErr := cmd.Wait()

	r.finalize(t, streamErr, waitErr)
}

// buildArgs constructs the child-process argv exactly per spec.md §6: the
// prompt is its own argv element, never interpolated into a shell string.
func buildArgs(t *Task) []string {
	return []string{
		"-p", t.Prompt,
		"--output-format", "stream-json",
		"--verbose",
		"--model", t.Model,
		"--dangerously-skip-permissions",
	}
}

func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		// Diagnostics only; spec.md §4.3 says stderr is drained, not parsed.
		_ = scanner.Text()
	}
}

func (r *Registry) handleEvent(t *Task, ev streamEvent) {
	t.Lock()
	defer t.Unlock()

	switch ev.Type {
	case eventAssistant:
		t.ToolCallCount++
		t.LastActivity = time.Now()
		if ev.ToolName != "" {
			t.LastTool = ev.ToolName
		}
		if f := extractFilePath(ev.ToolName, ev.ToolInput); f != "" {
			t.LastFile = f
		}
		if r.cfg.ProgressInterval > 0 && time.Since(t.LastActivity) >= r.cfg.ProgressInterval {
			r.fireProgress(t)
		}
	case eventResult:
		t.LastActivity = time.Now()
		t.InputTokens += ev.InputTokens
		t.OutputTokens += ev.OutputTokens
		t.CostUSD += computeCost(t.Model, ev.InputTokens, ev.OutputTokens)
		t.Result = ev.ResultText
		if ev.IsError {
			t.ErrorMsg = ev.ResultText
		}
	}
}

func (r *Registry) fireProgress(t *Task) {
	if r.onProgress == nil {
		return
	}
	info := ProgressInfo{
		ToolName:      t.LastTool,
		ToolCallCount: t.ToolCallCount,
		ElapsedSec:    time.Since(t.StartedAt).Seconds(),
		LastFile:      t.LastFile,
		CostUSD:       t.CostUSD,
	}
	r.onProgress(t.ID, info)
}

func (r *Registry) finalizeSpawnError(t *Task, err error) {
	t.Lock()
	t.Status = StatusFailed
	t.ExitReason = ExitError
	t.ErrorMsg = (&SpawnError{TaskID: t.ID, Err: err}).Error()
	t.CompletedAt = time.Now()
	t.Unlock()
	r.complete(t)
}

// finalize determines the terminal outcome of a task whose child process
// has exited, honoring any kill condition the watchdog already stamped.
func (r *Registry) finalize(t *Task, streamErr, waitErr error) {
	t.Lock()
	t.PID = 0
	t.CompletedAt = time.Now()

	if t.ExitReason == "" {
		switch {
		case waitErr != nil || t.ErrorMsg != "":
			t.ExitReason = ExitError
			t.Status = StatusFailed
			if waitErr != nil {
				t.ErrorMsg = (&ChildExitError{TaskID: t.ID, Err: waitErr}).Error()
			}
		case streamErr != nil:
			t.ExitReason = ExitError
			t.Status = StatusFailed
			t.ErrorMsg = fmt.Sprintf("supervisor: task %s stream read: %v", t.ID, streamErr)
		default:
			t.ExitReason = ExitCompleted
			t.Status = StatusCompleted
		}
	}
	t.Unlock()

	r.complete(t)
}
