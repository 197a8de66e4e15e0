package supervisor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/swarmcore/orchestrator/internal/logger"
	"github.com/swarmcore/orchestrator/internal/store"
	"golang.org/x/time/rate"
)

// Config holds the supervisor's process-wide knobs, bound from
// internal/config.
type Config struct {
	ClaudePath           string
	GlobalMax            int
	DefaultTimeout       time.Duration
	DefaultToolLimit     int
	CodeToolLimit        int
	CodeWallClock        time.Duration
	ProgressInterval     time.Duration
	ArchiveRetention     time.Duration
	ArchiveCap           int
}

// DefaultConfig matches the Open Question resolutions recorded in
// SPEC_FULL.md/DESIGN.md.
func DefaultConfig() Config {
	return Config{
		GlobalMax:        5,
		DefaultTimeout:   10 * time.Minute,
		DefaultToolLimit: 75,
		CodeToolLimit:    200,
		CodeWallClock:    90 * time.Minute,
		ProgressInterval: 15 * time.Second,
		ArchiveRetention: 24 * time.Hour,
		ArchiveCap:       100,
	}
}

// CompletionCallback is invoked once per terminal task. The executor
// registers this at startup to break the executor<->supervisor import
// cycle, per spec.md §9's Design Notes.
type CompletionCallback func(t *Task)

// ProgressCallbackFunc is invoked on a task's progress cadence.
type ProgressCallbackFunc func(taskID string, info ProgressInfo)

// Registry is the Task Supervisor named in spec.md §4.3.
type Registry struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	archive []*Task
	seq     int

	cfg            Config
	globalLimiter  *limiter
	graphLimiters  map[string]*limiter
	spawnLimiter   *rate.Limiter
	onComplete     CompletionCallback
	onProgress     ProgressCallbackFunc
	log            *logger.Logger
	st             *store.FileStore

	totalCompleted int
	totalFailed    int
	totalTimedOut  int
}

// New constructs a Registry. Per-graph limiters are created lazily, on a
// graph's first registration, sized by the graphMaxConcurrent passed there.
func New(cfg Config, log *logger.Logger, st *store.FileStore) *Registry {
	return &Registry{
		tasks:         make(map[string]*Task),
		cfg:           cfg,
		globalLimiter: newLimiter(cfg.GlobalMax),
		graphLimiters: make(map[string]*limiter),
		spawnLimiter:  rate.NewLimiter(rate.Limit(2), 3),
		log:           log,
		st:            st,
	}
}

// OnComplete registers the executor's completion callback.
func (r *Registry) OnComplete(cb CompletionCallback) { r.onComplete = cb }

// OnProgress registers a progress callback.
func (r *Registry) OnProgress(cb ProgressCallbackFunc) { r.onProgress = cb }

func (r *Registry) graphLimiter(graphID string, maxConcurrent int) *limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.graphLimiters[graphID]
	if !ok {
		l = newLimiter(maxConcurrent)
		r.graphLimiters[graphID] = l
	}
	return l
}

func (r *Registry) nextID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("t-%d", r.seq)
}

// Register admits a research-type task, refusing it when the global
// ceiling or the graph's own graphMaxConcurrent ceiling is saturated.
// Both ceilings count slots held from registration until the task is
// terminal, so a task that has no child PID yet counts as well.
func (r *Registry) Register(opts RegisterOpts, graphMaxConcurrent int) (*Task, error) {
	return r.register(opts, KindResearch, graphMaxConcurrent)
}

// RegisterCodeTask admits a code-type (streaming) task under the same
// ceiling rules as Register.
func (r *Registry) RegisterCodeTask(opts RegisterOpts, graphMaxConcurrent int) (*Task, error) {
	opts.Kind = KindCode
	if opts.ToolLimit == 0 {
		opts.ToolLimit = r.cfg.CodeToolLimit
	}
	if opts.Timeout == 0 {
		opts.Timeout = r.cfg.CodeWallClock
	}
	return r.register(opts, KindCode, graphMaxConcurrent)
}

func (r *Registry) register(opts RegisterOpts, kind Kind, graphMaxConcurrent int) (*Task, error) {
	if !r.globalLimiter.tryAcquire() {
		return nil, fmt.Errorf("supervisor: global concurrency ceiling reached (%d)", r.cfg.GlobalMax)
	}
	if opts.GraphID != "" {
		gl := r.graphLimiter(opts.GraphID, graphMaxConcurrent)
		if !gl.tryAcquire() {
			r.globalLimiter.release()
			return nil, fmt.Errorf("supervisor: graph %s concurrency ceiling reached", opts.GraphID)
		}
	}

	if opts.Timeout == 0 {
		opts.Timeout = r.cfg.DefaultTimeout
	}
	if opts.ToolLimit == 0 {
		opts.ToolLimit = r.cfg.DefaultToolLimit
	}

	t := &Task{
		ID:          r.nextID(),
		Description: opts.Description,
		Kind:        kind,
		Status:      StatusPending,
		GraphID:     opts.GraphID,
		NodeID:      opts.NodeID,
		Prompt:      composePrompt(kind, opts),
		Model:       opts.Model,
		Cwd:         opts.Cwd,
		OutputPath:  opts.OutputPath,
		Requester:   opts.Requester,
		CreatedAt:   time.Now(),
		Timeout:     opts.Timeout,
		MaxRetries:  opts.MaxRetries,
		ToolLimit:   opts.ToolLimit,
		BudgetUSD:   opts.BudgetUSD,
	}

	r.mu.Lock()
	r.tasks[t.ID] = t
	r.mu.Unlock()

	go r.spawn(t)
	return t, nil
}

// composePrompt prepends the fixed per-kind instruction spec.md §4.3
// requires of every child invocation.
func composePrompt(kind Kind, opts RegisterOpts) string {
	switch kind {
	case KindResearch:
		if opts.OutputPath != "" {
			return fmt.Sprintf(
				"Write the complete result to the absolute path %s using your file-write tool. Never ask clarifying questions.\n\n%s",
				opts.OutputPath, opts.Prompt)
		}
		return fmt.Sprintf("Never ask clarifying questions.\n\n%s", opts.Prompt)
	case KindCode:
		return fmt.Sprintf(
			"Work autonomously in the provided working directory. Your final message must summarize the edits you made.\n\n%s",
			opts.Prompt)
	default:
		return opts.Prompt
	}
}

// release returns t's concurrency slots to the global and (if any)
// per-graph limiters. Must be called exactly once per terminal task.
func (r *Registry) release(t *Task) {
	r.globalLimiter.release()
	if t.GraphID != "" {
		r.mu.Lock()
		gl := r.graphLimiters[t.GraphID]
		r.mu.Unlock()
		if gl != nil {
			gl.release()
		}
	}
}

// complete moves a terminal task from the live registry to the archive
// (once retention/cap allow) and invokes the completion callback.
func (r *Registry) complete(t *Task) {
	r.release(t)

	r.mu.Lock()
	switch t.ExitReason {
	case ExitCompleted:
		r.totalCompleted++
	case ExitToolLimit, ExitBudget, ExitWallClock, ExitError, ExitCancelled:
		r.totalFailed++
	}
	if t.Status == StatusTimeout {
		r.totalTimedOut++
	}
	r.persistLocked()
	r.mu.Unlock()

	if r.onComplete != nil {
		r.onComplete(t)
	}
}

// Fail marks a task failed with an explicit error, used by callers outside
// the spawn/watchdog path (e.g. a precondition check before dispatch).
func (r *Registry) Fail(id string, err error) {
	t := r.Get(id)
	if t == nil {
		return
	}
	t.Lock()
	t.Status = StatusFailed
	t.ExitReason = ExitError
	t.ErrorMsg = err.Error()
	t.CompletedAt = time.Now()
	t.Unlock()
	r.complete(t)
}

// Cancel terminates a running task's child process, if any, recording
// ExitCancelled as the exit reason and reason as the error message.
func (r *Registry) Cancel(id string, reason string) {
	t := r.Get(id)
	if t == nil {
		return
	}
	t.Lock()
	t.ExitReason = ExitCancelled
	t.Status = StatusFailed
	t.ErrorMsg = reason
	cancel := t.cancel
	t.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Get returns the task with id, from the live set or the archive.
func (r *Registry) Get(id string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[id]; ok {
		return t
	}
	for _, t := range r.archive {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// List returns every live task, sorted by id.
func (r *Registry) List() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RunningTasks returns every live task currently StatusRunning.
func (r *Registry) RunningTasks() []*Task {
	var out []*Task
	for _, t := range r.List() {
		t.Lock()
		running := t.Status == StatusRunning
		t.Unlock()
		if running {
			out = append(out, t)
		}
	}
	return out
}

// persistLocked writes the live registry and archive to disk. Called with
// r.mu held.
func (r *Registry) persistLocked() {
	if r.st == nil {
		return
	}
	type snapshot struct {
		Tasks          []*Task   `json:"tasks"`
		LastCheckAt    time.Time `json:"lastCheckAt"`
		TotalCompleted int       `json:"totalCompleted"`
		TotalFailed    int       `json:"totalFailed"`
		TotalTimedOut  int       `json:"totalTimedOut"`
	}
	tasks := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	_ = r.st.WriteJSON(store.TasksPath(), snapshot{
		Tasks:          tasks,
		LastCheckAt:    time.Now(),
		TotalCompleted: r.totalCompleted,
		TotalFailed:    r.totalFailed,
		TotalTimedOut:  r.totalTimedOut,
	})

	// Age terminal tasks out of the live set into the bounded archive.
	cutoff := time.Now().Add(-r.cfg.ArchiveRetention)
	for id, t := range r.tasks {
		t.Lock()
		terminal := t.Status == StatusCompleted || t.Status == StatusFailed || t.Status == StatusTimeout
		completedAt := t.CompletedAt
		t.Unlock()
		if terminal && completedAt.Before(cutoff) {
			r.archive = append(r.archive, t)
			delete(r.tasks, id)
		}
	}
	if len(r.archive) > r.cfg.ArchiveCap {
		r.archive = r.archive[len(r.archive)-r.cfg.ArchiveCap:]
	}
	_ = r.st.WriteJSON(store.TasksArchivePath(), r.archive)
}
