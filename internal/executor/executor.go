// Package executor implements the DAG Executor named in spec.md §4.2: the
// central tick loop that dispatches ready nodes as supervised tasks,
// advances graph/node state on completion, and recovers in-flight graphs
// after a crash. Grounded on the teacher's DAGExecutor.Execute
// (internal/executor/dag_executor.go in the pre-transformation tree) for
// the "schedule ready batch, wait, re-evaluate, repeat" shape, restructured
// from one blocking call into the spec's idempotent, re-entrant-safe
// tick(graphId) that returns immediately — this core must support
// pause/resume/crash-recovery, which the teacher's one-shot Execute did
// not need to.
package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/swarmcore/orchestrator/internal/dag"
	"github.com/swarmcore/orchestrator/internal/logger"
	"github.com/swarmcore/orchestrator/internal/store"
	"github.com/swarmcore/orchestrator/internal/supervisor"
)

// NotifyFunc is the registered callback spec.md §9's "graph terminal states
// emit a single notification to the initiator" names. graph.Initiator is
// the delivery-queue chat id; msg is a short human-readable summary.
type NotifyFunc func(graph *dag.Graph, msg string)

// Executor is the DAG Executor. One instance owns every active graph for
// the process lifetime.
type Executor struct {
	mu     sync.Mutex
	graphs map[string]*dag.Graph

	sm       *dag.StateMachine
	st       *store.FileStore
	sup      *supervisor.Registry
	log      *logger.Logger
	onNotify NotifyFunc
}

// New builds an Executor, registers its completion callback with sup (per
// spec.md §9's "break the cycle with a callback interface" Design Note),
// and returns it ready for Recover + Start.
func New(st *store.FileStore, sup *supervisor.Registry, log *logger.Logger) *Executor {
	e := &Executor{
		graphs: make(map[string]*dag.Graph),
		sm:     &dag.StateMachine{},
		st:     st,
		sup:    sup,
		log:    log,
	}
	sup.OnComplete(e.onTaskComplete)
	return e
}

// OnNotify registers the terminal-state notification callback.
func (e *Executor) OnNotify(fn NotifyFunc) { e.onNotify = fn }

func (e *Executor) notify(g *dag.Graph, msg string) {
	if e.onNotify != nil {
		e.onNotify(g, msg)
	}
}

func (e *Executor) persist(g *dag.Graph) {
	if e.st == nil {
		return
	}
	if err := e.st.SaveGraph(g); err != nil {
		e.log.Error(context.Background(), "executor", "persist_graph_failed", err.Error(), map[string]any{"graphId": g.ID})
	}
}

func (e *Executor) logEvent(g *dag.Graph, event string, meta map[string]any) {
	if e.log == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["graphId"] = g.ID
	e.log.Event(context.Background(), "executor", event, meta)
}

// Start admits graph into the active set, transitions it planning->running,
// stamps startedAt, persists, and runs its first tick.
func (e *Executor) Start(g *dag.Graph) error {
	if err := e.sm.TransitionGraph(g, dag.GraphRunning); err != nil {
		return err
	}
	now := time.Now()
	g.Budget.StartedAt = &now

	e.mu.Lock()
	e.graphs[g.ID] = g
	e.mu.Unlock()

	e.persist(g)
	e.Tick(g.ID)
	return nil
}

// Get returns the active graph with id, or nil.
func (e *Executor) Get(id string) *dag.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graphs[id]
}

// List returns every active graph, sorted by id.
func (e *Executor) List() []*dag.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*dag.Graph, 0, len(e.graphs))
	for _, g := range e.graphs {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Status renders a human-readable one-line summary of graph id.
func (e *Executor) Status(id string) string {
	g := e.Get(id)
	if g == nil {
		return fmt.Sprintf("graph %s: not found", id)
	}
	g.Lock()
	defer g.Unlock()
	done, total := 0, len(g.Nodes)
	for _, n := range g.Nodes {
		if n.Status == dag.NodeCompleted || n.Status == dag.NodeSkipped {
			done++
		}
	}
	return fmt.Sprintf("graph %s [%s]: %d/%d nodes done, spent $%.2f of $%.2f",
		g.ID, g.Status, done, total, g.Budget.SpentUSD, g.Budget.MaxCostUSD)
}

// Pause transitions a running graph to paused and persists it. In-flight
// tasks are left to finish; the next Tick on a paused graph is a no-op.
func (e *Executor) Pause(id string) error {
	g := e.Get(id)
	if g == nil {
		return &NotFoundError{GraphID: id}
	}
	g.Lock()
	defer g.Unlock()
	if err := e.sm.TransitionGraph(g, dag.GraphPaused); err != nil {
		return err
	}
	e.persist(g)
	return nil
}

// Resume transitions a paused graph back to running and ticks it.
func (e *Executor) Resume(id string) error {
	g := e.Get(id)
	if g == nil {
		return &NotFoundError{GraphID: id}
	}
	g.Lock()
	if err := e.sm.TransitionGraph(g, dag.GraphRunning); err != nil {
		g.Unlock()
		return err
	}
	g.Unlock()
	e.persist(g)
	e.Tick(id)
	return nil
}

// Cancel transitions a graph to cancelled, skips every node that hasn't
// already reached a terminal state, sends the termination signal to any
// running children, and drops the graph from the active set (spec.md §5's
// Cancellation: "all suspension points cancellable").
func (e *Executor) Cancel(id string) error {
	g := e.Get(id)
	if g == nil {
		return &NotFoundError{GraphID: id}
	}
	g.Lock()
	if err := e.sm.TransitionGraph(g, dag.GraphCancelled); err != nil {
		g.Unlock()
		return err
	}
	for _, n := range g.Nodes {
		switch n.Status {
		case dag.NodeCompleted, dag.NodeSkipped, dag.NodeFailed:
			continue
		}
		taskID := n.TaskID
		_ = e.sm.TransitionNode(g, n.ID, dag.NodeSkipped)
		if taskID != "" {
			e.sup.Cancel(taskID, "graph cancelled")
		}
	}
	e.persist(g)
	g.Unlock()

	e.mu.Lock()
	delete(e.graphs, id)
	e.mu.Unlock()

	e.notify(g, fmt.Sprintf("swarm %s cancelled", g.ID))
	return nil
}

// Retry resets every failed node back to pending (consuming one retry
// slot each, per the node state machine) and re-ticks the graph.
func (e *Executor) Retry(id string) error {
	g := e.Get(id)
	if g == nil {
		return &NotFoundError{GraphID: id}
	}
	g.Lock()
	if g.Status == dag.GraphFailed {
		if err := e.sm.TransitionGraph(g, dag.GraphRunning); err != nil {
			g.Unlock()
			return err
		}
	}
	retried := false
	for _, n := range g.Nodes {
		if n.Status != dag.NodeFailed {
			continue
		}
		if err := e.sm.TransitionNode(g, n.ID, dag.NodePending); err == nil {
			retried = true
		}
	}
	g.Unlock()
	if !retried {
		return fmt.Errorf("executor: no failed nodes to retry in graph %s", id)
	}
	e.persist(g)
	e.Tick(id)
	return nil
}

// TickAll ticks every active graph once. Intended as the cron-driven sweep
// that keeps paused-then-resumed and crash-recovered graphs progressing.
func (e *Executor) TickAll() {
	for _, g := range e.List() {
		e.Tick(g.ID)
	}
}

// Tick is the central procedure of spec.md §4.2: idempotent and
// re-entrant-safe per graph.
func (e *Executor) Tick(graphID string) {
	g := e.Get(graphID)
	if g == nil {
		return
	}

	g.Lock()

	// Step 5's skip-propagation can unblock further completion/failure
	// checks within the same tick; loop until nothing more changes instead
	// of recursing back into Tick (which would re-acquire g's mutex).
	// dispatchNode takes g's lock itself (it must release it around the
	// blocking supervisor.Register call), so every exit from this loop
	// must unlock exactly once on its own path instead of via defer.
	for {
		// 1. If graph is not running, return.
		if g.Status != dag.GraphRunning {
			g.Unlock()
			return
		}

		// 2. Budget exceeded.
		if g.Budget.MaxCostUSD > 0 && g.Budget.SpentUSD >= g.Budget.MaxCostUSD {
			err := &BudgetExceededError{GraphID: g.ID, Spent: g.Budget.SpentUSD, MaxCost: g.Budget.MaxCostUSD}
			g.Error = err.Error()
			_ = e.sm.TransitionGraph(g, dag.GraphFailed)
			e.persist(g)
			e.logEvent(g, "graph_failed_budget", nil)
			g.Unlock()
			e.notify(g, err.Error())
			return
		}

		// 3. Wall-clock exceeded.
		if g.Budget.StartedAt != nil && g.Budget.MaxWallClock > 0 &&
			g.Budget.StartedAt.Add(g.Budget.MaxWallClock).Before(time.Now()) {
			err := &WallClockExceededError{GraphID: g.ID}
			g.Error = err.Error()
			_ = e.sm.TransitionGraph(g, dag.GraphFailed)
			e.persist(g)
			e.logEvent(g, "graph_failed_wall_clock", nil)
			g.Unlock()
			e.notify(g, err.Error())
			return
		}

		// 4. Compute the ready set.
		ready := dag.ReadyNodeIDs(g)

		// 5. Ready set empty.
		if len(ready) == 0 {
			if g.HasInFlight() {
				g.Unlock()
				return // waiting
			}
			// A failed node only blocks completion when it is a critical
			// failure; an optional or dependent-less failed node (e.g. an
			// optional leaf) is resolved as far as the graph is concerned,
			// same as spec.md §4.2 S2's "C is failed, graph ends completed".
			if allResolved(g) {
				now := time.Now()
				g.CompletedAt = &now
				_ = e.sm.TransitionGraph(g, dag.GraphCompleted)
				e.persist(g)
				e.logEvent(g, "graph_completed", nil)
				g.Unlock()
				e.notify(g, fmt.Sprintf("swarm %s completed", g.ID))
				return
			}

			if failures := dag.CriticalFailures(g); len(failures) > 0 {
				// Downstream work behind a critical failure is moot: mark
				// it skipped before failing the graph, so a later Status
				// call doesn't show dangling pending nodes.
				for _, id := range failures {
					dag.PropagateSkip(g, e.sm, id)
				}
				g.Error = fmt.Sprintf("critical node failure: %s", failures[0])
				_ = e.sm.TransitionGraph(g, dag.GraphFailed)
				e.persist(g)
				e.logEvent(g, "graph_failed_critical_node", map[string]any{"nodeId": failures[0]})
				msg := g.Error
				g.Unlock()
				e.notify(g, msg)
				return
			}

			changed := false
			for _, n := range g.Nodes {
				if n.Status == dag.NodeFailed {
					if ids := dag.PropagateSkip(g, e.sm, n.ID); len(ids) > 0 {
						changed = true
					}
				}
			}
			e.persist(g)
			if !changed {
				g.Unlock()
				return
			}
			continue // re-check completion now that nodes were skipped
		}

		// 6. Dispatch. dispatch unlocks g itself once it has copied out the
		// ready-node data it needs, since each node's dispatch involves a
		// blocking supervisor.Register call.
		e.dispatch(g, ready)
		return
	}
}

// allResolved reports whether every node in g has reached a state that can
// never change again. Completed and skipped nodes always qualify; a failed
// node qualifies too unless dag.CriticalFailures considers it critical
// (non-optional, with downstream dependents). This is deliberately looser
// than dag.Graph.AllTerminal: a permanently failed optional or leaf node
// (spec.md §4.2's optional-leaf-failure scenario) must not keep its graph
// stuck running forever.
func allResolved(g *dag.Graph) bool {
	critical := make(map[string]bool)
	for _, id := range dag.CriticalFailures(g) {
		critical[id] = true
	}
	for _, n := range g.Nodes {
		switch n.Status {
		case dag.NodeCompleted, dag.NodeSkipped:
		case dag.NodeFailed:
			if critical[n.ID] {
				return false
			}
		default:
			return false
		}
	}
	return true
}
