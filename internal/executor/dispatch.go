package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swarmcore/orchestrator/internal/dag"
	"github.com/swarmcore/orchestrator/internal/router"
	"github.com/swarmcore/orchestrator/internal/store"
	"github.com/swarmcore/orchestrator/internal/supervisor"
)

// dispatch fans out ready, runs SPEC_FULL.md's bounded-concurrency
// replacement for the teacher's raw `go e.executeNodeAsync(...)`: an
// errgroup capped to the per-graph in-flight ceiling. Called with g
// already locked by Tick; dispatch releases that lock once it has
// resolved checkpoint promotions and the set of nodes it will actually
// dispatch, since each dispatch involves a blocking supervisor.Register
// call and dispatchNode re-acquires g's lock itself per node.
func (e *Executor) dispatch(g *dag.Graph, ready []string) {
	slots := g.Budget.MaxConcurrent
	if slots <= 0 {
		slots = 1
	}

	var toDispatch []string
	for _, id := range ready {
		n := g.Node(id)
		if n == nil {
			continue
		}

		if n.Checkpoint != nil {
			_ = e.sm.TransitionNode(g, id, dag.NodeReady)
			_ = e.sm.TransitionNode(g, id, dag.NodeQueued)
			n.Status = dag.NodeCompleted
			e.logEvent(g, "node_promoted_from_checkpoint", map[string]any{"nodeId": id})
			continue
		}
		toDispatch = append(toDispatch, id)
	}
	e.persist(g)
	g.Unlock()

	var grp errgroup.Group
	grp.SetLimit(slots)
	for _, id := range toDispatch {
		nodeID := id
		grp.Go(func() error {
			e.dispatchNode(g, nodeID)
			return nil
		})
	}
	_ = grp.Wait()

	g.Lock()
	e.persist(g)
	g.Unlock()
}

// dispatchNode builds the enriched prompt, resolves the model, and
// registers a supervised task for node nodeID. Called concurrently for
// distinct nodes of the same graph, so it takes g's lock itself rather
// than assuming the caller already holds it for the whole duration.
func (e *Executor) dispatchNode(g *dag.Graph, nodeID string) {
	g.Lock()
	n := g.Node(nodeID)
	if n == nil || n.Status != dag.NodePending {
		g.Unlock()
		return
	}
	_ = e.sm.TransitionNode(g, nodeID, dag.NodeReady)
	_ = e.sm.TransitionNode(g, nodeID, dag.NodeQueued)

	prompt := e.enrichPrompt(g, n)
	model := n.Model
	decision := router.Check(n.Type, router.Select(n.Type, g.Budget, model), g.Budget)
	if !decision.Allowed {
		n.LastError = decision.Reason
		_ = e.sm.TransitionNode(g, nodeID, dag.NodePending)
		g.Unlock()
		e.logEvent(g, "node_dispatch_deferred", map[string]any{"nodeId": nodeID, "reason": decision.Reason})
		return
	}
	model = decision.SuggestedModel

	outputPath := ""
	if n.Type != dag.NodeCode {
		outputPath = e.st.AbsPath(store.ScratchpadPath(g.ID, nodeID))
	}

	graphID, label := g.ID, n.Label
	maxConcurrent := g.Budget.MaxConcurrent
	g.Unlock()

	opts := supervisor.RegisterOpts{
		Description: fmt.Sprintf("%s (%s)", label, nodeID),
		GraphID:     graphID,
		NodeID:      nodeID,
		Prompt:      prompt,
		Model:       model,
		OutputPath:  outputPath,
		Requester:   g.Initiator,
		MaxRetries:  n.MaxRetries,
		Timeout:     n.Timeout,
		BudgetUSD:   g.Budget.MaxCostUSD - g.Budget.SpentUSD,
		Priority:    10,
	}

	var task *supervisor.Task
	var err error
	if n.Type == dag.NodeCode {
		opts.Cwd = e.workdirFor(graphID, nodeID)
		task, err = e.sup.RegisterCodeTask(opts, maxConcurrent)
	} else {
		task, err = e.sup.Register(opts, maxConcurrent)
	}

	g.Lock()
	defer g.Unlock()
	n = g.Node(nodeID)
	if n == nil {
		return
	}
	if err != nil {
		n.LastError = err.Error()
		_ = e.sm.TransitionNode(g, nodeID, dag.NodePending)
		e.logEvent(g, "node_dispatch_failed", map[string]any{"nodeId": nodeID, "error": err.Error()})
		return
	}
	n.TaskID = task.ID
	_ = e.sm.TransitionNode(g, nodeID, dag.NodeRunning)
	e.logEvent(g, "node_dispatched", map[string]any{"nodeId": nodeID, "taskId": task.ID, "model": model})
}

// enrichPrompt prepends, for each predecessor that produced output, a
// block "## Input from \"<pred.label>\":\n\n<output>", per spec.md §4.2's
// dispatch description.
func (e *Executor) enrichPrompt(g *dag.Graph, n *dag.Node) string {
	var sb strings.Builder
	for _, predID := range g.Predecessors(n.ID) {
		pred := g.Node(predID)
		if pred == nil {
			continue
		}
		output, err := e.st.LoadScratchpad(g.ID, predID)
		if err != nil || output == "" {
			continue
		}
		fmt.Fprintf(&sb, "## Input from %q:\n\n%s\n\n", pred.Label, output)
	}
	sb.WriteString(n.Prompt)
	return sb.String()
}

// workdirFor resolves the working directory a code-type node's child
// process edits in place.
func (e *Executor) workdirFor(graphID, nodeID string) string {
	return e.st.AbsPath(fmt.Sprintf("%s/work-%s", store.GraphDir(graphID), nodeID))
}

// onTaskComplete is the completion callback registered with the Task
// Supervisor at construction time (spec.md §9's "break the cycle with a
// callback interface" Design Note): onNodeComplete(taskId, graphId,
// nodeId, costUsd).
func (e *Executor) onTaskComplete(t *supervisor.Task) {
	t.Lock()
	graphID, nodeID, costUSD, status := t.GraphID, t.NodeID, t.CostUSD, t.Status
	taskID := t.ID
	t.Unlock()

	if graphID == "" || nodeID == "" {
		return
	}
	g := e.Get(graphID)
	if g == nil {
		return
	}

	g.Lock()
	n := g.Node(nodeID)
	if n == nil {
		g.Unlock()
		return
	}
	if n.Status == dag.NodeCompleted {
		// A second completion callback for an already-completed node is a
		// no-op: no double-counted cost, no redispatch.
		g.Unlock()
		return
	}
	g.Budget.SpentUSD += costUSD

	if status == supervisor.StatusCompleted {
		output, _ := e.st.LoadScratchpad(graphID, nodeID)
		// spec.md §4.3's intent-tag grammar lets an assistant-authored node
		// output spawn ad hoc background tasks outside the DAG; extract and
		// acknowledge them before checkpointing, and persist the rewritten
		// text so a later read sees "Background task started: ..." in place
		// of the literal tag.
		rewritten := e.sup.ProcessTaskIntents(output, graphID)
		rewritten = e.sup.ProcessCodeTaskIntents(rewritten, graphID)
		if rewritten != output {
			_ = e.st.SaveScratchpad(graphID, nodeID, rewritten)
			output = rewritten
		}
		hash := checkpointHash(output)
		n.Checkpoint = &dag.Checkpoint{CompletedAt: time.Now(), Hash: hash}
		n.CostUSD += costUSD
		_ = e.sm.TransitionNode(g, nodeID, dag.NodeCompleted)
		e.logEvent(g, "node_completed", map[string]any{"nodeId": nodeID, "taskId": taskID, "hash": hash})
	} else if n.RetryCount < n.MaxRetries {
		n.TaskID = ""
		n.CostUSD += costUSD
		_ = e.sm.TransitionNode(g, nodeID, dag.NodeFailed)
		_ = e.sm.TransitionNode(g, nodeID, dag.NodePending) // increments RetryCount
		e.logEvent(g, "node_retrying", map[string]any{"nodeId": nodeID, "retryCount": n.RetryCount})
	} else {
		n.LastError = t.ErrorMsg
		n.CostUSD += costUSD
		_ = e.sm.TransitionNode(g, nodeID, dag.NodeFailed)
		e.logEvent(g, "node_failed", map[string]any{"nodeId": nodeID, "error": t.ErrorMsg})
	}

	e.persist(g)
	g.Unlock()

	// Tick acquires g's lock itself; release ours first.
	e.Tick(graphID)
}

// checkpointHash returns a 16-hex-digit prefix of SHA-256 over output, or
// the "empty" sentinel when output has no bytes.
func checkpointHash(output string) string {
	if output == "" {
		return "empty"
	}
	sum := sha256.Sum256([]byte(output))
	return hex.EncodeToString(sum[:])[:16]
}
