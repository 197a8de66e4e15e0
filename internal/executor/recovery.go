package executor

import (
	"context"

	"github.com/swarmcore/orchestrator/internal/dag"
)

// Recover reloads every graph document on disk whose status is running or
// paused into the active set, per spec.md §4.2's checkpoint-based resume:
// "any node carrying a checkpoint ... is promoted to completed without
// re-dispatch; other in-flight nodes are treated as pending (their child
// processes died with the process)". Call once at process start, before
// TickAll.
func (e *Executor) Recover() error {
	ids, err := e.st.ListGraphIDs()
	if err != nil {
		return err
	}

	for _, id := range ids {
		g, err := e.st.LoadGraph(id)
		if err != nil {
			e.log.Error(context.Background(), "executor", "recover_load_failed", err.Error(), map[string]any{"graphId": id})
			continue
		}
		if g.Status != dag.GraphRunning && g.Status != dag.GraphPaused {
			continue
		}

		for i := range g.Nodes {
			n := &g.Nodes[i]
			switch n.Status {
			case dag.NodeReady, dag.NodeQueued, dag.NodeRunning:
				// This node's child process died along with the previous
				// process. Reset to pending so it re-enters the ready set
				// on the next tick; dispatch.go promotes a checkpointed
				// node straight to completed there instead of respawning
				// it.
				n.Status = dag.NodePending
				n.TaskID = ""
			}
		}

		e.mu.Lock()
		e.graphs[g.ID] = g
		e.mu.Unlock()

		e.logEvent(g, "graph_recovered", map[string]any{"status": string(g.Status)})
	}
	return nil
}
