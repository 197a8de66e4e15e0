package dag

import (
	"fmt"
	"sync"
)

// nodeTransitions enumerates every legal node-status edge. A retry resets
// failed back to pending with the retry counter incremented by the caller.
var nodeTransitions = map[NodeStatus][]NodeStatus{
	NodePending:   {NodeReady, NodeSkipped},
	NodeReady:     {NodeQueued, NodePending, NodeSkipped},
	NodeQueued:    {NodeRunning, NodePending, NodeSkipped},
	NodeRunning:   {NodeCompleted, NodeFailed, NodeSkipped},
	NodeFailed:    {NodePending, NodeSkipped},
	NodeCompleted: {},
	NodeSkipped:   {},
}

// graphTransitions enumerates every legal graph-status edge.
var graphTransitions = map[GraphStatus][]GraphStatus{
	GraphPlanning:  {GraphRunning},
	GraphRunning:   {GraphPaused, GraphCompleted, GraphFailed, GraphCancelled},
	GraphPaused:    {GraphRunning, GraphCancelled},
	GraphCompleted: {},
	GraphFailed:    {},
	GraphCancelled: {},
}

// StateMachine validates and guards lifecycle transitions. It holds no
// graph state itself so a single instance may be shared across graphs.
type StateMachine struct {
	mu sync.Mutex
}

func isValidNodeTransition(from, to NodeStatus) bool {
	for _, allowed := range nodeTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func isValidGraphTransition(from, to GraphStatus) bool {
	for _, allowed := range graphTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionNode moves the node identified by id to the target status, or
// returns an error describing why the transition is illegal.
func (sm *StateMachine) TransitionNode(g *Graph, id string, to NodeStatus) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	n := g.Node(id)
	if n == nil {
		return fmt.Errorf("dag: unknown node %q", id)
	}
	if n.Status == to {
		return nil
	}
	if !isValidNodeTransition(n.Status, to) {
		return fmt.Errorf("dag: illegal node transition %s -> %s for %q", n.Status, to, id)
	}
	if to == NodePending && n.Status == NodeFailed {
		n.RetryCount++
	}
	n.Status = to
	return nil
}

// TransitionGraph moves the graph to the target status, or returns an
// error describing why the transition is illegal.
func (sm *StateMachine) TransitionGraph(g *Graph, to GraphStatus) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if g.Status == to {
		return nil
	}
	if !isValidGraphTransition(g.Status, to) {
		return fmt.Errorf("dag: illegal graph transition %s -> %s for %q", g.Status, to, g.ID)
	}
	g.Status = to
	return nil
}
