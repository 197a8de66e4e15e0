package dag

import "sort"

// predecessorsSatisfied reports whether every predecessor of id is
// completed or skipped.
func predecessorsSatisfied(g *Graph, id string) bool {
	for _, predID := range g.Predecessors(id) {
		p := g.Node(predID)
		if p == nil {
			continue
		}
		if p.Status != NodeCompleted && p.Status != NodeSkipped {
			return false
		}
	}
	return true
}

// ReadyNodeIDs returns, sorted by node id, every pending node
// whose predecessors are all completed or skipped.
func ReadyNodeIDs(g *Graph) []string {
	var ready []string
	for _, n := range g.Nodes {
		if n.Status != NodePending {
			continue
		}
		if predecessorsSatisfied(g, n.ID) {
			ready = append(ready, n.ID)
		}
	}
	sort.Strings(ready)
	return ready
}

// CriticalFailures returns the ids of failed, non-optional nodes that have
// at least one outgoing edge — per spec §4.2 these fail the whole graph.
func CriticalFailures(g *Graph) []string {
	var failures []string
	for _, n := range g.Nodes {
		if n.Status != NodeFailed || n.Optional {
			continue
		}
		if len(g.Successors(n.ID)) > 0 {
			failures = append(failures, n.ID)
		}
	}
	sort.Strings(failures)
	return failures
}

// PropagateSkip transitively marks skipped every pending descendant of a
// failed node, returning the ids it changed. A node in any other status
// (ready, in flight or terminal) is left as it is, and the walk does not
// continue past it.
func PropagateSkip(g *Graph, sm *StateMachine, failedID string) []string {
	var changed []string
	queue := g.Successors(failedID)
	visited := make(map[string]bool)

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		n := g.Node(id)
		if n == nil || n.Status != NodePending {
			continue
		}
		if err := sm.TransitionNode(g, id, NodeSkipped); err == nil {
			changed = append(changed, id)
			queue = append(queue, g.Successors(id)...)
		}
	}

	sort.Strings(changed)
	return changed
}
