package dag

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NodeSpec is a build-time description of one node, per spec §4.1.
type NodeSpec struct {
	ID         string
	Label      string
	Type       NodeType
	Prompt     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
	Optional   bool
}

// EdgeSpec is a build-time description of one dependency edge.
type EdgeSpec struct {
	From        string
	To          string
	Description string
}

// Builder constructs and validates graphs. It performs no I/O: a graph is
// handed to internal/executor.Start for persistence and dispatch.
type Builder struct {
	// MaxNodes caps the node count a single graph may contain. Zero means
	// "use DefaultMaxNodes".
	MaxNodes int
}

// DefaultMaxNodes is the node-count cap applied when a Builder does not
// configure one explicitly (spec §1: "a few dozen nodes" nominally).
const DefaultMaxNodes = 64

// NewGraphID returns an opaque, sortable-by-creation-time graph identity.
func NewGraphID() string {
	return fmt.Sprintf("g-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// Build validates the node/edge specs via Kahn-style topological
// reachability and, on success, returns a fully initialized graph with
// status planning.
func (b *Builder) Build(name, initiator string, budget Budget, nodes []NodeSpec, edges []EdgeSpec) (*Graph, error) {
	maxNodes := b.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	if budget.MaxNodes <= 0 {
		budget.MaxNodes = maxNodes
	}

	var errs []string

	if len(nodes) == 0 {
		return nil, &ValidationError{Errors: []string{"graph has no nodes"}}
	}
	if len(nodes) > maxNodes {
		errs = append(errs, fmt.Sprintf("node count %d exceeds maximum %d", len(nodes), maxNodes))
	}

	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			errs = append(errs, "found node spec with empty id")
			continue
		}
		if seen[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node id: %s", n.ID))
		}
		seen[n.ID] = true
		if n.Type == "" {
			errs = append(errs, fmt.Sprintf("node %s has no type", n.ID))
		}
	}

	adj := make(map[string][]string)
	indegree := make(map[string]int, len(nodes))
	for id := range seen {
		indegree[id] = 0
	}
	for _, e := range edges {
		if !seen[e.From] {
			errs = append(errs, fmt.Sprintf("edge source %q does not exist", e.From))
		}
		if !seen[e.To] {
			errs = append(errs, fmt.Sprintf("edge target %q does not exist", e.To))
		}
		if e.From == e.To {
			errs = append(errs, fmt.Sprintf("self-loop on node %q", e.From))
		}
		if seen[e.From] && seen[e.To] {
			adj[e.From] = append(adj[e.From], e.To)
			indegree[e.To]++
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	if err := checkReachability(seen, adj, indegree); err != nil {
		return nil, err
	}

	g := &Graph{
		ID:        NewGraphID(),
		Name:      name,
		CreatedAt: time.Now(),
		Status:    GraphPlanning,
		Initiator: initiator,
		Budget:    budget,
	}
	for _, ns := range nodes {
		g.Nodes = append(g.Nodes, Node{
			ID:         ns.ID,
			Label:      ns.Label,
			Type:       ns.Type,
			Status:     NodePending,
			Prompt:     ns.Prompt,
			Model:      ns.Model,
			OutputKey:  OutputKey(g.ID, ns.ID),
			MaxRetries: ns.MaxRetries,
			Timeout:    ns.Timeout,
			Optional:   ns.Optional,
		})
	}
	for _, es := range edges {
		g.Edges = append(g.Edges, Edge{From: es.From, To: es.To, Description: es.Description})
	}

	return g, nil
}

// Validate re-checks structural validity of an already-built graph (used
// by serialization round-trips and after loading a document from disk).
// It does not re-run the builder's node-cap check, since a persisted
// graph may legitimately have been built under a different cap.
func (g *Graph) Validate() error {
	var errs []string
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			errs = append(errs, "found node with empty id")
			continue
		}
		if seen[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node id: %s", n.ID))
		}
		seen[n.ID] = true
	}

	adj := make(map[string][]string)
	indegree := make(map[string]int, len(g.Nodes))
	for id := range seen {
		indegree[id] = 0
	}
	for _, e := range g.Edges {
		if !seen[e.From] {
			errs = append(errs, fmt.Sprintf("edge source %q does not exist", e.From))
		}
		if !seen[e.To] {
			errs = append(errs, fmt.Sprintf("edge target %q does not exist", e.To))
		}
		if seen[e.From] && seen[e.To] {
			adj[e.From] = append(adj[e.From], e.To)
			indegree[e.To]++
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return checkReachability(seen, adj, indegree)
}

// checkReachability performs Kahn's algorithm: if the count of nodes that
// can be peeled off (all in-edges satisfied) is less than the total node
// count, the remainder forms at least one cycle.
func checkReachability(nodeIDs map[string]bool, adj map[string][]string, indegree map[string]int) error {
	deg := make(map[string]int, len(indegree))
	for k, v := range indegree {
		deg[k] = v
	}

	var queue []string
	for id := range nodeIDs {
		if deg[id] == 0 {
			queue = append(queue, id)
		}
	}

	reached := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		reached++
		for _, next := range adj[id] {
			deg[next]--
			if deg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if reached < len(nodeIDs) {
		return &ValidationError{Errors: []string{fmt.Sprintf(
			"cycle detected: Kahn reachability %d of %d nodes", reached, len(nodeIDs))}}
	}
	return nil
}
