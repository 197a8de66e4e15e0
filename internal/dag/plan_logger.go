package dag

import (
	"context"

	"github.com/swarmcore/orchestrator/internal/logger"
)

// LogGraphPlan captures the current state of the graph and logs it as a
// structured event, mirroring the "plan_generated" event the teacher's
// planner CLI emits once a blueprint has been hydrated and validated.
func LogGraphPlan(ctx context.Context, log *logger.Logger, g *Graph) {
	if g == nil {
		log.Event(ctx, "dag", "plan_generation_failed", map[string]any{
			"error": "graph is nil",
		})
		return
	}

	log.Event(ctx, "dag", "plan_generated", map[string]any{
		"graph_id": g.ID,
		"status":   g.Status,
		"nodes":    summarizeNodes(g.Nodes),
		"edges":    g.Edges,
		"metrics": map[string]any{
			"node_count":      len(g.Nodes),
			"edge_count":      len(g.Edges),
			"est_parallelism": estimateParallelism(g),
		},
	})
}

func summarizeNodes(nodes []Node) []map[string]any {
	summary := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		summary[i] = map[string]any{
			"id":     n.ID,
			"type":   n.Type,
			"status": n.Status,
		}
	}
	return summary
}

// estimateParallelism counts nodes with no predecessor, a heuristic for
// how much of the graph can start on the very first tick.
func estimateParallelism(g *Graph) int {
	inDegree := make(map[string]int)
	for _, e := range g.Edges {
		inDegree[e.To]++
	}

	count := 0
	for _, n := range g.Nodes {
		if inDegree[n.ID] == 0 {
			count++
		}
	}
	return count
}
