package dag

import "fmt"

// Blueprint is a canned node/edge template hydrated into a unique graph
// instance by QuickPlan. Adapted from the teacher's TemplateGenerator
// (internal/generator/service.go in the pre-transformation tree), re-keyed
// from the HDRP researcher/critic/synthesizer agent types onto this
// core's node types.
type Blueprint struct {
	Name  string
	Nodes []NodeSpec
	Edges []EdgeSpec
}

// StandardBlueprints mirrors the teacher's loadStandardBlueprints table,
// one entry per common task shape a quick CLI plan might ask for.
func StandardBlueprints() map[string]Blueprint {
	return map[string]Blueprint{
		"research": {
			Name: "research",
			Nodes: []NodeSpec{
				{ID: "research", Label: "research", Type: NodeResearch},
				{ID: "validate", Label: "validate", Type: NodeValidate},
				{ID: "synthesize", Label: "synthesize", Type: NodeSynthesize},
			},
			Edges: []EdgeSpec{
				{From: "research", To: "validate"},
				{From: "validate", To: "synthesize"},
			},
		},
		"codegen": {
			Name: "codegen",
			Nodes: []NodeSpec{
				{ID: "plan", Label: "plan", Type: NodeResearch},
				{ID: "code", Label: "code", Type: NodeCode},
				{ID: "review", Label: "review", Type: NodeValidate, Optional: true},
			},
			Edges: []EdgeSpec{
				{From: "plan", To: "code"},
				{From: "code", To: "review"},
			},
		},
		"single": {
			Name: "single",
			Nodes: []NodeSpec{
				{ID: "task", Label: "task", Type: NodeResearch},
			},
		},
	}
}

// QuickPlan hydrates a named blueprint into a fresh graph via Builder,
// filling in the task's prompt on every node (the simplest possible
// per-node customization; callers that need per-node prompts build the
// NodeSpec list directly instead).
func QuickPlan(b *Builder, name, prompt, initiator string, budget Budget) (*Graph, error) {
	bp, ok := StandardBlueprints()[name]
	if !ok {
		return nil, fmt.Errorf("dag: unknown blueprint %q", name)
	}

	nodes := make([]NodeSpec, len(bp.Nodes))
	for i, n := range bp.Nodes {
		n.Prompt = prompt
		nodes[i] = n
	}

	return b.Build(bp.Name, initiator, budget, nodes, bp.Edges)
}
