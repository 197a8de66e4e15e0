package router

import "github.com/swarmcore/orchestrator/internal/dag"

// Tier orders models from cheapest to most capable. cheapest() and the
// budget-check downgrade path walk this slice in order.
var tiers = []string{"haiku", "sonnet", "opus"}

// cheapest returns the least expensive model tier.
func cheapest() string { return tiers[0] }

// cheaperThan returns the tier immediately below model, or "" if model is
// already the cheapest (or unrecognized).
func cheaperThan(model string) string {
	for i, t := range tiers {
		if t == model && i > 0 {
			return tiers[i-1]
		}
	}
	return ""
}

// defaultModel is the per-node-type default table spec.md §4.4 names.
var defaultModel = map[dag.NodeType]string{
	dag.NodeCode:       "opus",
	dag.NodeSynthesize: "sonnet",
	dag.NodeValidate:   "haiku",
	dag.NodeResearch:   "sonnet",
}

// costTable is the fixed per-(nodeType, model) USD estimate spec.md §4.4
// names. Unlisted combinations fall back to unknownCost.
var costTable = map[dag.NodeType]map[string]float64{
	dag.NodeResearch: {"haiku": 0.02, "sonnet": 0.08, "opus": 0.40},
	dag.NodeCode:     {"haiku": 0.08, "sonnet": 0.25, "opus": 1.00},
	dag.NodeSynthesize: {"haiku": 0.02, "sonnet": 0.10, "opus": 0.45},
	dag.NodeValidate: {"haiku": 0.01, "sonnet": 0.05, "opus": 0.25},
}

const unknownCost = 0.20

// estimate returns the fixed USD cost estimate for one invocation of model
// against nodeType.
func estimate(nodeType dag.NodeType, model string) float64 {
	if byModel, ok := costTable[nodeType]; ok {
		if cost, ok := byModel[model]; ok {
			return cost
		}
	}
	return unknownCost
}
