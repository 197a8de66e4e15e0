// Package router implements the Model Router named in spec.md §4.4: model
// selection under budget pressure, and the separate per-dispatch budget
// check the executor consults before every spawn.
package router

import "github.com/swarmcore/orchestrator/internal/dag"

// pressureThreshold is the avgBudgetPerNode floor below which Select forces
// the cheapest tier regardless of the node-type default.
const pressureThreshold = 0.10

// Select resolves the model for one node dispatch. explicit, if non-empty,
// always wins (spec.md §4.4 step 1).
func Select(nodeType dag.NodeType, budget dag.Budget, explicit string) string {
	if explicit != "" {
		return explicit
	}

	maxNodes := budget.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 1
	}
	avgBudgetPerNode := (budget.MaxCostUSD - budget.SpentUSD) / float64(maxNodes)
	if avgBudgetPerNode <= pressureThreshold {
		return cheapest()
	}

	if m, ok := defaultModel[nodeType]; ok {
		return m
	}
	return "sonnet"
}

// Decision is the result of a budget check.
type Decision struct {
	Allowed        bool
	Reason         string
	SuggestedModel string
}

// Check validates that dispatching nodeType on model fits the remaining
// budget, downgrading to a cheaper tier when the requested model does not
// fit, per spec.md §4.4's "budget check" operation.
func Check(nodeType dag.NodeType, model string, budget dag.Budget) Decision {
	remaining := budget.MaxCostUSD - budget.SpentUSD
	if remaining < 0.05 {
		return Decision{Allowed: false, Reason: "budget nearly exhausted"}
	}

	if estimate(nodeType, model) <= remaining {
		return Decision{Allowed: true, SuggestedModel: model}
	}

	for cheaper := cheaperThan(model); cheaper != ""; cheaper = cheaperThan(cheaper) {
		if estimate(nodeType, cheaper) <= remaining {
			return Decision{Allowed: true, SuggestedModel: cheaper}
		}
	}
	return Decision{Allowed: false, Reason: "no model tier fits remaining budget"}
}
