package router

import (
	"testing"

	"github.com/swarmcore/orchestrator/internal/dag"
)

func TestSelectExplicitOverride(t *testing.T) {
	got := Select(dag.NodeCode, dag.Budget{MaxCostUSD: 10, MaxNodes: 5}, "haiku")
	if got != "haiku" {
		t.Errorf("Select() = %q, want haiku", got)
	}
}

func TestSelectDefaultTable(t *testing.T) {
	cases := []struct {
		nodeType dag.NodeType
		want     string
	}{
		{dag.NodeCode, "opus"},
		{dag.NodeSynthesize, "sonnet"},
		{dag.NodeValidate, "haiku"},
		{dag.NodeResearch, "sonnet"},
	}
	budget := dag.Budget{MaxCostUSD: 10, MaxNodes: 5}
	for _, c := range cases {
		if got := Select(c.nodeType, budget, ""); got != c.want {
			t.Errorf("Select(%s) = %q, want %q", c.nodeType, got, c.want)
		}
	}
}

func TestSelectBudgetPressureForcesCheapest(t *testing.T) {
	budget := dag.Budget{MaxCostUSD: 1, SpentUSD: 0.95, MaxNodes: 1}
	if got := Select(dag.NodeCode, budget, ""); got != "haiku" {
		t.Errorf("Select() under pressure = %q, want haiku", got)
	}
}

// TestSelectBudgetPressureBoundary pins spec.md §8 scenario S5 exactly:
// avgBudgetPerNode == pressureThreshold must still force the cheapest tier.
func TestSelectBudgetPressureBoundary(t *testing.T) {
	budget := dag.Budget{MaxCostUSD: 1.00, SpentUSD: 0.90, MaxNodes: 1}
	if got := Select(dag.NodeResearch, budget, ""); got != cheapest() {
		t.Errorf("Select() at pressure boundary = %q, want %q", got, cheapest())
	}
}

func TestCheckAllowsWhenFits(t *testing.T) {
	d := Check(dag.NodeValidate, "haiku", dag.Budget{MaxCostUSD: 1, SpentUSD: 0})
	if !d.Allowed || d.SuggestedModel != "haiku" {
		t.Errorf("Check() = %+v", d)
	}
}

func TestCheckRejectsWhenNearlyExhausted(t *testing.T) {
	d := Check(dag.NodeValidate, "haiku", dag.Budget{MaxCostUSD: 1, SpentUSD: 0.96})
	if d.Allowed {
		t.Errorf("Check() = %+v, want rejected", d)
	}
}

func TestCheckDowngradesTier(t *testing.T) {
	d := Check(dag.NodeCode, "opus", dag.Budget{MaxCostUSD: 1, SpentUSD: 0.8})
	if !d.Allowed || d.SuggestedModel == "opus" {
		t.Errorf("Check() = %+v, want a downgraded allowed tier", d)
	}
}

func TestCheckRejectsWhenNoTierFits(t *testing.T) {
	d := Check(dag.NodeCode, "opus", dag.Budget{MaxCostUSD: 1, SpentUSD: 0.94})
	if d.Allowed {
		t.Errorf("Check() = %+v, want rejected", d)
	}
}
