package dag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/swarmcore/orchestrator/internal/logger"
)

func TestLogGraphPlan(t *testing.T) {
	dir := t.TempDir()
	log, err := logger.NewFile(dir, "plan-run", nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	defer log.Close()

	g := &Graph{
		ID:     "g1",
		Status: GraphPlanning,
		Nodes: []Node{
			{ID: "a", Type: NodeResearch},
			{ID: "b", Type: NodeSynthesize},
		},
		Edges: []Edge{{From: "a", To: "b"}},
	}
	LogGraphPlan(context.Background(), log, g)

	content, err := os.ReadFile(filepath.Join(dir, "plan-run.jsonl"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "plan_generated") {
		t.Errorf("expected plan_generated event, got %s", content)
	}
}

func TestLogGraphPlanNilGraph(t *testing.T) {
	dir := t.TempDir()
	log, err := logger.NewFile(dir, "plan-nil", nil)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	defer log.Close()

	LogGraphPlan(context.Background(), log, nil)

	content, err := os.ReadFile(filepath.Join(dir, "plan-nil.jsonl"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "plan_generation_failed") {
		t.Errorf("expected plan_generation_failed event, got %s", content)
	}
}

func TestEstimateParallelism(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []Edge{{From: "a", To: "c"}, {From: "b", To: "c"}},
	}
	if got := estimateParallelism(g); got != 2 {
		t.Errorf("estimateParallelism() = %d, want 2", got)
	}
}
