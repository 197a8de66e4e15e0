package dag

import (
	"bytes"
	"strings"
	"testing"
)

func sampleGraph() *Graph {
	return &Graph{
		ID:     "g1",
		Name:   "sample",
		Status: GraphPlanning,
		Nodes: []Node{
			{ID: "a", Type: NodeResearch, Status: NodePending, OutputKey: "g1/a"},
			{ID: "b", Type: NodeSynthesize, Status: NodePending, OutputKey: "g1/b"},
		},
		Edges: []Edge{{From: "a", To: "b"}},
		Budget: Budget{MaxCostUSD: 1, MaxNodes: 10},
	}
}

func TestWriteThenLoadJSONRoundTrips(t *testing.T) {
	g := sampleGraph()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, g); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	loaded, err := LoadJSON(&buf)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if loaded.ID != g.ID || len(loaded.Nodes) != len(g.Nodes) || len(loaded.Edges) != len(g.Edges) {
		t.Errorf("round trip mismatch: got %+v", loaded)
	}
}

func TestLoadJSONRejectsUnknownFields(t *testing.T) {
	raw := `{"id":"g1","nodes":[{"id":"a","type":"research","status":"pending","outputKey":"g1/a"}],"bogusField":true}`
	_, err := LoadJSON(strings.NewReader(raw))
	if err == nil {
		t.Fatal("expected unknown-field decode to fail")
	}
}

func TestWriteJSONRejectsInvalidGraph(t *testing.T) {
	g := &Graph{ID: "bad", Nodes: []Node{{ID: "a"}, {ID: "a"}}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, g); err == nil {
		t.Fatal("expected invalid graph (duplicate node id) to fail to serialize")
	}
}

func TestLoadJSONNilReader(t *testing.T) {
	if _, err := LoadJSON(nil); err == nil {
		t.Fatal("expected error for nil reader")
	}
}
