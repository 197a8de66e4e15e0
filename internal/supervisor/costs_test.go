package supervisor

import "testing"

func TestComputeCostKnownModel(t *testing.T) {
	got := computeCost("opus", 1_000_000, 1_000_000)
	want := 15.00 + 75.00
	if got != want {
		t.Errorf("computeCost() = %v, want %v", got, want)
	}
}

func TestComputeCostUnknownModelFallsBackToSonnet(t *testing.T) {
	got := computeCost("unknown-model", 1_000_000, 0)
	if got != rateTable["sonnet"].InPerMillion {
		t.Errorf("computeCost() = %v, want sonnet input rate", got)
	}
}
