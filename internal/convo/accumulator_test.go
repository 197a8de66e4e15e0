package convo

import (
	"strings"
	"testing"
)

func TestAccumulateDrainClears(t *testing.T) {
	a := NewAccumulator()
	a.Accumulate("s1", "hi")
	a.Accumulate("s1", "there")

	msgs := a.Drain("s1")
	if len(msgs) != 2 {
		t.Fatalf("Drain() = %d messages, want 2", len(msgs))
	}
	if got := a.Drain("s1"); len(got) != 0 {
		t.Errorf("second Drain() = %v, want empty", got)
	}
}

func TestFormatSingleMessage(t *testing.T) {
	got := Format([]Pending{{Text: "hello"}})
	if got != "User: hello" {
		t.Errorf("Format() = %q", got)
	}
}

func TestFormatMultipleMessages(t *testing.T) {
	got := Format([]Pending{{Text: "a"}, {Text: "b"}})
	if !strings.Contains(got, "2 messages") {
		t.Errorf("Format() = %q, want header mentioning count", got)
	}
	if !strings.Contains(got, "a") || !strings.Contains(got, "b") {
		t.Errorf("Format() = %q, want both messages", got)
	}
}

func TestFormatEmpty(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}
