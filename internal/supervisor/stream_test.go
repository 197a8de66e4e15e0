package supervisor

import (
	"strings"
	"testing"
)

func TestScanEventsParsesLines(t *testing.T) {
	input := `{"type":"assistant","toolName":"Bash","toolInput":{"command":"ls foo.go"}}
not json, skipped

{"type":"result","resultText":"done","inputTokens":10,"outputTokens":5}
`
	var events []streamEvent
	if err := scanEvents(strings.NewReader(input), func(ev streamEvent) { events = append(events, ev) }); err != nil {
		t.Fatalf("scanEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != eventAssistant || events[0].ToolName != "Bash" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Type != eventResult || events[1].ResultText != "done" {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestExtractFilePathPrefersExplicitKeys(t *testing.T) {
	if got := extractFilePath("Edit", map[string]any{"file_path": "/a/b.go"}); got != "/a/b.go" {
		t.Errorf("got %q", got)
	}
	if got := extractFilePath("Read", map[string]any{"path": "/a/c.go"}); got != "/a/c.go" {
		t.Errorf("got %q", got)
	}
}

func TestExtractFilePathBashScansRightToLeft(t *testing.T) {
	got := extractFilePath("Bash", map[string]any{"command": "cd /tmp && cat notes.txt"})
	if got != "notes.txt" {
		t.Errorf("got %q, want notes.txt", got)
	}
}

func TestExtractFilePathNone(t *testing.T) {
	if got := extractFilePath("Bash", map[string]any{"command": "echo hi"}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
