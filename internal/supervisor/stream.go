package supervisor

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const (
	scannerInitialBufSize = 64 * 1024
	scannerMaxBufSize     = 1024 * 1024
)

// streamEvent is one line of the child's stdout grammar, spec.md §6:
// `{type, toolName?, toolInput?, resultText?, isError?, inputTokens?,
// outputTokens?}`. Unknown types are ignored by the caller.
type streamEvent struct {
	Type         string                 `json:"type"`
	ToolName     string                 `json:"toolName,omitempty"`
	ToolInput    map[string]any         `json:"toolInput,omitempty"`
	ResultText   string                 `json:"resultText,omitempty"`
	IsError      bool                   `json:"isError,omitempty"`
	InputTokens  int64                  `json:"inputTokens,omitempty"`
	OutputTokens int64                  `json:"outputTokens,omitempty"`
}

const (
	eventAssistant = "assistant"
	eventResult    = "result"
)

// scanEvents reads r line by line, invoking onEvent for every line that
// parses as a streamEvent. Malformed lines are skipped, not fatal — the
// teacher's equivalent CLI-wrapper (88lin-divinesense's CCRunner) treats
// non-JSON output the same way.
func scanEvents(r io.Reader, onEvent func(streamEvent)) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, scannerInitialBufSize)
	scanner.Buffer(buf, scannerMaxBufSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		onEvent(ev)
	}
	return scanner.Err()
}

// extractFilePath pulls a candidate file path out of a tool invocation's
// input, per spec.md §4.3: prefer `file_path`/`path` keys; for Bash, scan
// the command string right-to-left for the last token containing a path
// separator or a dot.
func extractFilePath(toolName string, input map[string]any) string {
	if v, ok := input["file_path"].(string); ok && v != "" {
		return v
	}
	if v, ok := input["path"].(string); ok && v != "" {
		return v
	}
	if toolName != "Bash" {
		return ""
	}
	cmd, _ := input["command"].(string)
	tokens := strings.Fields(cmd)
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		if strings.ContainsAny(t, "/\\.") {
			return t
		}
	}
	return ""
}
