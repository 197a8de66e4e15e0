package store

import (
	"fmt"
	"strings"
)

// Path layout, relative to <projectDir>/data/, exactly as spec.md §6 names.

func TasksPath() string        { return "tasks.json" }
func TasksArchivePath() string { return "tasks-archive.json" }
func PendingRepliesPath() string { return "pending_replies.json" }
func HeartbeatStatePath() string { return "heartbeat-state.json" }

func GraphDir(graphID string) string {
	return fmt.Sprintf("swarms/%s", graphID)
}

func GraphDocPath(graphID string) string {
	return fmt.Sprintf("swarms/%s/dag.json", graphID)
}

func ScratchpadPath(graphID, nodeID string) string {
	return fmt.Sprintf("swarms/%s/%s.md", graphID, nodeID)
}

func ConversationPath(sessionKey string) string {
	return fmt.Sprintf("conversations/%s.json", SanitizeSessionKey(sessionKey))
}

func TaskOutputPath(ts string) string {
	return fmt.Sprintf("task-output/%s.md", ts)
}

// SanitizeSessionKey replaces colons with dashes so a session key is safe
// to use as a filename component.
func SanitizeSessionKey(key string) string {
	return strings.ReplaceAll(key, ":", "-")
}

const SwarmsDir = "swarms"
