// Package logger provides the structured {level, event, message, metadata}
// logging spec.md §7 requires, built on log/slog exactly as the teacher's
// logger does, but as an injectable value rather than package globals, per
// spec.md §9's "avoid static globals" Design Note.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Sink mirrors log events to an external logging system. Mirror failures
// are logged to stderr but never propagated (spec.md §7).
type Sink interface {
	Mirror(level, event, message string, metadata map[string]any) error
}

// Logger wraps a slog.Logger plus an optional external Sink. The zero
// value is not usable; construct with New or NewFile.
type Logger struct {
	slog *slog.Logger
	sink Sink
	file *os.File
}

// New builds a Logger writing JSON lines to w (stdout in tests, a file in
// production via NewFile).
func New(w *os.File, sink Sink) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &Logger{slog: slog.New(handler), sink: sink, file: w}
}

// NewFile opens (creating if necessary) <dir>/<runID>.jsonl and returns a
// Logger writing to it, mirroring the teacher's InitLogger layout.
func NewFile(dir, runID string, sink Sink) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.jsonl", runID))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return New(f, sink), nil
}

// Event writes one structured log entry at info level and, if a Sink is
// attached, mirrors it (swallowing mirror errors to stderr).
func (l *Logger) Event(ctx context.Context, component, event string, metadata map[string]any) {
	l.log(ctx, slog.LevelInfo, component, event, "", metadata)
}

// Error writes one structured log entry at error level.
func (l *Logger) Error(ctx context.Context, component, event, message string, metadata map[string]any) {
	l.log(ctx, slog.LevelError, component, event, message, metadata)
}

func (l *Logger) log(ctx context.Context, level slog.Level, component, event, message string, metadata map[string]any) {
	l.slog.Log(ctx, level, event,
		slog.String("component", component),
		slog.String("message", message),
		slog.Any("metadata", metadata),
	)
	if l.sink != nil {
		if err := l.sink.Mirror(level.String(), event, message, metadata); err != nil {
			fmt.Fprintf(os.Stderr, "logger: sink mirror failed: %v\n", err)
		}
	}
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
