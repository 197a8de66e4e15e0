package queue

import (
	"testing"
	"time"

	"github.com/swarmcore/orchestrator/internal/store"
)

func newTestQueue(t *testing.T) (*Queue, *store.FileStore) {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	q, err := New(st)
	if err != nil {
		t.Fatalf("queue.New() error = %v", err)
	}
	return q, st
}

func TestEnqueuePersistsAndReloads(t *testing.T) {
	q, st := newTestQueue(t)
	if _, err := q.Enqueue("chat1", "hello"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	reloaded, err := New(st)
	if err != nil {
		t.Fatalf("reload New() error = %v", err)
	}
	if len(reloaded.entries) != 1 {
		t.Fatalf("expected 1 persisted entry, got %d", len(reloaded.entries))
	}
}

func TestMarkDeliveredExcludesFromDrain(t *testing.T) {
	q, _ := newTestQueue(t)
	e, _ := q.Enqueue("chat1", "hello")
	if err := q.MarkDelivered(e.ID); err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}

	var sent []string
	_ = q.Drain(func(chatID, text string) error {
		sent = append(sent, text)
		return nil
	})
	if len(sent) != 0 {
		t.Errorf("expected no replay of a delivered entry, got %v", sent)
	}
}

func TestDrainDiscardsStaleEntries(t *testing.T) {
	q, _ := newTestQueue(t)
	q.mu.Lock()
	q.entries["old"] = Entry{ID: "old", ChatID: "c", Text: "stale", EnqueuedAt: time.Now().Add(-2 * time.Hour)}
	q.mu.Unlock()

	var sent []string
	_ = q.Drain(func(chatID, text string) error {
		sent = append(sent, text)
		return nil
	})
	if len(sent) != 0 {
		t.Errorf("expected stale entry discarded, not replayed: %v", sent)
	}
}

func TestDrainReplaysFreshEntries(t *testing.T) {
	q, _ := newTestQueue(t)
	_, _ = q.Enqueue("chat1", "first")
	_, _ = q.Enqueue("chat1", "second")

	var sent []string
	if err := q.Drain(func(chatID, text string) error {
		sent = append(sent, text)
		return nil
	}); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(sent) != 2 || sent[0] != "first" || sent[1] != "second" {
		t.Errorf("Drain() replayed %v, want [first second] in order", sent)
	}
}
