package convo

import (
	"strings"
	"testing"

	"github.com/swarmcore/orchestrator/internal/store"
)

func TestRingAppendTruncatesLongContent(t *testing.T) {
	st, _ := store.New(t.TempDir())
	r, err := LoadRing(st, "telegram:123")
	if err != nil {
		t.Fatalf("LoadRing() error = %v", err)
	}

	long := strings.Repeat("x", 600)
	if err := r.Append(RoleUser, long, TypeText); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got := r.Messages()[0].Content; len(got) != maxContentLen {
		t.Errorf("len(content) = %d, want %d", len(got), maxContentLen)
	}
}

func TestRingEvictsOldestBeyondCapacity(t *testing.T) {
	st, _ := store.New(t.TempDir())
	r, _ := LoadRing(st, "s1")
	for i := 0; i < maxEntries+5; i++ {
		_ = r.Append(RoleUser, "m", TypeText)
	}
	if len(r.Messages()) != maxEntries {
		t.Errorf("len(Messages()) = %d, want %d", len(r.Messages()), maxEntries)
	}
}

func TestRingPersistsAcrossLoad(t *testing.T) {
	st, _ := store.New(t.TempDir())
	r, _ := LoadRing(st, "s1")
	_ = r.Append(RoleUser, "hello", TypeText)

	reloaded, err := LoadRing(st, "s1")
	if err != nil {
		t.Fatalf("reload LoadRing() error = %v", err)
	}
	if len(reloaded.Messages()) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(reloaded.Messages()))
	}
}
