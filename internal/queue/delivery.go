// Package queue implements the Persistent Delivery Queue named in
// spec.md §4.6: an append-only in-memory list of outbound messages,
// mirrored to a JSON file, replayed on restart. Grounded on the teacher's
// retry.FileCheckpointStore (internal/retry/checkpoint.go) for the
// "one JSON file, MkdirAll + WriteFile, IsNotExist treated as empty"
// persistence idiom.
package queue

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/swarmcore/orchestrator/internal/store"
)

const maxReplayAge = time.Hour

// Entry is one outbound message awaiting delivery confirmation.
type Entry struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chatId"`
	Text        string    `json:"text"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
	Delivered   bool      `json:"delivered"`
}

const path = "pending_replies.json"

// Queue is the in-memory delivery queue, mirrored to disk on every
// mutation.
type Queue struct {
	mu      sync.Mutex
	st      *store.FileStore
	entries map[string]Entry
	seq     int
}

// New loads any previously persisted entries from st, or starts empty if
// none exist yet.
func New(st *store.FileStore) (*Queue, error) {
	q := &Queue{st: st, entries: make(map[string]Entry)}

	var persisted []Entry
	if err := st.ReadJSON(path, &persisted); err != nil {
		if err == store.ErrNotExist {
			return q, nil
		}
		return nil, fmt.Errorf("queue: load: %w", err)
	}
	for _, e := range persisted {
		q.entries[e.ID] = e
	}
	return q, nil
}

// Enqueue records text destined for chatID before the send attempt, per
// spec.md §4.6's "enqueue before send".
func (q *Queue) Enqueue(chatID, text string) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	e := Entry{
		ID:         fmt.Sprintf("d-%d", q.seq),
		ChatID:     chatID,
		Text:       text,
		EnqueuedAt: time.Now(),
	}
	q.entries[e.ID] = e
	if err := q.persistLocked(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// MarkDelivered records that id's send was confirmed.
func (q *Queue) MarkDelivered(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.entries[id]
	if !ok {
		return nil
	}
	e.Delivered = true
	q.entries[id] = e
	return q.persistLocked()
}

// Drain replays every undelivered entry younger than one hour through
// sendFn, in enqueue order, discarding anything older or already
// delivered. It is meant to run once at process start.
func (q *Queue) Drain(sendFn func(chatID, text string) error) error {
	q.mu.Lock()
	pending := make([]Entry, 0, len(q.entries))
	cutoff := time.Now().Add(-maxReplayAge)
	for _, e := range q.entries {
		if e.Delivered || e.EnqueuedAt.Before(cutoff) {
			delete(q.entries, e.ID)
			continue
		}
		pending = append(pending, e)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].EnqueuedAt.Before(pending[j].EnqueuedAt) })
	if err := q.persistLocked(); err != nil {
		q.mu.Unlock()
		return err
	}
	q.mu.Unlock()

	for _, e := range pending {
		if err := sendFn(e.ChatID, e.Text); err != nil {
			return fmt.Errorf("queue: drain %s: %w", e.ID, err)
		}
		if err := q.MarkDelivered(e.ID); err != nil {
			return err
		}
	}
	return nil
}

// Depth returns the number of entries not yet marked delivered.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, e := range q.entries {
		if !e.Delivered {
			n++
		}
	}
	return n
}

func (q *Queue) persistLocked() error {
	list := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EnqueuedAt.Before(list[j].EnqueuedAt) })
	if err := q.st.WriteJSON(path, list); err != nil {
		return fmt.Errorf("queue: persist: %w", err)
	}
	return nil
}
