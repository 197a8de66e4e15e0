package convo

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Pending is one accumulated message awaiting the next agent turn.
type Pending struct {
	Text      string
	Timestamp time.Time
}

// Accumulator buffers user messages that arrive while the agent is busy
// with an earlier request, per session. It is in-memory only: spec.md
// §4.6 does not persist it, since it only ever spans a single busy window.
type Accumulator struct {
	mu       sync.Mutex
	pending  map[string][]Pending
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{pending: make(map[string][]Pending)}
}

// Accumulate appends msg to sessionKey's pending list.
func (a *Accumulator) Accumulate(sessionKey, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[sessionKey] = append(a.pending[sessionKey], Pending{Text: msg, Timestamp: time.Now()})
}

// Drain returns and clears sessionKey's pending messages.
func (a *Accumulator) Drain(sessionKey string) []Pending {
	a.mu.Lock()
	defer a.mu.Unlock()
	msgs := a.pending[sessionKey]
	delete(a.pending, sessionKey)
	return msgs
}

// Format renders accumulated messages into a single prompt block: a plain
// "User: <text>" line for exactly one message, or a header noting several
// arrived while busy followed by time-stamped lines.
func Format(messages []Pending) string {
	if len(messages) == 0 {
		return ""
	}
	if len(messages) == 1 {
		return fmt.Sprintf("User: %s", messages[0].Text)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d messages arrived while the agent was busy:\n", len(messages))
	for _, m := range messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Timestamp.Format(time.Kitchen), m.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
