// Package convo implements the per-session conversation ring buffer and
// in-memory message accumulator named in spec.md §4.6. Grounded on the
// teacher's retry.FileCheckpointStore (internal/retry/checkpoint.go) for
// the per-key JSON persistence idiom.
package convo

import (
	"fmt"
	"time"

	"github.com/swarmcore/orchestrator/internal/store"
)

// Role is the speaker of one ring-buffer entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageType further classifies the payload of a user message.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeVoice    MessageType = "voice"
	TypePhoto    MessageType = "photo"
	TypeDocument MessageType = "document"
)

const (
	maxEntries     = 20
	maxContentLen  = 500
)

// Message is one ring-buffer entry.
type Message struct {
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type,omitempty"`
}

// Ring is a bounded, persisted history for one session key.
type Ring struct {
	st         *store.FileStore
	sessionKey string
	messages   []Message
}

// LoadRing loads the persisted ring for sessionKey, or starts an empty one
// if none has been persisted yet.
func LoadRing(st *store.FileStore, sessionKey string) (*Ring, error) {
	r := &Ring{st: st, sessionKey: sessionKey}
	path := store.ConversationPath(sessionKey)

	var msgs []Message
	if err := st.ReadJSON(path, &msgs); err != nil {
		if err == store.ErrNotExist {
			return r, nil
		}
		return nil, fmt.Errorf("convo: load ring %s: %w", sessionKey, err)
	}
	r.messages = msgs
	return r, nil
}

// Append adds a message, truncating content to 500 characters and evicting
// the oldest entry once the ring holds 20.
func (r *Ring) Append(role Role, content string, msgType MessageType) error {
	if runes := []rune(content); len(runes) > maxContentLen {
		content = string(runes[:maxContentLen])
	}
	r.messages = append(r.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Type:      msgType,
	})
	if len(r.messages) > maxEntries {
		r.messages = r.messages[len(r.messages)-maxEntries:]
	}
	return r.st.WriteJSON(store.ConversationPath(r.sessionKey), r.messages)
}

// Messages returns the ring's current contents, oldest first.
func (r *Ring) Messages() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
