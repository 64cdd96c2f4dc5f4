// Package domain holds the core types for practice conversations.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. These match the wire roles of the voice provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AudioPayload is an opaque audio blob, base64-encoded for transfer.
// A payload is either absent or carries both fields.
type AudioPayload struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Valid reports whether both fields are present and non-empty.
func (a AudioPayload) Valid() bool {
	return a.MimeType != "" && a.Data != ""
}

// Message is a single entry in a session's history.
type Message struct {
	MessageID string        `json:"id"`
	Role      string        `json:"role"` // system, user, assistant
	Text      string        `json:"text"`
	Audio     *AudioPayload `json:"audio,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Session is one live practice conversation. Messages are append-only and
// the first message is always the system prompt seeded from the scenario.
type Session struct {
	SessionID  string    `json:"session_id"`
	ScenarioID string    `json:"scenario_id"`
	CreatedAt  time.Time `json:"created_at"`
	Messages   []Message `json:"messages"`
}

// Clone returns a copy whose message slice is independent of the receiver's.
// Message values themselves are never mutated after being appended, so a
// shallow copy of each element is enough.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// VisibleMessages returns the history without the seeded system prompt,
// i.e. what the learner actually sees.
func (s *Session) VisibleMessages() []Message {
	visible := make([]Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role == RoleSystem {
			continue
		}
		visible = append(visible, m)
	}
	return visible
}

// NewMessageID issues a message identifier, unique within a session.
func NewMessageID() string {
	return "msg_" + uuid.New().String()
}
