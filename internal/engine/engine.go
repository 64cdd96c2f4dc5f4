// Package engine turns raw audio submissions into the message pair that
// gets committed to a session.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kaiwa-app/kaiwa/internal/domain"
	"github.com/kaiwa-app/kaiwa/internal/voice"
)

// Engine orchestrates the voice provider call for one turn. It computes the
// next state but never mutates shared state; committing the returned
// messages is the caller's job, which keeps the engine free of locking and
// testable against a stubbed provider.
type Engine struct {
	provider voice.Provider
}

// New creates an engine backed by the given provider.
func New(provider voice.Provider) *Engine {
	return &Engine{provider: provider}
}

// ProcessTurn validates the submitted audio, consults the voice provider
// and returns the user and assistant messages to append. On any failure
// nothing has been written anywhere, so the caller may retry the same turn.
func (e *Engine) ProcessTurn(ctx context.Context, session *domain.Session, audio domain.AudioPayload) (domain.Message, domain.Message, error) {
	if !audio.Valid() {
		return domain.Message{}, domain.Message{}, fmt.Errorf("process turn: %w", domain.ErrInvalidAudio)
	}

	req := voice.Request{
		Context: historyContext(session.Messages),
		Audio:   audio,
	}

	result, err := e.provider.Converse(ctx, req)
	if err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("process turn: %w: %v", domain.ErrProviderFailure, err)
	}

	userAt := time.Now().UTC()
	assistantAt := time.Now().UTC()
	if !assistantAt.After(userAt) {
		assistantAt = userAt.Add(time.Nanosecond)
	}

	userMsg := domain.Message{
		MessageID: domain.NewMessageID(),
		Role:      domain.RoleUser,
		Text:      result.Transcript,
		Audio:     &audio,
		CreatedAt: userAt,
	}
	assistantMsg := domain.Message{
		MessageID: domain.NewMessageID(),
		Role:      domain.RoleAssistant,
		Text:      result.ReplyText,
		Audio:     result.ReplyAudio,
		CreatedAt: assistantAt,
	}
	return userMsg, assistantMsg, nil
}

// historyContext projects the session history to role + text pairs. The
// seeded system message carries the scenario role and goals, so the
// provider sees the full scripted context without any audio payloads.
func historyContext(messages []domain.Message) []voice.Turn {
	turns := make([]voice.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, voice.Turn{Role: m.Role, Text: m.Text})
	}
	return turns
}
