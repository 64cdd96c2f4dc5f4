// Package store keeps live practice sessions in memory.
//
// The store is the single writer of any session's message history. Each
// commit produces a new message slice, so a snapshot handed to a reader is
// never mutated behind its back. Commits on the same session are serialized
// by a per-session mutex; sessions never block each other.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kaiwa-app/kaiwa/internal/domain"
)

// Store is a thread-safe registry of live sessions.
type Store struct {
	mu       sync.RWMutex // guards the map and every entry's session pointer
	sessions map[string]*entry
}

type entry struct {
	commitMu sync.Mutex // serializes AppendTurn per session
	session  *domain.Session
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*entry),
	}
}

// Create allocates a new session for the scenario, seeds its history with
// the system prompt and returns a snapshot of it.
func (s *Store) Create(scenario domain.ScenarioRecord) *domain.Session {
	now := time.Now().UTC()
	session := &domain.Session{
		SessionID:  uuid.New().String(),
		ScenarioID: scenario.ID,
		CreatedAt:  now,
		Messages: []domain.Message{
			{
				MessageID: domain.NewMessageID(),
				Role:      domain.RoleSystem,
				Text:      systemPrompt(scenario),
				CreatedAt: now,
			},
		},
	}

	s.mu.Lock()
	s.sessions[session.SessionID] = &entry{session: session}
	s.mu.Unlock()

	return session.Clone()
}

// Get returns the last-committed snapshot of a session. It never blocks on
// an in-flight commit for another session and may run concurrently with a
// pending commit on the same session.
func (s *Store) Get(sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return e.session.Clone(), nil
}

// AppendTurn atomically appends the given messages, in order, as one
// contiguous block and returns the updated snapshot. Concurrent calls on
// the same session commit one full block at a time; timestamps are clamped
// at commit so that append order and timestamp order always agree.
func (s *Store) AppendTurn(sessionID string, messages ...domain.Message) (*domain.Session, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("append turn: no messages given")
	}

	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	current := e.session
	next := make([]domain.Message, 0, len(current.Messages)+len(messages))
	next = append(next, current.Messages...)

	last := current.Messages[len(current.Messages)-1].CreatedAt
	for _, m := range messages {
		if !m.CreatedAt.After(last) {
			m.CreatedAt = last.Add(time.Nanosecond)
		}
		last = m.CreatedAt
		next = append(next, m)
	}

	updated := &domain.Session{
		SessionID:  current.SessionID,
		ScenarioID: current.ScenarioID,
		CreatedAt:  current.CreatedAt,
		Messages:   next,
	}

	s.mu.Lock()
	e.session = updated
	s.mu.Unlock()

	return updated.Clone(), nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// systemPrompt renders the role-play instructions seeded as the first
// message of every session.
func systemPrompt(scenario domain.ScenarioRecord) string {
	return fmt.Sprintf(
		"You are role-playing as the %s in the '%s' scenario. "+
			"Stay true to the situation: %s. Provide warm, encouraging replies "+
			"that invite the learner to keep speaking. Offer gentle corrections "+
			"when necessary and guide the conversation toward these goals: %s.",
		scenario.PartnerRole,
		scenario.Title,
		scenario.Description,
		strings.Join(scenario.Goals, ", "),
	)
}
