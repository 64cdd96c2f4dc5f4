// Package service is the gateway between transports and the session core.
// It resolves scenarios, drives the engine and commits turns through the
// store.
package service

import (
	"context"

	"github.com/kaiwa-app/kaiwa/internal/catalog"
	"github.com/kaiwa-app/kaiwa/internal/domain"
	"github.com/kaiwa-app/kaiwa/internal/engine"
	"github.com/kaiwa-app/kaiwa/internal/hub"
	"github.com/kaiwa-app/kaiwa/internal/store"
)

// Service exposes the session operations consumed by the HTTP and
// websocket transports.
type Service struct {
	catalog *catalog.Catalog
	store   *store.Store
	engine  *engine.Engine
	hub     *hub.Hub // may be nil when snapshot push is disabled
}

// New wires the gateway.
func New(cat *catalog.Catalog, st *store.Store, eng *engine.Engine, h *hub.Hub) *Service {
	return &Service{
		catalog: cat,
		store:   st,
		engine:  eng,
		hub:     h,
	}
}

// ListScenarios returns every scenario in catalog order.
func (s *Service) ListScenarios() []domain.ScenarioRecord {
	return s.catalog.List()
}

// StartSession creates a session for the scenario. An empty id selects the
// first catalog entry, matching the client's default choice.
func (s *Service) StartSession(scenarioID string) (*domain.Session, error) {
	var (
		scenario domain.ScenarioRecord
		err      error
	)
	if scenarioID == "" {
		scenario, err = s.catalog.First()
	} else {
		scenario, err = s.catalog.Get(scenarioID)
	}
	if err != nil {
		return nil, err
	}
	return s.store.Create(scenario), nil
}

// GetSession returns the last-committed snapshot of a session.
func (s *Service) GetSession(sessionID string) (*domain.Session, error) {
	return s.store.Get(sessionID)
}

// SubmitVoice runs one voice turn: resolve the session, let the engine
// consult the provider, then commit both messages as one block. It returns
// the updated session and the transcript of the learner's speech. On error
// the session history is untouched.
func (s *Service) SubmitVoice(ctx context.Context, sessionID string, audio domain.AudioPayload) (*domain.Session, string, error) {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil, "", err
	}

	userMsg, assistantMsg, err := s.engine.ProcessTurn(ctx, session, audio)
	if err != nil {
		return nil, "", err
	}

	updated, err := s.store.AppendTurn(sessionID, userMsg, assistantMsg)
	if err != nil {
		return nil, "", err
	}

	if s.hub != nil {
		if state, stateErr := s.ConversationState(updated); stateErr == nil {
			s.hub.Publish(updated.SessionID, state)
		}
	}
	return updated, userMsg.Text, nil
}

// ConversationState shapes a session into the client-facing view.
func (s *Service) ConversationState(session *domain.Session) (domain.ConversationState, error) {
	scenario, err := s.catalog.Get(session.ScenarioID)
	if err != nil {
		return domain.ConversationState{}, err
	}
	return domain.NewConversationState(session, scenario), nil
}
