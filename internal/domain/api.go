package domain

// ConversationState is the full client-facing view of a session: the
// scenario plus the ordered message history, minus the system prompt.
type ConversationState struct {
	SessionID string         `json:"session_id"`
	Scenario  ScenarioRecord `json:"scenario"`
	Messages  []Message      `json:"messages"`
}

// NewConversationState builds the client view of a session.
func NewConversationState(session *Session, scenario ScenarioRecord) ConversationState {
	return ConversationState{
		SessionID: session.SessionID,
		Scenario:  scenario,
		Messages:  session.VisibleMessages(),
	}
}

// CreateConversationRequest starts a new session. An empty scenario id
// selects the first scenario in the catalog.
type CreateConversationRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ScenarioListResponse lists every scenario in catalog order.
type ScenarioListResponse struct {
	Scenarios []ScenarioRecord `json:"scenarios"`
}

// VoiceTurnResponse is returned after a committed voice turn.
type VoiceTurnResponse struct {
	Conversation ConversationState `json:"conversation"`
	Transcript   string            `json:"transcript,omitempty"`
}
