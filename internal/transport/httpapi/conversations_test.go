package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/kaiwa-app/kaiwa/internal/catalog"
	"github.com/kaiwa-app/kaiwa/internal/domain"
	"github.com/kaiwa-app/kaiwa/internal/engine"
	"github.com/kaiwa-app/kaiwa/internal/service"
	"github.com/kaiwa-app/kaiwa/internal/store"
	"github.com/kaiwa-app/kaiwa/internal/voice"
)

type stubProvider struct {
	result voice.Result
	err    error
	calls  int
}

func (p *stubProvider) Converse(ctx context.Context, req voice.Request) (voice.Result, error) {
	p.calls++
	if p.err != nil {
		return voice.Result{}, p.err
	}
	return p.result, nil
}

func newTestHandler(p voice.Provider) (*Handler, *service.Service) {
	svc := service.New(catalog.Builtin(), store.New(), engine.New(p), nil)
	return NewHandler(svc, 0, 0), svc
}

func multipartAudio(t *testing.T, field, filename, mimeType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestCreateConversation(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations", strings.NewReader(`{"scenario_id":"coffee-shop"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, h.CreateConversation(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var state domain.ConversationState
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, "coffee-shop", state.Scenario.ID)
	assert.Empty(t, state.Messages, "system prompt must not appear in the client view")
}

func TestCreateConversationUnknownScenario(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/conversations", strings.NewReader(`{"scenario_id":"nope"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, h.CreateConversation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetConversationNotFound(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("missing")

	assert.NoError(t, h.GetConversation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitVoice(t *testing.T) {
	e := echo.New()
	p := &stubProvider{result: voice.Result{
		Transcript: "I'd like a coffee",
		ReplyText:  "Sure, what size?",
	}}
	h, svc := newTestHandler(p)

	session, err := svc.StartSession("coffee-shop")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	body, contentType := multipartAudio(t, "file", "speech.webm", "audio/webm", []byte("fake-webm-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+session.SessionID+"/voice", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	assert.NoError(t, h.SubmitVoice(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.VoiceTurnResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "I'd like a coffee", resp.Transcript)
	if assert.Len(t, resp.Conversation.Messages, 2) {
		assert.Equal(t, domain.RoleUser, resp.Conversation.Messages[0].Role)
		assert.Equal(t, domain.RoleAssistant, resp.Conversation.Messages[1].Role)
		assert.NotNil(t, resp.Conversation.Messages[0].Audio)
	}
	assert.Equal(t, 1, p.calls)
}

func TestSubmitVoiceEmptyUpload(t *testing.T) {
	e := echo.New()
	p := &stubProvider{}
	h, svc := newTestHandler(p)

	session, err := svc.StartSession("coffee-shop")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	body, contentType := multipartAudio(t, "file", "speech.webm", "audio/webm", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+session.SessionID+"/voice", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	assert.NoError(t, h.SubmitVoice(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, p.calls, "provider must not be invoked for empty audio")
}

func TestSubmitVoiceMissingFile(t *testing.T) {
	e := echo.New()
	h, svc := newTestHandler(&stubProvider{})

	session, err := svc.StartSession("coffee-shop")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+session.SessionID+"/voice", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	assert.NoError(t, h.SubmitVoice(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitVoiceUnknownSession(t *testing.T) {
	e := echo.New()
	p := &stubProvider{}
	h, _ := newTestHandler(p)

	body, contentType := multipartAudio(t, "file", "speech.webm", "audio/webm", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/conversations/missing/voice", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("missing")

	assert.NoError(t, h.SubmitVoice(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, p.calls)
}

func TestSubmitVoiceProviderFailure(t *testing.T) {
	e := echo.New()
	p := &stubProvider{err: errors.New("connection reset; api_key=sk-secret")}
	h, svc := newTestHandler(p)

	session, err := svc.StartSession("coffee-shop")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	body, contentType := multipartAudio(t, "file", "speech.webm", "audio/webm", []byte("bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+session.SessionID+"/voice", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	assert.NoError(t, h.SubmitVoice(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Provider error details must not leak to the caller.
	assert.NotContains(t, rec.Body.String(), "sk-secret")

	// And the history is unchanged, so the learner can retry.
	after, err := svc.GetSession(session.SessionID)
	assert.NoError(t, err)
	assert.Len(t, after.Messages, 1)
}

func TestSubmitVoiceTooLarge(t *testing.T) {
	e := echo.New()
	svc := service.New(catalog.Builtin(), store.New(), engine.New(&stubProvider{}), nil)
	h := NewHandler(svc, 4, 0) // 4-byte limit

	session, err := svc.StartSession("coffee-shop")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	body, contentType := multipartAudio(t, "file", "speech.webm", "audio/webm", []byte("way too many bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/conversations/"+session.SessionID+"/voice", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(session.SessionID)

	assert.NoError(t, h.SubmitVoice(c))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, h.Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListScenarios(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/scenarios", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, h.ListScenarios(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ScenarioListResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Scenarios, 3)
}
