package httpapi

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kaiwa-app/kaiwa/internal/domain"
)

const defaultAudioMimeType = "audio/webm"

// CreateConversation starts a new practice session.
// POST /api/conversations
func (h *Handler) CreateConversation(c echo.Context) error {
	var req domain.CreateConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	session, err := h.service.StartSession(req.ScenarioID)
	if err != nil {
		return errorResponse(c, err)
	}

	state, err := h.service.ConversationState(session)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// GetConversation returns the current state of a session.
// GET /api/conversations/:session_id
func (h *Handler) GetConversation(c echo.Context) error {
	session, err := h.service.GetSession(c.Param("session_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	state, err := h.service.ConversationState(session)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// SubmitVoice accepts a recorded audio blob as a multipart "file" field and
// runs one conversation turn against it.
// POST /api/conversations/:session_id/voice
func (h *Handler) SubmitVoice(c echo.Context) error {
	sessionID := c.Param("session_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no audio provided"})
	}
	if h.maxAudioBytes > 0 && fileHeader.Size > h.maxAudioBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "audio payload too large"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no audio provided"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to read audio"})
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultAudioMimeType
	}

	var audio domain.AudioPayload
	if len(data) > 0 {
		audio = domain.AudioPayload{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		}
	}

	ctx := c.Request().Context()
	if h.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.providerTimeout)
		defer cancel()
	}

	session, transcript, err := h.service.SubmitVoice(ctx, sessionID, audio)
	if err != nil {
		return errorResponse(c, err)
	}

	state, err := h.service.ConversationState(session)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, domain.VoiceTurnResponse{
		Conversation: state,
		Transcript:   transcript,
	})
}
