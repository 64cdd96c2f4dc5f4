// Package httpapi provides the HTTP handlers for the kaiwa server.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kaiwa-app/kaiwa/internal/domain"
	"github.com/kaiwa-app/kaiwa/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service         *service.Service
	maxAudioBytes   int64
	providerTimeout time.Duration
}

// NewHandler creates a new handler. maxAudioBytes of zero disables the
// upload limit; providerTimeout of zero leaves the request deadline alone.
func NewHandler(svc *service.Service, maxAudioBytes int64, providerTimeout time.Duration) *Handler {
	return &Handler{
		service:         svc,
		maxAudioBytes:   maxAudioBytes,
		providerTimeout: providerTimeout,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/scenarios", h.ListScenarios)
	e.POST("/api/conversations", h.CreateConversation)
	e.GET("/api/conversations/:session_id", h.GetConversation)
	e.POST("/api/conversations/:session_id/voice", h.SubmitVoice)
	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse maps core errors to a status code and a caller-safe body.
// Provider failures deliberately hide the underlying error text.
func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownScenario):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidAudio):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no audio provided"})
	case errors.Is(err, domain.ErrProviderFailure):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "voice conversation request failed"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
