package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kaiwa-app/kaiwa/internal/domain"
)

// ListScenarios returns the scenario catalog.
// GET /api/scenarios
func (h *Handler) ListScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, domain.ScenarioListResponse{
		Scenarios: h.service.ListScenarios(),
	})
}
