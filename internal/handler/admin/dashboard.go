package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/service"
)

// DashboardHandler serves the back-office overview.
type DashboardHandler struct {
	dashboard service.DashboardService
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(dashboard service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Overview handles GET /api/admin/dashboard.
func (h *DashboardHandler) Overview(c echo.Context) error {
	d, err := h.dashboard.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
