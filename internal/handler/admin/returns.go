package admin

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/service"
)

// ReturnHandler manages the returns workflow from the back office.
type ReturnHandler struct {
	returns service.ReturnService
}

// NewReturnHandler creates a ReturnHandler.
func NewReturnHandler(returns service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

// List handles GET /api/admin/returns.
func (h *ReturnHandler) List(c echo.Context) error {
	page, perPage := handler.Paging(c)
	status := domain.ReturnStatus(c.QueryParam("status"))

	returns, total, err := h.returns.ListReturns(c.Request().Context(), status, page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, handler.NewListResponse(returns, total, page, perPage))
}

// Get handles GET /api/admin/returns/:id.
func (h *ReturnHandler) Get(c echo.Context) error {
	ret, err := h.returns.GetReturn(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ret)
}

type updateReturnStatusRequest struct {
	Status             string     `json:"status" validate:"required"`
	AdminNote          string     `json:"adminNote"`
	ReturnInstructions string     `json:"returnInstructions"`
	ReturnAddress      string     `json:"returnAddress"`
	ReturnDeadline     *time.Time `json:"returnDeadline"`
}

// UpdateStatus handles PATCH /api/admin/returns/:id/status.
func (h *ReturnHandler) UpdateStatus(c echo.Context) error {
	var req updateReturnStatusRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	ret, err := h.returns.UpdateStatus(c.Request().Context(), c.Param("id"), service.UpdateReturnStatusParams{
		Status:             domain.ReturnStatus(req.Status),
		AdminNote:          req.AdminNote,
		ReturnInstructions: req.ReturnInstructions,
		ReturnAddress:      req.ReturnAddress,
		ReturnDeadline:     req.ReturnDeadline,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ret)
}

type updateTrackingRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"required"`
	Carrier        string `json:"carrier"`
	TrackingURL    string `json:"trackingUrl"`
}

// UpdateTracking handles PATCH /api/admin/returns/:id/tracking.
func (h *ReturnHandler) UpdateTracking(c echo.Context) error {
	var req updateTrackingRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	ret, err := h.returns.UpdateTracking(c.Request().Context(), c.Param("id"), service.ReturnTrackingParams{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		TrackingURL:    req.TrackingURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ret)
}

type refundRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
}

// ProcessRefund handles POST /api/admin/returns/:id/refund. Omitting the
// amount refunds the full line.
func (h *ReturnHandler) ProcessRefund(c echo.Context) error {
	var req refundRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	ret, err := h.returns.ProcessRefund(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ret)
}

// Delete handles DELETE /api/admin/returns/:id.
func (h *ReturnHandler) Delete(c echo.Context) error {
	if err := h.returns.DeleteReturn(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
