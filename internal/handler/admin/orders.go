package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/service"
)

// OrderHandler manages orders from the back office.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List handles GET /api/admin/orders.
func (h *OrderHandler) List(c echo.Context) error {
	page, perPage := handler.Paging(c)
	status := domain.OrderStatus(c.QueryParam("status"))

	orders, total, err := h.orders.ListOrders(c.Request().Context(), status, page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, handler.NewListResponse(orders, total, page, perPage))
}

// Get handles GET /api/admin/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.orders.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /api/admin/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
