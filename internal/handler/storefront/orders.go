package storefront

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/middleware"
	"github.com/wickshop/ember/internal/service"
)

// OrderHandler serves a customer's own orders and return requests.
type OrderHandler struct {
	orders  service.OrderService
	returns service.ReturnService
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders service.OrderService, returns service.ReturnService) *OrderHandler {
	return &OrderHandler{orders: orders, returns: returns}
}

// List handles GET /api/orders (authenticated).
func (h *OrderHandler) List(c echo.Context) error {
	user := middleware.GetUser(c)
	orders, err := h.orders.ListUserOrders(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// Get handles GET /api/orders/:id (authenticated, owner only).
func (h *OrderHandler) Get(c echo.Context) error {
	user := middleware.GetUser(c)
	order, err := h.orders.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		// Hide the order's existence from other customers.
		return domain.ErrOrderNotFound
	}
	return c.JSON(http.StatusOK, order)
}

type createReturnRequest struct {
	OrderItemID string `json:"orderItemId" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
	Description string `json:"description"`
}

// CreateReturn handles POST /api/returns (authenticated).
func (h *OrderHandler) CreateReturn(c echo.Context) error {
	var req createReturnRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	user := middleware.GetUser(c)
	ret, err := h.returns.CreateReturn(c.Request().Context(), user.ID, req.OrderItemID, req.Reason, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ret)
}

// ListOrderReturns handles GET /api/orders/:id/returns (authenticated,
// owner only).
func (h *OrderHandler) ListOrderReturns(c echo.Context) error {
	user := middleware.GetUser(c)
	order, err := h.orders.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return domain.ErrOrderNotFound
	}

	returns, err := h.returns.ListOrderReturns(c.Request().Context(), order.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, returns)
}
