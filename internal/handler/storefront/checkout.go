package storefront

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/handler"
	"github.com/wickshop/ember/internal/middleware"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/service"
)

// CheckoutHandler drives the checkout flow: session creation and the
// post-payment confirm fallback.
type CheckoutHandler struct {
	checkout service.CheckoutService
	orders   service.OrderService
}

// NewCheckoutHandler creates a CheckoutHandler.
func NewCheckoutHandler(checkout service.CheckoutService, orders service.OrderService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, orders: orders}
}

type checkoutRequest struct {
	Lines []domain.CartLine `json:"lines" validate:"required,min=1,dive"`
}

type confirmRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type confirmItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	ScentID     string  `json:"scentId"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	HasAudio    bool    `json:"hasAudio"`
}

type confirmResponse struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
	Total   float64            `json:"total"`
	Items   []confirmItem      `json:"items"`
}

func newConfirmResponse(order *model.Order) confirmResponse {
	resp := confirmResponse{
		OrderID: order.ID,
		Status:  order.Status,
		Total:   order.Total,
		Items:   make([]confirmItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		ci := confirmItem{
			ProductID: item.ProductID,
			ScentID:   item.ScentID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			HasAudio:  item.AudioURL != "",
		}
		if item.Product != nil {
			ci.ProductName = item.Product.Name
		}
		resp.Items = append(resp.Items, ci)
	}
	return resp
}

// CreateSession handles POST /api/checkout/session. Guests may check out;
// an authenticated user's ID is attached to the order.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var req checkoutRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	userID := ""
	if user := middleware.GetUser(c); user != nil {
		userID = user.ID
	}

	info, err := h.checkout.CreateSession(c.Request().Context(), userID, domain.Cart{Lines: req.Lines})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, info)
}

// Confirm handles POST /api/checkout/confirm. The success redirect calls
// this so the customer sees their order even when the webhook is delayed;
// materialization is idempotent so the two paths cannot double-create.
func (h *CheckoutHandler) Confirm(c echo.Context) error {
	var req confirmRequest
	if err := handler.BindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orders.MaterializeOrder(c.Request().Context(), req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newConfirmResponse(order))
}
