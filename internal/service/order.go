package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/events"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

// OrderService materializes paid checkout sessions into orders and manages
// the order lifecycle.
type OrderService interface {
	// MaterializeOrder converts a paid checkout session into a persisted
	// order. Idempotent: replays of the same session return the existing
	// order without side effects.
	MaterializeOrder(ctx context.Context, sessionID string) (*model.Order, error)

	// GetOrder loads one order with items, QR codes, returns, and address.
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)

	// ListUserOrders returns a user's orders, newest first.
	ListUserOrders(ctx context.Context, userID string) ([]model.Order, error)

	// ListOrders returns one page of all orders for the back office.
	ListOrders(ctx context.Context, status domain.OrderStatus, page, perPage int) ([]model.Order, int64, error)

	// UpdateStatus transitions an order to a new status, enforcing the
	// lifecycle state machine.
	UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orders         *store.OrderStore
	catalog        *store.CatalogStore
	billing        billing.Provider
	events         *events.Publisher
	metrics        *telemetry.BusinessMetrics
	defaultCountry string
	log            zerolog.Logger
}

// NewOrderService creates an OrderService. defaultCountry fills in shipping
// addresses the gateway returns without a country.
func NewOrderService(orders *store.OrderStore, catalog *store.CatalogStore, provider billing.Provider, publisher *events.Publisher, metrics *telemetry.BusinessMetrics, defaultCountry string, log zerolog.Logger) OrderService {
	if defaultCountry == "" {
		defaultCountry = "US"
	}
	return &orderService{
		orders:         orders,
		catalog:        catalog,
		billing:        provider,
		events:         publisher,
		metrics:        metrics,
		defaultCountry: defaultCountry,
		log:            log,
	}
}

// MaterializeOrder flow:
//  1. Retrieve the session from the gateway and check payment status.
//  2. Pull the order reference from session metadata.
//  3. Short-circuit if the order already exists (webhook retry, or the
//     confirm endpoint racing the webhook).
//  4. Load and decode the staged order detail.
//  5. Re-validate catalog references.
//  6. Create the order with items, QR codes, and shipping address in one
//     transaction. A duplicate-key failure means a concurrent writer won;
//     re-fetch and return its result.
//  7. Best-effort delete of the staging record.
func (s *orderService) MaterializeOrder(ctx context.Context, sessionID string) (*model.Order, error) {
	const op = "order.Materialize"

	sess, err := s.billing.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "Failed to retrieve checkout session")
	}
	if !sess.Paid() {
		return nil, ErrPaymentNotSucceeded
	}

	orderID := sess.Metadata["orderId"]
	if orderID == "" {
		return nil, domain.ErrMissingOrderRef
	}

	if existing, err := s.orders.GetOrder(ctx, orderID); err == nil {
		s.log.Info().Str("order_id", orderID).Str("session_id", sessionID).
			Msg("order already materialized")
		return existing, nil
	} else if domain.ErrorCode(err) != domain.ENOTFOUND {
		return nil, err
	}

	tmp, err := s.orders.GetStagedOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var staged []model.StagedItem
	if err := json.Unmarshal([]byte(tmp.OrderData), &staged); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Staged order data is corrupt")
	}
	if len(staged) == 0 {
		return nil, domain.Errorf(domain.EINTERNAL, op, "Staged order has no items")
	}

	if err := s.validateStagedRefs(ctx, op, staged); err != nil {
		return nil, err
	}

	order := buildOrder(orderID, tmp.UserID, sess, staged, s.defaultCountry)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if domain.ErrorCode(err) == domain.ECONFLICT {
			// Lost the race; the winner's order is authoritative.
			return s.orders.GetOrder(ctx, orderID)
		}
		return nil, err
	}

	if err := s.orders.DeleteStagedOrder(ctx, orderID); err != nil {
		// The expiry sweep will collect it.
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to delete staged order")
	}

	s.metrics.OrdersCreated.Inc()
	s.metrics.OrderValue.Observe(order.Total)
	s.events.OrderCreated(order)
	s.log.Info().
		Str("order_id", order.ID).
		Str("session_id", sessionID).
		Float64("total", order.Total).
		Int("items", len(order.Items)).
		Msg("order materialized")

	return s.orders.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orders.ListOrdersByUser(ctx, userID)
}

func (s *orderService) ListOrders(ctx context.Context, status domain.OrderStatus, page, perPage int) ([]model.Order, int64, error) {
	if status != "" && !domain.ValidOrderStatus(status) {
		return nil, 0, domain.Errorf(domain.EINVALID, "order.List", "Unknown order status: %s", status)
	}
	return s.orders.ListOrders(ctx, status, page, perPage)
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*model.Order, error) {
	const op = "order.UpdateStatus"

	if !domain.ValidOrderStatus(target) {
		return nil, domain.Errorf(domain.EINVALID, op, "Unknown order status: %s", target)
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == target {
		return order, nil
	}
	if !domain.CanTransitionOrder(order.Status, target) {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"Cannot transition order from %s to %s", order.Status, target)
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, target); err != nil {
		return nil, err
	}

	s.metrics.OrderStatusChange.WithLabelValues(string(target)).Inc()
	s.events.OrderStatusChanged(orderID, order.Status, target)
	s.log.Info().
		Str("order_id", orderID).
		Str("from", string(order.Status)).
		Str("to", string(target)).
		Msg("order status updated")

	order.Status = target
	return order, nil
}

// validateStagedRefs rejects materialization when a staged product or scent
// was deleted between checkout and payment. The session stays paid; support
// resolves these manually, so the error names every missing reference.
func (s *orderService) validateStagedRefs(ctx context.Context, op string, staged []model.StagedItem) error {
	productIDs := make([]string, 0, len(staged))
	scentIDs := make([]string, 0, len(staged))
	seenP := map[string]bool{}
	seenS := map[string]bool{}
	for _, item := range staged {
		if !seenP[item.ProductID] {
			seenP[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
		if !seenS[item.ScentID] {
			seenS[item.ScentID] = true
			scentIDs = append(scentIDs, item.ScentID)
		}
	}

	products, err := s.catalog.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return err
	}
	scents, err := s.catalog.GetScentsByIDs(ctx, scentIDs)
	if err != nil {
		return err
	}

	found := map[string]bool{}
	for _, p := range products {
		found["product:"+p.ID] = true
	}
	for _, sc := range scents {
		found["scent:"+sc.ID] = true
	}

	var missing []string
	for _, id := range productIDs {
		if !found["product:"+id] {
			missing = append(missing, "product:"+id)
		}
	}
	for _, id := range scentIDs {
		if !found["scent:"+id] {
			missing = append(missing, "scent:"+id)
		}
	}
	if len(missing) > 0 {
		return domain.Errorf(domain.EINVALID, op,
			"Order references missing entities: %s", strings.Join(missing, ", "))
	}
	return nil
}

// buildOrder assembles the order aggregate from the paid session and the
// staged detail. The order total comes from what the gateway actually
// charged, not from re-summing the staged prices.
func buildOrder(orderID, userID string, sess *billing.CheckoutSession, staged []model.StagedItem, defaultCountry string) *model.Order {
	order := &model.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          domain.OrderProcessing,
		Total:           FromCents(sess.AmountTotalCents),
		PaymentIntentID: sess.PaymentIntentID,
	}

	for _, item := range staged {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: item.ProductID,
			ScentID:   item.ScentID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
			AudioURL:  item.AudioURL,
			QRCode:    &model.QRCode{Code: item.QRCodeID},
		})
	}

	if addr := sess.ShippingAddress; addr != nil {
		street := addr.Line1
		if addr.Line2 != "" {
			street += ", " + addr.Line2
		}
		country := addr.Country
		if country == "" {
			country = defaultCountry
		}
		order.ShippingAddress = &model.Address{
			Street:  street,
			City:    addr.City,
			State:   addr.State,
			ZipCode: addr.PostalCode,
			Country: country,
		}
	}
	return order
}
