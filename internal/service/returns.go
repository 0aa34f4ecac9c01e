package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/events"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

// ReturnService manages the return and refund workflow.
type ReturnService interface {
	// CreateReturn opens a return request for a delivered order item. When
	// requesterID is non-empty the item's order must belong to that user.
	CreateReturn(ctx context.Context, requesterID, orderItemID, reason, description string) (*model.Return, error)

	// GetReturn loads one return.
	GetReturn(ctx context.Context, id string) (*model.Return, error)

	// ListReturns returns one page of returns for the back office.
	ListReturns(ctx context.Context, status domain.ReturnStatus, page, perPage int) ([]model.Return, int64, error)

	// ListOrderReturns returns the returns attached to an order's items.
	ListOrderReturns(ctx context.Context, orderID string) ([]model.Return, error)

	// UpdateStatus moves a return through the workflow, enforcing the state
	// machine.
	UpdateStatus(ctx context.Context, id string, params UpdateReturnStatusParams) (*model.Return, error)

	// UpdateTracking records the customer's return shipment details.
	UpdateTracking(ctx context.Context, id string, params ReturnTrackingParams) (*model.Return, error)

	// ProcessRefund issues the gateway refund for an approved return and
	// completes it. Safe against concurrent invocations.
	ProcessRefund(ctx context.Context, id string, amount *float64) (*model.Return, error)

	// DeleteReturn removes a return that has not entered the refund flow.
	DeleteReturn(ctx context.Context, id string) error
}

// UpdateReturnStatusParams carries an admin's workflow decision.
type UpdateReturnStatusParams struct {
	Status             domain.ReturnStatus
	AdminNote          string
	ReturnInstructions string
	ReturnAddress      string
	ReturnDeadline     *time.Time
}

// ReturnTrackingParams carries the customer's return shipment details.
type ReturnTrackingParams struct {
	TrackingNumber string
	Carrier        string
	TrackingURL    string
}

type returnService struct {
	returns *store.ReturnStore
	orders  *store.OrderStore
	billing billing.Provider
	events  *events.Publisher
	metrics *telemetry.BusinessMetrics
	log     zerolog.Logger
}

// NewReturnService creates a ReturnService.
func NewReturnService(returns *store.ReturnStore, orders *store.OrderStore, provider billing.Provider, publisher *events.Publisher, metrics *telemetry.BusinessMetrics, log zerolog.Logger) ReturnService {
	return &returnService{
		returns: returns,
		orders:  orders,
		billing: provider,
		events:  publisher,
		metrics: metrics,
		log:     log,
	}
}

func (s *returnService) CreateReturn(ctx context.Context, requesterID, orderItemID, reason, description string) (*model.Return, error) {
	const op = "returns.Create"

	if reason == "" {
		return nil, domain.Errorf(domain.EINVALID, op, "Return reason is required")
	}

	item, err := s.orders.GetOrderItem(ctx, orderItemID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	if requesterID != "" && order.UserID != requesterID {
		return nil, domain.Forbidden(op, "Order item belongs to another customer")
	}
	if order.Status != domain.OrderDelivered {
		return nil, domain.Errorf(domain.EINVALID, op,
			"Returns are only accepted for delivered orders (order is %s)", order.Status)
	}
	if item.Return != nil {
		return nil, domain.ErrReturnExists
	}

	ret := &model.Return{
		OrderItemID:  orderItemID,
		Reason:       reason,
		Description:  description,
		Status:       domain.ReturnRequested,
		RefundStatus: domain.RefundPending,
	}
	if err := s.returns.CreateReturn(ctx, ret); err != nil {
		return nil, err
	}

	s.metrics.ReturnsRequested.Inc()
	s.events.ReturnRequested(ret)
	s.log.Info().
		Str("return_id", ret.ID).
		Str("order_item_id", orderItemID).
		Str("reason", reason).
		Msg("return requested")

	return ret, nil
}

func (s *returnService) GetReturn(ctx context.Context, id string) (*model.Return, error) {
	return s.returns.GetReturn(ctx, id)
}

func (s *returnService) ListReturns(ctx context.Context, status domain.ReturnStatus, page, perPage int) ([]model.Return, int64, error) {
	if status != "" && !domain.ValidReturnStatus(status) {
		return nil, 0, domain.Errorf(domain.EINVALID, "returns.List", "Unknown return status: %s", status)
	}
	return s.returns.ListReturns(ctx, status, page, perPage)
}

func (s *returnService) ListOrderReturns(ctx context.Context, orderID string) ([]model.Return, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	itemIDs := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		itemIDs = append(itemIDs, item.ID)
	}
	return s.returns.ListReturnsByOrderItems(ctx, itemIDs)
}

func (s *returnService) UpdateStatus(ctx context.Context, id string, params UpdateReturnStatusParams) (*model.Return, error) {
	const op = "returns.UpdateStatus"

	if !domain.ValidReturnStatus(params.Status) {
		return nil, domain.Errorf(domain.EINVALID, op, "Unknown return status: %s", params.Status)
	}

	ret, err := s.returns.GetReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.Status == params.Status {
		return ret, nil
	}
	if !domain.CanTransitionReturn(ret.Status, params.Status) {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"Cannot transition return from %s to %s", ret.Status, params.Status)
	}

	prev := ret.Status
	ret.Status = params.Status
	if params.AdminNote != "" {
		ret.AdminNote = params.AdminNote
	}
	if params.Status == domain.ReturnApproved {
		ret.ReturnInstructions = params.ReturnInstructions
		ret.ReturnAddress = params.ReturnAddress
		ret.ReturnDeadline = params.ReturnDeadline
	}
	if prev == domain.ReturnRequested {
		now := time.Now()
		ret.ProcessedAt = &now
	}

	if err := s.returns.SaveReturn(ctx, ret); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("return_id", id).
		Str("from", string(prev)).
		Str("to", string(params.Status)).
		Msg("return status updated")

	return ret, nil
}

func (s *returnService) UpdateTracking(ctx context.Context, id string, params ReturnTrackingParams) (*model.Return, error) {
	const op = "returns.UpdateTracking"

	if params.TrackingNumber == "" {
		return nil, domain.Errorf(domain.EINVALID, op, "Tracking number is required")
	}

	ret, err := s.returns.GetReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.Status == domain.ReturnRequested || ret.Status == domain.ReturnRejected {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"Tracking can only be recorded for approved returns")
	}

	ret.TrackingNumber = params.TrackingNumber
	ret.Carrier = params.Carrier
	ret.TrackingURL = params.TrackingURL
	if err := s.returns.SaveReturn(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// ProcessRefund flow:
//  1. The return must be approved (past REQUESTED, not REJECTED) and not yet
//     completed.
//  2. The owning order must carry a payment reference.
//  3. A compare-and-set on refund status PENDING -> PROCESSING claims the
//     refund; a second concurrent claim loses and conflicts.
//  4. The gateway refund either completes the return or marks the refund
//     FAILED for a later retry by support.
func (s *returnService) ProcessRefund(ctx context.Context, id string, amount *float64) (*model.Return, error) {
	const op = "returns.ProcessRefund"

	ret, err := s.returns.GetReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.Status == domain.ReturnRequested || ret.Status == domain.ReturnRejected {
		return nil, domain.ErrReturnNotApproved
	}
	if ret.Status == domain.ReturnCompleted {
		return nil, domain.ErrRefundNotPending
	}

	item, err := s.orders.GetOrderItem(ctx, ret.OrderItemID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentIntentID == "" {
		return nil, domain.ErrMissingPaymentRef
	}

	// Default refund is the item's unit price. Partial refunds may
	// override it downward.
	refundAmount := item.Price
	if amount != nil {
		if *amount <= 0 || *amount > item.Price {
			return nil, domain.Errorf(domain.EINVALID, op,
				"Refund amount must be between 0 and %.2f", item.Price)
		}
		refundAmount = *amount
	}

	claimed, err := s.returns.MarkRefundProcessing(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrRefundNotPending
	}

	refund, err := s.billing.CreateRefund(ctx, billing.RefundParams{
		PaymentIntentID: order.PaymentIntentID,
		AmountCents:     ToCents(refundAmount),
		Reason:          "requested_by_customer",
		Metadata:        map[string]string{"returnId": id, "orderId": order.ID},
	})
	if err != nil {
		s.metrics.RefundsFailed.Inc()
		// Keep the gateway's error on the return so an admin can follow up.
		note := fmt.Sprintf("Refund failed at gateway: %v", err)
		if recErr := s.returns.RecordRefundResult(ctx, id, domain.RefundFailed, map[string]any{
			"admin_note": note,
		}); recErr != nil {
			s.log.Error().Err(recErr).Str("return_id", id).Msg("failed to record refund failure")
		}
		s.log.Error().Err(err).Str("return_id", id).Msg("gateway refund failed")
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "Refund failed at payment provider")
	}

	now := time.Now()
	err = s.returns.RecordRefundResult(ctx, id, domain.RefundCompleted, map[string]any{
		"status":           domain.ReturnCompleted,
		"stripe_refund_id": refund.ID,
		"refund_amount":    refundAmount,
		"refunded_at":      now,
	})
	if err != nil {
		// The money moved; surface the inconsistency loudly instead of
		// failing the request.
		s.log.Error().Err(err).
			Str("return_id", id).
			Str("refund_id", refund.ID).
			Msg("refund issued but not recorded")
	}

	s.metrics.RefundsIssued.Inc()
	s.metrics.RefundAmount.Add(refundAmount)

	ret, err = s.returns.GetReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.ReturnRefunded(ret)
	s.log.Info().
		Str("return_id", id).
		Str("refund_id", refund.ID).
		Float64("amount", refundAmount).
		Msg("refund completed")

	return ret, nil
}

func (s *returnService) DeleteReturn(ctx context.Context, id string) error {
	const op = "returns.Delete"

	ret, err := s.returns.GetReturn(ctx, id)
	if err != nil {
		return err
	}
	if ret.RefundStatus != domain.RefundPending {
		return domain.Errorf(domain.ECONFLICT, op,
			"Cannot delete a return once its refund has started")
	}
	return s.returns.DeleteReturn(ctx, id)
}
