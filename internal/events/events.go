// Package events publishes order lifecycle events to NATS for downstream
// consumers (fulfillment tooling, notification workers). Publishing is
// fire-and-forget: a missing or unreachable broker never blocks an order.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

// Subjects published by the shop.
const (
	SubjectOrderCreated       = "ember.order.created"
	SubjectOrderStatusChanged = "ember.order.status_changed"
	SubjectReturnRequested    = "ember.return.requested"
	SubjectReturnRefunded     = "ember.return.refunded"
)

// Publisher emits lifecycle events. A nil *Publisher is a valid no-op
// publisher, so callers never guard their publish calls.
type Publisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// Connect dials the broker at url. An empty url disables event publishing
// and returns a nil publisher.
func Connect(url string, log zerolog.Logger) (*Publisher, error) {
	if url == "" {
		log.Debug().Msg("event publishing disabled")
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("ember"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, log: log}, nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Drain()
}

func (p *Publisher) publish(subject string, payload any) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Error().Err(err).Str("subject", subject).Msg("marshal event")
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).Str("subject", subject).Msg("publish event")
	}
}

// OrderCreated announces a freshly materialized order.
func (p *Publisher) OrderCreated(o *model.Order) {
	p.publish(SubjectOrderCreated, map[string]any{
		"orderId":   o.ID,
		"userId":    o.UserID,
		"status":    o.Status,
		"total":     o.Total,
		"itemCount": len(o.Items),
		"createdAt": o.CreatedAt,
	})
}

// OrderStatusChanged announces an order status transition.
func (p *Publisher) OrderStatusChanged(orderID string, from, to domain.OrderStatus) {
	p.publish(SubjectOrderStatusChanged, map[string]any{
		"orderId": orderID,
		"from":    from,
		"to":      to,
		"at":      time.Now(),
	})
}

// ReturnRequested announces a new return request.
func (p *Publisher) ReturnRequested(r *model.Return) {
	p.publish(SubjectReturnRequested, map[string]any{
		"returnId":    r.ID,
		"orderItemId": r.OrderItemID,
		"reason":      r.Reason,
		"createdAt":   r.CreatedAt,
	})
}

// ReturnRefunded announces a completed refund.
func (p *Publisher) ReturnRefunded(r *model.Return) {
	payload := map[string]any{
		"returnId":    r.ID,
		"orderItemId": r.OrderItemID,
		"refundId":    r.StripeRefundID,
	}
	if r.RefundAmount != nil {
		payload["amount"] = *r.RefundAmount
	}
	p.publish(SubjectReturnRefunded, payload)
}
