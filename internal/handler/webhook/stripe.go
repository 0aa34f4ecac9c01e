// Package webhook receives asynchronous payment gateway events. The
// checkout.session.completed event is the authoritative trigger for order
// materialization; the storefront confirm endpoint is only a faster
// fallback.
package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/service"
	"github.com/wickshop/ember/internal/telemetry"
)

// StripeHandler handles Stripe webhook events.
type StripeHandler struct {
	provider      billing.Provider
	orders        service.OrderService
	webhookSecret string
	metrics       *telemetry.BusinessMetrics
	log           zerolog.Logger
}

// NewStripeHandler creates a StripeHandler.
func NewStripeHandler(provider billing.Provider, orders service.OrderService, webhookSecret string, metrics *telemetry.BusinessMetrics, log zerolog.Logger) *StripeHandler {
	return &StripeHandler{
		provider:      provider,
		orders:        orders,
		webhookSecret: webhookSecret,
		metrics:       metrics,
		log:           log,
	}
}

// Handle processes POST /webhooks/stripe.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger checkout.session.completed
func (h *StripeHandler) Handle(c echo.Context) error {
	start := time.Now()
	defer func() {
		h.metrics.WebhookLatency.Observe(time.Since(start).Seconds())
	}()

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return domain.Errorf(domain.EINVALID, "webhook.Handle", "Error reading request body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return domain.Errorf(domain.EINVALID, "webhook.Handle", "Missing signature")
	}
	if err := h.provider.VerifyWebhookSignature(payload, signature, h.webhookSecret); err != nil {
		h.log.Warn().Msg("webhook signature verification failed")
		return domain.Errorf(domain.EINVALID, "webhook.Handle", "Invalid signature")
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.Errorf(domain.EINVALID, "webhook.Handle", "Malformed event payload")
	}
	h.metrics.WebhookReceived.WithLabelValues(string(event.Type)).Inc()
	h.log.Info().Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("webhook received")

	switch event.Type {
	case "checkout.session.completed":
		if err := h.handleCheckoutCompleted(c, event); err != nil {
			h.metrics.WebhookFailed.WithLabelValues(string(event.Type)).Inc()
			return err
		}
	default:
		// Acknowledge everything else so the gateway stops retrying events
		// this service does not consume.
		h.log.Debug().Str("event_type", string(event.Type)).Msg("ignoring event")
	}

	h.metrics.WebhookProcessed.WithLabelValues(string(event.Type)).Inc()
	return c.JSON(http.StatusOK, map[string]string{"received": "true"})
}

func (h *StripeHandler) handleCheckoutCompleted(c echo.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return domain.Errorf(domain.EINVALID, "webhook.checkoutCompleted", "Malformed session payload")
	}

	order, err := h.orders.MaterializeOrder(c.Request().Context(), sess.ID)
	if err != nil {
		// Validation-class failures will not heal on retry; log loudly and
		// acknowledge so the gateway does not hammer us. Internal failures
		// bubble up as 5xx so the gateway retries.
		switch domain.ErrorCode(err) {
		case domain.EINVALID, domain.ENOTFOUND:
			h.log.Error().Err(err).
				Str("session_id", sess.ID).
				Msg("order materialization permanently failed; manual intervention required")
			return nil
		default:
			return err
		}
	}

	h.log.Info().
		Str("session_id", sess.ID).
		Str("order_id", order.ID).
		Msg("checkout session materialized")
	return nil
}
