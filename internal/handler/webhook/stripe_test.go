package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/database"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/service"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

const testSignature = "t=1692000000,v1=deadbeef"

type webhookEnv struct {
	handler  *StripeHandler
	provider *billing.MockProvider
	stores   *store.Stores
	checkout service.CheckoutService
}

func newWebhookEnv(t *testing.T) *webhookEnv {
	t.Helper()

	db := database.NewTestDB(t)
	stores := store.New(db)
	provider := billing.NewMockProvider()
	metrics := telemetry.NewBusinessMetricsWith(prometheus.NewRegistry(), "")
	log := zerolog.Nop()

	checkout := service.NewCheckoutService(stores.Catalog, stores.Orders, provider, service.CheckoutConfig{
		BaseURL: "https://shop.example.com",
	}, metrics, log)
	orders := service.NewOrderService(stores.Orders, stores.Catalog, provider, nil, metrics, "US", log)

	return &webhookEnv{
		handler:  NewStripeHandler(provider, orders, "whsec_test", metrics, log),
		provider: provider,
		stores:   stores,
		checkout: checkout,
	}
}

// stagePaidSession seeds the catalog, runs a checkout, and marks the session
// paid. Returns the session ID and the order ID it will materialize into.
func (e *webhookEnv) stagePaidSession(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()

	scent := &model.Scent{Name: "Cedarwood"}
	require.NoError(t, e.stores.Catalog.CreateScent(ctx, scent))
	product := &model.Product{Name: "Hearth Pillar", Price: 24.50}
	require.NoError(t, e.stores.Catalog.CreateProduct(ctx, product))

	info, err := e.checkout.CreateSession(ctx, "user-1", domain.Cart{Lines: []domain.CartLine{{
		ProductID: product.ID, ScentID: scent.ID, Quantity: 1, UnitPrice: 24.50,
	}}})
	require.NoError(t, err)
	e.provider.CompletePayment(info.SessionID)
	return info.SessionID, info.OrderID
}

func postEvent(handler *StripeHandler, body, signature string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, handler.Handle(c)
}

func checkoutCompletedEvent(sessionID string) string {
	return fmt.Sprintf(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"%s"}}}`, sessionID)
}

func TestWebhookSignature(t *testing.T) {
	env := newWebhookEnv(t)

	t.Run("missing signature", func(t *testing.T) {
		_, err := postEvent(env.handler, `{}`, "")
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("rejected signature", func(t *testing.T) {
		env.provider.VerifyWebhookSignatureFunc = func(payload []byte, signature, secret string) error {
			return billing.ErrInvalidWebhookSignature
		}
		defer func() { env.provider.VerifyWebhookSignatureFunc = nil }()

		_, err := postEvent(env.handler, `{}`, testSignature)
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}

func TestWebhookCheckoutCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("materializes the order", func(t *testing.T) {
		env := newWebhookEnv(t)
		sessionID, orderID := env.stagePaidSession(t)

		rec, err := postEvent(env.handler, checkoutCompletedEvent(sessionID), testSignature)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		order, err := env.stores.Orders.GetOrder(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderProcessing, order.Status)
		assert.Len(t, order.Items, 1)
	})

	t.Run("replay is idempotent", func(t *testing.T) {
		env := newWebhookEnv(t)
		sessionID, orderID := env.stagePaidSession(t)
		body := checkoutCompletedEvent(sessionID)

		_, err := postEvent(env.handler, body, testSignature)
		require.NoError(t, err)
		rec, err := postEvent(env.handler, body, testSignature)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		order, err := env.stores.Orders.GetOrder(ctx, orderID)
		require.NoError(t, err)
		assert.Len(t, order.Items, 1)
	})

	t.Run("permanent failure is acknowledged", func(t *testing.T) {
		env := newWebhookEnv(t)
		sessionID, orderID := env.stagePaidSession(t)
		// Lose the staging record; retrying can never heal this.
		require.NoError(t, env.stores.Orders.DeleteStagedOrder(ctx, orderID))

		rec, err := postEvent(env.handler, checkoutCompletedEvent(sessionID), testSignature)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("gateway outage bubbles for retry", func(t *testing.T) {
		env := newWebhookEnv(t)
		sessionID, _ := env.stagePaidSession(t)
		env.provider.GetCheckoutSessionFunc = func(ctx context.Context, id string) (*billing.CheckoutSession, error) {
			return nil, billing.ErrSessionNotFound
		}

		_, err := postEvent(env.handler, checkoutCompletedEvent(sessionID), testSignature)
		require.Error(t, err)
		assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))
	})
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	env := newWebhookEnv(t)

	rec, err := postEvent(env.handler, `{"id":"evt_2","type":"payment_intent.created","data":{"object":{}}}`, testSignature)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
