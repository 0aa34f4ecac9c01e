package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/store"
)

// stagePaidCheckout runs a checkout through the mock gateway and marks the
// session paid, leaving everything ready for materialization.
func stagePaidCheckout(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	ctx := context.Background()

	product, scent := env.seedCatalog(t)
	cart := domain.Cart{Lines: []domain.CartLine{{
		ProductID: product.ID,
		ScentID:   scent.ID,
		Quantity:  2,
		UnitPrice: 24.50,
		AudioURL:  "https://cdn.example.com/msg.mp3",
	}}}
	info, err := env.checkout().CreateSession(ctx, userID, cart)
	require.NoError(t, err)

	sess := env.billing.CompletePayment(info.SessionID)
	require.NotNil(t, sess)
	sess.ShippingAddress = &billing.PostalAddress{
		Line1:      "12 Wick Lane",
		Line2:      "Unit 4",
		City:       "Portland",
		State:      "OR",
		PostalCode: "97201",
	}
	return info.SessionID
}

func TestMaterializeOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("creates order from paid session", func(t *testing.T) {
		env := newTestEnv(t)
		sessionID := stagePaidCheckout(t, env, "user-1")

		order, err := env.orders().MaterializeOrder(ctx, sessionID)
		require.NoError(t, err)

		sess := env.billing.Sessions[sessionID]
		assert.Equal(t, sess.Metadata["orderId"], order.ID)
		assert.Equal(t, "user-1", order.UserID)
		assert.Equal(t, domain.OrderProcessing, order.Status)
		assert.Equal(t, 49.00, order.Total)

		require.Len(t, order.Items, 1)
		item := order.Items[0]
		assert.Equal(t, 2, item.Quantity)
		assert.Equal(t, 24.50, item.Price)
		assert.Equal(t, "https://cdn.example.com/msg.mp3", item.AudioURL)
		require.NotNil(t, item.QRCode)
		assert.Contains(t, item.QRCode.Code, "qr_")

		require.NotNil(t, order.ShippingAddress)
		assert.Equal(t, "12 Wick Lane, Unit 4", order.ShippingAddress.Street)
		assert.Equal(t, "Portland", order.ShippingAddress.City)
		// Country missing from the gateway address falls back to the default.
		assert.Equal(t, "US", order.ShippingAddress.Country)

		// The staging record is consumed.
		_, err = env.stores.Orders.GetStagedOrder(ctx, order.ID)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("replay returns the existing order", func(t *testing.T) {
		env := newTestEnv(t)
		sessionID := stagePaidCheckout(t, env, "user-1")
		svc := env.orders()

		first, err := svc.MaterializeOrder(ctx, sessionID)
		require.NoError(t, err)
		second, err := svc.MaterializeOrder(ctx, sessionID)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, second.Items, 1)
	})

	t.Run("rejects unpaid session", func(t *testing.T) {
		env := newTestEnv(t)
		product, scent := env.seedCatalog(t)
		cart := domain.Cart{Lines: []domain.CartLine{{
			ProductID: product.ID, ScentID: scent.ID, Quantity: 1, UnitPrice: 24.50,
		}}}
		info, err := env.checkout().CreateSession(ctx, "user-1", cart)
		require.NoError(t, err)

		_, err = env.orders().MaterializeOrder(ctx, info.SessionID)
		assert.ErrorIs(t, err, ErrPaymentNotSucceeded)
	})

	t.Run("rejects session without order reference", func(t *testing.T) {
		env := newTestEnv(t)
		env.billing.GetCheckoutSessionFunc = func(ctx context.Context, sessionID string) (*billing.CheckoutSession, error) {
			return &billing.CheckoutSession{ID: sessionID, PaymentStatus: "paid"}, nil
		}

		_, err := env.orders().MaterializeOrder(ctx, "cs_test_x")
		assert.ErrorIs(t, err, domain.ErrMissingOrderRef)
	})

	t.Run("missing staging record is not found", func(t *testing.T) {
		env := newTestEnv(t)
		sessionID := stagePaidCheckout(t, env, "user-1")
		sess := env.billing.Sessions[sessionID]
		require.NoError(t, env.stores.Orders.DeleteStagedOrder(ctx, sess.Metadata["orderId"]))

		_, err := env.orders().MaterializeOrder(ctx, sessionID)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("rejects when a staged product was deleted", func(t *testing.T) {
		env := newTestEnv(t)
		sessionID := stagePaidCheckout(t, env, "user-1")

		products, _, err := env.stores.Catalog.ListProducts(ctx, store.ProductFilter{})
		require.NoError(t, err)
		require.NoError(t, env.stores.Catalog.DeleteProduct(ctx, products[0].ID))

		_, err = env.orders().MaterializeOrder(ctx, sessionID)
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("legal transition", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, "user-1", domain.OrderProcessing)

		updated, err := env.orders().UpdateStatus(ctx, order.ID, domain.OrderShipped)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderShipped, updated.Status)

		loaded, err := env.stores.Orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderShipped, loaded.Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, "user-1", domain.OrderProcessing)

		updated, err := env.orders().UpdateStatus(ctx, order.ID, domain.OrderProcessing)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderProcessing, updated.Status)
	})

	t.Run("illegal transition conflicts", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, "user-1", domain.OrderDelivered)

		_, err := env.orders().UpdateStatus(ctx, order.ID, domain.OrderShipped)
		require.Error(t, err)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})

	t.Run("unknown status is invalid", func(t *testing.T) {
		env := newTestEnv(t)
		order := env.seedOrder(t, "user-1", domain.OrderProcessing)

		_, err := env.orders().UpdateStatus(ctx, order.ID, "MISPLACED")
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})
}
