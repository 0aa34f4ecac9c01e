package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

func TestCreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("stages order and opens session", func(t *testing.T) {
		env := newTestEnv(t)
		product, scent := env.seedCatalog(t)
		svc := env.checkout()

		cart := domain.Cart{Lines: []domain.CartLine{{
			ProductID: product.ID,
			ScentID:   scent.ID,
			Quantity:  2,
			UnitPrice: 24.50,
			AudioURL:  "https://cdn.example.com/msg.mp3",
		}}}

		info, err := svc.CreateSession(ctx, "user-1", cart)
		require.NoError(t, err)
		assert.NotEmpty(t, info.SessionID)
		assert.NotEmpty(t, info.URL)
		assert.Contains(t, info.OrderID, "ord_")

		sess := env.billing.Sessions[info.SessionID]
		require.NotNil(t, sess)
		assert.Equal(t, int64(4900), sess.AmountTotalCents)
		assert.Equal(t, info.OrderID, sess.Metadata["orderId"])
		assert.Equal(t, "user-1", sess.Metadata["userId"])

		tmp, err := env.stores.Orders.GetStagedOrder(ctx, info.OrderID)
		require.NoError(t, err)
		assert.Equal(t, "user-1", tmp.UserID)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), tmp.ExpiresAt, time.Minute)

		var staged []model.StagedItem
		require.NoError(t, json.Unmarshal([]byte(tmp.OrderData), &staged))
		require.Len(t, staged, 1)
		assert.Equal(t, product.ID, staged[0].ProductID)
		assert.Equal(t, 24.50, staged[0].UnitPrice)
		assert.Equal(t, "https://cdn.example.com/msg.mp3", staged[0].AudioURL)
		assert.Contains(t, staged[0].QRCodeID, "qr_")
	})

	t.Run("guest checkout when no user", func(t *testing.T) {
		env := newTestEnv(t)
		product, scent := env.seedCatalog(t)
		svc := env.checkout()

		cart := domain.Cart{Lines: []domain.CartLine{{
			ProductID: product.ID, ScentID: scent.ID, Quantity: 1, UnitPrice: 24.50,
		}}}
		info, err := svc.CreateSession(ctx, "", cart)
		require.NoError(t, err)

		tmp, err := env.stores.Orders.GetStagedOrder(ctx, info.OrderID)
		require.NoError(t, err)
		assert.Equal(t, GuestUserID, tmp.UserID)
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.checkout()

		_, err := svc.CreateSession(ctx, "user-1", domain.Cart{})
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
	})

	t.Run("rejects unknown catalog references", func(t *testing.T) {
		env := newTestEnv(t)
		product, _ := env.seedCatalog(t)
		svc := env.checkout()

		cart := domain.Cart{Lines: []domain.CartLine{{
			ProductID: product.ID, ScentID: "missing-scent", Quantity: 1, UnitPrice: 24.50,
		}}}
		_, err := svc.CreateSession(ctx, "user-1", cart)
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.Contains(t, domain.ErrorMessage(err), "scent:missing-scent")
	})

	t.Run("gateway failure removes staging record", func(t *testing.T) {
		env := newTestEnv(t)
		product, scent := env.seedCatalog(t)
		env.billing.CreateCheckoutSessionFunc = func(ctx context.Context, params billing.CreateCheckoutSessionParams) (*billing.CheckoutSession, error) {
			return nil, errors.New("gateway down")
		}
		svc := env.checkout()

		cart := domain.Cart{Lines: []domain.CartLine{{
			ProductID: product.ID, ScentID: scent.ID, Quantity: 1, UnitPrice: 24.50,
		}}}
		_, err := svc.CreateSession(ctx, "user-1", cart)
		require.Error(t, err)
		assert.Equal(t, domain.EPAYMENT, domain.ErrorCode(err))

		n, err := env.stores.Orders.DeleteExpiredStagedOrders(ctx, time.Now().Add(48*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestSweepExpiredStagedOrders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.checkout()

	stale := &model.TemporaryOrder{
		OrderID:   "ord_stale",
		UserID:    GuestUserID,
		OrderData: "[]",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	fresh := &model.TemporaryOrder{
		OrderID:   "ord_fresh",
		UserID:    GuestUserID,
		OrderData: "[]",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, env.stores.Orders.StageOrder(ctx, stale))
	require.NoError(t, env.stores.Orders.StageOrder(ctx, fresh))

	n, err := svc.SweepExpiredStagedOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.stores.Orders.GetStagedOrder(ctx, "ord_fresh")
	assert.NoError(t, err)
	_, err = env.stores.Orders.GetStagedOrder(ctx, "ord_stale")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestToCents(t *testing.T) {
	tests := []struct {
		dollars float64
		cents   int64
	}{
		{24.50, 2450},
		{0.1, 10},
		{19.99, 1999},
		{29.35, 2935},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.cents, ToCents(tt.dollars))
	}
	assert.Equal(t, 24.50, FromCents(2450))
}
