package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/database"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

func newOrder(id string, status domain.OrderStatus) *model.Order {
	return &model.Order{
		ID:              id,
		UserID:          "user-1",
		Status:          status,
		Total:           49.00,
		PaymentIntentID: "pi_test",
		Items: []model.OrderItem{{
			ProductID: "prod-1",
			ScentID:   "scent-1",
			Quantity:  2,
			Price:     24.50,
			QRCode:    &model.QRCode{Code: "qr_" + id},
		}},
		ShippingAddress: &model.Address{Street: "12 Wick Lane", City: "Portland", Country: "US"},
	}
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	stores := New(database.NewTestDB(t))

	require.NoError(t, stores.Orders.CreateOrder(ctx, newOrder("ord_1", domain.OrderProcessing)))

	// A second create for the same order ID hits the primary key.
	err := stores.Orders.CreateOrder(ctx, newOrder("ord_1", domain.OrderProcessing))
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	// The winner's aggregate is intact.
	order, err := stores.Orders.GetOrder(ctx, "ord_1")
	require.NoError(t, err)
	assert.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].QRCode)
	require.NotNil(t, order.ShippingAddress)
}

func TestGetOrderLoadsAggregate(t *testing.T) {
	ctx := context.Background()
	stores := New(database.NewTestDB(t))

	require.NoError(t, stores.Orders.CreateOrder(ctx, newOrder("ord_1", domain.OrderDelivered)))

	order, err := stores.Orders.GetOrder(ctx, "ord_1")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "qr_ord_1", order.Items[0].QRCode.Code)
	assert.Equal(t, "12 Wick Lane", order.ShippingAddress.Street)

	_, err = stores.Orders.GetOrder(ctx, "ord_missing")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	stores := New(database.NewTestDB(t))

	require.NoError(t, stores.Orders.CreateOrder(ctx, newOrder("ord_1", domain.OrderProcessing)))
	require.NoError(t, stores.Orders.CreateOrder(ctx, newOrder("ord_2", domain.OrderShipped)))
	other := newOrder("ord_3", domain.OrderProcessing)
	other.UserID = "user-2"
	other.Items[0].QRCode.Code = "qr_other"
	require.NoError(t, stores.Orders.CreateOrder(ctx, other))

	t.Run("by user", func(t *testing.T) {
		orders, err := stores.Orders.ListOrdersByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("by status", func(t *testing.T) {
		orders, total, err := stores.Orders.ListOrders(ctx, domain.OrderShipped, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, "ord_2", orders[0].ID)
	})

	t.Run("all statuses", func(t *testing.T) {
		_, total, err := stores.Orders.ListOrders(ctx, "", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})
}

func TestUpdateOrderStatusStore(t *testing.T) {
	ctx := context.Background()
	stores := New(database.NewTestDB(t))

	require.NoError(t, stores.Orders.CreateOrder(ctx, newOrder("ord_1", domain.OrderProcessing)))
	require.NoError(t, stores.Orders.UpdateOrderStatus(ctx, "ord_1", domain.OrderShipped))

	order, err := stores.Orders.GetOrder(ctx, "ord_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, order.Status)

	err = stores.Orders.UpdateOrderStatus(ctx, "ord_missing", domain.OrderShipped)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestStagedOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	stores := New(database.NewTestDB(t))

	tmp := &model.TemporaryOrder{
		OrderID:   "ord_tmp",
		UserID:    "guest",
		OrderData: `[{"productId":"p1"}]`,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, stores.Orders.StageOrder(ctx, tmp))

	got, err := stores.Orders.GetStagedOrder(ctx, "ord_tmp")
	require.NoError(t, err)
	assert.Equal(t, tmp.OrderData, got.OrderData)

	require.NoError(t, stores.Orders.DeleteStagedOrder(ctx, "ord_tmp"))
	_, err = stores.Orders.GetStagedOrder(ctx, "ord_tmp")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	// Deleting an already consumed record stays quiet.
	assert.NoError(t, stores.Orders.DeleteStagedOrder(ctx, "ord_tmp"))
}

func TestMarkRefundProcessing(t *testing.T) {
	ctx := context.Background()
	stores := New(database.NewTestDB(t))

	ret := &model.Return{
		OrderItemID:  "item-1",
		Reason:       "damaged",
		Status:       domain.ReturnApproved,
		RefundStatus: domain.RefundPending,
	}
	require.NoError(t, stores.Returns.CreateReturn(ctx, ret))

	claimed, err := stores.Returns.MarkRefundProcessing(ctx, ret.ID)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A second claim loses.
	claimed, err = stores.Returns.MarkRefundProcessing(ctx, ret.ID)
	require.NoError(t, err)
	assert.False(t, claimed)

	// A failed refund releases the claim for a retry.
	require.NoError(t, stores.Returns.RecordRefundResult(ctx, ret.ID, domain.RefundFailed, nil))
	claimed, err = stores.Returns.MarkRefundProcessing(ctx, ret.ID)
	require.NoError(t, err)
	assert.True(t, claimed)
}
