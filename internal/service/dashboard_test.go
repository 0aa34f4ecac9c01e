package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

func TestDashboardOverview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	product, scent := env.seedCatalog(t)
	_, _, err := env.users().Signup(ctx, SignupParams{Email: "jamie@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)

	seed := []struct {
		id     string
		status domain.OrderStatus
		total  float64
	}{
		{"ord_a", domain.OrderProcessing, 30.00},
		{"ord_b", domain.OrderDelivered, 50.00},
		{"ord_c", domain.OrderCancelled, 99.00},
	}
	for _, o := range seed {
		order := &model.Order{
			ID:     o.id,
			UserID: "user-1",
			Status: o.status,
			Total:  o.total,
			Items: []model.OrderItem{{
				ProductID: product.ID,
				ScentID:   scent.ID,
				Quantity:  1,
				Price:     o.total,
				QRCode:    &model.QRCode{Code: GenerateQRCodeID()},
			}},
		}
		require.NoError(t, env.stores.Orders.CreateOrder(ctx, order))
	}

	svc := NewDashboardService(env.stores.Stats, nil, env.log)
	d, err := svc.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), d.TotalOrders)
	assert.Equal(t, int64(1), d.TotalProducts)
	assert.Equal(t, int64(1), d.TotalCustomers)
	// Cancelled orders count toward neither revenue nor the average.
	assert.Equal(t, 80.00, d.TotalRevenue)
	assert.Equal(t, 40.00, d.AverageOrder)

	byStatus := map[domain.OrderStatus]int64{}
	for _, sc := range d.OrdersByStatus {
		byStatus[sc.Status] = sc.Count
	}
	assert.Equal(t, int64(1), byStatus[domain.OrderCancelled])
	assert.Equal(t, int64(1), byStatus[domain.OrderDelivered])

	require.NotEmpty(t, d.TopProducts)
	assert.Equal(t, product.ID, d.TopProducts[0].ProductID)
	assert.Equal(t, int64(2), d.TopProducts[0].UnitsSold)

	assert.Len(t, d.RecentOrders, 3)
	require.Len(t, d.RevenueByMonth, 6)
	latest := d.RevenueByMonth[len(d.RevenueByMonth)-1]
	assert.Equal(t, 80.00, latest.Revenue)
	assert.Equal(t, int64(2), latest.Orders)
}
