package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/billing"
	"github.com/wickshop/ember/internal/database"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

type testEnv struct {
	db      *gorm.DB
	stores  *store.Stores
	billing *billing.MockProvider
	metrics *telemetry.BusinessMetrics
	log     zerolog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := database.NewTestDB(t)
	return &testEnv{
		db:      db,
		stores:  store.New(db),
		billing: billing.NewMockProvider(),
		metrics: telemetry.NewBusinessMetricsWith(prometheus.NewRegistry(), ""),
		log:     zerolog.Nop(),
	}
}

func (e *testEnv) checkout() CheckoutService {
	return NewCheckoutService(e.stores.Catalog, e.stores.Orders, e.billing, CheckoutConfig{
		BaseURL:          "https://shop.example.com",
		AllowedCountries: []string{"US", "CA"},
	}, e.metrics, e.log)
}

func (e *testEnv) orders() OrderService {
	return NewOrderService(e.stores.Orders, e.stores.Catalog, e.billing, nil, e.metrics, "US", e.log)
}

func (e *testEnv) returns() ReturnService {
	return NewReturnService(e.stores.Returns, e.stores.Orders, e.billing, nil, e.metrics, e.log)
}

func (e *testEnv) users() UserService {
	return NewUserService(e.stores.Users, e.stores.Sessions, e.metrics, e.log)
}

// seedCatalog creates a category, a scent, and a product wired together.
func (e *testEnv) seedCatalog(t *testing.T) (*model.Product, *model.Scent) {
	t.Helper()
	ctx := context.Background()

	cat := &model.Category{Name: "Pillars", Icon: "flame"}
	require.NoError(t, e.stores.Catalog.CreateCategory(ctx, cat))

	scent := &model.Scent{Name: "Cedarwood", Color: "#8b5a2b"}
	require.NoError(t, e.stores.Catalog.CreateScent(ctx, scent))

	product := &model.Product{
		Name:       "Hearth Pillar",
		Price:      24.50,
		Images:     []string{"/img/hearth.jpg"},
		CategoryID: cat.ID,
		Scents:     []model.Scent{*scent},
	}
	require.NoError(t, e.stores.Catalog.CreateProduct(ctx, product))
	return product, scent
}

// seedOrder creates a paid order with one item, QR code, and address.
func (e *testEnv) seedOrder(t *testing.T, userID string, status domain.OrderStatus) *model.Order {
	t.Helper()
	ctx := context.Background()

	product, scent := e.seedCatalog(t)
	order := &model.Order{
		ID:              GenerateOrderID(),
		UserID:          userID,
		Status:          status,
		Total:           49.00,
		PaymentIntentID: "pi_test_123",
		Items: []model.OrderItem{{
			ProductID: product.ID,
			ScentID:   scent.ID,
			Quantity:  2,
			Price:     24.50,
			AudioURL:  "https://cdn.example.com/msg.mp3",
			QRCode:    &model.QRCode{Code: GenerateQRCodeID()},
		}},
		ShippingAddress: &model.Address{
			Street:  "12 Wick Lane",
			City:    "Portland",
			State:   "OR",
			ZipCode: "97201",
			Country: "US",
		},
	}
	require.NoError(t, e.stores.Orders.CreateOrder(ctx, order))

	loaded, err := e.stores.Orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	return loaded
}
