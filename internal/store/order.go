package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

// OrderStore persists orders, their items, and the checkout staging records.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// StageOrder inserts the checkout staging record.
func (s *OrderStore) StageOrder(ctx context.Context, tmp *model.TemporaryOrder) error {
	const op = "OrderStore.StageOrder"

	if err := s.db.WithContext(ctx).Create(tmp).Error; err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetStagedOrder loads a staging record by its order ID.
func (s *OrderStore) GetStagedOrder(ctx context.Context, orderID string) (*model.TemporaryOrder, error) {
	const op = "OrderStore.GetStagedOrder"

	var tmp model.TemporaryOrder
	err := s.db.WithContext(ctx).First(&tmp, "order_id = ?", orderID).Error
	if IsNotFound(err) {
		return nil, domain.ErrStagedOrderNotFound
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &tmp, nil
}

// DeleteStagedOrder removes a staging record. Deleting an absent record is
// not an error.
func (s *OrderStore) DeleteStagedOrder(ctx context.Context, orderID string) error {
	const op = "OrderStore.DeleteStagedOrder"

	err := s.db.WithContext(ctx).
		Delete(&model.TemporaryOrder{}, "order_id = ?", orderID).Error
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// DeleteExpiredStagedOrders removes staging records past their expiry and
// returns the count removed.
func (s *OrderStore) DeleteExpiredStagedOrders(ctx context.Context, now time.Time) (int64, error) {
	const op = "OrderStore.DeleteExpiredStagedOrders"

	res := s.db.WithContext(ctx).
		Delete(&model.TemporaryOrder{}, "expires_at < ?", now)
	if res.Error != nil {
		return 0, wrapErr(op, res.Error)
	}
	return res.RowsAffected, nil
}

// CreateOrder inserts an order with its items, QR codes, and shipping address
// in one transaction. A duplicate primary key means the order was already
// materialized by a concurrent writer; the caller re-fetches.
func (s *OrderStore) CreateOrder(ctx context.Context, order *model.Order) error {
	const op = "OrderStore.CreateOrder"

	err := s.db.WithContext(ctx).Create(order).Error
	if IsDuplicateKey(err) {
		return domain.Conflict(op, "Order already exists")
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetOrder loads an order with its items, their products, QR codes,
// returns, and shipping address.
func (s *OrderStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	const op = "OrderStore.GetOrder"

	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Preload("Items.QRCode").Preload("Items.Return").
		Preload("ShippingAddress").
		First(&order, "id = ?", id).Error
	if IsNotFound(err) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &order, nil
}

// ListOrdersByUser returns a user's orders, newest first.
func (s *OrderStore) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	const op = "OrderStore.ListOrdersByUser"

	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").Preload("Items.QRCode").Preload("Items.Return").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return orders, nil
}

// ListOrders returns one page of all orders, optionally filtered by status.
func (s *OrderStore) ListOrders(ctx context.Context, status domain.OrderStatus, page, perPage int) ([]model.Order, int64, error) {
	const op = "OrderStore.ListOrders"

	q := s.db.WithContext(ctx).Model(&model.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrapErr(op, err)
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var orders []model.Order
	err := q.Preload("Items").Preload("ShippingAddress").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&orders).Error
	if err != nil {
		return nil, 0, wrapErr(op, err)
	}
	return orders, total, nil
}

// UpdateOrderStatus sets an order's status unconditionally. Legality of the
// transition is the service's responsibility.
func (s *OrderStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	const op = "OrderStore.UpdateOrderStatus"

	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return wrapErr(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// GetOrderItem loads one order item with its parent order and QR code.
func (s *OrderStore) GetOrderItem(ctx context.Context, id string) (*model.OrderItem, error) {
	const op = "OrderStore.GetOrderItem"

	var item model.OrderItem
	err := s.db.WithContext(ctx).
		Preload("QRCode").Preload("Return").
		First(&item, "id = ?", id).Error
	if IsNotFound(err) {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "Order item not found")
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &item, nil
}
