package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

// StatusCount is one bucket of the orders-by-status breakdown.
type StatusCount struct {
	Status domain.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

// ProductSales is one row of the top-sellers ranking.
type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitsSold int64   `json:"unitsSold"`
	Revenue   float64 `json:"revenue"`
}

// MonthRevenue is one month's revenue bucket, oldest first.
type MonthRevenue struct {
	Month   string  `json:"month"` // "2026-08"
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
}

// StatsStore computes the dashboard aggregates. Revenue figures exclude
// cancelled orders.
type StatsStore struct {
	db *gorm.DB
}

func NewStatsStore(db *gorm.DB) *StatsStore {
	return &StatsStore{db: db}
}

// CountOrders returns the total number of orders.
func (s *StatsStore) CountOrders(ctx context.Context) (int64, error) {
	const op = "StatsStore.CountOrders"

	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Order{}).Count(&n).Error; err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

// CountProducts returns the total number of catalog products.
func (s *StatsStore) CountProducts(ctx context.Context) (int64, error) {
	const op = "StatsStore.CountProducts"

	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&n).Error; err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

// CountUsers returns the total number of user accounts.
func (s *StatsStore) CountUsers(ctx context.Context) (int64, error) {
	const op = "StatsStore.CountUsers"

	var n int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

// TotalRevenue sums order totals across all non-cancelled orders.
func (s *StatsStore) TotalRevenue(ctx context.Context) (float64, error) {
	const op = "StatsStore.TotalRevenue"

	var total float64
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("status <> ?", domain.OrderCancelled).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return total, nil
}

// OrdersByStatus returns the order count per status.
func (s *StatsStore) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	const op = "StatsStore.OrdersByStatus"

	var rows []StatusCount
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return rows, nil
}

// TopProducts ranks products by units sold across non-cancelled orders.
func (s *StatsStore) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	const op = "StatsStore.TopProducts"

	if limit < 1 {
		limit = 5
	}
	var rows []ProductSales
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id, COALESCE(products.name, '') AS name, SUM(order_items.quantity) AS units_sold, SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.status <> ?", domain.OrderCancelled).
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Group("order_items.product_id, products.name").
		Order("units_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return rows, nil
}

// RecentOrders returns the most recent orders with their items.
func (s *StatsStore) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	const op = "StatsStore.RecentOrders"

	if limit < 1 {
		limit = 5
	}
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return orders, nil
}

// MonthlyRevenue buckets non-cancelled orders from the last `months` calendar
// months by creation month, oldest first. Empty months are present with zero
// revenue. Bucketing happens in Go so the query stays portable across the
// production and test databases.
func (s *StatsStore) MonthlyRevenue(ctx context.Context, months int, now time.Time) ([]MonthRevenue, error) {
	const op = "StatsStore.MonthlyRevenue"

	if months < 1 {
		months = 6
	}
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, -(months - 1), 0)

	var orders []model.Order
	err := s.db.WithContext(ctx).
		Select("total", "status", "created_at").
		Where("created_at >= ? AND status <> ?", start, domain.OrderCancelled).
		Find(&orders).Error
	if err != nil {
		return nil, wrapErr(op, err)
	}

	buckets := make([]MonthRevenue, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		buckets[i] = MonthRevenue{Month: key}
		index[key] = i
	}
	for _, o := range orders {
		if i, ok := index[o.CreatedAt.Format("2006-01")]; ok {
			buckets[i].Revenue += o.Total
			buckets[i].Orders++
		}
	}
	return buckets, nil
}
