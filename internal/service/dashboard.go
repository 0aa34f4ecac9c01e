package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/cache"
	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
)

// dashboardCacheKey and TTL for the aggregated dashboard payload. The
// numbers drive an internal admin page, so a minute of staleness is fine.
const (
	dashboardCacheKey = "ember:dashboard:v1"
	dashboardCacheTTL = time.Minute
)

// Dashboard is the back-office overview payload.
type Dashboard struct {
	TotalOrders    int64                `json:"totalOrders"`
	TotalProducts  int64                `json:"totalProducts"`
	TotalCustomers int64                `json:"totalCustomers"`
	TotalRevenue   float64              `json:"totalRevenue"`
	AverageOrder   float64              `json:"averageOrderValue"`
	OrdersByStatus []store.StatusCount  `json:"ordersByStatus"`
	TopProducts    []store.ProductSales `json:"topProducts"`
	RecentOrders   []model.Order        `json:"recentOrders"`
	RevenueByMonth []store.MonthRevenue `json:"revenueByMonth"`
	GeneratedAt    time.Time            `json:"generatedAt"`
}

// DashboardService aggregates the back-office overview.
type DashboardService interface {
	// Overview computes the dashboard, serving from cache when fresh.
	Overview(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	stats *store.StatsStore
	cache *cache.Cache
	log   zerolog.Logger
}

// NewDashboardService creates a DashboardService. cache may be nil.
func NewDashboardService(stats *store.StatsStore, c *cache.Cache, log zerolog.Logger) DashboardService {
	return &dashboardService{stats: stats, cache: c, log: log}
}

func (s *dashboardService) Overview(ctx context.Context) (*Dashboard, error) {
	var cached Dashboard
	if s.cache.Get(ctx, dashboardCacheKey, &cached) {
		return &cached, nil
	}

	d := &Dashboard{GeneratedAt: time.Now()}

	var err error
	if d.TotalOrders, err = s.stats.CountOrders(ctx); err != nil {
		return nil, err
	}
	if d.TotalProducts, err = s.stats.CountProducts(ctx); err != nil {
		return nil, err
	}
	if d.TotalCustomers, err = s.stats.CountUsers(ctx); err != nil {
		return nil, err
	}
	if d.TotalRevenue, err = s.stats.TotalRevenue(ctx); err != nil {
		return nil, err
	}
	if d.OrdersByStatus, err = s.stats.OrdersByStatus(ctx); err != nil {
		return nil, err
	}
	// Average order value over the orders that actually count toward
	// revenue.
	revenueOrders := d.TotalOrders
	for _, sc := range d.OrdersByStatus {
		if sc.Status == domain.OrderCancelled {
			revenueOrders -= sc.Count
		}
	}
	if revenueOrders > 0 {
		d.AverageOrder = d.TotalRevenue / float64(revenueOrders)
	}
	if d.TopProducts, err = s.stats.TopProducts(ctx, 5); err != nil {
		return nil, err
	}
	if d.RecentOrders, err = s.stats.RecentOrders(ctx, 5); err != nil {
		return nil, err
	}
	if d.RevenueByMonth, err = s.stats.MonthlyRevenue(ctx, 6, time.Now()); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, dashboardCacheKey, d, dashboardCacheTTL)
	return d, nil
}
