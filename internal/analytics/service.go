package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/cache"
)

const (
	dashboardTTL  = 5 * time.Minute
	defaultMonths = 12
	adminTopN     = 10
	shopTopN      = 5
)

type Service struct {
	repo   Repository
	policy CommissionPolicy
	cache  *cache.Cache
}

func NewService(repo Repository, policy CommissionPolicy, c *cache.Cache) *Service {
	return &Service{repo: repo, policy: policy, cache: c}
}

func (s *Service) AdminStats(ctx context.Context) (*AdminStats, error) {
	var cached AdminStats
	if err := s.cache.Get(ctx, "stats:admin", &cached); err == nil {
		return &cached, nil
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.OrdersByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	revenue, commission, err := s.revenueAndCommission(ctx, "")
	if err != nil {
		return nil, err
	}
	byMonth, err := s.repo.RevenueByMonth(ctx, "", defaultMonths)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, "", adminTopN)
	if err != nil {
		return nil, err
	}

	stats := &AdminStats{
		TotalUsers:     counts.Users,
		TotalShops:     counts.Shops,
		TotalProducts:  counts.Products,
		TotalOrders:    counts.Orders,
		TotalRevenue:   revenue,
		Commission:     commission,
		OrdersByStatus: byStatus,
		RevenueByMonth: byMonth,
		TopProducts:    top,
	}
	s.cache.Set(ctx, "stats:admin", stats, dashboardTTL)
	return stats, nil
}

func (s *Service) ShopDashboard(ctx context.Context, shopID string) (*ShopDashboard, error) {
	key := "stats:shop:" + shopID
	var cached ShopDashboard
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	byStatus, err := s.repo.OrdersByStatus(ctx, shopID)
	if err != nil {
		return nil, err
	}
	revenue, commission, err := s.revenueAndCommission(ctx, shopID)
	if err != nil {
		return nil, err
	}
	byMonth, err := s.repo.RevenueByMonth(ctx, shopID, defaultMonths)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, shopID, shopTopN)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}
	dash := &ShopDashboard{
		TotalOrders:     total,
		CompletedOrders: byStatus["completed"],
		CancelledOrders: byStatus["cancelled"],
		Revenue:         revenue,
		Commission:      commission,
		NetRevenue:      revenue.Sub(commission),
		RevenueByMonth:  byMonth,
		TopProducts:     top,
	}
	s.cache.Set(ctx, key, dash, dashboardTTL)
	return dash, nil
}

// revenueAndCommission sums completed order totals and applies the
// commission policy line by line, since the rate tiers on unit price.
func (s *Service) revenueAndCommission(ctx context.Context, shopID string) (decimal.Decimal, decimal.Decimal, error) {
	revenue, err := s.repo.Revenue(ctx, shopID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	lines, err := s.repo.CompletedLines(ctx, shopID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	commission := decimal.Zero
	for _, l := range lines {
		commission = commission.Add(CommissionFor(s.policy, l.Price, l.Quantity))
	}
	return revenue, commission, nil
}
