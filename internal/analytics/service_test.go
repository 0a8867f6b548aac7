package analytics

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

type stubRepo struct {
	counts   Counts
	byStatus map[string]map[string]int
	revenue  map[string]decimal.Decimal
	lines    map[string][]CompletedLine

	revenueCalls int
}

func (s *stubRepo) Counts(ctx context.Context) (Counts, error) { return s.counts, nil }

func (s *stubRepo) OrdersByStatus(ctx context.Context, shopID string) (map[string]int, error) {
	return s.byStatus[shopID], nil
}

func (s *stubRepo) Revenue(ctx context.Context, shopID string) (decimal.Decimal, error) {
	s.revenueCalls++
	return s.revenue[shopID], nil
}

func (s *stubRepo) CompletedLines(ctx context.Context, shopID string) ([]CompletedLine, error) {
	return s.lines[shopID], nil
}

func (s *stubRepo) RevenueByMonth(ctx context.Context, shopID string, months int) ([]MonthRevenue, error) {
	return []MonthRevenue{{Month: "2026-03", Revenue: s.revenue[shopID], Orders: 1}}, nil
}

func (s *stubRepo) TopProducts(ctx context.Context, shopID string, limit int) ([]TopProduct, error) {
	return nil, nil
}

func num(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		counts: Counts{Users: 10, Shops: 2, Products: 7, Orders: 4},
		byStatus: map[string]map[string]int{
			"":       {"pending": 1, "completed": 2, "cancelled": 1},
			"shop-a": {"completed": 2, "cancelled": 1},
		},
		revenue: map[string]decimal.Decimal{
			"":       num("750000"),
			"shop-a": num("450000"),
		},
		lines: map[string][]CompletedLine{
			// 150000 at 7% x3 = 31500, 50000 at 3% x2 = 3000
			"":       {{Price: num("150000"), Quantity: 3}, {Price: num("50000"), Quantity: 2}},
			"shop-a": {{Price: num("150000"), Quantity: 3}},
		},
	}
}

func TestAdminStats_AggregatesPlatformWide(t *testing.T) {
	svc := NewService(newStubRepo(), TieredPolicy{}, nil)

	stats, err := svc.AdminStats(context.Background())
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.TotalUsers != 10 || stats.TotalOrders != 4 {
		t.Fatalf("counts not carried: %+v", stats)
	}
	if !stats.TotalRevenue.Equal(num("750000")) {
		t.Fatalf("revenue=%s", stats.TotalRevenue)
	}
	if !stats.Commission.Equal(num("34500")) {
		t.Fatalf("commission=%s, expected 31500+3000", stats.Commission)
	}
	if stats.OrdersByStatus["completed"] != 2 {
		t.Fatalf("orders by status: %+v", stats.OrdersByStatus)
	}
}

func TestShopDashboard_NetRevenue(t *testing.T) {
	svc := NewService(newStubRepo(), TieredPolicy{}, nil)

	dash, err := svc.ShopDashboard(context.Background(), "shop-a")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.TotalOrders != 3 || dash.CompletedOrders != 2 || dash.CancelledOrders != 1 {
		t.Fatalf("order counts: %+v", dash)
	}
	if !dash.Revenue.Equal(num("450000")) {
		t.Fatalf("revenue=%s", dash.Revenue)
	}
	if !dash.Commission.Equal(num("31500")) {
		t.Fatalf("commission=%s", dash.Commission)
	}
	if !dash.NetRevenue.Equal(num("418500")) {
		t.Fatalf("net=%s, expected revenue minus commission", dash.NetRevenue)
	}
}

func TestService_NilCacheIsNoOp(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, TieredPolicy{}, nil)

	ctx := context.Background()
	if _, err := svc.AdminStats(ctx); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.AdminStats(ctx); err != nil {
		t.Fatalf("second call: %v", err)
	}
	// with caching disabled every call recomputes
	if repo.revenueCalls != 2 {
		t.Fatalf("revenueCalls=%d, expected recompute on every call", repo.revenueCalls)
	}
}
