package analytics

import "github.com/shopspring/decimal"

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type TopProduct struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Sold      int             `json:"sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// AdminStats is the platform-wide overview.
type AdminStats struct {
	TotalUsers     int             `json:"total_users"`
	TotalShops     int             `json:"total_shops"`
	TotalProducts  int             `json:"total_products"`
	TotalOrders    int             `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	Commission     decimal.Decimal `json:"commission"`
	OrdersByStatus map[string]int  `json:"orders_by_status"`
	RevenueByMonth []MonthRevenue  `json:"revenue_by_month"`
	TopProducts    []TopProduct    `json:"top_products"`
}

// ShopDashboard is a seller's view of their own shop.
type ShopDashboard struct {
	TotalOrders     int             `json:"total_orders"`
	CompletedOrders int             `json:"completed_orders"`
	CancelledOrders int             `json:"cancelled_orders"`
	Revenue         decimal.Decimal `json:"revenue"`
	Commission      decimal.Decimal `json:"commission"`
	NetRevenue      decimal.Decimal `json:"net_revenue"`
	RevenueByMonth  []MonthRevenue  `json:"revenue_by_month"`
	TopProducts     []TopProduct    `json:"top_products"`
}
