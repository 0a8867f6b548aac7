package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Counts struct {
	Users    int
	Shops    int
	Products int
	Orders   int
}

// CompletedLine is one order item of a completed order, priced as sold.
type CompletedLine struct {
	Price    decimal.Decimal
	Quantity int
}

// Repository reads aggregates. An empty shopID means platform-wide.
type Repository interface {
	Counts(ctx context.Context) (Counts, error)
	OrdersByStatus(ctx context.Context, shopID string) (map[string]int, error)
	Revenue(ctx context.Context, shopID string) (decimal.Decimal, error)
	CompletedLines(ctx context.Context, shopID string) ([]CompletedLine, error)
	RevenueByMonth(ctx context.Context, shopID string, months int) ([]MonthRevenue, error)
	TopProducts(ctx context.Context, shopID string, limit int) ([]TopProduct, error)
}

type PGRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{pool: pool}
}

func (r *PGRepo) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM shops WHERE status = 'approved'),
			(SELECT COUNT(*) FROM products WHERE status <> 'archived'),
			(SELECT COUNT(*) FROM orders)`).
		Scan(&c.Users, &c.Shops, &c.Products, &c.Orders)
	return c, err
}

func (r *PGRepo) OrdersByStatus(ctx context.Context, shopID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM orders
		WHERE ($1 = '' OR shop_id::text = $1)
		GROUP BY status`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *PGRepo) Revenue(ctx context.Context, shopID string) (decimal.Decimal, error) {
	var raw string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price), 0)::text FROM orders
		WHERE status = 'completed' AND ($1 = '' OR shop_id::text = $1)`, shopID).Scan(&raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

// CompletedLines feeds the commission computation, which tiers on each
// line's unit price.
func (r *PGRepo) CompletedLines(ctx context.Context, shopID string) ([]CompletedLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.price::text, oi.quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = 'completed' AND ($1 = '' OR o.shop_id::text = $1)`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CompletedLine
	for rows.Next() {
		var l CompletedLine
		var raw string
		if err := rows.Scan(&raw, &l.Quantity); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		l.Price = d
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGRepo) RevenueByMonth(ctx context.Context, shopID string, months int) ([]MonthRevenue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date_trunc('month', completed_at), 'YYYY-MM') AS month,
		       COALESCE(SUM(total_price), 0)::text,
		       COUNT(*)
		FROM orders
		WHERE status = 'completed'
		  AND completed_at >= date_trunc('month', now()) - make_interval(months => $2 - 1)
		  AND ($1 = '' OR shop_id::text = $1)
		GROUP BY 1
		ORDER BY 1`, shopID, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthRevenue
	for rows.Next() {
		var m MonthRevenue
		var raw string
		if err := rows.Scan(&m.Month, &raw, &m.Orders); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		m.Revenue = d
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGRepo) TopProducts(ctx context.Context, shopID string, limit int) ([]TopProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.product_id, p.name,
		       SUM(oi.quantity),
		       SUM(oi.price * oi.quantity)::text
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status = 'completed' AND ($1 = '' OR o.shop_id::text = $1)
		GROUP BY oi.product_id, p.name
		ORDER BY SUM(oi.quantity) DESC
		LIMIT $2`, shopID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var t TopProduct
		var raw string
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Sold, &raw); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		t.Revenue = d
		out = append(out, t)
	}
	return out, rows.Err()
}
