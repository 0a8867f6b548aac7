package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Repository interface {
	// CreateWithStock commits one shop partition atomically: guarded
	// stock decrements, the order row, its item snapshots and the
	// voucher redemption either all land or none do.
	CreateWithStock(ctx context.Context, o *Order, items []Item, ops []StockOp) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	GetItemViews(ctx context.Context, orderID string) ([]ItemView, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListByShop(ctx context.Context, shopID string) ([]Order, error)
	ListAll(ctx context.Context, limit, offset int) ([]Order, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	// Transition moves the order along the forward machine; zero rows
	// means the order left the expected state.
	Transition(ctx context.Context, id string, from []string, to string) error
	// Complete stamps completed_at and bumps each line's sold counter,
	// exactly once per order.
	Complete(ctx context.Context, id string) error
	// Cancel restores stock, floors sold and hands the voucher back.
	Cancel(ctx context.Context, o *Order, items []Item) error
	// EditPending rewrites address/voucher/total while pending,
	// restoring and redeeming voucher uses in the same transaction.
	EditPending(ctx context.Context, o *Order, restoreVoucherID, redeemVoucherID *string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func decrementStock(ctx context.Context, tx pgx.Tx, op StockOp) error {
	var tag pgconn.CommandTag
	var err error
	if op.VariantID != nil {
		tag, err = tx.Exec(ctx, `
      UPDATE product_variants SET stock = stock - $2 WHERE id=$1 AND stock >= $2
    `, *op.VariantID, op.Quantity)
	} else {
		tag, err = tx.Exec(ctx, `
      UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2
    `, op.ProductID, op.Quantity)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("%q is out of stock", op.Name)
	}
	return nil
}

func redeemVoucher(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `
    UPDATE vouchers SET quantity = quantity - 1 WHERE id=$1 AND quantity > 0
  `, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("voucher is exhausted")
	}
	return nil
}

func restoreVoucher(ctx context.Context, tx pgx.Tx, id string) error {
	// never exceeds the issued amount
	_, err := tx.Exec(ctx, `
    UPDATE vouchers SET quantity = LEAST(quantity + 1, issued_quantity) WHERE id=$1
  `, id)
	return err
}

func (r *PGRepo) CreateWithStock(ctx context.Context, o *Order, items []Item, ops []StockOp) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, op := range ops {
		if err := decrementStock(ctx, tx, op); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, user_id, shop_id, shipping_address_id, status, total_price, voucher_id, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
  `, o.ID, o.UserID, o.ShopID, o.ShippingAddressID, o.Status, o.TotalPrice, o.VoucherID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, price)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, it.ID, o.ID, it.ProductID, it.VariantID, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	if o.VoucherID != nil {
		if err := redeemVoucher(ctx, tx, *o.VoucherID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const orderCols = `id,user_id,shop_id,shipping_address_id,status,total_price::text,voucher_id::text,completed_at,created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.ShopID, &o.ShippingAddressID, &o.Status,
		&o.TotalPrice, &o.VoucherID, &o.CompletedAt, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("order not found")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id,order_id,product_id,variant_id::text,quantity,price::text
    FROM order_items WHERE order_id=$1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) GetItemViews(ctx context.Context, orderID string) ([]ItemView, error) {
	rows, err := r.db.Query(ctx, `
    SELECT oi.id, oi.order_id, oi.product_id, oi.variant_id::text, oi.quantity, oi.price::text,
           p.name, COALESCE(v.name,''),
           COALESCE((SELECT url FROM product_images WHERE product_id = p.id ORDER BY position LIMIT 1), '/placeholder.jpg')
    FROM order_items oi
    JOIN products p ON p.id = oi.product_id
    LEFT JOIN product_variants v ON v.id = oi.variant_id
    WHERE oi.order_id=$1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ItemView
	for rows.Next() {
		var iv ItemView
		if err := rows.Scan(&iv.ID, &iv.OrderID, &iv.ProductID, &iv.VariantID, &iv.Quantity, &iv.Price,
			&iv.ProductName, &iv.VariantName, &iv.Image); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (r *PGRepo) listOrders(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.listOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *PGRepo) ListByShop(ctx context.Context, shopID string) ([]Order, error) {
	return r.listOrders(ctx, `SELECT `+orderCols+` FROM orders WHERE shop_id=$1 ORDER BY created_at DESC`, shopID)
}

func (r *PGRepo) ListAll(ctx context.Context, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return r.listOrders(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n)
	return n, err
}

func (r *PGRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *PGRepo) Transition(ctx context.Context, id string, from []string, to string) error {
	tag, err := r.db.Exec(ctx, `
    UPDATE orders SET status=$2 WHERE id=$1 AND status = ANY($3)
  `, id, to, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("order cannot move to %s", to)
	}
	return nil
}

func (r *PGRepo) Complete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// the completed_at stamp is the once-only guard for the sold bump
	tag, err := tx.Exec(ctx, `
    UPDATE orders SET status=$2, completed_at=NOW()
    WHERE id=$1 AND status = ANY($3) AND completed_at IS NULL
  `, id, StatusCompleted, []string{StatusProcessing, StatusShipped})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("order cannot move to completed")
	}
	// aggregate first: an order may carry several variant lines of the
	// same product, and UPDATE ... FROM applies only one matching row
	if _, err := tx.Exec(ctx, `
    UPDATE products p SET sold = p.sold + oi.total
    FROM (
      SELECT product_id, SUM(quantity) AS total
      FROM order_items WHERE order_id = $1 GROUP BY product_id
    ) oi
    WHERE oi.product_id = p.id
  `, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Cancel(ctx context.Context, o *Order, items []Item) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE orders SET status=$2 WHERE id=$1 AND status=$3
  `, o.ID, StatusCancelled, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("only pending orders can be cancelled")
	}
	for _, it := range items {
		if it.VariantID != nil {
			if _, err := tx.Exec(ctx, `
        UPDATE product_variants SET stock = stock + $2 WHERE id=$1
      `, *it.VariantID, it.Quantity); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx, `
        UPDATE products SET stock = stock + $2 WHERE id=$1
      `, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
      UPDATE products SET sold = GREATEST(sold - $2, 0) WHERE id=$1
    `, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	if o.VoucherID != nil {
		if err := restoreVoucher(ctx, tx, *o.VoucherID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) EditPending(ctx context.Context, o *Order, restoreVoucherID, redeemVoucherID *string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE orders SET shipping_address_id=$2, voucher_id=$3, total_price=$4
    WHERE id=$1 AND status=$5
  `, o.ID, o.ShippingAddressID, o.VoucherID, o.TotalPrice, StatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflictf("only pending orders can be edited")
	}
	if restoreVoucherID != nil {
		if err := restoreVoucher(ctx, tx, *restoreVoucherID); err != nil {
			return err
		}
	}
	if redeemVoucherID != nil {
		if err := redeemVoucher(ctx, tx, *redeemVoucherID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
