package payment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Repository interface {
	// InsertPaid records a confirmed payment. The unique
	// (order_id, txn_ref) index turns a replayed gateway callback into
	// inserted=false instead of a second record.
	InsertPaid(ctx context.Context, p *Payment) (inserted bool, err error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)

	CreateTxnMap(ctx context.Context, txnRef, orderID string) error
	// LookupTxn resolves a gateway transaction reference to the order
	// it was issued for.
	LookupTxn(ctx context.Context, txnRef string) (string, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) InsertPaid(ctx context.Context, p *Payment) (bool, error) {
	tag, err := r.db.Exec(ctx, `
    INSERT INTO payments (id, order_id, payment_method, amount, status, txn_ref, paid_at)
    VALUES ($1,$2,$3,$4,$5,$6,NOW())
    ON CONFLICT (order_id, txn_ref) DO NOTHING
  `, p.ID, p.OrderID, p.Method, p.Amount, StatusPaid, p.TxnRef)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PGRepo) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id,order_id,payment_method,amount::text,status,txn_ref,paid_at
    FROM payments WHERE order_id=$1 ORDER BY paid_at
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status, &p.TxnRef, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) CreateTxnMap(ctx context.Context, txnRef, orderID string) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO transaction_map (txn_ref, order_id, created_at) VALUES ($1,$2,NOW())
  `, txnRef, orderID)
	return err
}

func (r *PGRepo) LookupTxn(ctx context.Context, txnRef string) (string, error) {
	var orderID string
	err := r.db.QueryRow(ctx, `SELECT order_id::text FROM transaction_map WHERE txn_ref=$1`, txnRef).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFoundf("transaction not found")
	}
	if err != nil {
		return "", err
	}
	return orderID, nil
}
