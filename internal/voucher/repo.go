package voucher

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Repository interface {
	Create(ctx context.Context, v *Voucher) error
	Update(ctx context.Context, v *Voucher) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Voucher, error)
	GetByCode(ctx context.Context, code string) (*Voucher, error)
	List(ctx context.Context, shopID string) ([]Voucher, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const cols = `id,code,discount::text,type,quantity,issued_quantity,expires_at,description,min_order_value::text,max_discount::text,shop_id::text,created_by,created_at`

func scan(row pgx.Row) (*Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.Code, &v.Discount, &v.Type, &v.Quantity, &v.IssuedQuantity,
		&v.ExpiresAt, &v.Description, &v.MinOrderValue, &v.MaxDiscount, &v.ShopID, &v.CreatedBy, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("voucher not found")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PGRepo) Create(ctx context.Context, v *Voucher) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO vouchers (id, code, discount, type, quantity, issued_quantity, expires_at,
                          description, min_order_value, max_discount, shop_id, created_by, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW())
  `, v.ID, v.Code, v.Discount, v.Type, v.Quantity, v.IssuedQuantity, v.ExpiresAt,
		v.Description, v.MinOrderValue, v.MaxDiscount, v.ShopID, v.CreatedBy)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflictf("voucher code %q already exists", v.Code)
	}
	return err
}

func (r *PGRepo) Update(ctx context.Context, v *Voucher) error {
	tag, err := r.db.Exec(ctx, `
    UPDATE vouchers SET discount=$2, type=$3, expires_at=$4, description=$5,
                        min_order_value=$6, max_discount=$7
    WHERE id=$1
  `, v.ID, v.Discount, v.Type, v.ExpiresAt, v.Description, v.MinOrderValue, v.MaxDiscount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("voucher not found")
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vouchers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("voucher not found")
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Voucher, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+cols+` FROM vouchers WHERE id=$1`, id))
}

func (r *PGRepo) GetByCode(ctx context.Context, code string) (*Voucher, error) {
	return scan(r.db.QueryRow(ctx, `SELECT `+cols+` FROM vouchers WHERE code=$1`, code))
}

func (r *PGRepo) List(ctx context.Context, shopID string) ([]Voucher, error) {
	rows, err := r.db.Query(ctx, `
    SELECT `+cols+` FROM vouchers
    WHERE ($1 = '' OR shop_id::text = $1)
    ORDER BY created_at DESC
  `, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Voucher
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}
