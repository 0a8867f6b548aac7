package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Repository interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	// SelectedLines returns only the lines matching the given keys.
	SelectedLines(ctx context.Context, userID string, keys []LineKey) ([]Line, error)
	Upsert(ctx context.Context, userID string, key LineKey, quantity int) error
	SetQuantity(ctx context.Context, userID string, key LineKey, quantity int) error
	Remove(ctx context.Context, userID string, key LineKey) error
	RemoveKeys(ctx context.Context, userID string, keys []LineKey) error
	Clear(ctx context.Context, userID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const lineQuery = `
    SELECT ci.product_id::text, p.name, p.price::text, p.shop_id::text, s.name,
           ci.variant_id::text, COALESCE(v.name,''), COALESCE(v.price,0)::text, ci.quantity
    FROM cart_items ci
    JOIN products p ON p.id = ci.product_id
    JOIN shops s ON s.id = p.shop_id
    LEFT JOIN product_variants v ON v.id = ci.variant_id
    WHERE ci.user_id = $1
    ORDER BY ci.updated_at`

func (r *PGRepo) Lines(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.db.Query(ctx, lineQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.ProductPrice, &l.ShopID, &l.ShopName,
			&l.VariantID, &l.VariantName, &l.VariantPrice, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PGRepo) SelectedLines(ctx context.Context, userID string, keys []LineKey) ([]Line, error) {
	all, err := r.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []Line
	for _, l := range all {
		for _, k := range keys {
			if k.Matches(l.ProductID, l.VariantID) {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

// nilUUID stands in for "no variant" inside the line-identity index.
const nilUUID = "00000000-0000-0000-0000-000000000000"

func (r *PGRepo) Upsert(ctx context.Context, userID string, key LineKey, quantity int) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO cart_items (id, user_id, product_id, variant_id, quantity, updated_at)
    VALUES ($1,$2,$3,$4,$5,NOW())
    ON CONFLICT (user_id, product_id, COALESCE(variant_id, '`+nilUUID+`'))
    DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
  `, uuid.NewString(), userID, key.ProductID, key.VariantID, quantity)
	return err
}

func (r *PGRepo) SetQuantity(ctx context.Context, userID string, key LineKey, quantity int) error {
	tag, err := r.db.Exec(ctx, `
    UPDATE cart_items SET quantity=$4, updated_at=NOW()
    WHERE user_id=$1 AND product_id=$2
      AND COALESCE(variant_id, '`+nilUUID+`'::uuid) = COALESCE($3::uuid, '`+nilUUID+`'::uuid)
  `, userID, key.ProductID, key.VariantID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("cart line not found")
	}
	return nil
}

func (r *PGRepo) Remove(ctx context.Context, userID string, key LineKey) error {
	// idempotent: removing an absent line is fine
	_, err := r.db.Exec(ctx, `
    DELETE FROM cart_items
    WHERE user_id=$1 AND product_id=$2
      AND COALESCE(variant_id, '`+nilUUID+`'::uuid) = COALESCE($3::uuid, '`+nilUUID+`'::uuid)
  `, userID, key.ProductID, key.VariantID)
	return err
}

func (r *PGRepo) RemoveKeys(ctx context.Context, userID string, keys []LineKey) error {
	for _, k := range keys {
		if err := r.Remove(ctx, userID, k); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
