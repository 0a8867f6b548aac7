package review

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Delete(ctx context.Context, id string) error
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
	HasReviewed(ctx context.Context, userID, productID string) (bool, error)
}

type PGRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{pool: pool}
}

// Create inserts the review and refreshes the product's rating
// aggregates in the same transaction.
func (r *PGRepo) Create(ctx context.Context, rv *Review) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflictf("product already reviewed")
		}
		return err
	}
	if err := refreshAggregates(ctx, tx, rv.ProductID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Review, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM reviews WHERE id = $1`, id)
	var rv Review
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("review not found")
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *PGRepo) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.product_id, r.user_id, u.name, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Delete removes the review and refreshes the product's aggregates.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var productID string
	err = tx.QueryRow(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING product_id`, id).Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFoundf("review not found")
	}
	if err != nil {
		return err
	}
	if err := refreshAggregates(ctx, tx, productID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status = 'completed'
		)`, userID, productID).Scan(&ok)
	return ok, err
}

func (r *PGRepo) HasReviewed(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&ok)
	return ok, err
}

func refreshAggregates(ctx context.Context, tx pgx.Tx, productID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE products SET
			average_rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE product_id = $1), 0),
			review_count   = (SELECT COUNT(*) FROM reviews WHERE product_id = $1)
		WHERE id = $1`, productID)
	return err
}
