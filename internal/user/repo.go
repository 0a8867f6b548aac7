package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)

	CreateAddress(ctx context.Context, a *ShippingAddress) error
	GetAddress(ctx context.Context, id string) (*ShippingAddress, error)
	ListAddresses(ctx context.Context, userID string) ([]ShippingAddress, error)
	DeleteAddress(ctx context.Context, id, userID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, u *User) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO users (id, name, email, password_hash, role, created_at)
    VALUES ($1,$2,$3,$4,$5,NOW())
  `, u.ID, u.Name, u.Email, u.PasswordHash, u.Role)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Conflictf("email %q already registered", u.Email)
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `
    SELECT id,name,email,password_hash,role,created_at FROM users WHERE id=$1
  `, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepo) CreateAddress(ctx context.Context, a *ShippingAddress) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO shipping_addresses (id, user_id, recipient_name, phone, address_line, city, district, ward, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
  `, a.ID, a.UserID, a.RecipientName, a.Phone, a.AddressLine, a.City, a.District, a.Ward)
	return err
}

func (r *PGRepo) GetAddress(ctx context.Context, id string) (*ShippingAddress, error) {
	var a ShippingAddress
	err := r.db.QueryRow(ctx, `
    SELECT id,user_id,recipient_name,phone,address_line,city,district,ward,created_at
    FROM shipping_addresses WHERE id=$1
  `, id).Scan(&a.ID, &a.UserID, &a.RecipientName, &a.Phone, &a.AddressLine, &a.City, &a.District, &a.Ward, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("shipping address not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PGRepo) ListAddresses(ctx context.Context, userID string) ([]ShippingAddress, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id,user_id,recipient_name,phone,address_line,city,district,ward,created_at
    FROM shipping_addresses WHERE user_id=$1 ORDER BY created_at DESC
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ShippingAddress
	for rows.Next() {
		var a ShippingAddress
		if err := rows.Scan(&a.ID, &a.UserID, &a.RecipientName, &a.Phone, &a.AddressLine, &a.City, &a.District, &a.Ward, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepo) DeleteAddress(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM shipping_addresses WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("shipping address not found")
	}
	return nil
}
