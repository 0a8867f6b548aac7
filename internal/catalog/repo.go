package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type ProductRepo interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	SetStatus(ctx context.Context, id, status string) error

	GetVariant(ctx context.Context, id string) (*Variant, error)
	ListVariants(ctx context.Context, productID string) ([]Variant, error)
	CreateVariant(ctx context.Context, v *Variant) error
	UpdateVariant(ctx context.Context, v *Variant) error
	DeleteVariant(ctx context.Context, id string) error

	AddImage(ctx context.Context, img *Image) error
	ListImages(ctx context.Context, productID string) ([]Image, error)
	// FirstImages maps product id to its first image URL for the given ids.
	FirstImages(ctx context.Context, productIDs []string) (map[string]string, error)
}

type ShopRepo interface {
	Create(ctx context.Context, s *Shop) error
	GetByID(ctx context.Context, id string) (*Shop, error)
	GetByUser(ctx context.Context, userID string) (*Shop, error)
	List(ctx context.Context, status string) ([]Shop, error)
	SetStatus(ctx context.Context, id, status string) error
	ProductCount(ctx context.Context, shopID string) (int, error)
}

type CategoryRepo interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id string) (*Category, error)
}

type PGProductRepo struct{ db *pgxpool.Pool }

func NewPGProductRepo(db *pgxpool.Pool) *PGProductRepo { return &PGProductRepo{db: db} }

const productCols = `id,shop_id,category_id,name,description,price::text,stock,status,sold,average_rating::text,review_count,created_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.ShopID, &p.CategoryID, &p.Name, &p.Description,
		&p.Price, &p.Stock, &p.Status, &p.Sold, &p.AverageRating, &p.ReviewCount, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("product not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGProductRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO products (id, shop_id, category_id, name, description, price, stock, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
  `, p.ID, p.ShopID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.Status)
	return err
}

func (r *PGProductRepo) Update(ctx context.Context, p *Product) error {
	tag, err := r.db.Exec(ctx, `
    UPDATE products SET name=$2, description=$3, price=$4, stock=$5, category_id=$6, status=$7
    WHERE id=$1
  `, p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("product not found")
	}
	return nil
}

func (r *PGProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET status=$2 WHERE id=$1`, id, StatusArchived)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("product not found")
	}
	return nil
}

func (r *PGProductRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
}

func (r *PGProductRepo) List(ctx context.Context, q Query) ([]Product, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	rows, err := r.db.Query(ctx, `
    SELECT `+productCols+` FROM products
    WHERE ($1 = '' OR shop_id::text = $1)
      AND ($2 = '' OR category_id::text = $2)
      AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
      AND ($4 = '' OR status = $4)
      AND ($5::numeric IS NULL OR price >= $5::numeric)
      AND ($6::numeric IS NULL OR price <= $6::numeric)
    ORDER BY created_at DESC LIMIT $7 OFFSET $8
  `, q.ShopID, q.CategoryID, q.Q, q.Status, q.MinPrice, q.MaxPrice, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PGProductRepo) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("product not found")
	}
	return nil
}

func (r *PGProductRepo) GetVariant(ctx context.Context, id string) (*Variant, error) {
	var v Variant
	err := r.db.QueryRow(ctx, `
    SELECT id,product_id,name,attributes,price::text,discount,stock
    FROM product_variants WHERE id=$1
  `, id).Scan(&v.ID, &v.ProductID, &v.Name, &v.Attributes, &v.Price, &v.Discount, &v.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("variant not found")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PGProductRepo) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id,product_id,name,attributes,price::text,discount,stock
    FROM product_variants WHERE product_id=$1 ORDER BY name
  `, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Attributes, &v.Price, &v.Discount, &v.Stock); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PGProductRepo) CreateVariant(ctx context.Context, v *Variant) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO product_variants (id, product_id, name, attributes, price, discount, stock)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, v.ID, v.ProductID, v.Name, v.Attributes, v.Price, v.Discount, v.Stock)
	return err
}

func (r *PGProductRepo) UpdateVariant(ctx context.Context, v *Variant) error {
	tag, err := r.db.Exec(ctx, `
    UPDATE product_variants SET name=$2, attributes=$3, price=$4, discount=$5, stock=$6
    WHERE id=$1
  `, v.ID, v.Name, v.Attributes, v.Price, v.Discount, v.Stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("variant not found")
	}
	return nil
}

func (r *PGProductRepo) DeleteVariant(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("variant not found")
	}
	return nil
}

func (r *PGProductRepo) AddImage(ctx context.Context, img *Image) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO product_images (id, product_id, url, position) VALUES ($1,$2,$3,$4)
  `, img.ID, img.ProductID, img.URL, img.Position)
	return err
}

func (r *PGProductRepo) ListImages(ctx context.Context, productID string) ([]Image, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id,product_id,url,position FROM product_images WHERE product_id=$1 ORDER BY position
  `, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Position); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *PGProductRepo) FirstImages(ctx context.Context, productIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
    SELECT DISTINCT ON (product_id) product_id::text, url
    FROM product_images WHERE product_id = ANY($1::uuid[])
    ORDER BY product_id, position
  `, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, err
		}
		out[id] = url
	}
	return out, rows.Err()
}

type PGShopRepo struct{ db *pgxpool.Pool }

func NewPGShopRepo(db *pgxpool.Pool) *PGShopRepo { return &PGShopRepo{db: db} }

func (r *PGShopRepo) Create(ctx context.Context, s *Shop) error {
	_, err := r.db.Exec(ctx, `
    INSERT INTO shops (id, user_id, name, description, address, logo_url, status, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
  `, s.ID, s.UserID, s.Name, s.Description, s.Address, s.LogoURL, s.Status)
	return err
}

func scanShop(row pgx.Row) (*Shop, error) {
	var s Shop
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Address, &s.LogoURL, &s.Status, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("shop not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGShopRepo) GetByID(ctx context.Context, id string) (*Shop, error) {
	return scanShop(r.db.QueryRow(ctx, `
    SELECT id,user_id,name,description,address,logo_url,status,created_at FROM shops WHERE id=$1
  `, id))
}

func (r *PGShopRepo) GetByUser(ctx context.Context, userID string) (*Shop, error) {
	return scanShop(r.db.QueryRow(ctx, `
    SELECT id,user_id,name,description,address,logo_url,status,created_at FROM shops WHERE user_id=$1
  `, userID))
}

func (r *PGShopRepo) List(ctx context.Context, status string) ([]Shop, error) {
	rows, err := r.db.Query(ctx, `
    SELECT id,user_id,name,description,address,logo_url,status,created_at
    FROM shops WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC
  `, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PGShopRepo) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE shops SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("shop not found")
	}
	return nil
}

func (r *PGShopRepo) ProductCount(ctx context.Context, shopID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE shop_id=$1`, shopID).Scan(&n)
	return n, err
}

type PGCategoryRepo struct{ db *pgxpool.Pool }

func NewPGCategoryRepo(db *pgxpool.Pool) *PGCategoryRepo { return &PGCategoryRepo{db: db} }

func (r *PGCategoryRepo) Create(ctx context.Context, c *Category) error {
	_, err := r.db.Exec(ctx, `INSERT INTO categories (id, name, parent_id) VALUES ($1,$2,$3)`, c.ID, c.Name, c.ParentID)
	return err
}

func (r *PGCategoryRepo) Update(ctx context.Context, c *Category) error {
	tag, err := r.db.Exec(ctx, `UPDATE categories SET name=$2, parent_id=$3 WHERE id=$1`, c.ID, c.Name, c.ParentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("category not found")
	}
	return nil
}

func (r *PGCategoryRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("category not found")
	}
	return nil
}

func (r *PGCategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id,name,parent_id FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGCategoryRepo) GetByID(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id,name,parent_id FROM categories WHERE id=$1`, id).Scan(&c.ID, &c.Name, &c.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("category not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
