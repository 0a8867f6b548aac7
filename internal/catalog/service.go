package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Service struct {
	products ProductRepo
	shops    ShopRepo
	cats     CategoryRepo
}

func NewService(products ProductRepo, shops ShopRepo, cats CategoryRepo) *Service {
	return &Service{products: products, shops: shops, cats: cats}
}

type ProductInput struct {
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func (in ProductInput) validate() error {
	if in.Name == "" {
		return apperr.Validationf("name is required")
	}
	if in.CategoryID == "" {
		return apperr.Validationf("category_id is required")
	}
	if in.Price.IsNegative() || in.Price.IsZero() {
		return apperr.Validationf("price must be positive")
	}
	if in.Stock < 0 {
		return apperr.Validationf("stock must be non-negative")
	}
	return nil
}

// CreateProduct registers a seller's product awaiting admin approval.
func (s *Service) CreateProduct(ctx context.Context, sellerShopID string, in ProductInput) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	shop, err := s.shops.GetByID(ctx, sellerShopID)
	if err != nil {
		return nil, err
	}
	if shop.Status != ShopApproved {
		return nil, apperr.Conflictf("shop %q is not approved", shop.Name)
	}
	if _, err := s.cats.GetByID(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	p := &Product{
		ID:          uuid.NewString(),
		ShopID:      sellerShopID,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Status:      StatusPendingApproval,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, sellerShopID, productID string, in ProductInput) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.ShopID != sellerShopID {
		return nil, apperr.Forbiddenf("product belongs to another shop")
	}
	p.CategoryID = in.CategoryID
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, sellerShopID, productID string) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.ShopID != sellerShopID {
		return apperr.Forbiddenf("product belongs to another shop")
	}
	return s.products.Delete(ctx, productID)
}

// ReviewProduct is the admin approve/reject decision.
func (s *Service) ReviewProduct(ctx context.Context, productID string, approve bool) error {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.Status != StatusPendingApproval {
		return apperr.Conflictf("product %q is not awaiting approval", p.Name)
	}
	status := StatusOffSale
	if approve {
		status = StatusOnSale
	}
	return s.products.SetStatus(ctx, productID, status)
}

type ProductDetail struct {
	Product  Product   `json:"product"`
	Images   []Image   `json:"images"`
	Variants []Variant `json:"variants"`
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *Service) GetVariant(ctx context.Context, id string) (*Variant, error) {
	return s.products.GetVariant(ctx, id)
}

func (s *Service) GetProductDetail(ctx context.Context, id string) (*ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	imgs, err := s.products.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	vars, err := s.products.ListVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range vars {
		vars[i].FinalPrice = vars[i].EffectivePrice()
	}
	return &ProductDetail{Product: *p, Images: imgs, Variants: vars}, nil
}

func (s *Service) ListProducts(ctx context.Context, q Query) ([]Product, error) {
	return s.products.List(ctx, q)
}

type VariantInput struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Price      decimal.Decimal   `json:"price"`
	Discount   int               `json:"discount"`
	Stock      int               `json:"stock"`
}

func (s *Service) CreateVariant(ctx context.Context, sellerShopID, productID string, in VariantInput) (*Variant, error) {
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if in.Price.IsNegative() || in.Price.IsZero() {
		return nil, apperr.Validationf("price must be positive")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return nil, apperr.Validationf("discount must be between 0 and 100")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.ShopID != sellerShopID {
		return nil, apperr.Forbiddenf("product belongs to another shop")
	}
	v := &Variant{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Name:       in.Name,
		Attributes: in.Attributes,
		Price:      in.Price,
		Discount:   in.Discount,
		Stock:      in.Stock,
	}
	if v.Attributes == nil {
		v.Attributes = map[string]string{}
	}
	if err := s.products.CreateVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) UpdateVariant(ctx context.Context, sellerShopID, variantID string, in VariantInput) (*Variant, error) {
	v, err := s.products.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, v.ProductID)
	if err != nil {
		return nil, err
	}
	if p.ShopID != sellerShopID {
		return nil, apperr.Forbiddenf("product belongs to another shop")
	}
	v.Name = in.Name
	v.Attributes = in.Attributes
	v.Price = in.Price
	v.Discount = in.Discount
	v.Stock = in.Stock
	if err := s.products.UpdateVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) DeleteVariant(ctx context.Context, sellerShopID, variantID string) error {
	v, err := s.products.GetVariant(ctx, variantID)
	if err != nil {
		return err
	}
	p, err := s.products.GetByID(ctx, v.ProductID)
	if err != nil {
		return err
	}
	if p.ShopID != sellerShopID {
		return apperr.Forbiddenf("product belongs to another shop")
	}
	return s.products.DeleteVariant(ctx, variantID)
}

type ImageInput struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// AddProductImage registers an already-hosted image URL for the product.
func (s *Service) AddProductImage(ctx context.Context, sellerShopID, productID string, in ImageInput) (*Image, error) {
	if in.URL == "" {
		return nil, apperr.Validationf("url is required")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.ShopID != sellerShopID {
		return nil, apperr.Forbiddenf("product belongs to another shop")
	}
	img := &Image{ID: uuid.NewString(), ProductID: productID, URL: in.URL, Position: in.Position}
	if err := s.products.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

type ShopInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	LogoURL     string `json:"logo_url"`
}

// ApplyShop opens a shop application; it stays pending until an admin
// decides. A user carries at most one shop.
func (s *Service) ApplyShop(ctx context.Context, userID string, in ShopInput) (*Shop, error) {
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if existing, err := s.shops.GetByUser(ctx, userID); err == nil && existing != nil {
		return nil, apperr.Conflictf("user already has shop %q", existing.Name)
	} else if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	shop := &Shop{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Address:     in.Address,
		LogoURL:     in.LogoURL,
		Status:      ShopPending,
	}
	if err := s.shops.Create(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

func (s *Service) ReviewShop(ctx context.Context, shopID string, approve bool) error {
	shop, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return err
	}
	if shop.Status != ShopPending {
		return apperr.Conflictf("shop %q is not pending", shop.Name)
	}
	status := ShopRejected
	if approve {
		status = ShopApproved
	}
	return s.shops.SetStatus(ctx, shopID, status)
}

type ShopDetail struct {
	Shop         Shop `json:"shop"`
	ProductCount int  `json:"product_count"`
}

func (s *Service) GetShop(ctx context.Context, id string) (*ShopDetail, error) {
	shop, err := s.shops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.shops.ProductCount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ShopDetail{Shop: *shop, ProductCount: n}, nil
}

func (s *Service) ListShops(ctx context.Context, status string) ([]Shop, error) {
	return s.shops.List(ctx, status)
}

type CategoryInput struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if in.ParentID != nil {
		if _, err := s.cats.GetByID(ctx, *in.ParentID); err != nil {
			return nil, err
		}
	}
	c := &Category{ID: uuid.NewString(), Name: in.Name, ParentID: in.ParentID}
	if err := s.cats.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*Category, error) {
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	c, err := s.cats.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = in.Name
	c.ParentID = in.ParentID
	if err := s.cats.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.cats.GetByID(ctx, id); err != nil {
		return err
	}
	return s.cats.Delete(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.cats.List(ctx)
}
