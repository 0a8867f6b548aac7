package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/catalog"
	"github.com/MikeMC777/markethub/internal/user"
)

// CatalogSource resolves the reviewed product.
type CatalogSource interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type Service struct {
	repo    Repository
	catalog CatalogSource
	now     func() time.Time
}

func NewService(repo Repository, cat CatalogSource) *Service {
	return &Service{repo: repo, catalog: cat, now: time.Now}
}

type CreateRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

// Create accepts one review per product from buyers who completed an
// order containing it. Sellers cannot review their own products.
func (s *Service) Create(ctx context.Context, userID, callerShopID string, req CreateRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validationf("rating must be between 1 and 5")
	}
	p, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if callerShopID != "" && p.ShopID == callerShopID {
		return nil, apperr.Forbiddenf("cannot review your own product")
	}
	purchased, err := s.repo.HasPurchased(ctx, userID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, apperr.Forbiddenf("only completed purchases can be reviewed")
	}
	reviewed, err := s.repo.HasReviewed(ctx, userID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, apperr.Conflictf("product already reviewed")
	}
	rv := &Review{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *Service) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	return s.repo.ListByProduct(ctx, productID)
}

// Delete removes the caller's own review. Admins may delete any.
func (s *Service) Delete(ctx context.Context, userID, role, reviewID string) error {
	rv, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.UserID != userID && role != user.RoleAdmin {
		return apperr.Forbiddenf("not your review")
	}
	return s.repo.Delete(ctx, reviewID)
}
