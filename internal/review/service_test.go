package review

import (
	"context"
	"testing"
	"time"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/catalog"
)

type stubRepo struct {
	purchased map[string]bool
	reviewed  map[string]bool
	byID      map[string]*Review
	created   []*Review
	deleted   []string
}

func key(userID, productID string) string { return userID + "|" + productID }

func (s *stubRepo) Create(ctx context.Context, rv *Review) error {
	if s.reviewed[key(rv.UserID, rv.ProductID)] {
		return apperr.Conflictf("product already reviewed")
	}
	s.created = append(s.created, rv)
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, id string) (*Review, error) {
	rv, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("review not found")
	}
	return rv, nil
}

func (s *stubRepo) ListByProduct(ctx context.Context, productID string) ([]Review, error) {
	return nil, nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	return s.purchased[key(userID, productID)], nil
}

func (s *stubRepo) HasReviewed(ctx context.Context, userID, productID string) (bool, error) {
	return s.reviewed[key(userID, productID)], nil
}

type stubCatalog struct {
	products map[string]*catalog.Product
}

func (s *stubCatalog) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.NotFoundf("product not found")
	}
	return p, nil
}

func newFixture() (*Service, *stubRepo) {
	repo := &stubRepo{
		purchased: map[string]bool{key("buyer-1", "p1"): true},
		reviewed:  map[string]bool{},
		byID:      map[string]*Review{},
	}
	cat := &stubCatalog{products: map[string]*catalog.Product{
		"p1": {ID: "p1", ShopID: "shop-a", Name: "Kettle"},
	}}
	svc := NewService(repo, cat)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreate_RequiresCompletedPurchase(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, "stranger", "", CreateRequest{ProductID: "p1", Rating: 5})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden without purchase, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("nothing should be written")
	}

	rv, err := svc.Create(ctx, "buyer-1", "", CreateRequest{ProductID: "p1", Rating: 4, Comment: "solid"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rv.Rating != 4 || rv.ProductID != "p1" || rv.UserID != "buyer-1" {
		t.Fatalf("unexpected review %+v", rv)
	}
}

func TestCreate_RejectsBadRating(t *testing.T) {
	svc, _ := newFixture()
	for _, rating := range []int{0, -1, 6} {
		_, err := svc.Create(context.Background(), "buyer-1", "", CreateRequest{ProductID: "p1", Rating: rating})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func TestCreate_OwnProductForbidden(t *testing.T) {
	svc, _ := newFixture()
	_, err := svc.Create(context.Background(), "buyer-1", "shop-a", CreateRequest{ProductID: "p1", Rating: 5})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for own-shop product, got %v", err)
	}
}

func TestCreate_OncePerProduct(t *testing.T) {
	svc, repo := newFixture()
	repo.reviewed[key("buyer-1", "p1")] = true

	_, err := svc.Create(context.Background(), "buyer-1", "", CreateRequest{ProductID: "p1", Rating: 5})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for second review, got %v", err)
	}
}

func TestDelete_OwnerOrAdmin(t *testing.T) {
	svc, repo := newFixture()
	repo.byID["r1"] = &Review{ID: "r1", ProductID: "p1", UserID: "buyer-1"}
	ctx := context.Background()

	if err := svc.Delete(ctx, "buyer-2", "buyer", "r1"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if err := svc.Delete(ctx, "buyer-1", "buyer", "r1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := svc.Delete(ctx, "buyer-2", "admin", "r1"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if len(repo.deleted) != 2 {
		t.Fatalf("deleted=%v", repo.deleted)
	}
}
