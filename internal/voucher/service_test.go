package voucher

import (
	"context"
	"testing"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type stubRepo struct {
	byID   map[string]*Voucher
	byCode map[string]*Voucher
}

func (s *stubRepo) Create(ctx context.Context, v *Voucher) error { return nil }
func (s *stubRepo) Update(ctx context.Context, v *Voucher) error { return nil }
func (s *stubRepo) Delete(ctx context.Context, id string) error  { return nil }

func (s *stubRepo) GetByID(ctx context.Context, id string) (*Voucher, error) {
	v, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFoundf("voucher not found")
	}
	return v, nil
}

func (s *stubRepo) GetByCode(ctx context.Context, code string) (*Voucher, error) {
	v, ok := s.byCode[code]
	if !ok {
		return nil, apperr.NotFoundf("voucher not found")
	}
	return v, nil
}

func (s *stubRepo) List(ctx context.Context, shopID string) ([]Voucher, error) { return nil, nil }

func TestLookup_ByCode(t *testing.T) {
	v := &Voucher{ID: "v1", Code: "SALE10", Type: TypePercent}
	svc := NewService(&stubRepo{
		byID:   map[string]*Voucher{"v1": v},
		byCode: map[string]*Voucher{"SALE10": v},
	})
	ctx := context.Background()

	got, err := svc.Lookup(ctx, "SALE10")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != "v1" {
		t.Fatalf("got %+v", got)
	}

	if _, err := svc.Lookup(ctx, "GHOST"); !apperr.IsNotFound(err) {
		t.Fatalf("unknown code: expected not found, got %v", err)
	}
	if _, err := svc.Lookup(ctx, ""); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("empty code: expected validation error, got %v", err)
	}
}

func TestAuthorize_SellerScope(t *testing.T) {
	shopA := "shop-a"
	repo := &stubRepo{byID: map[string]*Voucher{
		"global": {ID: "global", Code: "G"},
		"mine":   {ID: "mine", Code: "M", ShopID: &shopA},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "shop-a", "mine"); err != nil {
		t.Fatalf("own voucher: %v", err)
	}
	if _, err := svc.Get(ctx, "", "global"); err != nil {
		t.Fatalf("admin reads global: %v", err)
	}
	if _, err := svc.Get(ctx, "shop-a", "global"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("seller touching global voucher: expected forbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, "shop-b", "mine"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("foreign shop voucher: expected forbidden, got %v", err)
	}
}
