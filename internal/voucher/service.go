package voucher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
)

type Service struct{ repo Repository }

func NewService(repo Repository) *Service { return &Service{repo: repo} }

type Input struct {
	Code          string          `json:"code"`
	Discount      decimal.Decimal `json:"discount"`
	Type          string          `json:"type"`
	Quantity      int             `json:"quantity"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Description   string          `json:"description"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	MaxDiscount   decimal.Decimal `json:"max_discount"`
}

func validType(t string) bool {
	return t == TypePercent || t == TypeAmount || t == TypeFreeship
}

// Create scopes seller vouchers to their shop; admin vouchers are global.
func (s *Service) Create(ctx context.Context, createdBy string, sellerShopID string, in Input) (*Voucher, error) {
	if in.Code == "" {
		return nil, apperr.Validationf("code is required")
	}
	if !validType(in.Type) {
		return nil, apperr.Validationf("type must be percent, amount or freeship")
	}
	if in.Quantity < 1 {
		return nil, apperr.Validationf("quantity must be at least 1")
	}
	if in.Discount.IsNegative() {
		return nil, apperr.Validationf("discount must be non-negative")
	}
	v := &Voucher{
		ID:             uuid.NewString(),
		Code:           in.Code,
		Discount:       in.Discount,
		Type:           in.Type,
		Quantity:       in.Quantity,
		IssuedQuantity: in.Quantity,
		ExpiresAt:      in.ExpiresAt,
		Description:    in.Description,
		MinOrderValue:  in.MinOrderValue,
		MaxDiscount:    in.MaxDiscount,
		CreatedBy:      createdBy,
	}
	if sellerShopID != "" {
		shopID := sellerShopID
		v.ShopID = &shopID
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Update(ctx context.Context, sellerShopID, id string, in Input) (*Voucher, error) {
	v, err := s.authorize(ctx, sellerShopID, id)
	if err != nil {
		return nil, err
	}
	if in.Type != "" {
		if !validType(in.Type) {
			return nil, apperr.Validationf("type must be percent, amount or freeship")
		}
		v.Type = in.Type
	}
	if !in.Discount.IsZero() {
		v.Discount = in.Discount
	}
	if !in.ExpiresAt.IsZero() {
		v.ExpiresAt = in.ExpiresAt
	}
	if in.Description != "" {
		v.Description = in.Description
	}
	v.MinOrderValue = in.MinOrderValue
	v.MaxDiscount = in.MaxDiscount
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, sellerShopID, id string) error {
	if _, err := s.authorize(ctx, sellerShopID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, sellerShopID, id string) (*Voucher, error) {
	return s.authorize(ctx, sellerShopID, id)
}

// Lookup resolves a voucher by its public code, for buyers checking a
// code before checkout.
func (s *Service) Lookup(ctx context.Context, code string) (*Voucher, error) {
	if code == "" {
		return nil, apperr.Validationf("code is required")
	}
	return s.repo.GetByCode(ctx, code)
}

// List returns the seller's vouchers, or everything for admins
// (empty sellerShopID).
func (s *Service) List(ctx context.Context, sellerShopID string) ([]Voucher, error) {
	return s.repo.List(ctx, sellerShopID)
}

// authorize loads the voucher and enforces the seller scope: sellers can
// touch only vouchers of their own shop, never global ones. Admins pass
// an empty sellerShopID.
func (s *Service) authorize(ctx context.Context, sellerShopID, id string) (*Voucher, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sellerShopID == "" {
		return v, nil
	}
	if v.ShopID == nil {
		return nil, apperr.Forbiddenf("cannot manage a global voucher")
	}
	if *v.ShopID != sellerShopID {
		return nil, apperr.Forbiddenf("voucher belongs to another shop")
	}
	return v, nil
}
