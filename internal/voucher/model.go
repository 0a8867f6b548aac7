package voucher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
)

const (
	TypePercent  = "percent"
	TypeAmount   = "amount"
	TypeFreeship = "freeship"
)

type Voucher struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Discount       decimal.Decimal `json:"discount"`
	Type           string          `json:"type"`
	Quantity       int             `json:"quantity"`
	IssuedQuantity int             `json:"issued_quantity"`
	ExpiresAt      time.Time       `json:"expires_at"`
	Description    string          `json:"description"`
	MinOrderValue  decimal.Decimal `json:"min_order_value"`
	MaxDiscount    decimal.Decimal `json:"max_discount"`
	ShopID         *string         `json:"shop_id,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ValidateFor checks redeemability against an order subtotal for a shop.
func (v *Voucher) ValidateFor(subtotal decimal.Decimal, shopID string, now time.Time) error {
	if now.After(v.ExpiresAt) {
		return apperr.Conflictf("voucher %q has expired", v.Code)
	}
	if v.Quantity <= 0 {
		return apperr.Conflictf("voucher %q is exhausted", v.Code)
	}
	if subtotal.LessThan(v.MinOrderValue) {
		return apperr.Conflictf("voucher %q requires a minimum order of %s", v.Code, v.MinOrderValue.String())
	}
	if v.ShopID != nil && *v.ShopID != shopID {
		return apperr.Conflictf("voucher %q is not valid for this shop", v.Code)
	}
	return nil
}

// DiscountFor computes the discount this voucher takes off subtotal.
// Percent vouchers are capped at MaxDiscount when set; every type is
// capped at the subtotal so the total never goes negative. Freeship
// vouchers affect shipping, not the order total.
func (v *Voucher) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch v.Type {
	case TypePercent:
		d = subtotal.Mul(v.Discount).Div(decimal.NewFromInt(100)).Round(2)
		if v.MaxDiscount.IsPositive() && d.GreaterThan(v.MaxDiscount) {
			d = v.MaxDiscount
		}
	case TypeAmount:
		d = v.Discount
	case TypeFreeship:
		d = decimal.Zero
	default:
		d = decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d
}
