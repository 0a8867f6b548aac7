package voucher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/markethub/internal/apperr"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func percentVoucher() *Voucher {
	return &Voucher{
		ID:            "v1",
		Code:          "TEN",
		Type:          TypePercent,
		Discount:      dec("10"),
		Quantity:      3,
		MinOrderValue: dec("50000"),
		MaxDiscount:   dec("20000"),
		ExpiresAt:     testNow.Add(24 * time.Hour),
	}
}

func TestValidateFor_Expired(t *testing.T) {
	v := percentVoucher()
	v.ExpiresAt = testNow.Add(-time.Minute)
	err := v.ValidateFor(dec("100000"), "shop-a", testNow)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateFor_Exhausted(t *testing.T) {
	v := percentVoucher()
	v.Quantity = 0
	err := v.ValidateFor(dec("100000"), "shop-a", testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestValidateFor_BelowMinimum(t *testing.T) {
	v := percentVoucher()
	err := v.ValidateFor(dec("49999.99"), "shop-a", testNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minimum")
}

func TestValidateFor_ShopScope(t *testing.T) {
	v := percentVoucher()
	shop := "shop-a"
	v.ShopID = &shop

	require.NoError(t, v.ValidateFor(dec("100000"), "shop-a", testNow))
	err := v.ValidateFor(dec("100000"), "shop-b", testNow)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

// Two items of 100000 with a 10% voucher, minimum order 50000 and cap
// 20000: the raw discount 20000 hits the cap exactly, total 180000.
func TestDiscountFor_PercentWithCap(t *testing.T) {
	v := percentVoucher()
	subtotal := dec("200000")
	require.NoError(t, v.ValidateFor(subtotal, "shop-a", testNow))
	d := v.DiscountFor(subtotal)
	assert.True(t, d.Equal(dec("20000")), "got %s", d)
	assert.True(t, subtotal.Sub(d).Equal(dec("180000")))
}

func TestDiscountFor_PercentBelowCap(t *testing.T) {
	v := percentVoucher()
	d := v.DiscountFor(dec("60000"))
	assert.True(t, d.Equal(dec("6000")), "got %s", d)
}

func TestDiscountFor_PercentNoCapWhenUnset(t *testing.T) {
	v := percentVoucher()
	v.MaxDiscount = decimal.Zero
	d := v.DiscountFor(dec("1000000"))
	assert.True(t, d.Equal(dec("100000")), "got %s", d)
}

func TestDiscountFor_AmountCappedAtSubtotal(t *testing.T) {
	v := &Voucher{Type: TypeAmount, Discount: dec("80000")}
	d := v.DiscountFor(dec("60000"))
	assert.True(t, d.Equal(dec("60000")), "discount never exceeds subtotal, got %s", d)
}

func TestDiscountFor_FreeshipIsZero(t *testing.T) {
	v := &Voucher{Type: TypeFreeship, Discount: dec("15000")}
	d := v.DiscountFor(dec("200000"))
	assert.True(t, d.IsZero(), "freeship moves shipping, not the order total")
}
