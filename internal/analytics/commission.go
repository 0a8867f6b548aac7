package analytics

import "github.com/shopspring/decimal"

// CommissionPolicy maps a sold unit's price to the platform's cut.
type CommissionPolicy interface {
	Rate(unitPrice decimal.Decimal) decimal.Decimal
}

// TieredPolicy charges by unit-price band. Cheap items pay a reduced
// rate, mid-range items the standard rate, and the top band a premium
// rate before falling back to standard above it.
type TieredPolicy struct{}

var (
	tierSmall = decimal.NewFromInt(100000)
	tierMid   = decimal.NewFromInt(400000)
	tierHigh  = decimal.NewFromInt(1000000)

	rateSmall    = decimal.NewFromFloat(0.03)
	rateStandard = decimal.NewFromFloat(0.07)
	ratePremium  = decimal.NewFromFloat(0.12)
)

func (TieredPolicy) Rate(unitPrice decimal.Decimal) decimal.Decimal {
	switch {
	case unitPrice.LessThan(tierSmall):
		return rateSmall
	case unitPrice.LessThanOrEqual(tierMid):
		return rateStandard
	case unitPrice.LessThanOrEqual(tierHigh):
		return ratePremium
	default:
		return rateStandard
	}
}

// CommissionFor is the fee for one completed order line.
func CommissionFor(p CommissionPolicy, unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(p.Rate(unitPrice)).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
