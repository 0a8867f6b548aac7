package cart

import "github.com/shopspring/decimal"

// LineKey identifies a cart line: the (product, variant) pair.
type LineKey struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId,omitempty"`
}

func (k LineKey) variantOrNil() string {
	if k.VariantID == nil {
		return ""
	}
	return *k.VariantID
}

// Matches compares pairs treating a missing variant as part of the key.
func (k LineKey) Matches(productID string, variantID *string) bool {
	if k.ProductID != productID {
		return false
	}
	other := ""
	if variantID != nil {
		other = *variantID
	}
	return k.variantOrNil() == other
}

// Line is one joined cart row: the stored line plus the product, shop
// and variant columns every view of the cart needs.
type Line struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ShopID       string          `json:"shop_id"`
	ShopName     string          `json:"shop_name"`
	VariantID    *string         `json:"variant_id,omitempty"`
	VariantName  string          `json:"variant_name,omitempty"`
	VariantPrice decimal.Decimal `json:"variant_price"`
	Quantity     int             `json:"quantity"`
}

// UnitPrice is the variant price when a variant is selected, else the
// product price.
func (l Line) UnitPrice() decimal.Decimal {
	if l.VariantID != nil {
		return l.VariantPrice
	}
	return l.ProductPrice
}

type ViewItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Image       string          `json:"image"`
	VariantID   *string         `json:"variant_id,omitempty"`
	VariantName string          `json:"variant_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type ShopGroup struct {
	ShopID   string     `json:"shop_id"`
	ShopName string     `json:"shop_name"`
	Items    []ViewItem `json:"items"`
}

type View struct {
	GroupedItems  []ShopGroup     `json:"groupedItems"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
}
