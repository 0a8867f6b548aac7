package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product lifecycle. Sellers create in pendingApproval; admins move it
// to onSale or offSale; archived products stay readable for old orders.
const (
	StatusPendingApproval = "pendingApproval"
	StatusOnSale          = "onSale"
	StatusOutOfStock      = "outOfStock"
	StatusOffSale         = "offSale"
	StatusArchived        = "archived"
)

const (
	ShopPending  = "pending"
	ShopApproved = "approved"
	ShopRejected = "rejected"
)

const PlaceholderImage = "/placeholder.jpg"

type Shop struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	LogoURL     string    `json:"logo_url"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

type Product struct {
	ID            string          `json:"id"`
	ShopID        string          `json:"shop_id"`
	CategoryID    string          `json:"category_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Status        string          `json:"status"`
	Sold          int             `json:"sold"`
	AverageRating decimal.Decimal `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Variant struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"product_id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Price      decimal.Decimal   `json:"price"`
	Discount   int               `json:"discount"`
	Stock      int               `json:"stock"`
	// FinalPrice is filled on reads, not stored.
	FinalPrice decimal.Decimal `json:"final_price"`
}

// EffectivePrice is the variant price after its own discount.
func (v Variant) EffectivePrice() decimal.Decimal {
	if v.Discount <= 0 {
		return v.Price
	}
	factor := decimal.NewFromInt(int64(100 - v.Discount)).Div(decimal.NewFromInt(100))
	return v.Price.Mul(factor).Round(2)
}

type Image struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	URL       string `json:"url"`
	Position  int    `json:"position"`
}

type Query struct {
	ShopID     string
	CategoryID string
	Q          string
	Status     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Limit      int
	Offset     int
}
