package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// transitions is the forward-only machine: pending may cancel, the rest
// move toward completed. completed and cancelled are terminal.
var transitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCompleted},
	StatusShipped:    {StatusCompleted},
}

func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	ShopID            string          `json:"shop_id"`
	ShippingAddressID string          `json:"shipping_address_id"`
	Status            string          `json:"status"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	VoucherID         *string         `json:"voucher_id,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Item is a line snapshot: price is captured at order time and never
// follows the live product price.
type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	VariantID *string         `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// ItemView is the uniform read model for order lines: the snapshot plus
// the product/variant names and first image every endpoint returns.
type ItemView struct {
	Item
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name,omitempty"`
	Image       string `json:"image"`
}

// StockOp is one guarded decrement executed inside the checkout
// transaction. Name feeds the out-of-stock message.
type StockOp struct {
	ProductID string
	VariantID *string
	Quantity  int
	Name      string
}
