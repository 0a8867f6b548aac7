package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodCOD    = "COD"
	MethodOnline = "online"
	MethodMomo   = "momo"
	MethodVNPay  = "vnpay"
	MethodPayOS  = "payos"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

type Payment struct {
	ID      string          `json:"id"`
	OrderID string          `json:"order_id"`
	Method  string          `json:"payment_method"`
	Amount  decimal.Decimal `json:"amount"`
	Status  string          `json:"status"`
	TxnRef  string          `json:"txn_ref,omitempty"`
	PaidAt  *time.Time      `json:"paid_at,omitempty"`
}
