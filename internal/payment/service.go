package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/order"
	"github.com/MikeMC777/markethub/internal/user"
)

// Orders is the slice of the order service the payment flow needs.
type Orders interface {
	Get(ctx context.Context, orderID string) (*order.Order, error)
	AdvancePaid(ctx context.Context, orderID string) error
}

type Service struct {
	payments Repository
	orders   Orders
	momo     *MomoClient
	vnpay    *VNPayClient
	payos    *PayOSClient
	now      func() time.Time
}

func NewService(payments Repository, orders Orders, momo *MomoClient, vnpay *VNPayClient, payos *PayOSClient) *Service {
	return &Service{payments: payments, orders: orders, momo: momo, vnpay: vnpay, payos: payos, now: time.Now}
}

func (s *Service) loadPending(ctx context.Context, orderID string) (*order.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, apperr.Conflictf("order is not awaiting payment")
	}
	return o, nil
}

// MockPay records a cash-on-delivery payment. The order stays pending
// until a seller confirms it; money changes hands at the door.
func (s *Service) MockPay(ctx context.Context, userID, orderID string) (*Payment, error) {
	o, err := s.loadPending(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFoundf("order not found")
	}
	p := s.paidRecord(o, MethodCOD, "cod-"+orderID)
	if _, err := s.payments.InsertPaid(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProcessOnline records a generic online payment and moves the order to
// processing.
func (s *Service) ProcessOnline(ctx context.Context, userID, orderID string) (*Payment, error) {
	o, err := s.loadPending(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFoundf("order not found")
	}
	p := s.paidRecord(o, MethodOnline, uuid.NewString())
	inserted, err := s.payments.InsertPaid(ctx, p)
	if err != nil {
		return nil, err
	}
	if inserted {
		if err := s.orders.AdvancePaid(ctx, orderID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) paidRecord(o *order.Order, method, txnRef string) *Payment {
	now := s.now()
	return &Payment{
		ID:      uuid.NewString(),
		OrderID: o.ID,
		Method:  method,
		Amount:  o.TotalPrice,
		Status:  StatusPaid,
		TxnRef:  txnRef,
		PaidAt:  &now,
	}
}

// CreateMomo returns the gateway pay URL for a pending order.
func (s *Service) CreateMomo(ctx context.Context, userID, orderID string) (string, error) {
	o, err := s.loadPending(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.UserID != userID {
		return "", apperr.NotFoundf("order not found")
	}
	return s.momo.CreatePayment(ctx, o.ID, o.TotalPrice)
}

// HandleMomoIPN verifies and applies a MoMo server-to-server notification.
// Replays of an already-recorded transaction are acknowledged without
// touching the order again.
func (s *Service) HandleMomoIPN(ctx context.Context, ipn MomoIPN) error {
	if err := s.momo.VerifyIPN(ipn); err != nil {
		return err
	}
	if ipn.ResultCode.String() != "0" {
		log.Info().Str("order_id", ipn.OrderID).Str("result_code", ipn.ResultCode.String()).
			Msg("momo payment not successful")
		return nil
	}
	o, err := s.orders.Get(ctx, ipn.OrderID)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(ipn.Amount.String())
	if err != nil {
		return apperr.Validationf("invalid amount %q", ipn.Amount.String())
	}
	return s.applyGatewayPayment(ctx, o, MethodMomo, ipn.TransID.String(), amount)
}

// CreateVNPay builds the redirect URL and maps the generated txn ref
// back to the order for the return callback.
func (s *Service) CreateVNPay(ctx context.Context, userID, orderID, clientIP string) (string, error) {
	o, err := s.loadPending(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.UserID != userID {
		return "", apperr.NotFoundf("order not found")
	}
	payURL, txnRef := s.vnpay.BuildPaymentURL(o.TotalPrice, clientIP)
	if err := s.payments.CreateTxnMap(ctx, txnRef, o.ID); err != nil {
		return "", err
	}
	return payURL, nil
}

// HandleVNPayCallback verifies the return params and records the
// payment. The txn ref resolves to an order through the map written at
// creation time.
func (s *Service) HandleVNPayCallback(ctx context.Context, params map[string]string) error {
	if err := s.vnpay.VerifyCallback(params); err != nil {
		return err
	}
	txnRef := params["vnp_TxnRef"]
	if params["vnp_ResponseCode"] != "00" {
		log.Info().Str("txn_ref", txnRef).Str("response_code", params["vnp_ResponseCode"]).
			Msg("vnpay payment not successful")
		return nil
	}
	orderID, err := s.payments.LookupTxn(ctx, txnRef)
	if err != nil {
		return err
	}
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	minor, err := decimal.NewFromString(params["vnp_Amount"])
	if err != nil {
		return apperr.Validationf("invalid amount %q", params["vnp_Amount"])
	}
	amount := minor.Div(decimal.NewFromInt(100))
	return s.applyGatewayPayment(ctx, o, MethodVNPay, txnRef, amount)
}

// CreatePayOS returns the hosted checkout URL, mapping orderCode back
// to the order for the webhook.
func (s *Service) CreatePayOS(ctx context.Context, userID, orderID string) (string, error) {
	o, err := s.loadPending(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.UserID != userID {
		return "", apperr.NotFoundf("order not found")
	}
	checkoutURL, orderCode, err := s.payos.CreatePaymentLink(ctx, o.ID, o.TotalPrice)
	if err != nil {
		return "", err
	}
	if err := s.payments.CreateTxnMap(ctx, orderCode, o.ID); err != nil {
		return "", err
	}
	return checkoutURL, nil
}

func (s *Service) HandlePayOSWebhook(ctx context.Context, w PayOSWebhook) error {
	if err := s.payos.VerifyWebhook(w); err != nil {
		return err
	}
	data := w.Data
	code, _ := data["code"].(string)
	if w.Code != "00" && code != "00" {
		log.Info().Str("code", w.Code).Msg("payos payment not successful")
		return nil
	}
	orderCode := stringField(data["orderCode"])
	if orderCode == "" {
		return apperr.Validationf("missing orderCode")
	}
	orderID, err := s.payments.LookupTxn(ctx, orderCode)
	if err != nil {
		return err
	}
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(stringField(data["amount"]))
	if err != nil {
		return apperr.Validationf("invalid amount")
	}
	return s.applyGatewayPayment(ctx, o, MethodPayOS, orderCode, amount)
}

// applyGatewayPayment is the idempotent sink for all gateway callbacks.
// A duplicate (order, txn) pair inserts nothing and leaves the order
// alone, so replayed notifications are harmless.
func (s *Service) applyGatewayPayment(ctx context.Context, o *order.Order, method, txnRef string, amount decimal.Decimal) error {
	if !amount.Equal(o.TotalPrice) {
		log.Warn().Str("order_id", o.ID).Str("gateway_amount", amount.String()).
			Str("order_total", o.TotalPrice.String()).Msg("gateway amount mismatch")
		return apperr.Conflictf("paid amount does not match order total")
	}
	now := s.now()
	inserted, err := s.payments.InsertPaid(ctx, &Payment{
		ID:      uuid.NewString(),
		OrderID: o.ID,
		Method:  method,
		Amount:  amount,
		Status:  StatusPaid,
		TxnRef:  txnRef,
		PaidAt:  &now,
	})
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	if o.Status != order.StatusPending {
		return nil
	}
	return s.orders.AdvancePaid(ctx, o.ID)
}

// ListByOrder returns the order's payment records to its buyer, the
// selling shop, or an admin. Anyone else sees the order as missing.
func (s *Service) ListByOrder(ctx context.Context, userID, shopID, role, orderID string) ([]Payment, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role != user.RoleAdmin && o.UserID != userID && (shopID == "" || o.ShopID != shopID) {
		return nil, apperr.NotFoundf("order not found")
	}
	return s.payments.ListByOrder(ctx, o.ID)
}

func stringField(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case interface{ String() string }:
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	}
	return ""
}
