package payment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/config"
	"github.com/MikeMC777/markethub/internal/order"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

type stubPayments struct {
	seen    map[string]bool // order_id+txn_ref
	records []Payment
	txnMap  map[string]string
}

func newStubPayments() *stubPayments {
	return &stubPayments{seen: map[string]bool{}, txnMap: map[string]string{}}
}

func (s *stubPayments) InsertPaid(ctx context.Context, p *Payment) (bool, error) {
	key := p.OrderID + "|" + p.TxnRef
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	s.records = append(s.records, *p)
	return true, nil
}

func (s *stubPayments) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	var out []Payment
	for _, p := range s.records {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPayments) CreateTxnMap(ctx context.Context, txnRef, orderID string) error {
	s.txnMap[txnRef] = orderID
	return nil
}

func (s *stubPayments) LookupTxn(ctx context.Context, txnRef string) (string, error) {
	id, ok := s.txnMap[txnRef]
	if !ok {
		return "", apperr.NotFoundf("transaction not found")
	}
	return id, nil
}

type stubOrders struct {
	byID     map[string]*order.Order
	advanced []string
}

func (s *stubOrders) Get(ctx context.Context, orderID string) (*order.Order, error) {
	o, ok := s.byID[orderID]
	if !ok {
		return nil, apperr.NotFoundf("order not found")
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) AdvancePaid(ctx context.Context, orderID string) error {
	s.byID[orderID].Status = order.StatusProcessing
	s.advanced = append(s.advanced, orderID)
	return nil
}

var momoCfg = config.MomoConfig{
	PartnerCode: "PARTNER",
	AccessKey:   "access",
	SecretKey:   "supersecret",
}

func signedIPN(orderID, amount, resultCode, transID string) MomoIPN {
	ipn := MomoIPN{
		OrderID:      orderID,
		Amount:       json.Number(amount),
		ResultCode:   json.Number(resultCode),
		RequestID:    "req-1",
		OrderInfo:    "Payment for order " + orderID,
		ResponseTime: json.Number("1750000000000"),
		TransID:      json.Number(transID),
		PayType:      "qr",
		OrderType:    "momo_wallet",
	}
	raw := canonicalQuery(map[string]string{
		"accessKey":    momoCfg.AccessKey,
		"amount":       ipn.Amount.String(),
		"extraData":    "",
		"orderId":      ipn.OrderID,
		"orderInfo":    ipn.OrderInfo,
		"orderType":    ipn.OrderType,
		"partnerCode":  momoCfg.PartnerCode,
		"payType":      ipn.PayType,
		"requestId":    ipn.RequestID,
		"responseTime": ipn.ResponseTime.String(),
		"resultCode":   ipn.ResultCode.String(),
		"transId":      ipn.TransID.String(),
	})
	ipn.Signature = hmacSHA256Hex(momoCfg.SecretKey, raw)
	return ipn
}

func newPaymentFixture() (*Service, *stubPayments, *stubOrders) {
	payments := newStubPayments()
	orders := &stubOrders{byID: map[string]*order.Order{
		"ord-1": {ID: "ord-1", UserID: "buyer-1", ShopID: "shop-a", Status: order.StatusPending, TotalPrice: dec("250000")},
	}}
	svc := NewService(payments, orders,
		NewMomoClient(momoCfg),
		NewVNPayClient(config.VNPayConfig{TmnCode: "TMN", HashSecret: "vnpsecret", URL: "https://pay.example/vnpay"}),
		NewPayOSClient(config.PayOSConfig{ChecksumKey: "payossecret"}),
	)
	return svc, payments, orders
}

func TestHandleMomoIPN_SuccessAdvancesOrder(t *testing.T) {
	svc, payments, orders := newPaymentFixture()
	ipn := signedIPN("ord-1", "250000", "0", "987654")

	require.NoError(t, svc.HandleMomoIPN(context.Background(), ipn))
	require.Len(t, payments.records, 1)
	assert.Equal(t, MethodMomo, payments.records[0].Method)
	assert.Equal(t, "987654", payments.records[0].TxnRef)
	assert.Equal(t, []string{"ord-1"}, orders.advanced)
}

func TestHandleMomoIPN_ReplayIsNoOp(t *testing.T) {
	svc, payments, orders := newPaymentFixture()
	ipn := signedIPN("ord-1", "250000", "0", "987654")

	require.NoError(t, svc.HandleMomoIPN(context.Background(), ipn))
	require.NoError(t, svc.HandleMomoIPN(context.Background(), ipn), "replay acknowledged")
	assert.Len(t, payments.records, 1)
	assert.Len(t, orders.advanced, 1, "order advanced exactly once")
}

func TestHandleMomoIPN_BadSignatureMutatesNothing(t *testing.T) {
	svc, payments, orders := newPaymentFixture()
	ipn := signedIPN("ord-1", "250000", "0", "987654")
	ipn.Amount = json.Number("1")

	err := svc.HandleMomoIPN(context.Background(), ipn)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindSignature))
	assert.Empty(t, payments.records)
	assert.Empty(t, orders.advanced)
}

func TestHandleMomoIPN_FailedResultRecordsNothing(t *testing.T) {
	svc, payments, orders := newPaymentFixture()
	ipn := signedIPN("ord-1", "250000", "1006", "987654")

	require.NoError(t, svc.HandleMomoIPN(context.Background(), ipn), "failed payments still get a 200")
	assert.Empty(t, payments.records)
	assert.Empty(t, orders.advanced)
}

func TestHandleMomoIPN_AmountMismatchRejected(t *testing.T) {
	svc, payments, _ := newPaymentFixture()
	ipn := signedIPN("ord-1", "99", "0", "987654")

	err := svc.HandleMomoIPN(context.Background(), ipn)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Empty(t, payments.records)
}

func TestVNPay_BuildAndVerifyRoundTrip(t *testing.T) {
	client := NewVNPayClient(config.VNPayConfig{TmnCode: "TMN", HashSecret: "vnpsecret", URL: "https://pay.example/vnpay"})
	payURL, txnRef := client.BuildPaymentURL(dec("250000"), "10.0.0.1")
	require.NotEmpty(t, txnRef)
	require.Contains(t, payURL, "vnp_SecureHash=")

	// reconstruct the callback params the way the gateway would echo them
	params := map[string]string{
		"vnp_TxnRef":       txnRef,
		"vnp_Amount":       "25000000",
		"vnp_ResponseCode": "00",
	}
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = v
	}
	params["vnp_SecureHash"] = hmacSHA512Hex("vnpsecret", canonicalQuery(data))
	require.NoError(t, client.VerifyCallback(params))

	params["vnp_Amount"] = "1"
	err := client.VerifyCallback(params)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindSignature))
}

func TestHandleVNPayCallback_MapsTxnRefToOrder(t *testing.T) {
	svc, payments, orders := newPaymentFixture()
	payments.txnMap["txn-42"] = "ord-1"

	params := map[string]string{
		"vnp_TxnRef":       "txn-42",
		"vnp_Amount":       "25000000", // minor units
		"vnp_ResponseCode": "00",
	}
	params["vnp_SecureHash"] = hmacSHA512Hex("vnpsecret", canonicalQuery(params))

	require.NoError(t, svc.HandleVNPayCallback(context.Background(), params))
	require.Len(t, payments.records, 1)
	assert.True(t, payments.records[0].Amount.Equal(dec("250000")))
	assert.Equal(t, []string{"ord-1"}, orders.advanced)
}

func TestHandleVNPayCallback_UnknownTxnIsNotFound(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	params := map[string]string{
		"vnp_TxnRef":       "ghost",
		"vnp_Amount":       "100",
		"vnp_ResponseCode": "00",
	}
	params["vnp_SecureHash"] = hmacSHA512Hex("vnpsecret", canonicalQuery(params))

	err := svc.HandleVNPayCallback(context.Background(), params)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestHandlePayOSWebhook_VerifiesChecksum(t *testing.T) {
	svc, payments, orders := newPaymentFixture()
	payments.txnMap["1755000000000"] = "ord-1"

	data := map[string]interface{}{
		"orderCode": json.Number("1755000000000"),
		"amount":    json.Number("250000"),
		"code":      "00",
	}
	sig := hmacSHA256Hex("payossecret", canonicalQuery(map[string]string{
		"orderCode": "1755000000000",
		"amount":    "250000",
		"code":      "00",
	}))
	hook := PayOSWebhook{Code: "00", Signature: sig, Data: data}

	require.NoError(t, svc.HandlePayOSWebhook(context.Background(), hook))
	require.Len(t, payments.records, 1)
	assert.Equal(t, MethodPayOS, payments.records[0].Method)
	assert.Equal(t, []string{"ord-1"}, orders.advanced)

	hook.Signature = "deadbeef"
	err := svc.HandlePayOSWebhook(context.Background(), hook)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindSignature))
}

func TestMockPay_RecordsButDoesNotAdvance(t *testing.T) {
	svc, payments, orders := newPaymentFixture()

	p, err := svc.MockPay(context.Background(), "buyer-1", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, MethodCOD, p.Method)
	assert.Equal(t, StatusPaid, p.Status)
	assert.Len(t, payments.records, 1)
	assert.Empty(t, orders.advanced, "cash on delivery keeps the seller confirmation step")
}

func TestProcessOnline_AdvancesOrder(t *testing.T) {
	svc, _, orders := newPaymentFixture()

	_, err := svc.ProcessOnline(context.Background(), "buyer-1", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ord-1"}, orders.advanced)
}

func TestPayments_ForeignOrderLooksMissing(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.MockPay(context.Background(), "intruder", "ord-1")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestPayments_NonPendingOrderRejected(t *testing.T) {
	svc, _, orders := newPaymentFixture()
	orders.byID["ord-1"].Status = order.StatusCompleted

	_, err := svc.ProcessOnline(context.Background(), "buyer-1", "ord-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestListByOrder_ScopedToParticipants(t *testing.T) {
	svc, _, _ := newPaymentFixture()
	ctx := context.Background()
	_, err := svc.MockPay(ctx, "buyer-1", "ord-1")
	require.NoError(t, err)

	items, err := svc.ListByOrder(ctx, "buyer-1", "", "buyer", "ord-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.ListByOrder(ctx, "seller-1", "shop-a", "seller", "ord-1")
	assert.NoError(t, err, "selling shop sees its order's payments")

	_, err = svc.ListByOrder(ctx, "someone", "", "admin", "ord-1")
	assert.NoError(t, err)

	_, err = svc.ListByOrder(ctx, "stranger", "", "buyer", "ord-1")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err), "foreign order looks missing")

	_, err = svc.ListByOrder(ctx, "seller-2", "shop-b", "seller", "ord-1")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestTxnRefs_UniquePerCreation(t *testing.T) {
	client := NewVNPayClient(config.VNPayConfig{TmnCode: "TMN", HashSecret: "vnpsecret", URL: "https://pay.example/vnpay"})
	_, ref1 := client.BuildPaymentURL(dec("100"), "10.0.0.1")
	_, ref2 := client.BuildPaymentURL(dec("100"), "10.0.0.1")
	assert.NotEqual(t, ref1, ref2, "same-millisecond creations must not share a txn ref")

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := newOrderCode()
		require.False(t, seen[code], "duplicate order code %s", code)
		seen[code] = true
	}
}
