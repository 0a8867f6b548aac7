package payment

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/config"
)

// VNPayClient builds redirect payment URLs. VNPay signs the sorted,
// unencoded query string with HMAC-SHA512 and echoes only the
// transaction reference on its callback, hence the transaction map.
type VNPayClient struct {
	cfg config.VNPayConfig
	now func() time.Time
}

func NewVNPayClient(cfg config.VNPayConfig) *VNPayClient {
	return &VNPayClient{cfg: cfg, now: time.Now}
}

// BuildPaymentURL returns the signed redirect URL and the generated
// transaction reference the caller must persist.
func (c *VNPayClient) BuildPaymentURL(amount decimal.Decimal, clientIP string) (payURL, txnRef string) {
	now := c.now()
	// timestamp alone collides for two checkouts in the same millisecond
	txnRef = fmt.Sprintf("%d%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	// VNPay amounts are in minor units
	amt := amount.Mul(decimal.NewFromInt(100)).Round(0).String()
	if clientIP == "" || clientIP == "::1" {
		clientIP = "127.0.0.1"
	}
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Locale":     "vn",
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  "Thanh toan don hang",
		"vnp_OrderType":  "other",
		"vnp_Amount":     amt,
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.UTC().Format("20060102150405"),
	}
	signed := hmacSHA512Hex(c.cfg.HashSecret, canonicalQuery(params))

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("vnp_SecureHash", signed)
	return c.cfg.URL + "?" + q.Encode(), txnRef
}

// VerifyCallback checks the callback signature over every vnp_ field
// except the hash itself.
func (c *VNPayClient) VerifyCallback(params map[string]string) error {
	got := params["vnp_SecureHash"]
	data := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		data[k] = v
	}
	if !signatureEqual(hmacSHA512Hex(c.cfg.HashSecret, canonicalQuery(data)), got) {
		return apperr.SignatureInvalid()
	}
	return nil
}
