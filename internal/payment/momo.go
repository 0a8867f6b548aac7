package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/markethub/internal/apperr"
	"github.com/MikeMC777/markethub/internal/config"
)

const momoRequestType = "captureMoMoWallet"

// MomoClient builds signed wallet-capture requests. The gateway signs
// over a canonical parameter string in alphabetical key order with
// HMAC-SHA256.
type MomoClient struct {
	cfg  config.MomoConfig
	http *http.Client
}

func NewMomoClient(cfg config.MomoConfig) *MomoClient {
	return &MomoClient{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *MomoClient) CreatePayment(ctx context.Context, orderID string, amount decimal.Decimal) (string, error) {
	requestID := fmt.Sprintf("%s-%d", c.cfg.PartnerCode, time.Now().UnixMilli())
	orderInfo := "Payment for order " + orderID
	amt := amount.Round(0).String()

	raw := canonicalQuery(map[string]string{
		"accessKey":   c.cfg.AccessKey,
		"amount":      amt,
		"extraData":   "",
		"ipnUrl":      c.cfg.IPNURL,
		"orderId":     orderID,
		"orderInfo":   orderInfo,
		"partnerCode": c.cfg.PartnerCode,
		"redirectUrl": c.cfg.RedirectURL,
		"requestId":   requestID,
		"requestType": momoRequestType,
	})
	body := map[string]string{
		"partnerCode": c.cfg.PartnerCode,
		"accessKey":   c.cfg.AccessKey,
		"requestId":   requestID,
		"amount":      amt,
		"orderId":     orderID,
		"orderInfo":   orderInfo,
		"returnUrl":   c.cfg.RedirectURL,
		"notifyUrl":   c.cfg.IPNURL,
		"requestType": momoRequestType,
		"extraData":   "",
		"signature":   hmacSHA256Hex(c.cfg.SecretKey, raw),
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	var out struct {
		PayURL string `json:"payUrl"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.PayURL == "" {
		return "", fmt.Errorf("momo: no payUrl in response (status %s)", res.Status)
	}
	return out.PayURL, nil
}

// MomoIPN is the server-to-server notification payload. Numeric fields
// arrive as JSON numbers; json.Number keeps their exact rendering for
// signature verification.
type MomoIPN struct {
	OrderID      string      `json:"orderId"`
	Amount       json.Number `json:"amount"`
	ResultCode   json.Number `json:"resultCode"`
	Signature    string      `json:"signature"`
	RequestID    string      `json:"requestId"`
	OrderInfo    string      `json:"orderInfo"`
	ResponseTime json.Number `json:"responseTime"`
	TransID      json.Number `json:"transId"`
	PayType      string      `json:"payType"`
	OrderType    string      `json:"orderType"`
}

// VerifyIPN recomputes the notification signature; mismatch means the
// payload is not from the gateway and nothing may change.
func (c *MomoClient) VerifyIPN(ipn MomoIPN) error {
	raw := canonicalQuery(map[string]string{
		"accessKey":    c.cfg.AccessKey,
		"amount":       ipn.Amount.String(),
		"extraData":    "",
		"orderId":      ipn.OrderID,
		"orderInfo":    ipn.OrderInfo,
		"orderType":    ipn.OrderType,
		"partnerCode":  c.cfg.PartnerCode,
		"payType":      ipn.PayType,
		"requestId":    ipn.RequestID,
		"responseTime": ipn.ResponseTime.String(),
		"resultCode":   ipn.ResultCode.String(),
		"transId":      ipn.TransID.String(),
	})
	if !signatureEqual(hmacSHA256Hex(c.cfg.SecretKey, raw), ipn.Signature) {
		return apperr.SignatureInvalid()
	}
	return nil
}
