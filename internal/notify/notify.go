// Package notify delivers order emails and push events through the
// external mailer and pusher services. Delivery is best effort; a dead
// upstream never fails the calling flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Ext talks to the mailer and pusher over HTTP.
type Ext struct {
	HTTP          *http.Client
	MailerBaseURL string
	PusherBaseURL string
}

func NewExt(mailerBaseURL, pusherBaseURL string) *Ext {
	return &Ext{
		HTTP:          &http.Client{Timeout: 8 * time.Second},
		MailerBaseURL: mailerBaseURL,
		PusherBaseURL: pusherBaseURL,
	}
}

func (e *Ext) OrderPlaced(ctx context.Context, userID, orderID string) {
	e.sendMail(ctx, userID, "Order confirmed",
		fmt.Sprintf("<p>Your order <b>%s</b> has been placed.</p>", orderID))
	e.push(ctx, userID, "order.placed", map[string]string{"order_id": orderID})
}

func (e *Ext) OrderStatusChanged(ctx context.Context, userID, orderID, status string) {
	e.sendMail(ctx, userID, "Order update",
		fmt.Sprintf("<p>Your order <b>%s</b> is now %s.</p>", orderID, status))
	e.push(ctx, userID, "order.status", map[string]string{"order_id": orderID, "status": status})
}

func (e *Ext) sendMail(ctx context.Context, userID, subject, html string) {
	if e.MailerBaseURL == "" {
		return
	}
	e.post(ctx, e.MailerBaseURL+"/send", map[string]string{
		"user_id": userID,
		"subject": subject,
		"html":    html,
	})
}

func (e *Ext) push(ctx context.Context, userID, event string, payload any) {
	if e.PusherBaseURL == "" {
		return
	}
	e.post(ctx, e.PusherBaseURL+"/notify", map[string]any{
		"user_id": userID,
		"event":   event,
		"payload": payload,
	})
}

func (e *Ext) post(ctx context.Context, url string, body any) {
	raw, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := e.HTTP.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("notification delivery failed")
		return
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		log.Warn().Int("status", res.StatusCode).Str("url", url).Msg("notification rejected")
	}
}

// Noop discards all notifications. Used in tests and when no upstreams
// are configured.
type Noop struct{}

func (Noop) OrderPlaced(ctx context.Context, userID, orderID string)                {}
func (Noop) OrderStatusChanged(ctx context.Context, userID, orderID, status string) {}
