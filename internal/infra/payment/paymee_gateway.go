// File: internal/infra/payment/paymee_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*PaymeeGateway)(nil)

// PaymeeGateway implements adapter.PaymentGateway against the Paymee
// hosted-checkout REST API (v2).
type PaymeeGateway struct {
	apiKey    string
	secretKey string
	vendorID  string
	returnURL string
	sandbox   bool
	client    *http.Client
}

func NewPaymeeGateway(apiKey, secretKey, vendorID, returnURL string, sandbox bool) (*PaymeeGateway, error) {
	if apiKey == "" {
		return nil, errors.New("paymee api key empty")
	}
	if secretKey == "" {
		return nil, errors.New("paymee secret key empty")
	}
	if _, err := url.Parse(returnURL); err != nil {
		return nil, fmt.Errorf("invalid return url: %w", err)
	}
	return &PaymeeGateway{
		apiKey:    apiKey,
		secretKey: secretKey,
		vendorID:  vendorID,
		returnURL: returnURL,
		sandbox:   sandbox,
		client:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *PaymeeGateway) Name() string { return "paymee" }

func (g *PaymeeGateway) endpoint(path string) string {
	base := "https://app.paymee.tn/api/v2"
	if g.sandbox {
		base = "https://sandbox.paymee.tn/api/v2"
	}
	return base + path
}

// toDecimal converts minor units (millimes) to the decimal amount the wire
// format expects.
func toDecimal(amount int64) float64 { return float64(amount) / 1000.0 }

// toMinor converts a wire decimal amount back to millimes.
func toMinor(amount float64) int64 { return int64(math.Round(amount * 1000.0)) }

// InitiateCheckout calls /payments/create and returns the session token plus
// the hosted checkout URL. Unreachable or 5xx responses surface as
// domain.ErrGatewayUnavailable: no payment attempt happened.
func (g *PaymeeGateway) InitiateCheckout(ctx context.Context, amount int64, currency string, customer adapter.CustomerInfo, orderID string) (adapter.CheckoutSession, error) {
	if amount <= 0 || orderID == "" {
		return adapter.CheckoutSession{}, domain.ErrInvalidArgument
	}
	payload := map[string]any{
		"vendor":     g.vendorID,
		"amount":     toDecimal(amount),
		"currency":   currency,
		"note":       "order " + orderID,
		"order_id":   orderID,
		"first_name": customer.FirstName,
		"last_name":  customer.LastName,
		"email":      customer.Email,
		"phone":      customer.Phone,
		"return_url": g.returnURL,
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint("/payments/create"), bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.CheckoutSession{}, fmt.Errorf("paymee create: %w", domain.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return adapter.CheckoutSession{}, fmt.Errorf("paymee create http %d: %w", resp.StatusCode, domain.ErrGatewayUnavailable)
	}
	var out struct {
		Status bool `json:"status"`
		Code   int  `json:"code"`
		Data   struct {
			Token      string `json:"token"`
			PaymentURL string `json:"payment_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.CheckoutSession{}, fmt.Errorf("paymee create decode: %w", domain.ErrGatewayUnavailable)
	}
	if !out.Status || out.Data.Token == "" {
		return adapter.CheckoutSession{}, fmt.Errorf("paymee create rejected (code %d)", out.Code)
	}
	return adapter.CheckoutSession{
		Token:       out.Data.Token,
		CheckoutURL: out.Data.PaymentURL,
	}, nil
}

// webhookPayload mirrors the gateway's callback body bit-exactly.
type webhookPayload struct {
	Token         string  `json:"token"`
	PaymentStatus bool    `json:"payment_status"`
	OrderID       string  `json:"order_id"`
	TransactionID int64   `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	CheckSum      string  `json:"check_sum"`
	Email         string  `json:"email"`
}

// VerifyWebhook recomputes the payload checksum and normalizes the gateway
// fields. A checksum mismatch is not an error: the caller must still
// acknowledge the delivery, but must not act on the payload.
func (g *PaymeeGateway) VerifyWebhook(raw []byte) (bool, adapter.WebhookOutcome, error) {
	var body webhookPayload
	if err := json.Unmarshal(raw, &body); err != nil {
		return false, adapter.WebhookOutcome{}, fmt.Errorf("webhook payload: %w", err)
	}
	if body.Token == "" || body.CheckSum == "" {
		return false, adapter.WebhookOutcome{}, nil
	}
	if !ChecksumMatches(g.secretKey, body.Token, body.PaymentStatus, body.CheckSum) {
		return false, adapter.WebhookOutcome{}, nil
	}
	return true, adapter.WebhookOutcome{
		Success:              body.PaymentStatus,
		OrderID:              body.OrderID,
		Token:                body.Token,
		GatewayTransactionID: fmt.Sprintf("%d", body.TransactionID),
		Amount:               toMinor(body.Amount),
		CustomerEmail:        body.Email,
	}, nil
}

// CheckPayment queries /payments/{token}/check; used by reconciliation when
// a webhook never arrived.
func (g *PaymeeGateway) CheckPayment(ctx context.Context, token string) (adapter.WebhookOutcome, error) {
	if token == "" {
		return adapter.WebhookOutcome{}, domain.ErrInvalidArgument
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint("/payments/"+token+"/check"), nil)
	req.Header.Set("Authorization", "Token "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.WebhookOutcome{}, fmt.Errorf("paymee check: %w", domain.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return adapter.WebhookOutcome{}, fmt.Errorf("paymee check http %d: %w", resp.StatusCode, domain.ErrGatewayUnavailable)
	}
	var out struct {
		Status bool `json:"status"`
		Data   struct {
			PaymentStatus bool    `json:"payment_status"`
			OrderID       string  `json:"order_id"`
			TransactionID int64   `json:"transaction_id"`
			Amount        float64 `json:"amount"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.WebhookOutcome{}, fmt.Errorf("paymee check decode: %w", domain.ErrGatewayUnavailable)
	}
	if !out.Status {
		return adapter.WebhookOutcome{}, errors.New("paymee check rejected")
	}
	return adapter.WebhookOutcome{
		Success:              out.Data.PaymentStatus,
		OrderID:              out.Data.OrderID,
		Token:                token,
		GatewayTransactionID: fmt.Sprintf("%d", out.Data.TransactionID),
		Amount:               toMinor(out.Data.Amount),
	}, nil
}
