package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"course-marketplace/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway for dev mode and tests.
type NoopPaymentGateway struct {
	mu      sync.Mutex
	seq     int64
	intents map[string]intent // token -> session
}

type intent struct {
	orderID string
	amount  int64
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{intents: make(map[string]intent)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopPaymentGateway) InitiateCheckout(ctx context.Context, amount int64, currency string, customer adapter.CustomerInfo, orderID string) (adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	token := g.next()
	g.intents[token] = intent{orderID: orderID, amount: amount}
	return adapter.CheckoutSession{
		Token:       token,
		CheckoutURL: "https://example.test/pay/" + token,
	}, nil
}

// VerifyWebhook trusts any well-formed payload whose token it issued.
func (g *NoopPaymentGateway) VerifyWebhook(raw []byte) (bool, adapter.WebhookOutcome, error) {
	var body webhookPayload
	if err := json.Unmarshal(raw, &body); err != nil {
		return false, adapter.WebhookOutcome{}, err
	}
	g.mu.Lock()
	in, ok := g.intents[body.Token]
	g.mu.Unlock()
	if !ok {
		return false, adapter.WebhookOutcome{}, nil
	}
	return true, adapter.WebhookOutcome{
		Success:              body.PaymentStatus,
		OrderID:              in.orderID,
		Token:                body.Token,
		GatewayTransactionID: fmt.Sprintf("%d", body.TransactionID),
		Amount:               in.amount,
	}, nil
}

func (g *NoopPaymentGateway) CheckPayment(ctx context.Context, token string) (adapter.WebhookOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[token]
	if !ok {
		return adapter.WebhookOutcome{}, fmt.Errorf("noop: token not found")
	}
	return adapter.WebhookOutcome{
		Success:              true,
		OrderID:              in.orderID,
		Token:                token,
		GatewayTransactionID: "noop-tx-" + token,
		Amount:               in.amount,
	}, nil
}
