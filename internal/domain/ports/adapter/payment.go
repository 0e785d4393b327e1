package adapter

import "context"

// CustomerInfo is the buyer identity handed to the gateway when creating a
// checkout session.
type CustomerInfo struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// CheckoutSession is the gateway's handle for one hosted-checkout attempt.
type CheckoutSession struct {
	Token       string // opaque gateway token, echoed back in the webhook
	CheckoutURL string // where the client is redirected to pay
}

// WebhookOutcome is the normalized result of a gateway callback.
type WebhookOutcome struct {
	Success              bool
	OrderID              string // our payment id, as passed to InitiateCheckout
	Token                string
	GatewayTransactionID string
	Amount               int64 // minor units
	CustomerEmail        string
}

// PaymentGateway is the hex port for payment providers.
//
// InitiateCheckout failures caused by the gateway being unreachable or
// erroring server-side are reported as domain.ErrGatewayUnavailable: no
// payment attempt happened, so the caller must not treat it as a payment
// failure.
type PaymentGateway interface {
	Name() string

	// InitiateCheckout creates a hosted checkout session for orderID.
	InitiateCheckout(ctx context.Context, amount int64, currency string, customer CustomerInfo, orderID string) (CheckoutSession, error)

	// VerifyWebhook recomputes the payload integrity code and, when it
	// matches, normalizes the gateway fields. verified=false is not an error:
	// the caller still acknowledges receipt but must not act on the payload.
	VerifyWebhook(raw []byte) (verified bool, outcome WebhookOutcome, err error)

	// CheckPayment queries the gateway for the current state of a checkout
	// session, used by reconciliation when a webhook was lost.
	CheckPayment(ctx context.Context, token string) (WebhookOutcome, error)
}
