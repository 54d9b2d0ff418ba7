// Package billing abstracts payment processing for checkout.
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Provider defines the interface for payment processing. The checkout
// flow creates a payment intent for the cart total, the storefront
// confirms it client-side, and the webhook verifies the confirmation.
type Provider interface {
	// CreatePaymentIntent creates a payment intent for a one-time charge.
	// Returns the intent with a client secret for frontend confirmation.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntent retrieves an existing payment intent, used to
	// verify payment state before creating an order.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// VerifyWebhookSignature verifies that a webhook request is authentic
	// and returns the decoded event.
	VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error)
}

// CreatePaymentIntentParams describes the charge to create. Amount is
// in major units (euros); providers convert to their own minor units.
type CreatePaymentIntentParams struct {
	Amount      decimal.Decimal
	Currency    string
	SessionID   string
	Description string
	Metadata    map[string]string
}

// PaymentIntentStatus is the provider-neutral payment state.
type PaymentIntentStatus string

const (
	PaymentStatusPending   PaymentIntentStatus = "pending"
	PaymentStatusSucceeded PaymentIntentStatus = "succeeded"
	PaymentStatusCanceled  PaymentIntentStatus = "canceled"
)

// PaymentIntent is the provider-neutral view of a payment attempt.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       PaymentIntentStatus
	CreatedAt    time.Time
	Metadata     map[string]string
}

// WebhookEvent is a verified event delivered by the provider.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	Payload         []byte
}

// Webhook event types the checkout flow reacts to.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)
