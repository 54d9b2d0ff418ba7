package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/forjalabs/forja/internal/domain"
)

// StripeProvider implements Provider using the Stripe Go SDK.
type StripeProvider struct {
	config StripeConfig
	sc     *client.API
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider creates a Stripe billing provider. The config must
// pass Validate.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sc := &client.API{}
	sc.Init(config.APIKey, nil)

	return &StripeProvider{config: config, sc: sc}, nil
}

func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	const op = "billing.stripe.create_payment_intent"

	piParams := &stripe.PaymentIntentParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(toMinorUnits(params.Amount)),
		Currency:    stripe.String(params.Currency),
		Description: stripe.String(params.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}
	if params.SessionID != "" {
		piParams.AddMetadata("session_id", params.SessionID)
	}

	pi, err := s.sc.PaymentIntents.New(piParams)
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "Unable to create payment intent")
	}
	return fromStripeIntent(pi), nil
}

func (s *StripeProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	const op = "billing.stripe.get_payment_intent"

	pi, err := s.sc.PaymentIntents.Get(paymentIntentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EPAYMENT, op, "Unable to retrieve payment intent")
	}
	return fromStripeIntent(pi), nil
}

func (s *StripeProvider) VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error) {
	const op = "billing.stripe.verify_webhook"

	event, err := webhook.ConstructEvent(payload, signature, s.config.WebhookSecret)
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAUTHORIZED, op, "Invalid webhook signature")
	}

	we := &WebhookEvent{
		ID:      event.ID,
		Type:    string(event.Type),
		Payload: event.Data.Raw,
	}
	var pi struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
		we.PaymentIntentID = pi.ID
	}
	return we, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       fromMinorUnits(pi.Amount),
		Currency:     string(pi.Currency),
		Status:       fromStripeStatus(pi.Status),
		CreatedAt:    time.Unix(pi.Created, 0),
		Metadata:     pi.Metadata,
	}
}

func fromStripeStatus(status stripe.PaymentIntentStatus) PaymentIntentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return PaymentStatusCanceled
	default:
		return PaymentStatusPending
	}
}

// Stripe amounts are integer minor units; EUR has two decimals.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-2)
}
