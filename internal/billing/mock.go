package billing

import "context"

// MockProvider is a configurable Provider for tests.
type MockProvider struct {
	CreatePaymentIntentFunc    func(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)
	GetPaymentIntentFunc       func(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)
	VerifyWebhookSignatureFunc func(payload []byte, signature string) (*WebhookEvent, error)

	CreateCalls []CreatePaymentIntentParams
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	m.CreateCalls = append(m.CreateCalls, params)
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, params)
	}
	return &PaymentIntent{
		ID:           "pi_mock",
		ClientSecret: "pi_mock_secret",
		Amount:       params.Amount,
		Currency:     params.Currency,
		Status:       PaymentStatusPending,
		Metadata:     params.Metadata,
	}, nil
}

func (m *MockProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	if m.GetPaymentIntentFunc != nil {
		return m.GetPaymentIntentFunc(ctx, paymentIntentID)
	}
	return &PaymentIntent{ID: paymentIntentID, Status: PaymentStatusSucceeded}, nil
}

func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error) {
	if m.VerifyWebhookSignatureFunc != nil {
		return m.VerifyWebhookSignatureFunc(payload, signature)
	}
	return &WebhookEvent{ID: "evt_mock", Type: EventPaymentSucceeded, Payload: payload}, nil
}
