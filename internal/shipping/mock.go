package shipping

import (
	"context"

	"github.com/shopspring/decimal"
)

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	QuoteFunc func(ctx context.Context, params QuoteParams) (*Quote, error)

	// Calls records every QuoteParams seen, in order.
	Calls []QuoteParams
}

// Compile-time check that MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)

// Quote delegates to QuoteFunc, or returns a zero-cost quote when unset.
func (m *MockProvider) Quote(ctx context.Context, params QuoteParams) (*Quote, error) {
	m.Calls = append(m.Calls, params)
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, params)
	}
	return &Quote{Amount: decimal.Zero, Currency: "EUR", Country: params.Destination.Country}, nil
}
