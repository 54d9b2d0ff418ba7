package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// PercentageCalculator applies a single configured rate to the goods
// subtotal. Shipping is not taxed under this calculator.
type PercentageCalculator struct {
	rate decimal.Decimal
	name string
}

// Compile-time check that PercentageCalculator implements Calculator.
var _ Calculator = (*PercentageCalculator)(nil)

// NewPercentageCalculator creates a percentage-based tax calculator.
// The rate is a fraction, e.g. 0.21 for 21% VAT.
func NewPercentageCalculator(rate decimal.Decimal, name string) *PercentageCalculator {
	if name == "" {
		name = "VAT"
	}
	return &PercentageCalculator{rate: rate, name: name}
}

// Calculate computes subtotal × rate.
func (c *PercentageCalculator) Calculate(ctx context.Context, params Params) (*Result, error) {
	return &Result{
		Amount: params.Subtotal.Mul(c.rate),
		Rate:   c.rate,
		Name:   c.name,
	}, nil
}
