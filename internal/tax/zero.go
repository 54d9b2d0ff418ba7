package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// ZeroCalculator always returns zero tax. Used for markets where the
// storefront does not collect tax.
type ZeroCalculator struct{}

// Compile-time check that ZeroCalculator implements Calculator.
var _ Calculator = (*ZeroCalculator)(nil)

// NewZeroCalculator creates a calculator that collects no tax.
func NewZeroCalculator() *ZeroCalculator {
	return &ZeroCalculator{}
}

// Calculate returns zero regardless of input.
func (c *ZeroCalculator) Calculate(ctx context.Context, params Params) (*Result, error) {
	return &Result{
		Amount: decimal.Zero,
		Rate:   decimal.Zero,
		Name:   "none",
	}, nil
}
