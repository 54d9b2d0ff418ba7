package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, ZeroCalculator.
type Calculator interface {
	// Calculate computes tax for the given goods subtotal.
	Calculate(ctx context.Context, params Params) (*Result, error)
}

// Params contains the information needed for tax calculation.
// Shipping is carried for calculators in jurisdictions that tax it;
// the default VAT calculator taxes goods only.
type Params struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Country  string
}

// Result contains the calculated tax amount and the rate applied.
type Result struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Name   string
}
