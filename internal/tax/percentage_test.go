package tax_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjalabs/forja/internal/tax"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPercentageCalculator_StandardVAT(t *testing.T) {
	calc := tax.NewPercentageCalculator(dec("0.21"), "IVA")

	result, err := calc.Calculate(context.Background(), tax.Params{
		Subtotal: dec("100"),
		Shipping: dec("5.99"),
	})

	require.NoError(t, err)
	assert.True(t, dec("21").Equal(result.Amount), "100 × 0.21 = 21, got %s", result.Amount)
	assert.True(t, dec("0.21").Equal(result.Rate))
	assert.Equal(t, "IVA", result.Name)
}

func TestPercentageCalculator_ShippingNotTaxed(t *testing.T) {
	calc := tax.NewPercentageCalculator(dec("0.21"), "IVA")

	withShipping, err := calc.Calculate(context.Background(), tax.Params{
		Subtotal: dec("50"),
		Shipping: dec("29.99"),
	})
	require.NoError(t, err)

	withoutShipping, err := calc.Calculate(context.Background(), tax.Params{
		Subtotal: dec("50"),
	})
	require.NoError(t, err)

	assert.True(t, withShipping.Amount.Equal(withoutShipping.Amount),
		"shipping must not change the tax amount")
}

func TestPercentageCalculator_Rates(t *testing.T) {
	tests := []struct {
		name     string
		rate     string
		subtotal string
		want     string
	}{
		{"zero rate", "0", "100", "0"},
		{"reduced rate", "0.10", "45.50", "4.55"},
		{"standard rate", "0.21", "33.97", "7.1337"},
		{"empty cart", "0.21", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := tax.NewPercentageCalculator(dec(tt.rate), "")

			result, err := calc.Calculate(context.Background(), tax.Params{Subtotal: dec(tt.subtotal)})

			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(result.Amount),
				"%s × %s: want %s, got %s", tt.subtotal, tt.rate, tt.want, result.Amount)
		})
	}
}

func TestZeroCalculator(t *testing.T) {
	calc := tax.NewZeroCalculator()

	result, err := calc.Calculate(context.Background(), tax.Params{
		Subtotal: dec("999.99"),
		Shipping: dec("29.99"),
	})

	require.NoError(t, err)
	assert.True(t, result.Amount.IsZero())
	assert.True(t, result.Rate.IsZero())
}
