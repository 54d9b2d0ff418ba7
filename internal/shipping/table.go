package shipping

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// TableProvider prices shipments from a per-country base-rate table plus
// weight and volume surcharges. It stands in for a carrier rate API; the
// surcharge arithmetic would be unchanged behind a real integration.
type TableProvider struct {
	rates       map[string]decimal.Decimal
	defaultRate decimal.Decimal
	currency    string
}

// Compile-time check that TableProvider implements Provider.
var _ Provider = (*TableProvider)(nil)

// Surcharge thresholds and per-unit rates. The first kilogram and the
// first liter ship at the base rate; every unit above them is charged.
var (
	weightFreeKg       = decimal.NewFromInt(1)
	weightRatePerKg    = decimal.RequireFromString("3.99")
	volumeFreeLiters   = decimal.NewFromInt(1)
	volumeRatePerLiter = decimal.RequireFromString("2.99")
)

// DefaultRates returns the launch rate table in EUR. ES is the domestic
// warehouse country; unlisted destinations fall back to the rest-of-world
// rate passed to NewTableProvider.
func DefaultRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"ES": decimal.RequireFromString("5.99"),
		"PT": decimal.RequireFromString("9.99"),
		"FR": decimal.RequireFromString("12.99"),
		"AD": decimal.RequireFromString("10.99"),
		"IT": decimal.RequireFromString("14.99"),
		"DE": decimal.RequireFromString("14.99"),
		"BE": decimal.RequireFromString("17.99"),
		"NL": decimal.RequireFromString("17.99"),
		"IE": decimal.RequireFromString("19.99"),
		"PL": decimal.RequireFromString("21.99"),
		"SE": decimal.RequireFromString("24.99"),
		"GB": decimal.RequireFromString("25.99"),
	}
}

// DefaultRestOfWorldRate is the fallback for countries not in the table.
var DefaultRestOfWorldRate = decimal.RequireFromString("29.99")

// NewTableProvider creates a table-based shipping provider.
// Country keys are ISO 3166-1 alpha-2, matched case-insensitively.
func NewTableProvider(rates map[string]decimal.Decimal, defaultRate decimal.Decimal, currency string) *TableProvider {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for country, rate := range rates {
		normalized[strings.ToUpper(country)] = rate
	}
	return &TableProvider{
		rates:       normalized,
		defaultRate: defaultRate,
		currency:    currency,
	}
}

// Quote prices the shipment: base rate by destination country, plus
// max(0, totalWeightKg-1) × 3.99 and max(0, totalVolumeLiters-1) × 2.99.
func (p *TableProvider) Quote(ctx context.Context, params QuoteParams) (*Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params.Parcels) == 0 {
		return nil, ErrNoParcels
	}
	country := strings.ToUpper(strings.TrimSpace(params.Destination.Country))
	if country == "" {
		return nil, ErrCountryRequired
	}

	baseRate, ok := p.rates[country]
	if !ok {
		baseRate = p.defaultRate
	}

	totalWeight := decimal.Zero
	totalVolume := decimal.Zero
	for _, parcel := range params.Parcels {
		totalWeight = totalWeight.Add(parcel.TotalWeightKg())
		totalVolume = totalVolume.Add(parcel.VolumeLiters())
	}

	weightSurcharge := surcharge(totalWeight, weightFreeKg, weightRatePerKg)
	volumeSurcharge := surcharge(totalVolume, volumeFreeLiters, volumeRatePerLiter)

	return &Quote{
		Amount:          baseRate.Add(weightSurcharge).Add(volumeSurcharge),
		Currency:        p.currency,
		Country:         country,
		BaseRate:        baseRate,
		WeightSurcharge: weightSurcharge,
		VolumeSurcharge: volumeSurcharge,
	}, nil
}

func surcharge(total, free, perUnit decimal.Decimal) decimal.Decimal {
	over := total.Sub(free)
	if over.Sign() <= 0 {
		return decimal.Zero
	}
	return over.Mul(perUnit)
}
