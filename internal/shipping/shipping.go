package shipping

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider defines the interface for shipping rate quotes.
// Implementations can integrate with carrier APIs; the built-in
// TableProvider prices from a per-country rate table.
type Provider interface {
	// Quote returns the shipping cost for delivering the given parcels
	// to the destination address. This is the engine's one suspending
	// collaborator: it may perform remote lookups and must honor ctx.
	Quote(ctx context.Context, params QuoteParams) (*Quote, error)
}

// QuoteParams contains parameters for a rate quote.
type QuoteParams struct {
	Destination Address
	Parcels     []Parcel
}

// Address represents a delivery address. Only Country affects the
// computed cost; the remaining fields are opaque to this package and
// travel through to carrier integrations.
type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// Parcel represents a physical line item prepared for shipment.
// Quantity multiplies both weight and volume.
type Parcel struct {
	WeightKg decimal.Decimal
	LengthCm decimal.Decimal
	WidthCm  decimal.Decimal
	HeightCm decimal.Decimal
	Quantity int
}

// VolumeLiters returns the parcel volume in liters (dm³) across its quantity.
func (p Parcel) VolumeLiters() decimal.Decimal {
	cm3 := p.LengthCm.Mul(p.WidthCm).Mul(p.HeightCm)
	return cm3.Div(decimal.NewFromInt(1000)).Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// TotalWeightKg returns the parcel weight in kilograms across its quantity.
func (p Parcel) TotalWeightKg() decimal.Decimal {
	return p.WeightKg.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Quote is a priced shipping offer with its cost breakdown.
type Quote struct {
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Country         string          `json:"country"`
	BaseRate        decimal.Decimal `json:"base_rate"`
	WeightSurcharge decimal.Decimal `json:"weight_surcharge"`
	VolumeSurcharge decimal.Decimal `json:"volume_surcharge"`
}
