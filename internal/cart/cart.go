package cart

import (
	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/coupon"
	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/shipping"
)

// ItemKind distinguishes downloadable models from printed goods.
// Only physical items participate in shipping weight and volume.
type ItemKind string

const (
	KindDigital  ItemKind = "digital"
	KindPhysical ItemKind = "physical"
)

// Defaults applied to physical items that do not declare their own
// weight or dimensions.
var (
	DefaultWeightKg    = decimal.RequireFromString("0.1")
	DefaultDimensionCm = decimal.NewFromInt(10)
)

var (
	// ErrMissingItemID is returned when an item spec has no identifier.
	ErrMissingItemID = domain.Errorf(domain.EINVALID, "cart.add_item", "Item ID is required")

	// ErrNegativeUnitPrice is returned when an item spec carries a
	// negative price. The cart is left unchanged.
	ErrNegativeUnitPrice = domain.Errorf(domain.EINVALID, "cart.add_item", "Unit price must not be negative")
)

// ItemSpec describes a purchasable item being added to the cart.
// It carries no quantity: a first add inserts one unit and repeat
// adds of the same ID increment the existing row.
type ItemSpec struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Kind      ItemKind        `json:"kind"`

	// Zero values mean "not declared"; defaults apply for physical items.
	WeightKg decimal.Decimal `json:"weight_kg"`
	LengthCm decimal.Decimal `json:"length_cm"`
	WidthCm  decimal.Decimal `json:"width_cm"`
	HeightCm decimal.Decimal `json:"height_cm"`
}

// LineItem is one distinct purchasable entry in the cart.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Kind      ItemKind        `json:"kind"`
	WeightKg  decimal.Decimal `json:"weight_kg"`
	LengthCm  decimal.Decimal `json:"length_cm"`
	WidthCm   decimal.Decimal `json:"width_cm"`
	HeightCm  decimal.Decimal `json:"height_cm"`
}

// LineSubtotal returns unit price × quantity.
func (li LineItem) LineSubtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Parcel converts a physical line item to a shipment parcel, applying
// the default weight and dimensions where none were declared.
func (li LineItem) Parcel() shipping.Parcel {
	p := shipping.Parcel{
		WeightKg: li.WeightKg,
		LengthCm: li.LengthCm,
		WidthCm:  li.WidthCm,
		HeightCm: li.HeightCm,
		Quantity: li.Quantity,
	}
	if p.WeightKg.IsZero() {
		p.WeightKg = DefaultWeightKg
	}
	if p.LengthCm.IsZero() {
		p.LengthCm = DefaultDimensionCm
	}
	if p.WidthCm.IsZero() {
		p.WidthCm = DefaultDimensionCm
	}
	if p.HeightCm.IsZero() {
		p.HeightCm = DefaultDimensionCm
	}
	return p
}

// Cart is the aggregate the pricing engine operates on. It holds no I/O:
// mutations change in-memory state only, and the service layer persists
// the result. Items keep insertion order and are unique by ID.
//
// ShippingCost is the one cached derived value. It is reset to zero by
// any item or address mutation and filled back in by an explicit quote
// (SetShippingCost); everything else is recomputed on every read.
type Cart struct {
	Items        []LineItem        `json:"items"`
	Address      *shipping.Address `json:"address,omitempty"`
	Coupon       *coupon.Coupon    `json:"coupon,omitempty"`
	ShippingCost decimal.Decimal   `json:"shipping_cost"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{ShippingCost: decimal.Zero}
}

// AddItem inserts the item with quantity 1, or increments the quantity
// of an existing row with the same ID. On a repeat add the existing
// row's fields are kept and the new spec's fields are ignored.
func (c *Cart) AddItem(spec ItemSpec) error {
	if spec.ID == "" {
		return ErrMissingItemID
	}
	if spec.UnitPrice.IsNegative() {
		return ErrNegativeUnitPrice
	}

	for i := range c.Items {
		if c.Items[i].ID == spec.ID {
			c.Items[i].Quantity++
			c.invalidateShipping()
			return nil
		}
	}

	kind := spec.Kind
	if kind == "" {
		kind = KindPhysical
	}
	c.Items = append(c.Items, LineItem{
		ID:        spec.ID,
		Name:      spec.Name,
		UnitPrice: spec.UnitPrice,
		Quantity:  1,
		Kind:      kind,
		WeightKg:  spec.WeightKg,
		LengthCm:  spec.LengthCm,
		WidthCm:   spec.WidthCm,
		HeightCm:  spec.HeightCm,
	})
	c.invalidateShipping()
	return nil
}

// RemoveItem deletes the row with the given ID. Absent IDs are a no-op.
func (c *Cart) RemoveItem(id string) {
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.invalidateShipping()
			return
		}
	}
}

// UpdateQuantity sets the row's quantity to the given absolute value.
// A quantity of zero or less removes the row. Absent IDs are a no-op.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(id)
		return
	}
	for i := range c.Items {
		if c.Items[i].ID == id {
			c.Items[i].Quantity = quantity
			c.invalidateShipping()
			return
		}
	}
}

// Clear empties the items and drops the applied coupon. The shipping
// address survives so a returning customer keeps their destination.
func (c *Cart) Clear() {
	c.Items = nil
	c.Coupon = nil
	c.ShippingCost = decimal.Zero
}

// SetAddress replaces the shipping address unconditionally. The cached
// shipping cost is invalidated; recomputation is a separate, explicit
// operation because it may call out to a rate service.
func (c *Cart) SetAddress(addr shipping.Address) {
	c.Address = &addr
	c.invalidateShipping()
}

// SetCoupon replaces any currently applied coupon.
func (c *Cart) SetCoupon(cp *coupon.Coupon) {
	c.Coupon = cp
}

// RemoveCoupon clears the applied coupon unconditionally.
func (c *Cart) RemoveCoupon() {
	c.Coupon = nil
}

// SetShippingCost caches the result of a successful shipping quote.
func (c *Cart) SetShippingCost(cost decimal.Decimal) {
	c.ShippingCost = cost
}

func (c *Cart) invalidateShipping() {
	c.ShippingCost = decimal.Zero
}

// Parcels returns the shipment parcels for the physical items, with
// defaults applied. Digital items never ship.
func (c *Cart) Parcels() []shipping.Parcel {
	var parcels []shipping.Parcel
	for _, li := range c.Items {
		if li.Kind == KindPhysical {
			parcels = append(parcels, li.Parcel())
		}
	}
	return parcels
}

// Subtotal is the sum of unit price × quantity over all items. It is
// recomputed on every call and never stored.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.Items {
		sum = sum.Add(li.LineSubtotal())
	}
	return sum
}

// ItemCount is the total unit count across all rows.
func (c *Cart) ItemCount() int {
	n := 0
	for _, li := range c.Items {
		n += li.Quantity
	}
	return n
}

// Discount returns the amount the applied coupon takes off, computed
// against the coupon's target base. The applied coupon's eligibility is
// not re-checked here; validity is locked in at apply time.
func (c *Cart) Discount() decimal.Decimal {
	if c.Coupon == nil {
		return decimal.Zero
	}

	var base decimal.Decimal
	switch c.Coupon.Target {
	case coupon.TargetShipping:
		base = c.ShippingCost
	case coupon.TargetOrder:
		base = c.Subtotal().Add(c.ShippingCost)
	default:
		base = c.Subtotal()
	}

	return c.Coupon.Discount(base)
}

// Total is subtotal + cached shipping + tax − discount. The discount is
// capped at its base, so the total cannot go negative.
func (c *Cart) Total(tax decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Add(c.ShippingCost).Add(tax).Sub(c.Discount())
}
