package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/coupon"
	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/shipping"
	"github.com/forjalabs/forja/internal/tax"
)

// Store is the slice of the persistence layer the service needs. It
// matches store.CartStore; redeclared here so the engine package does
// not import its own persistence.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Service exposes the session-scoped cart operations. Every call loads
// the session's cart, mutates it in memory, and persists the result.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Summary, error)
	AddItem(ctx context.Context, sessionID string, spec ItemSpec) (*Summary, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Summary, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*Summary, error)
	Clear(ctx context.Context, sessionID string) (*Summary, error)
	SetAddress(ctx context.Context, sessionID string, addr shipping.Address) (*Summary, error)
	QuoteShipping(ctx context.Context, sessionID string) (*Summary, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (*CouponResult, error)
	RemoveCoupon(ctx context.Context, sessionID string) (*Summary, error)
}

// Summary is the fully priced view of a cart returned to callers.
type Summary struct {
	Items        []LineItem        `json:"items"`
	Address      *shipping.Address `json:"address,omitempty"`
	Coupon       *coupon.Coupon    `json:"coupon,omitempty"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	ShippingCost decimal.Decimal   `json:"shipping_cost"`
	Tax          decimal.Decimal   `json:"tax"`
	TaxName      string            `json:"tax_name"`
	Discount     decimal.Decimal   `json:"discount"`
	Total        decimal.Decimal   `json:"total"`
	ItemCount    int               `json:"item_count"`
	Currency     string            `json:"currency"`
}

// CouponResult reports an apply attempt. A rejected coupon is not an
// error: Applied is false and Reason says why, while the summary shows
// the cart as it stands.
type CouponResult struct {
	Summary *Summary            `json:"summary"`
	Applied bool                `json:"applied"`
	Reason  coupon.RejectReason `json:"reason,omitempty"`
}

// ErrAddressRequired is returned by QuoteShipping when the cart has no
// shipping address yet.
var ErrAddressRequired = domain.Errorf(domain.EINVALID, "cart.quote_shipping", "A shipping address is required before quoting shipping")

type service struct {
	store    Store
	coupons  coupon.Registry
	shipper  shipping.Provider
	taxes    tax.Calculator
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

var _ Service = (*service)(nil)

// NewService wires the cart service. Currency is the ISO code reported
// on every summary, e.g. "EUR".
func NewService(store Store, coupons coupon.Registry, shipper shipping.Provider, taxes tax.Calculator, currency string, logger *slog.Logger) Service {
	return &service{
		store:    store,
		coupons:  coupons,
		shipper:  shipper,
		taxes:    taxes,
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Get(ctx context.Context, sessionID string) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, c)
}

func (s *service) AddItem(ctx context.Context, sessionID string, spec ItemSpec) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.AddItem(spec); err != nil {
		return nil, err
	}
	s.persist(ctx, sessionID, c)
	return s.summarize(ctx, c)
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.UpdateQuantity(itemID, quantity)
	s.persist(ctx, sessionID, c)
	return s.summarize(ctx, c)
}

func (s *service) RemoveItem(ctx context.Context, sessionID, itemID string) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(itemID)
	s.persist(ctx, sessionID, c)
	return s.summarize(ctx, c)
}

func (s *service) Clear(ctx context.Context, sessionID string) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Clear()
	s.persist(ctx, sessionID, c)
	return s.summarize(ctx, c)
}

func (s *service) SetAddress(ctx context.Context, sessionID string, addr shipping.Address) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.SetAddress(addr)
	s.persist(ctx, sessionID, c)
	return s.summarize(ctx, c)
}

// QuoteShipping recomputes the shipping cost for the cart's physical
// items. A cart with no physical items quotes zero without calling the
// provider. A provider failure leaves the cached cost untouched and is
// surfaced to the caller.
func (s *service) QuoteShipping(ctx context.Context, sessionID string) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.Address == nil {
		return nil, ErrAddressRequired
	}

	parcels := c.Parcels()
	if len(parcels) == 0 {
		c.SetShippingCost(decimal.Zero)
		s.persist(ctx, sessionID, c)
		return s.summarize(ctx, c)
	}

	quote, err := s.shipper.Quote(ctx, shipping.QuoteParams{
		Destination: *c.Address,
		Parcels:     parcels,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "cart.quote_shipping", "Unable to quote shipping")
	}

	c.SetShippingCost(quote.Amount)
	s.persist(ctx, sessionID, c)
	return s.summarize(ctx, c)
}

// ApplyCoupon looks the code up and checks its eligibility against the
// current subtotal. Eligibility is checked only here: once applied, the
// coupon sticks to the cart even if later mutations drop the subtotal
// below its minimum.
func (s *service) ApplyCoupon(ctx context.Context, sessionID, code string) (*CouponResult, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cp, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return s.rejection(ctx, c, coupon.ReasonUnknownCode)
		}
		return nil, err
	}

	if reason := coupon.Validate(cp, c.Subtotal(), s.now()); reason != coupon.ReasonNone {
		return s.rejection(ctx, c, reason)
	}

	c.SetCoupon(cp)
	s.persist(ctx, sessionID, c)

	summary, err := s.summarize(ctx, c)
	if err != nil {
		return nil, err
	}
	return &CouponResult{Summary: summary, Applied: true, Reason: coupon.ReasonNone}, nil
}

func (s *service) RemoveCoupon(ctx context.Context, sessionID string) (*Summary, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.RemoveCoupon()
	s.persist(ctx, sessionID, c)
	return s.summarize(ctx, c)
}

func (s *service) rejection(ctx context.Context, c *Cart, reason coupon.RejectReason) (*CouponResult, error) {
	summary, err := s.summarize(ctx, c)
	if err != nil {
		return nil, err
	}
	return &CouponResult{Summary: summary, Applied: false, Reason: reason}, nil
}

// persist writes the cart back to the store. Write failures are logged
// and never surfaced: the caller already has the correct in-memory
// state, and the next successful write heals the stored copy.
func (s *service) persist(ctx context.Context, sessionID string, c *Cart) {
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}
}

func (s *service) summarize(ctx context.Context, c *Cart) (*Summary, error) {
	country := ""
	if c.Address != nil {
		country = c.Address.Country
	}

	taxResult, err := s.taxes.Calculate(ctx, tax.Params{
		Subtotal: c.Subtotal(),
		Shipping: c.ShippingCost,
		Country:  country,
	})
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, "cart.summarize", "Unable to calculate tax")
	}

	return &Summary{
		Items:        c.Items,
		Address:      c.Address,
		Coupon:       c.Coupon,
		Subtotal:     c.Subtotal(),
		ShippingCost: c.ShippingCost,
		Tax:          taxResult.Amount,
		TaxName:      taxResult.Name,
		Discount:     c.Discount(),
		Total:        c.Total(taxResult.Amount),
		ItemCount:    c.ItemCount(),
		Currency:     s.currency,
	}, nil
}
