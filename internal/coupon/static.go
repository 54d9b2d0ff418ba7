package coupon

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// StaticRegistry is an in-memory coupon registry. It backs development and
// tests, and serves as the fallback when no database is configured.
// Safe for concurrent use.
type StaticRegistry struct {
	mu      sync.RWMutex
	coupons map[string]*Coupon
}

// NewStaticRegistry creates a registry holding the given coupons.
func NewStaticRegistry(coupons ...*Coupon) *StaticRegistry {
	r := &StaticRegistry{coupons: make(map[string]*Coupon, len(coupons))}
	for _, c := range coupons {
		r.coupons[Normalize(c.Code)] = c
	}
	return r
}

// DefaultCoupons returns the storefront's launch promotion set.
func DefaultCoupons() []*Coupon {
	return []*Coupon{
		{
			Code:        "DESCUENTO10",
			Type:        Percentage,
			Target:      TargetSubtotal,
			Value:       decimal.NewFromInt(10),
			MinSubtotal: decimal.NewFromInt(20),
		},
		{
			Code:        "PRIMERA20",
			Type:        Percentage,
			Target:      TargetSubtotal,
			Value:       decimal.NewFromInt(20),
			MinSubtotal: decimal.NewFromInt(50),
			MaxDiscount: decimal.NewFromInt(30),
		},
		{
			Code:        "VERANO15",
			Type:        Percentage,
			Target:      TargetSubtotal,
			Value:       decimal.NewFromInt(15),
			MinSubtotal: decimal.NewFromInt(30),
		},
		{
			Code:        "ENVIOGRATIS",
			Type:        Percentage,
			Target:      TargetShipping,
			Value:       decimal.NewFromInt(100),
			MinSubtotal: decimal.NewFromInt(75),
		},
		{
			Code:        "FIJO5",
			Type:        Fixed,
			Target:      TargetSubtotal,
			Value:       decimal.NewFromInt(5),
			MinSubtotal: decimal.NewFromInt(25),
		},
	}
}

// FindByCode resolves a coupon code case-insensitively.
func (r *StaticRegistry) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.coupons[Normalize(code)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// IncrementUsage records one redemption of the code.
func (r *StaticRegistry) IncrementUsage(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coupons[Normalize(code)]
	if !ok {
		return ErrNotFound
	}
	c.UsedCount++
	return nil
}
