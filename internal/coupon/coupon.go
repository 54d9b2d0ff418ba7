package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/domain"
)

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// Percentage applies Value as a percentage of the discount target.
	Percentage DiscountType = "percentage"
	// Fixed applies Value as a flat monetary amount.
	Fixed DiscountType = "fixed"
)

// DiscountTarget selects which part of the order a coupon discounts.
// Free-shipping promotions are modeled as a 100% Percentage coupon with
// TargetShipping, not as a percentage of the goods subtotal.
type DiscountTarget string

const (
	TargetSubtotal DiscountTarget = "subtotal"
	TargetShipping DiscountTarget = "shipping"
	TargetOrder    DiscountTarget = "order"
)

// RejectReason explains why a coupon could not be applied.
// It backs the user-facing messaging required by the storefront.
type RejectReason string

const (
	ReasonNone         RejectReason = ""
	ReasonUnknownCode  RejectReason = "unknown_code"
	ReasonBelowMinimum RejectReason = "below_minimum"
	ReasonExpired      RejectReason = "expired"
	ReasonExhausted    RejectReason = "usage_exhausted"
)

// ErrNotFound is returned by registries when a code does not exist.
var ErrNotFound = domain.Errorf(domain.ENOTFOUND, "coupon.lookup", "Coupon not found")

// Coupon is a named discount rule with eligibility preconditions.
// Monetary fields use decimal to keep cart arithmetic exact.
type Coupon struct {
	Code         string          `json:"code"`
	Type         DiscountType    `json:"type"`
	Target       DiscountTarget  `json:"target"`
	Value        decimal.Decimal `json:"value"`
	MinSubtotal  decimal.Decimal `json:"min_subtotal"`  // zero means no minimum
	MaxDiscount  decimal.Decimal `json:"max_discount"`  // zero means no cap; meaningful for Percentage only
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	UsageLimit   int             `json:"usage_limit"` // zero means unlimited
	UsedCount    int             `json:"used_count"`
}

// Registry provides lookup of coupon rules by code.
type Registry interface {
	// FindByCode resolves a coupon code case-insensitively.
	// Returns ErrNotFound when the code does not exist.
	FindByCode(ctx context.Context, code string) (*Coupon, error)

	// IncrementUsage records one redemption of the code.
	IncrementUsage(ctx context.Context, code string) error
}

// Normalize returns the canonical form of a coupon code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a coupon's eligibility preconditions against the current
// cart subtotal and clock. Validation happens at apply time only; an applied
// coupon is not re-validated when totals are later recomputed.
func Validate(c *Coupon, subtotal decimal.Decimal, now time.Time) RejectReason {
	if c == nil {
		return ReasonUnknownCode
	}
	if !c.MinSubtotal.IsZero() && subtotal.LessThan(c.MinSubtotal) {
		return ReasonBelowMinimum
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ReasonExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ReasonExhausted
	}
	return ReasonNone
}

// Discount computes the discount amount a coupon yields against the given
// base amount (the coupon's target: subtotal, shipping, or both combined).
// The result is capped at the base so a discount can never exceed what it
// applies to, and percentage discounts additionally honor MaxDiscount.
func (c *Coupon) Discount(base decimal.Decimal) decimal.Decimal {
	if c == nil || base.Sign() <= 0 {
		return decimal.Zero
	}

	var raw decimal.Decimal
	switch c.Type {
	case Percentage:
		raw = base.Mul(c.Value).Div(decimal.NewFromInt(100))
		if !c.MaxDiscount.IsZero() && raw.GreaterThan(c.MaxDiscount) {
			raw = c.MaxDiscount
		}
	case Fixed:
		raw = c.Value
	default:
		return decimal.Zero
	}

	if raw.GreaterThan(base) {
		return base
	}
	return raw
}
