// Package order records completed checkouts and drives the payment
// lifecycle from intent creation through webhook confirmation.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/domain"
)

// Status is the order's payment state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Order is a snapshot of a cart at checkout time. The items and totals
// are frozen here so later catalog changes never alter a past order.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       string          `json:"session_id"`
	Items           []cart.LineItem `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Tax             decimal.Decimal `json:"tax"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ErrNotFound is returned when no order matches the lookup.
var ErrNotFound = domain.Errorf(domain.ENOTFOUND, "order.lookup", "Order not found")

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
