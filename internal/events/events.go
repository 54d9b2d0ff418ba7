// Package events publishes order lifecycle notifications so fulfillment
// and mail workers can react without being wired into checkout.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Subjects published by the checkout flow.
const (
	SubjectOrderCreated = "orders.created"
	SubjectOrderPaid    = "orders.paid"
	SubjectOrderFailed  = "orders.failed"
)

// OrderEvent is the payload for every order subject.
type OrderEvent struct {
	OrderID    string          `json:"order_id"`
	SessionID  string          `json:"session_id"`
	Total      decimal.Decimal `json:"total"`
	Currency   string          `json:"currency"`
	CouponCode string          `json:"coupon_code,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher delivers events to interested consumers. Publishing is
// fire-and-forget from the caller's point of view; failures are for the
// caller to log, not to fail the request on.
type Publisher interface {
	Publish(ctx context.Context, subject string, event OrderEvent) error
	Close()
}
