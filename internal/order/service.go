package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/forjalabs/forja/internal/billing"
	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/coupon"
	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/events"
)

// Service drives checkout: freezing the cart into an order, creating
// the payment intent, and settling the order when the webhook lands.
type Service interface {
	Checkout(ctx context.Context, sessionID string) (*CheckoutResult, error)
	HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error
	HandlePaymentFailed(ctx context.Context, paymentIntentID string) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, sessionID string) ([]*Order, error)
}

// CheckoutResult carries what the storefront needs to confirm payment.
type CheckoutResult struct {
	Order        *Order `json:"order"`
	ClientSecret string `json:"client_secret"`
}

var (
	// ErrEmptyCart is returned when checkout is attempted on a cart
	// with no items.
	ErrEmptyCart = domain.Errorf(domain.EINVALID, "order.checkout", "Cannot check out an empty cart")

	// ErrAddressRequired is returned when a cart with physical items
	// has no shipping address.
	ErrAddressRequired = domain.Errorf(domain.EINVALID, "order.checkout", "A shipping address is required for physical items")
)

type service struct {
	carts     cart.Service
	repo      Repository
	payments  billing.Provider
	coupons   coupon.Registry
	publisher events.Publisher
	logger    *slog.Logger
}

var _ Service = (*service)(nil)

func NewService(carts cart.Service, repo Repository, payments billing.Provider, coupons coupon.Registry, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		carts:     carts,
		repo:      repo,
		payments:  payments,
		coupons:   coupons,
		publisher: publisher,
		logger:    logger,
	}
}

// Checkout snapshots the session's cart into a pending order and opens
// a payment intent for the total. The cart itself is untouched until
// the payment succeeds.
func (s *service) Checkout(ctx context.Context, sessionID string) (*CheckoutResult, error) {
	summary, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if summary.ItemCount == 0 {
		return nil, ErrEmptyCart
	}
	if hasPhysical(summary.Items) && summary.Address == nil {
		return nil, ErrAddressRequired
	}

	couponCode := ""
	if summary.Coupon != nil {
		couponCode = summary.Coupon.Code
	}

	o := &Order{
		ID:           uuid.New(),
		SessionID:    sessionID,
		Items:        summary.Items,
		Subtotal:     summary.Subtotal,
		ShippingCost: summary.ShippingCost,
		Tax:          summary.Tax,
		Discount:     summary.Discount,
		Total:        summary.Total,
		Currency:     summary.Currency,
		CouponCode:   couponCode,
		Status:       StatusPending,
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, billing.CreatePaymentIntentParams{
		Amount:      summary.Total,
		Currency:    summary.Currency,
		SessionID:   sessionID,
		Description: fmt.Sprintf("Order %s", o.ID),
		Metadata:    map[string]string{"order_id": o.ID.String()},
	})
	if err != nil {
		return nil, err
	}
	o.PaymentIntentID = intent.ID

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, events.SubjectOrderCreated, o)

	return &CheckoutResult{Order: o, ClientSecret: intent.ClientSecret}, nil
}

// HandlePaymentSucceeded settles the order for a confirmed payment.
// Webhooks are delivered at least once, so an already paid order is a
// no-op. Settling also burns the coupon and empties the cart; failures
// in either are logged and retried on the next delivery, never bounced
// back to Stripe.
func (s *service) HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error {
	o, err := s.repo.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if o.Status == StatusPaid {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, o.ID, StatusPaid); err != nil {
		return err
	}
	o.Status = StatusPaid

	if o.CouponCode != "" {
		if err := s.coupons.IncrementUsage(ctx, o.CouponCode); err != nil {
			s.logger.ErrorContext(ctx, "failed to increment coupon usage",
				slog.String("order_id", o.ID.String()),
				slog.String("coupon", o.CouponCode),
				slog.String("error", err.Error()))
		}
	}

	if _, err := s.carts.Clear(ctx, o.SessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after payment",
			slog.String("order_id", o.ID.String()),
			slog.String("session_id", o.SessionID),
			slog.String("error", err.Error()))
	}

	s.publish(ctx, events.SubjectOrderPaid, o)
	return nil
}

func (s *service) HandlePaymentFailed(ctx context.Context, paymentIntentID string) error {
	o, err := s.repo.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if o.Status != StatusPending {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, o.ID, StatusFailed); err != nil {
		return err
	}
	o.Status = StatusFailed

	s.publish(ctx, events.SubjectOrderFailed, o)
	return nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListOrders(ctx context.Context, sessionID string) ([]*Order, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *service) publish(ctx context.Context, subject string, o *Order) {
	err := s.publisher.Publish(ctx, subject, events.OrderEvent{
		OrderID:    o.ID.String(),
		SessionID:  o.SessionID,
		Total:      o.Total,
		Currency:   o.Currency,
		CouponCode: o.CouponCode,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order event",
			slog.String("subject", subject),
			slog.String("order_id", o.ID.String()),
			slog.String("error", err.Error()))
	}
}

func hasPhysical(items []cart.LineItem) bool {
	for _, li := range items {
		if li.Kind == cart.KindPhysical {
			return true
		}
	}
	return false
}
