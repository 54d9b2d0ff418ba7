package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/forjalabs/forja/internal/billing"
	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/middleware"
	"github.com/forjalabs/forja/internal/order"
)

// maxWebhookBody bounds webhook payload size. Stripe events are small;
// anything larger is not from Stripe.
const maxWebhookBody = 64 * 1024

// WebhookHandler processes payment provider webhooks.
type WebhookHandler struct {
	payments billing.Provider
	orders   order.Service
}

func NewWebhookHandler(payments billing.Provider, orders order.Service) *WebhookHandler {
	return &WebhookHandler{payments: payments, orders: orders}
}

// HandleStripe handles POST /webhooks/stripe. The signature is checked
// before anything else; an unverified payload is never parsed. Unknown
// event types are acknowledged so Stripe stops redelivering them.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		RespondError(w, r, domain.WrapError(err, domain.EINVALID, "handler.webhook", "Unable to read webhook body"))
		return
	}

	event, err := h.payments.VerifyWebhookSignature(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		RespondError(w, r, err)
		return
	}

	logger := middleware.GetLogger(r.Context())
	logger.Info("webhook received",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type))

	switch event.Type {
	case billing.EventPaymentSucceeded:
		err = h.orders.HandlePaymentSucceeded(r.Context(), event.PaymentIntentID)
	case billing.EventPaymentFailed:
		err = h.orders.HandlePaymentFailed(r.Context(), event.PaymentIntentID)
	default:
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
