package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/order"
)

// CheckoutHandler exposes checkout and order lookup.
type CheckoutHandler struct {
	orders  order.Service
	cookies CookieConfig
}

func NewCheckoutHandler(orders order.Service, cookies CookieConfig) *CheckoutHandler {
	return &CheckoutHandler{orders: orders, cookies: cookies}
}

// Checkout handles POST /checkout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	result, err := h.orders.Checkout(r.Context(), sessionID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}

// GetOrder handles GET /orders/{id}. Orders are scoped to the session
// that created them.
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondError(w, r, domain.Errorf(domain.EINVALID, "handler.get_order", "Invalid order ID"))
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	if o.SessionID != sessionID {
		RespondError(w, r, order.ErrNotFound)
		return
	}
	RespondJSON(w, http.StatusOK, o)
}

// ListOrders handles GET /orders.
func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	orders, err := h.orders.ListOrders(r.Context(), sessionID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	RespondJSON(w, http.StatusOK, orders)
}
