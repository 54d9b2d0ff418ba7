package handler

import (
	"log/slog"
	"net/http"

	"github.com/forjalabs/forja/internal/billing"
	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/middleware"
	"github.com/forjalabs/forja/internal/order"
	"github.com/forjalabs/forja/internal/router"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Carts    cart.Service
	Orders   order.Service
	Payments billing.Provider
	Cookies  CookieConfig
	Logger   *slog.Logger
	Metrics  *middleware.Metrics
}

// NewRouter builds the full route table with the standard middleware
// chain applied to every route.
func NewRouter(deps Deps) *router.Router {
	chain := []router.Middleware{
		middleware.RequestID,
		middleware.WithRequestLogger(deps.Logger),
		middleware.Recover,
	}
	if deps.Metrics != nil {
		chain = append([]router.Middleware{deps.Metrics.Middleware}, chain...)
	}

	r := router.New(chain...)

	carts := NewCartHandler(deps.Carts, deps.Cookies)
	checkout := NewCheckoutHandler(deps.Orders, deps.Cookies)
	webhooks := NewWebhookHandler(deps.Payments, deps.Orders)

	r.Get("/cart", carts.Get)
	r.Post("/cart/items", carts.AddItem)
	r.Patch("/cart/items/{id}", carts.UpdateItem)
	r.Delete("/cart/items/{id}", carts.RemoveItem)
	r.Delete("/cart", carts.Clear)
	r.Put("/cart/address", carts.SetAddress)
	r.Post("/cart/shipping-quote", carts.QuoteShipping)
	r.Post("/cart/coupon", carts.ApplyCoupon)
	r.Delete("/cart/coupon", carts.RemoveCoupon)

	r.Post("/checkout", checkout.Checkout)
	r.Get("/orders", checkout.ListOrders)
	r.Get("/orders/{id}", checkout.GetOrder)

	r.Post("/webhooks/stripe", webhooks.HandleStripe)

	r.Get("/healthz", Health)
	if deps.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
