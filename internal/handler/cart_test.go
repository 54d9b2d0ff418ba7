package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjalabs/forja/internal/billing"
	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/coupon"
	"github.com/forjalabs/forja/internal/events"
	"github.com/forjalabs/forja/internal/order"
	"github.com/forjalabs/forja/internal/shipping"
	"github.com/forjalabs/forja/internal/store"
	"github.com/forjalabs/forja/internal/tax"
	"github.com/shopspring/decimal"
)

// client drives the API in tests, carrying the session cookie between
// requests like a browser would.
type client struct {
	t       *testing.T
	router  http.Handler
	cookies []*http.Cookie
}

func newTestAPI(t *testing.T) (*client, *billing.MockProvider) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	registry := coupon.NewStaticRegistry(coupon.DefaultCoupons()...)
	carts := cart.NewService(
		store.NewMemoryStore(),
		registry,
		shipping.NewTableProvider(shipping.DefaultRates(), shipping.DefaultRestOfWorldRate, "EUR"),
		tax.NewPercentageCalculator(decimal.RequireFromString("0.21"), "VAT"),
		"EUR",
		logger,
	)
	payments := &billing.MockProvider{}
	orders := order.NewService(carts, order.NewMemoryRepository(), payments, registry, &events.RecordingPublisher{}, logger)

	r := NewRouter(Deps{
		Carts:    carts,
		Orders:   orders,
		Payments: payments,
		Cookies:  CookieConfig{},
		Logger:   logger,
	})
	return &client{t: t, router: r}, payments
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func (c *client) summary(rec *httptest.ResponseRecorder) *cart.Summary {
	c.t.Helper()
	var s cart.Summary
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &s))
	return &s
}

func TestAPI_CartFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, api.summary(rec).ItemCount)
	require.NotEmpty(t, api.cookies, "first request must set the session cookie")

	rec = api.do(http.MethodPost, "/cart/items", `{"id":"model-7","name":"Articulated Dragon","unit_price":"24.99","kind":"physical","weight_kg":"0.6"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	s := api.summary(rec)
	assert.Equal(t, 1, s.ItemCount)
	assert.True(t, s.Subtotal.Equal(decimal.RequireFromString("24.99")))

	// Same item again increments quantity.
	rec = api.do(http.MethodPost, "/cart/items", `{"id":"model-7","unit_price":"24.99"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, api.summary(rec).ItemCount)

	rec = api.do(http.MethodPatch, "/cart/items/model-7", `{"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, api.summary(rec).ItemCount)

	rec = api.do(http.MethodPut, "/cart/address", `{"street":"Calle Mayor 1","city":"Madrid","postal_code":"28013","country":"ES"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/cart/shipping-quote", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s = api.summary(rec)
	// 3 × 0.6kg = 1.8kg: 5.99 base + 0.8×3.99 + 2×2.99 volume overage.
	assert.True(t, s.ShippingCost.Equal(decimal.RequireFromString("15.162")), "got %s", s.ShippingCost)

	rec = api.do(http.MethodDelete, "/cart/items/model-7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s = api.summary(rec)
	assert.Zero(t, s.ItemCount)
	assert.True(t, s.ShippingCost.IsZero(), "item mutation drops the quote")
}

func TestAPI_AddItemValidation(t *testing.T) {
	api, _ := newTestAPI(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing id", body: `{"unit_price":"9.99"}`},
		{name: "missing unit price", body: `{"id":"x"}`},
		{name: "bad kind", body: `{"id":"x","unit_price":"9.99","kind":"liquid"}`},
		{name: "unparseable price", body: `{"id":"x","unit_price":"abc"}`},
		{name: "negative price", body: `{"id":"x","unit_price":"-1"}`},
		{name: "not json", body: `hola`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, "/cart/items", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid")
		})
	}
}

func TestAPI_CouponFlow(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(http.MethodPost, "/cart/items", `{"id":"model-1","unit_price":"100","kind":"digital"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/cart/coupon", `{"code":"descuento10"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result cart.CouponResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Applied)
	assert.True(t, result.Summary.Discount.Equal(decimal.NewFromInt(10)))

	// Rejection is still a 200 with a reason.
	rec = api.do(http.MethodPost, "/cart/coupon", `{"code":"NOEXISTE"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Applied)
	assert.Equal(t, coupon.ReasonUnknownCode, result.Reason)

	rec = api.do(http.MethodDelete, "/cart/coupon", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, api.summary(rec).Discount.IsZero())
}

func TestAPI_SessionIsolation(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(http.MethodPost, "/cart/items", `{"id":"model-1","unit_price":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// A second client on the same server gets its own session.
	fresh := &client{t: t, router: api.router}
	rec = fresh.do(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, fresh.summary(rec).ItemCount)
}

func TestAPI_Checkout(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := api.do(http.MethodPost, "/checkout", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart cannot check out")

	rec = api.do(http.MethodPost, "/cart/items", `{"id":"stl-1","unit_price":"15","kind":"digital"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var result order.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "pi_mock_secret", result.ClientSecret)
	assert.Equal(t, order.StatusPending, result.Order.Status)

	rec = api.do(http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []*order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)

	rec = api.do(http.MethodGet, "/orders/"+result.Order.ID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another session cannot see the order.
	stranger := &client{t: t, router: api.router}
	rec = stranger.do(http.MethodGet, "/orders/"+result.Order.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_StripeWebhook(t *testing.T) {
	api, payments := newTestAPI(t)

	rec := api.do(http.MethodPost, "/cart/items", `{"id":"stl-1","unit_price":"15","kind":"digital"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodPost, "/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var result order.CheckoutResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	payments.VerifyWebhookSignatureFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{
			ID:              "evt_1",
			Type:            billing.EventPaymentSucceeded,
			PaymentIntentID: result.Order.PaymentIntentID,
		}, nil
	}

	rec = api.do(http.MethodPost, "/webhooks/stripe", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "processed")

	rec = api.do(http.MethodGet, "/orders/"+result.Order.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var o order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, order.StatusPaid, o.Status)

	// Cart was emptied by the settlement.
	rec = api.do(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, api.summary(rec).ItemCount)

	// Unknown event types are acknowledged, not failed.
	payments.VerifyWebhookSignatureFunc = func(payload []byte, signature string) (*billing.WebhookEvent, error) {
		return &billing.WebhookEvent{ID: "evt_2", Type: "charge.refunded"}, nil
	}
	rec = api.do(http.MethodPost, "/webhooks/stripe", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}

func TestAPI_Health(t *testing.T) {
	api, _ := newTestAPI(t)
	rec := api.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
