package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/shipping"
)

// CartHandler exposes the cart operations over JSON.
type CartHandler struct {
	carts   cart.Service
	cookies CookieConfig
}

func NewCartHandler(carts cart.Service, cookies CookieConfig) *CartHandler {
	return &CartHandler{carts: carts, cookies: cookies}
}

type addItemRequest struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Kind      string `json:"kind" validate:"omitempty,oneof=digital physical"`
	WeightKg  string `json:"weight_kg"`
	LengthCm  string `json:"length_cm"`
	WidthCm   string `json:"width_cm"`
	HeightCm  string `json:"height_cm"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type addressRequest struct {
	Name       string `json:"name"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone"`
}

type couponRequest struct {
	Code string `json:"code" validate:"required"`
}

// Get handles GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	summary, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// AddItem handles POST /cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	spec, err := req.toSpec()
	if err != nil {
		RespondError(w, r, err)
		return
	}

	summary, err := h.carts.AddItem(r.Context(), sessionID, spec)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// UpdateItem handles PATCH /cart/items/{id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	summary, err := h.carts.UpdateQuantity(r.Context(), sessionID, r.PathValue("id"), req.Quantity)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// RemoveItem handles DELETE /cart/items/{id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	summary, err := h.carts.RemoveItem(r.Context(), sessionID, r.PathValue("id"))
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	summary, err := h.carts.Clear(r.Context(), sessionID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// SetAddress handles PUT /cart/address.
func (h *CartHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	summary, err := h.carts.SetAddress(r.Context(), sessionID, shipping.Address{
		Name:       req.Name,
		Street:     req.Street,
		City:       req.City,
		Region:     req.Region,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// QuoteShipping handles POST /cart/shipping-quote.
func (h *CartHandler) QuoteShipping(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	summary, err := h.carts.QuoteShipping(r.Context(), sessionID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

// ApplyCoupon handles POST /cart/coupon. A rejected coupon is a 200
// with applied=false and a reason, not an error: the storefront shows
// the reason inline without treating the request as failed.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	var req couponRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, r, err)
		return
	}

	result, err := h.carts.ApplyCoupon(r.Context(), sessionID, req.Code)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// RemoveCoupon handles DELETE /cart/coupon.
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	sessionID := h.cookies.EnsureSession(w, r)

	summary, err := h.carts.RemoveCoupon(r.Context(), sessionID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

func (r addItemRequest) toSpec() (cart.ItemSpec, error) {
	const op = "handler.add_item"

	spec := cart.ItemSpec{
		ID:   r.ID,
		Name: r.Name,
		Kind: cart.ItemKind(r.Kind),
	}

	fields := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{r.UnitPrice, &spec.UnitPrice},
		{r.WeightKg, &spec.WeightKg},
		{r.LengthCm, &spec.LengthCm},
		{r.WidthCm, &spec.WidthCm},
		{r.HeightCm, &spec.HeightCm},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return cart.ItemSpec{}, domain.Errorf(domain.EINVALID, op, "Invalid decimal value %q", f.raw)
		}
		*f.dst = d
	}
	return spec, nil
}
