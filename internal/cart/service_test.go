package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forjalabs/forja/internal/coupon"
	"github.com/forjalabs/forja/internal/shipping"
	"github.com/forjalabs/forja/internal/tax"
)

// fakeStore keeps carts as JSON in memory and can be told to fail
// writes, mirroring the behavior of the real stores.
type fakeStore struct {
	carts    map[string][]byte
	saveErr  error
	saves    int
	lastSave string
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: make(map[string][]byte)}
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, ok := f.carts[sessionID]
	if !ok {
		return New(), nil
	}
	c := New()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *fakeStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	f.saves++
	f.lastSave = sessionID
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	f.carts[sessionID] = raw
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.carts, sessionID)
	return nil
}

func newTestService(t *testing.T, store Store, shipper shipping.Provider) Service {
	t.Helper()
	if shipper == nil {
		shipper = shipping.NewTableProvider(shipping.DefaultRates(), shipping.DefaultRestOfWorldRate, "EUR")
	}
	return NewService(
		store,
		coupon.NewStaticRegistry(coupon.DefaultCoupons()...),
		shipper,
		tax.NewPercentageCalculator(decimal.RequireFromString("0.21"), "VAT"),
		"EUR",
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
	)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestService_AddItemPersistsAndPrices(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(t, store, nil)

	summary, err := svc.AddItem(ctx, "sess-1", ItemSpec{ID: "model-1", Name: "Dragon", UnitPrice: dec("24.99"), Kind: KindDigital})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ItemCount)
	assert.True(t, summary.Subtotal.Equal(dec("24.99")))
	assert.True(t, summary.Tax.Equal(dec("5.2479")))
	assert.Equal(t, "EUR", summary.Currency)
	assert.Equal(t, 1, store.saves)

	// A fresh service call sees the persisted state.
	got, err := svc.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ItemCount)
}

func TestService_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore(), nil)

	_, err := svc.AddItem(ctx, "sess-a", ItemSpec{ID: "model-1", UnitPrice: dec("10")})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "sess-b")
	require.NoError(t, err)
	assert.Zero(t, got.ItemCount)
}

func TestService_SaveFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.saveErr = errors.New("redis gone")
	svc := newTestService(t, store, nil)

	summary, err := svc.AddItem(ctx, "sess-1", ItemSpec{ID: "model-1", UnitPrice: dec("10")})
	require.NoError(t, err, "a failed write must not break the request")
	assert.Equal(t, 1, summary.ItemCount)
}

func TestService_QuoteShipping(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an address", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		_, err := svc.AddItem(ctx, "s", ItemSpec{ID: "a", Kind: KindPhysical, UnitPrice: dec("10")})
		require.NoError(t, err)

		_, err = svc.QuoteShipping(ctx, "s")
		assert.ErrorIs(t, err, ErrAddressRequired)
	})

	t.Run("domestic quote with surcharges", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		_, err := svc.AddItem(ctx, "s", ItemSpec{ID: "a", Kind: KindPhysical, UnitPrice: dec("30"), WeightKg: dec("0.6")})
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, "s", ItemSpec{ID: "b", Kind: KindPhysical, UnitPrice: dec("20"), WeightKg: dec("0.8")})
		require.NoError(t, err)
		_, err = svc.SetAddress(ctx, "s", shipping.Address{Country: "ES"})
		require.NoError(t, err)

		summary, err := svc.QuoteShipping(ctx, "s")
		require.NoError(t, err)
		assert.True(t, summary.ShippingCost.Equal(dec("10.576")), "got %s", summary.ShippingCost)
	})

	t.Run("digital-only cart ships free without calling the provider", func(t *testing.T) {
		mock := &shipping.MockProvider{}
		svc := newTestService(t, newFakeStore(), mock)
		_, err := svc.AddItem(ctx, "s", ItemSpec{ID: "stl", Kind: KindDigital, UnitPrice: dec("15")})
		require.NoError(t, err)
		_, err = svc.SetAddress(ctx, "s", shipping.Address{Country: "ES"})
		require.NoError(t, err)

		summary, err := svc.QuoteShipping(ctx, "s")
		require.NoError(t, err)
		assert.True(t, summary.ShippingCost.IsZero())
		assert.Empty(t, mock.Calls)
	})

	t.Run("provider failure leaves the cached cost untouched", func(t *testing.T) {
		store := newFakeStore()
		mock := &shipping.MockProvider{
			QuoteFunc: func(ctx context.Context, params shipping.QuoteParams) (*shipping.Quote, error) {
				return &shipping.Quote{Amount: dec("5.99"), Currency: "EUR"}, nil
			},
		}
		svc := newTestService(t, store, mock)

		_, err := svc.AddItem(ctx, "s", ItemSpec{ID: "a", Kind: KindPhysical, UnitPrice: dec("10")})
		require.NoError(t, err)
		_, err = svc.SetAddress(ctx, "s", shipping.Address{Country: "ES"})
		require.NoError(t, err)
		_, err = svc.QuoteShipping(ctx, "s")
		require.NoError(t, err)

		mock.QuoteFunc = func(ctx context.Context, params shipping.QuoteParams) (*shipping.Quote, error) {
			return nil, errors.New("rate service down")
		}
		_, err = svc.QuoteShipping(ctx, "s")
		require.Error(t, err)

		got, err := svc.Get(ctx, "s")
		require.NoError(t, err)
		assert.True(t, got.ShippingCost.Equal(dec("5.99")), "failed quote must not clobber the cached cost")
	})
}

func TestService_ApplyCoupon(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, svc Service, price string) {
		t.Helper()
		_, err := svc.AddItem(ctx, "s", ItemSpec{ID: "a", Kind: KindDigital, UnitPrice: dec(price)})
		require.NoError(t, err)
	}

	t.Run("applies and discounts", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		seed(t, svc, "100")

		res, err := svc.ApplyCoupon(ctx, "s", "descuento10")
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, coupon.ReasonNone, res.Reason)
		assert.True(t, res.Summary.Discount.Equal(dec("10")))
		require.NotNil(t, res.Summary.Coupon)
		assert.Equal(t, "DESCUENTO10", res.Summary.Coupon.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		seed(t, svc, "100")

		res, err := svc.ApplyCoupon(ctx, "s", "NOEXISTE")
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, coupon.ReasonUnknownCode, res.Reason)
		assert.Nil(t, res.Summary.Coupon)
	})

	t.Run("below minimum", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		seed(t, svc, "19.99")

		res, err := svc.ApplyCoupon(ctx, "s", "DESCUENTO10")
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, coupon.ReasonBelowMinimum, res.Reason)
	})

	t.Run("replacing a coupon keeps only the newest", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		seed(t, svc, "100")

		_, err := svc.ApplyCoupon(ctx, "s", "DESCUENTO10")
		require.NoError(t, err)
		res, err := svc.ApplyCoupon(ctx, "s", "VERANO15")
		require.NoError(t, err)
		require.True(t, res.Applied)
		assert.Equal(t, "VERANO15", res.Summary.Coupon.Code)
		assert.True(t, res.Summary.Discount.Equal(dec("15")))
	})

	t.Run("applied coupon survives a later subtotal drop", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		seed(t, svc, "100")

		res, err := svc.ApplyCoupon(ctx, "s", "DESCUENTO10")
		require.NoError(t, err)
		require.True(t, res.Applied)

		summary, err := svc.UpdateQuantity(ctx, "s", "a", 0)
		require.NoError(t, err)
		require.NotNil(t, summary.Coupon, "eligibility is locked in at apply time")
		assert.True(t, summary.Discount.IsZero(), "a 10% coupon on nothing discounts nothing")
	})

	t.Run("remove coupon", func(t *testing.T) {
		svc := newTestService(t, newFakeStore(), nil)
		seed(t, svc, "100")

		_, err := svc.ApplyCoupon(ctx, "s", "DESCUENTO10")
		require.NoError(t, err)
		summary, err := svc.RemoveCoupon(ctx, "s")
		require.NoError(t, err)
		assert.Nil(t, summary.Coupon)
		assert.True(t, summary.Discount.IsZero())
	})
}

func TestService_ApplyCoupon_Expired(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	registry := coupon.NewStaticRegistry(&coupon.Coupon{
		Code:      "CADUCADO",
		Type:      coupon.Percentage,
		Target:    coupon.TargetSubtotal,
		Value:     dec("10"),
		ExpiresAt: &expired,
	})
	svc := NewService(store, registry,
		shipping.NewTableProvider(shipping.DefaultRates(), shipping.DefaultRestOfWorldRate, "EUR"),
		tax.NewPercentageCalculator(dec("0.21"), "VAT"), "EUR",
		slog.New(slog.NewTextHandler(testWriter{t}, nil)))

	_, err := svc.AddItem(ctx, "s", ItemSpec{ID: "a", UnitPrice: dec("100")})
	require.NoError(t, err)

	res, err := svc.ApplyCoupon(ctx, "s", "CADUCADO")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, coupon.ReasonExpired, res.Reason)
}

func TestService_ClearKeepsAddress(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeStore(), nil)

	_, err := svc.AddItem(ctx, "s", ItemSpec{ID: "a", UnitPrice: dec("100")})
	require.NoError(t, err)
	_, err = svc.SetAddress(ctx, "s", shipping.Address{Country: "ES", City: "Sevilla"})
	require.NoError(t, err)
	res, err := svc.ApplyCoupon(ctx, "s", "FIJO5")
	require.NoError(t, err)
	require.True(t, res.Applied)

	summary, err := svc.Clear(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, summary.ItemCount)
	assert.Nil(t, summary.Coupon)
	require.NotNil(t, summary.Address)
	assert.Equal(t, "Sevilla", summary.Address.City)
}
