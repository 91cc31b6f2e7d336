package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/modules/billing"
	"github.com/dmitrymomot/billingkit/pkg/ratelimiter"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CheckoutURL(ctx context.Context, req subscription.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) UpdateURL(ctx context.Context, req subscription.UpdateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CancelURL(ctx context.Context, req subscription.CancelRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) PortalURL(ctx context.Context, req subscription.PortalRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (subscription.Event, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(subscription.Event), args.Error(1)
}

func (m *mockProvider) SignatureHeader() string {
	return "X-Test-Signature"
}

func setup(t *testing.T) (http.Handler, *subscription.MemoryStore, *mockProvider) {
	t.Helper()
	store := subscription.NewMemoryStore()
	provider := &mockProvider{}
	svc := subscription.NewService(store, provider, subscription.MustPriceTable(map[subscription.Tier]string{
		subscription.TierBasic:    "price_basic",
		subscription.TierStandard: "price_standard",
		subscription.TierPremium:  "price_premium",
	}), subscription.WithReturnURL("https://app.example.com/dashboard"))
	return billing.Router(svc, billing.WithProviderName("test")), store, provider
}

func do(h http.Handler, method, path, account, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if account != "" {
		r.Header.Set(billing.AccountHeader, account)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

type envelope struct {
	Data  map[string]any `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	return e
}

func strPtr(s string) *string { return &s }

func TestGetSubscription(t *testing.T) {
	t.Parallel()

	h, store, _ := setup(t)

	rec := do(h, http.MethodGet, "/subscription", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/subscription", "acc_1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "acc_1", body.Data["accountId"])
	assert.Equal(t, "Free", body.Data["tier"])
	assert.Equal(t, false, body.Data["paid"])
	assert.Nil(t, body.Data["pendingTier"])

	sub, err := store.Get(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.TierFree, sub.Tier)
}

func TestChangeTier(t *testing.T) {
	t.Parallel()

	t.Run("checkout for a new account", func(t *testing.T) {
		t.Parallel()
		h, store, provider := setup(t)
		provider.On("CheckoutURL", mock.Anything, mock.MatchedBy(func(req subscription.CheckoutRequest) bool {
			return req.AccountID == "acc_1" && req.PriceID == "price_premium" && req.Email == "a@example.com"
		})).Return("https://checkout.example.com/s/1", nil).Once()

		rec := do(h, http.MethodPost, "/subscription/tier", "acc_1", `{"tier":"premium","email":"a@example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://checkout.example.com/s/1", decode(t, rec).Data["url"])

		sub, err := store.Get(context.Background(), "acc_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.TierPremium, sub.Tier)
		assert.True(t, sub.IsPending())
		provider.AssertExpectations(t)
	})

	t.Run("redirect mode", func(t *testing.T) {
		t.Parallel()
		h, _, provider := setup(t)
		provider.On("CheckoutURL", mock.Anything, mock.Anything).Return("https://checkout.example.com/s/2", nil).Once()

		rec := do(h, http.MethodPost, "/subscription/tier?redirect=true", "acc_2", `{"tier":"Basic"}`)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "https://checkout.example.com/s/2", rec.Header().Get("Location"))
	})

	t.Run("invalid tier", func(t *testing.T) {
		t.Parallel()
		h, _, _ := setup(t)
		rec := do(h, http.MethodPost, "/subscription/tier", "acc_1", `{"tier":"Gold"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "invalid_tier", decode(t, rec).Error.Code)

		rec = do(h, http.MethodPost, "/subscription/tier", "acc_1", `{"tier":"Free"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unchanged tier", func(t *testing.T) {
		t.Parallel()
		h, store, _ := setup(t)
		_, err := store.Create(context.Background(), &subscription.Subscription{
			AccountID:           "acc_3",
			Tier:                subscription.TierBasic,
			CustomerRef:         strPtr("cus_3"),
			SubscriptionRef:     strPtr("sub_3"),
			SubscriptionItemRef: strPtr("si_3"),
		})
		require.NoError(t, err)

		rec := do(h, http.MethodPost, "/subscription/tier", "acc_3", `{"tier":"Basic"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "tier_unchanged", decode(t, rec).Error.Code)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		h, store, provider := setup(t)
		provider.On("CheckoutURL", mock.Anything, mock.Anything).Return("", errors.New("stripe down")).Once()

		rec := do(h, http.MethodPost, "/subscription/tier", "acc_4", `{"tier":"Basic"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.NotContains(t, rec.Body.String(), "stripe down")

		sub, err := store.Get(context.Background(), "acc_4")
		require.NoError(t, err)
		assert.Equal(t, subscription.TierFree, sub.Tier)
	})
}

func TestCancelAndPortal(t *testing.T) {
	t.Parallel()

	h, store, provider := setup(t)

	rec := do(h, http.MethodPost, "/subscription/cancel", "acc_none", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(h, http.MethodPost, "/subscription/portal", "acc_none", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := store.Create(context.Background(), &subscription.Subscription{
		AccountID:           "acc_paid",
		Tier:                subscription.TierStandard,
		CustomerRef:         strPtr("cus_paid"),
		SubscriptionRef:     strPtr("sub_paid"),
		SubscriptionItemRef: strPtr("si_paid"),
	})
	require.NoError(t, err)

	provider.On("CancelURL", mock.Anything, subscription.CancelRequest{
		CustomerRef:     "cus_paid",
		SubscriptionRef: "sub_paid",
		ReturnURL:       "https://app.example.com/dashboard",
	}).Return("https://billing.example.com/cancel", nil).Once()
	provider.On("PortalURL", mock.Anything, subscription.PortalRequest{
		CustomerRef: "cus_paid",
		ReturnURL:   "https://app.example.com/dashboard",
	}).Return("https://billing.example.com/portal", nil).Once()

	rec = do(h, http.MethodPost, "/subscription/cancel", "acc_paid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://billing.example.com/cancel", decode(t, rec).Data["url"])

	rec = do(h, http.MethodPost, "/subscription/portal?redirect=true", "acc_paid", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://billing.example.com/portal", rec.Header().Get("Location"))

	provider.AssertExpectations(t)
}

func TestWebhookRoute(t *testing.T) {
	t.Parallel()

	h, store, provider := setup(t)
	provider.On("ParseWebhook", mock.Anything, []byte(`{"id":"evt_1"}`), "sig").Return(subscription.SubscriptionCreated{
		ID:                  "evt_1",
		AccountID:           "acc_hook",
		CustomerRef:         "cus_hook",
		SubscriptionRef:     "sub_hook",
		SubscriptionItemRef: "si_hook",
		PriceID:             "price_premium",
	}, nil).Once()
	provider.On("ParseWebhook", mock.Anything, mock.Anything, "bad").
		Return(nil, subscription.ErrWebhookVerificationFailed).Once()

	r := httptest.NewRequest(http.MethodPost, "/webhooks/test", strings.NewReader(`{"id":"evt_1"}`))
	r.Header.Set("X-Test-Signature", "sig")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	sub, err := store.Get(context.Background(), "acc_hook")
	require.NoError(t, err)
	assert.Equal(t, subscription.TierPremium, sub.Tier)

	r = httptest.NewRequest(http.MethodPost, "/webhooks/test", strings.NewReader(`{}`))
	r.Header.Set("X-Test-Signature", "bad")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/webhooks/other", "", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	provider.AssertExpectations(t)
}

func TestFlowRateLimit(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0))
	t.Cleanup(store.Close)
	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)

	svc := subscription.NewService(subscription.NewMemoryStore(), &mockProvider{},
		subscription.MustPriceTable(map[subscription.Tier]string{subscription.TierBasic: "price_basic"}))
	h := billing.Router(svc, billing.WithFlowMiddleware(ratelimiter.Middleware(limiter, billing.AccountKey)))

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodPost, "/subscription/portal", "acc_1", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/subscription/cancel", "acc_1", "").Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodPost, "/subscription/portal", "acc_2", "").Code)

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/subscription", "acc_1", "").Code)
}
