package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestBillingAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{"account", logger.AccountID("user_1"), "account_id", "user_1"},
		{"tier", logger.Tier("Premium"), "tier", "Premium"},
		{"event", logger.BillingEvent("subscription_created"), "billing_event", "subscription_created"},
		{"event id", logger.EventID("evt_1"), "event_id", "evt_1"},
		{"customer", logger.CustomerRef("cus_1"), "customer_ref", "cus_1"},
		{"subscription", logger.SubscriptionRef("sub_1"), "subscription_ref", "sub_1"},
		{"price", logger.PriceID("price_1"), "price_id", "price_1"},
		{"product", logger.ProductID("prod_1"), "product_id", "prod_1"},
		{"request", logger.RequestID("req_1"), "request_id", "req_1"},
		{"flow", logger.Flow("checkout"), "flow", "checkout"},
		{"component", logger.Component("reconciler"), "component", "reconciler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}
}

func TestEmptyIdentifiersAreDropped(t *testing.T) {
	assert.True(t, logger.AccountID("").Equal(slog.Attr{}))
	assert.True(t, logger.CustomerRef("").Equal(slog.Attr{}))
	assert.True(t, logger.SubscriptionRef("").Equal(slog.Attr{}))
	assert.True(t, logger.EventID("").Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))
}

func TestDuration(t *testing.T) {
	attr := logger.Duration(2 * time.Second)
	assert.Equal(t, "duration", attr.Key)
	assert.Equal(t, 2*time.Second, attr.Value.Duration())
}
