package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    subscription.Tier
		wantErr bool
	}{
		{"Free", subscription.TierFree, false},
		{"premium", subscription.TierPremium, false},
		{" STANDARD ", subscription.TierStandard, false},
		{"gold", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := subscription.ParseTier(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, subscription.ErrInvalidTier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTier_IsPaid(t *testing.T) {
	t.Parallel()

	assert.False(t, subscription.TierFree.IsPaid())
	assert.True(t, subscription.TierBasic.IsPaid())
	assert.True(t, subscription.TierPremium.IsPaid())
	assert.False(t, subscription.Tier("Gold").IsPaid())
	assert.Len(t, subscription.Tiers(), 4)
}

func TestPriceTable(t *testing.T) {
	t.Parallel()

	t.Run("lookups in both directions", func(t *testing.T) {
		t.Parallel()
		pt, err := subscription.NewPriceTable(map[subscription.Tier]string{
			subscription.TierBasic:   "price_b",
			subscription.TierPremium: "price_p",
		})
		require.NoError(t, err)

		tier, ok := pt.TierForPrice("price_p")
		assert.True(t, ok)
		assert.Equal(t, subscription.TierPremium, tier)

		_, ok = pt.TierForPrice("price_x")
		assert.False(t, ok)

		price, ok := pt.PriceFor(subscription.TierBasic)
		assert.True(t, ok)
		assert.Equal(t, "price_b", price)

		_, ok = pt.PriceFor(subscription.TierStandard)
		assert.False(t, ok)
	})

	t.Run("rejects free tier price", func(t *testing.T) {
		t.Parallel()
		_, err := subscription.NewPriceTable(map[subscription.Tier]string{subscription.TierFree: "price_f"})
		assert.ErrorIs(t, err, subscription.ErrInvalidPriceTable)
	})

	t.Run("rejects duplicate price", func(t *testing.T) {
		t.Parallel()
		_, err := subscription.NewPriceTable(map[subscription.Tier]string{
			subscription.TierBasic:    "price_same",
			subscription.TierStandard: "price_same",
		})
		assert.ErrorIs(t, err, subscription.ErrInvalidPriceTable)
	})

	t.Run("must variant panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			subscription.MustPriceTable(map[subscription.Tier]string{"Gold": "price_g"})
		})
	})
}
