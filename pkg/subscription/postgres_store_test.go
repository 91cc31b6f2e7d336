//go:build integration

package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/pg/pgtest"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

func TestPostgresStore(t *testing.T) {
	pool := pgtest.Setup(t)
	store := subscription.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("create is idempotent", func(t *testing.T) {
		sub := &subscription.Subscription{AccountID: "acc_pg", Tier: subscription.TierFree, CreatedAt: now, UpdatedAt: now}

		created, err := store.Create(ctx, sub)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.Create(ctx, sub)
		require.NoError(t, err)
		assert.False(t, created)

		got, err := store.Get(ctx, "acc_pg")
		require.NoError(t, err)
		assert.Equal(t, subscription.TierFree, got.Tier)
		assert.Nil(t, got.CustomerRef)
	})

	t.Run("update and update by customer", func(t *testing.T) {
		_, err := store.Update(ctx, "acc_pg", func(s *subscription.Subscription) error {
			s.Tier = subscription.TierPremium
			s.CustomerRef = strPtr("cus_pg")
			s.SubscriptionRef = strPtr("sub_pg")
			return nil
		})
		require.NoError(t, err)

		got, err := store.UpdateByCustomer(ctx, "cus_pg", func(s *subscription.Subscription) error {
			s.Tier = subscription.TierFree
			s.SubscriptionRef = nil
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "acc_pg", got.AccountID)

		stored, err := store.Get(ctx, "acc_pg")
		require.NoError(t, err)
		assert.Equal(t, subscription.TierFree, stored.Tier)
		assert.Nil(t, stored.SubscriptionRef)
		assert.Equal(t, "cus_pg", subscription.Deref(stored.CustomerRef))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

		_, err = store.UpdateByCustomer(ctx, "cus_missing", func(*subscription.Subscription) error { return nil })
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("concurrent get or create", func(t *testing.T) {
		svc := subscription.NewService(store, &mockProvider{}, testPrices())

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.GetOrCreate(ctx, "acc_concurrent")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		var count int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT count(*) FROM account_subscriptions WHERE account_id = $1`, "acc_concurrent").Scan(&count))
		assert.Equal(t, 1, count)
	})
}
