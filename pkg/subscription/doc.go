// Package subscription keeps one billing record per account consistent with
// the payment provider.
//
// The provider is the source of truth. Its webhooks are verified and decoded
// into a closed set of Event variants (SubscriptionCreated, CheckoutCompleted,
// SubscriptionUpdated, SubscriptionDeleted, UnknownEvent) which the Service
// applies idempotently to the Store. User actions never mutate billing
// references directly: RequestTierChange, RequestCancellation and
// RequestBillingPortal only return hosted provider URLs, and the resulting
// webhooks settle the record.
//
// Two providers ship with the package: StripeProvider (Checkout and customer
// portal flows) and PaddleProvider (transactions and customer portal). Stores
// are available for PostgreSQL (PostgresStore) and in-process use
// (MemoryStore).
//
// Basic wiring:
//
//	prices := subscription.MustPriceTable(map[subscription.Tier]string{
//		subscription.TierBasic:    "price_basic",
//		subscription.TierStandard: "price_standard",
//		subscription.TierPremium:  "price_premium",
//	})
//	provider, err := subscription.NewStripeProvider(cfg.Stripe)
//	if err != nil {
//		return err
//	}
//	svc := subscription.NewService(subscription.NewPostgresStore(pool), provider, prices,
//		subscription.WithReturnURL("https://app.example.com/dashboard/subscription"),
//		subscription.WithLogger(log),
//	)
//
// Prices that are not present in the table resolve to DefaultPaidTier and
// log a warning. WithStrictPrices(true) turns that into ErrUnknownPrice.
package subscription
