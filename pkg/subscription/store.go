package subscription

import "context"

// Store persists one Subscription per account.
//
// Update and UpdateByCustomer run fn against the current record under the
// store's isolation guarantees and persist the mutated record only when fn
// returns nil. Both return ErrSubscriptionNotFound when no record matches.
type Store interface {
	Get(ctx context.Context, accountID string) (*Subscription, error)

	// Create inserts sub unless a record for the account already exists.
	// It reports whether a new record was written.
	Create(ctx context.Context, sub *Subscription) (bool, error)

	Update(ctx context.Context, accountID string, fn func(*Subscription) error) (*Subscription, error)
	UpdateByCustomer(ctx context.Context, customerRef string, fn func(*Subscription) error) (*Subscription, error)
}
