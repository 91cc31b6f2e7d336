package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/billingkit/pkg/pg"
)

const subscriptionColumns = `account_id, tier, pending_tier, billing_customer_ref,
	billing_subscription_ref, billing_subscription_item_ref, created_at, updated_at`

// PostgresStore keeps subscriptions in the account_subscriptions table.
// Updates lock the row with SELECT ... FOR UPDATE so concurrent webhook
// deliveries for the same account are serialized.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: postgres pool cannot be nil")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, accountID string) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM account_subscriptions WHERE account_id = $1`, accountID)
	sub, err := scanSubscription(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) Create(ctx context.Context, sub *Subscription) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO account_subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id) DO NOTHING`,
		sub.AccountID, string(sub.Tier), tierArg(sub.PendingTier), sub.CustomerRef,
		sub.SubscriptionRef, sub.SubscriptionItemRef, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create subscription: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Update(ctx context.Context, accountID string, fn func(*Subscription) error) (*Subscription, error) {
	return s.updateWhere(ctx, "account_id = $1", accountID, fn)
}

func (s *PostgresStore) UpdateByCustomer(ctx context.Context, customerRef string, fn func(*Subscription) error) (*Subscription, error) {
	return s.updateWhere(ctx, "billing_customer_ref = $1", customerRef, fn)
}

func (s *PostgresStore) updateWhere(ctx context.Context, where, arg string, fn func(*Subscription) error) (*Subscription, error) {
	var updated *Subscription
	err := pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+subscriptionColumns+` FROM account_subscriptions WHERE `+where+` LIMIT 1 FOR UPDATE`, arg)
		sub, err := scanSubscription(row)
		if err != nil {
			if pg.IsNotFoundError(err) {
				return ErrSubscriptionNotFound
			}
			return fmt.Errorf("lock subscription: %w", err)
		}

		if err := fn(sub); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE account_subscriptions SET
				tier = $2,
				pending_tier = $3,
				billing_customer_ref = $4,
				billing_subscription_ref = $5,
				billing_subscription_item_ref = $6,
				updated_at = $7
			WHERE account_id = $1`,
			sub.AccountID, string(sub.Tier), tierArg(sub.PendingTier), sub.CustomerRef,
			sub.SubscriptionRef, sub.SubscriptionItemRef, sub.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var (
		sub     Subscription
		tier    string
		pending *string
	)
	err := row.Scan(
		&sub.AccountID, &tier, &pending, &sub.CustomerRef,
		&sub.SubscriptionRef, &sub.SubscriptionItemRef, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Tier = Tier(tier)
	if pending != nil {
		t := Tier(*pending)
		sub.PendingTier = &t
	}
	if !sub.Tier.Valid() {
		return nil, errors.Join(ErrInvalidTier, fmt.Errorf("stored tier %q", tier))
	}
	return &sub, nil
}

func tierArg(t *Tier) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}
