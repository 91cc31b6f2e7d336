package subscription

import (
	"fmt"
	"time"
)

// Subscription is the single authoritative billing record of an account.
//
// Refs are nil until the billing provider reports them. PendingTier is set
// while a user-initiated tier change waits for provider confirmation; Tier
// already holds the requested value during that window.
type Subscription struct {
	AccountID           string
	Tier                Tier
	PendingTier         *Tier
	CustomerRef         *string
	SubscriptionRef     *string
	SubscriptionItemRef *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func newFreeSubscription(accountID string, now time.Time) *Subscription {
	return &Subscription{
		AccountID: accountID,
		Tier:      TierFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasCustomer reports whether the account is known to the billing provider.
func (s *Subscription) HasCustomer() bool {
	return s.CustomerRef != nil
}

// HasActiveSubscription reports whether the account holds a provider subscription.
func (s *Subscription) HasActiveSubscription() bool {
	return s.SubscriptionRef != nil
}

// IsPending reports whether a tier change awaits provider confirmation.
func (s *Subscription) IsPending() bool {
	return s.PendingTier != nil
}

// Validate checks the record invariants. A confirmed paid tier requires both
// the customer and subscription references.
func (s *Subscription) Validate() error {
	if s.AccountID == "" {
		return ErrMissingAccountID
	}
	if !s.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, s.Tier)
	}
	if s.Tier.IsPaid() && !s.IsPending() && (s.CustomerRef == nil || s.SubscriptionRef == nil) {
		return fmt.Errorf("%w: paid tier %s without billing references", ErrInconsistentState, s.Tier)
	}
	return nil
}

// Clone returns a deep copy.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.PendingTier = clonePtr(s.PendingTier)
	c.CustomerRef = clonePtr(s.CustomerRef)
	c.SubscriptionRef = clonePtr(s.SubscriptionRef)
	c.SubscriptionItemRef = clonePtr(s.SubscriptionItemRef)
	return &c
}

// Deref returns the value of a nullable reference or "".
func Deref(ref *string) string {
	if ref == nil {
		return ""
	}
	return *ref
}

// refOf returns nil for an empty string so that empty provider values never
// become non-null references.
func refOf(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
