package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrMissingAccountID     = errors.New("account ID is required")
	ErrInvalidTier          = errors.New("invalid subscription tier")
	ErrTierUnchanged        = errors.New("subscription already on requested tier")
	ErrPriceNotConfigured   = errors.New("no provider price configured for tier")
	ErrUnknownPrice         = errors.New("provider price is not mapped to a tier")
	ErrInvalidPriceTable    = errors.New("invalid price table")

	// ErrInconsistentState marks a record holding a customer reference
	// without the subscription references needed to change it in place.
	ErrInconsistentState = errors.New("inconsistent subscription state")

	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrMalformedEvent            = errors.New("malformed billing event")
	ErrProviderError             = errors.New("billing provider error")
	ErrNoRedirectURL             = errors.New("no redirect URL returned from provider")

	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret       = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
)
