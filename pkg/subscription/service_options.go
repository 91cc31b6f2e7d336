package subscription

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the logger used for event and redirect diagnostics.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithReturnURL sets the dashboard URL the provider sends users back to.
func WithReturnURL(url string) ServiceOption {
	return func(s *service) {
		if url != "" {
			s.returnURL = url
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRecorder registers a sink for event and redirect counters.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithStrictPrices makes unmapped provider prices fail with ErrUnknownPrice
// instead of granting DefaultPaidTier.
func WithStrictPrices(strict bool) ServiceOption {
	return func(s *service) {
		s.strictPrices = strict
	}
}

// TierChangeOption tunes a single RequestTierChange call.
type TierChangeOption func(*CheckoutRequest)

// WithCustomerEmail prefills the checkout form with the account email.
func WithCustomerEmail(email string) TierChangeOption {
	return func(r *CheckoutRequest) {
		r.Email = email
	}
}
