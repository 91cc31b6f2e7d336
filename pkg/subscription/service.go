package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Service defines the public interface for subscription reconciliation.
type Service interface {
	// Get returns the stored record or ErrSubscriptionNotFound.
	Get(ctx context.Context, accountID string) (*Subscription, error)

	// GetOrCreate returns the record, creating a Free one on first access.
	GetOrCreate(ctx context.Context, accountID string) (*Subscription, error)

	// HandleWebhook verifies a provider notification and applies it.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// ApplyEvent applies an already verified billing event.
	ApplyEvent(ctx context.Context, event Event) error

	// User-initiated flows. An empty URL with a nil error means there is
	// nothing to redirect to.
	RequestTierChange(ctx context.Context, accountID string, tier Tier, opts ...TierChangeOption) (string, error)
	RequestCancellation(ctx context.Context, accountID string) (string, error)
	RequestBillingPortal(ctx context.Context, accountID string) (string, error)

	// SignatureHeader names the header the provider signs webhooks with.
	SignatureHeader() string
}

type service struct {
	store        Store
	provider     BillingProvider
	prices       *PriceTable
	log          *slog.Logger
	recorder     Recorder
	returnURL    string
	now          func() time.Time
	strictPrices bool
}

// errStaleEvent aborts a store update when the event refers to a
// subscription other than the one on record.
var errStaleEvent = errors.New("event refers to a replaced subscription")

// NewService creates a new Service with the given dependencies.
// Panics if store, provider or prices is nil.
func NewService(store Store, provider BillingProvider, prices *PriceTable, opts ...ServiceOption) Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if prices == nil {
		panic("subscription: PriceTable is required")
	}

	s := &service{
		store:    store,
		provider: provider,
		prices:   prices,
		log:      logger.Noop(),
		recorder: noopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) SignatureHeader() string {
	return s.provider.SignatureHeader()
}

func (s *service) Get(ctx context.Context, accountID string) (*Subscription, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}
	return s.store.Get(ctx, accountID)
}

func (s *service) GetOrCreate(ctx context.Context, accountID string) (*Subscription, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}

	sub, err := s.store.Get(ctx, accountID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	created, err := s.store.Create(ctx, newFreeSubscription(accountID, s.now()))
	if err != nil {
		return nil, err
	}
	if created {
		s.log.InfoContext(ctx, "subscription created", logger.AccountID(accountID), logger.Tier(string(TierFree)))
	}

	// Lost races fall through to a plain read of the winner's row.
	return s.store.Get(ctx, accountID)
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		outcome := OutcomeFailed
		if errors.Is(err, ErrWebhookVerificationFailed) {
			outcome = OutcomeRejected
		}
		s.recorder.RecordBillingEvent(KindUnknown, outcome)
		s.log.WarnContext(ctx, "billing webhook rejected", logger.Error(err))
		return err
	}
	return s.ApplyEvent(ctx, event)
}

func (s *service) ApplyEvent(ctx context.Context, event Event) error {
	var (
		applied bool
		err     error
	)

	switch e := event.(type) {
	case SubscriptionCreated:
		applied, err = s.applyCreated(ctx, e)
	case CheckoutCompleted:
		applied, err = s.applyCheckoutCompleted(ctx, e)
	case SubscriptionUpdated:
		applied, err = s.applyUpdated(ctx, e)
	case SubscriptionDeleted:
		applied, err = s.applyDeleted(ctx, e)
	default:
		s.log.DebugContext(ctx, "billing event ignored",
			logger.EventID(event.EventID()), logger.BillingEvent(string(event.Kind())))
	}

	outcome := OutcomeIgnored
	switch {
	case err != nil:
		outcome = OutcomeFailed
		s.log.ErrorContext(ctx, "failed to apply billing event",
			logger.EventID(event.EventID()), logger.BillingEvent(string(event.Kind())), logger.Error(err))
	case applied:
		outcome = OutcomeApplied
	}
	s.recorder.RecordBillingEvent(event.Kind(), outcome)

	return err
}

func (s *service) applyCreated(ctx context.Context, e SubscriptionCreated) (bool, error) {
	if e.AccountID == "" {
		s.skip(ctx, e, "missing account identity")
		return false, nil
	}

	tier, err := s.resolveTier(ctx, e.PriceID)
	if err != nil {
		return false, err
	}

	return s.mutateAccount(ctx, e, e.AccountID, func(sub *Subscription) error {
		setRef(&sub.SubscriptionRef, e.SubscriptionRef)
		setRef(&sub.CustomerRef, e.CustomerRef)
		setRef(&sub.SubscriptionItemRef, e.SubscriptionItemRef)
		sub.Tier = tier
		sub.PendingTier = nil
		return nil
	})
}

func (s *service) applyCheckoutCompleted(ctx context.Context, e CheckoutCompleted) (bool, error) {
	if e.AccountID == "" {
		s.skip(ctx, e, "missing account identity")
		return false, nil
	}
	if e.SubscriptionRef == "" || e.CustomerRef == "" {
		s.skip(ctx, e, "checkout without subscription or customer")
		return false, nil
	}

	return s.mutateAccount(ctx, e, e.AccountID, func(sub *Subscription) error {
		sub.SubscriptionRef = refOf(e.SubscriptionRef)
		sub.CustomerRef = refOf(e.CustomerRef)
		if e.Tier.IsPaid() {
			sub.Tier = e.Tier
			sub.PendingTier = nil
		}
		return nil
	})
}

func (s *service) applyUpdated(ctx context.Context, e SubscriptionUpdated) (bool, error) {
	if e.AccountID == "" || e.PriceID == "" {
		s.skip(ctx, e, "missing account identity or price")
		return false, nil
	}

	tier, err := s.resolveTier(ctx, e.PriceID)
	if err != nil {
		return false, err
	}

	return s.mutateAccount(ctx, e, e.AccountID, func(sub *Subscription) error {
		setRef(&sub.CustomerRef, e.CustomerRef)
		setRef(&sub.SubscriptionRef, e.SubscriptionRef)
		setRef(&sub.SubscriptionItemRef, e.SubscriptionItemRef)
		sub.Tier = tier
		sub.PendingTier = nil
		return nil
	})
}

func (s *service) applyDeleted(ctx context.Context, e SubscriptionDeleted) (bool, error) {
	reset := func(sub *Subscription) error {
		if e.SubscriptionRef != "" && sub.SubscriptionRef != nil && *sub.SubscriptionRef != e.SubscriptionRef {
			return errStaleEvent
		}
		sub.Tier = TierFree
		sub.PendingTier = nil
		sub.SubscriptionRef = nil
		sub.SubscriptionItemRef = nil
		sub.UpdatedAt = s.now()
		return nil
	}

	var err error
	switch {
	case e.AccountID != "":
		_, err = s.store.Update(ctx, e.AccountID, reset)
	case e.CustomerRef != "":
		_, err = s.store.UpdateByCustomer(ctx, e.CustomerRef, reset)
	default:
		s.skip(ctx, e, "missing account identity and customer")
		return false, nil
	}

	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		s.skip(ctx, e, "no matching subscription")
		return false, nil
	case errors.Is(err, errStaleEvent):
		s.skip(ctx, e, "subscription already replaced")
		return false, nil
	case err != nil:
		return false, err
	}

	s.log.InfoContext(ctx, "subscription cancelled",
		logger.EventID(e.ID), logger.AccountID(e.AccountID), logger.CustomerRef(e.CustomerRef))
	return true, nil
}

// mutateAccount lazily creates the account record and applies fn to it.
func (s *service) mutateAccount(ctx context.Context, e Event, accountID string, fn func(*Subscription) error) (bool, error) {
	if _, err := s.store.Create(ctx, newFreeSubscription(accountID, s.now())); err != nil {
		return false, err
	}

	sub, err := s.store.Update(ctx, accountID, func(sub *Subscription) error {
		if err := fn(sub); err != nil {
			return err
		}
		sub.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return false, err
	}

	s.log.InfoContext(ctx, "billing event applied",
		logger.EventID(e.EventID()),
		logger.BillingEvent(string(e.Kind())),
		logger.AccountID(accountID),
		logger.Tier(string(sub.Tier)),
		logger.SubscriptionRef(Deref(sub.SubscriptionRef)),
	)
	return true, nil
}

func (s *service) skip(ctx context.Context, e Event, reason string) {
	s.log.WarnContext(ctx, "billing event skipped",
		logger.EventID(e.EventID()),
		logger.BillingEvent(string(e.Kind())),
		slog.String("reason", reason),
	)
}

// resolveTier maps a provider price to a tier, falling back to
// DefaultPaidTier unless strict prices are enabled.
func (s *service) resolveTier(ctx context.Context, priceID string) (Tier, error) {
	if tier, ok := s.prices.TierForPrice(priceID); ok {
		return tier, nil
	}
	if s.strictPrices {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrice, priceID)
	}
	s.log.WarnContext(ctx, "unmapped provider price, granting default tier",
		logger.PriceID(priceID), logger.Tier(string(DefaultPaidTier)))
	return DefaultPaidTier, nil
}

func (s *service) RequestTierChange(ctx context.Context, accountID string, tier Tier, opts ...TierChangeOption) (string, error) {
	if accountID == "" {
		return "", ErrMissingAccountID
	}
	if !tier.IsPaid() {
		return "", fmt.Errorf("%w: %q is not a paid tier", ErrInvalidTier, tier)
	}
	priceID, ok := s.prices.PriceFor(tier)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPriceNotConfigured, tier)
	}

	sub, err := s.store.Get(ctx, accountID)
	if err != nil {
		return "", err
	}

	var (
		url  string
		flow string
	)
	switch {
	case !sub.HasCustomer():
		req := CheckoutRequest{
			AccountID:   accountID,
			Tier:        tier,
			PriceID:     priceID,
			CustomerRef: Deref(sub.CustomerRef),
			ReturnURL:   s.returnURL,
		}
		for _, opt := range opts {
			opt(&req)
		}
		flow = FlowCheckout
		url, err = s.provider.CheckoutURL(ctx, req)

	case sub.SubscriptionRef == nil || sub.SubscriptionItemRef == nil:
		return "", fmt.Errorf("%w: customer %s has no active subscription item", ErrInconsistentState, Deref(sub.CustomerRef))

	default:
		if sub.Tier == tier && !sub.IsPending() {
			return "", ErrTierUnchanged
		}
		flow = FlowUpdate
		url, err = s.provider.UpdateURL(ctx, UpdateRequest{
			AccountID:           accountID,
			Tier:                tier,
			CustomerRef:         *sub.CustomerRef,
			SubscriptionRef:     *sub.SubscriptionRef,
			SubscriptionItemRef: *sub.SubscriptionItemRef,
			PriceID:             priceID,
			ReturnURL:           s.returnURL,
		})
	}
	if err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	if url == "" {
		return "", ErrNoRedirectURL
	}

	if _, err := s.store.Update(ctx, accountID, func(sub *Subscription) error {
		sub.Tier = tier
		sub.PendingTier = &tier
		sub.UpdatedAt = s.now()
		return nil
	}); err != nil {
		return "", err
	}

	s.recorder.RecordRedirect(flow)
	s.log.InfoContext(ctx, "tier change requested",
		logger.AccountID(accountID), logger.Tier(string(tier)), logger.Flow(flow))

	return url, nil
}

func (s *service) RequestCancellation(ctx context.Context, accountID string) (string, error) {
	sub, err := s.lookup(ctx, accountID)
	if err != nil || sub == nil {
		return "", err
	}
	if !sub.HasCustomer() || !sub.HasActiveSubscription() {
		return "", nil
	}

	url, err := s.provider.CancelURL(ctx, CancelRequest{
		CustomerRef:     *sub.CustomerRef,
		SubscriptionRef: *sub.SubscriptionRef,
		ReturnURL:       s.returnURL,
	})
	if err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	if url == "" {
		return "", ErrNoRedirectURL
	}

	s.recorder.RecordRedirect(FlowCancel)
	return url, nil
}

func (s *service) RequestBillingPortal(ctx context.Context, accountID string) (string, error) {
	sub, err := s.lookup(ctx, accountID)
	if err != nil || sub == nil {
		return "", err
	}
	if !sub.HasCustomer() {
		return "", nil
	}

	url, err := s.provider.PortalURL(ctx, PortalRequest{
		CustomerRef: *sub.CustomerRef,
		ReturnURL:   s.returnURL,
	})
	if err != nil {
		return "", errors.Join(ErrProviderError, err)
	}
	if url == "" {
		return "", ErrNoRedirectURL
	}

	s.recorder.RecordRedirect(FlowPortal)
	return url, nil
}

// lookup returns nil without error when the account has no record.
func (s *service) lookup(ctx context.Context, accountID string) (*Subscription, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}
	sub, err := s.store.Get(ctx, accountID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, nil
	}
	return sub, err
}

// setRef overwrites dst only with a non-empty provider value.
func setRef(dst **string, v string) {
	if v != "" {
		*dst = refOf(v)
	}
}
