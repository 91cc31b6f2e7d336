package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	billingportalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds the Stripe credentials.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// StripeOption configures a StripeProvider.
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backend stripe.Backend
}

// WithStripeBackend routes API calls through a custom backend, e.g. a local
// stub server in tests.
func WithStripeBackend(b stripe.Backend) StripeOption {
	return func(o *stripeOptions) {
		o.backend = b
	}
}

// StripeProvider implements BillingProvider on top of Stripe Checkout and
// the Stripe customer portal.
// Each provider owns its API clients; the package-level stripe.Key is never set.
type StripeProvider struct {
	checkout      *checkoutsession.Client
	portal        *billingportalsession.Client
	webhookSecret string
}

// NewStripeProvider creates a Stripe-backed provider with its own API client.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	o := &stripeOptions{backend: stripe.GetBackend(stripe.APIBackend)}
	for _, opt := range opts {
		opt(o)
	}

	return &StripeProvider{
		checkout:      &checkoutsession.Client{B: o.backend, Key: cfg.SecretKey},
		portal:        &billingportalsession.Client{B: o.backend, Key: cfg.SecretKey},
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (p *StripeProvider) SignatureHeader() string {
	return "Stripe-Signature"
}

func (p *StripeProvider) CheckoutURL(ctx context.Context, req CheckoutRequest) (string, error) {
	meta := map[string]string{
		MetadataAccountID: req.AccountID,
		MetadataTier:      string(req.Tier),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.AccountID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:       stripe.String(req.ReturnURL),
		CancelURL:        stripe.String(req.ReturnURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{Metadata: meta},
	}
	params.Context = ctx
	for k, v := range meta {
		params.AddMetadata(k, v)
	}

	switch {
	case req.CustomerRef != "":
		params.Customer = stripe.String(req.CustomerRef)
	case req.Email != "":
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := p.checkout.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) UpdateURL(ctx context.Context, req UpdateRequest) (string, error) {
	return p.portalSession(ctx, req.CustomerRef, req.ReturnURL, &stripe.BillingPortalSessionFlowDataParams{
		Type: stripe.String("subscription_update_confirm"),
		SubscriptionUpdateConfirm: &stripe.BillingPortalSessionFlowDataSubscriptionUpdateConfirmParams{
			Subscription: stripe.String(req.SubscriptionRef),
			Items: []*stripe.BillingPortalSessionFlowDataSubscriptionUpdateConfirmItemParams{
				{
					ID:       stripe.String(req.SubscriptionItemRef),
					Price:    stripe.String(req.PriceID),
					Quantity: stripe.Int64(1),
				},
			},
		},
	})
}

func (p *StripeProvider) CancelURL(ctx context.Context, req CancelRequest) (string, error) {
	return p.portalSession(ctx, req.CustomerRef, req.ReturnURL, &stripe.BillingPortalSessionFlowDataParams{
		Type: stripe.String("subscription_cancel"),
		SubscriptionCancel: &stripe.BillingPortalSessionFlowDataSubscriptionCancelParams{
			Subscription: stripe.String(req.SubscriptionRef),
		},
	})
}

func (p *StripeProvider) PortalURL(ctx context.Context, req PortalRequest) (string, error) {
	return p.portalSession(ctx, req.CustomerRef, req.ReturnURL, nil)
}

func (p *StripeProvider) portalSession(ctx context.Context, customer, returnURL string, flow *stripe.BillingPortalSessionFlowDataParams) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customer),
		ReturnURL: stripe.String(returnURL),
		FlowData:  flow,
	}
	params.Context = ctx

	sess, err := p.portal.New(params)
	if err != nil {
		return "", fmt.Errorf("create billing portal session: %w", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", ErrWebhookVerificationFailed)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, event.ID)
	}

	switch string(event.Type) {
	case "customer.subscription.created":
		sub, err := decodeStripe[stripe.Subscription](event)
		if err != nil {
			return nil, err
		}
		itemID, priceID := stripeFirstItem(sub)
		return SubscriptionCreated{
			ID:                  event.ID,
			AccountID:           accountFromMetadata(sub.Metadata),
			CustomerRef:         stripeCustomerID(sub.Customer),
			SubscriptionRef:     sub.ID,
			SubscriptionItemRef: itemID,
			PriceID:             priceID,
		}, nil

	case "checkout.session.completed":
		sess, err := decodeStripe[stripe.CheckoutSession](event)
		if err != nil {
			return nil, err
		}
		var subID string
		if sess.Subscription != nil {
			subID = sess.Subscription.ID
		}
		accountID := accountFromMetadata(sess.Metadata)
		if accountID == "" {
			accountID = sess.ClientReferenceID
		}
		return CheckoutCompleted{
			ID:              event.ID,
			AccountID:       accountID,
			CustomerRef:     stripeCustomerID(sess.Customer),
			SubscriptionRef: subID,
			Tier:            tierFromMetadata(sess.Metadata),
		}, nil

	case "customer.subscription.updated":
		sub, err := decodeStripe[stripe.Subscription](event)
		if err != nil {
			return nil, err
		}
		itemID, priceID := stripeFirstItem(sub)
		return SubscriptionUpdated{
			ID:                  event.ID,
			AccountID:           accountFromMetadata(sub.Metadata),
			CustomerRef:         stripeCustomerID(sub.Customer),
			SubscriptionRef:     sub.ID,
			SubscriptionItemRef: itemID,
			PriceID:             priceID,
		}, nil

	case "customer.subscription.deleted":
		sub, err := decodeStripe[stripe.Subscription](event)
		if err != nil {
			return nil, err
		}
		return SubscriptionDeleted{
			ID:              event.ID,
			AccountID:       accountFromMetadata(sub.Metadata),
			CustomerRef:     stripeCustomerID(sub.Customer),
			SubscriptionRef: sub.ID,
		}, nil
	}

	return UnknownEvent{ID: event.ID, Type: string(event.Type)}, nil
}

func decodeStripe[T any](event stripe.Event) (*T, error) {
	var v T
	if err := json.Unmarshal(event.Data.Raw, &v); err != nil {
		return nil, errors.Join(ErrMalformedEvent, fmt.Errorf("decode %s: %w", event.Type, err))
	}
	return &v, nil
}

func stripeCustomerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func stripeFirstItem(sub *stripe.Subscription) (itemID, priceID string) {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0] == nil {
		return "", ""
	}
	item := sub.Items.Data[0]
	if item.Price != nil {
		priceID = item.Price.ID
	}
	return item.ID, priceID
}
