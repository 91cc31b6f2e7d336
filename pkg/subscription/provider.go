package subscription

import "context"

// BillingProvider is the boundary to the external payment provider. It only
// builds redirect URLs and verifies inbound notifications; billing state is
// changed exclusively through webhooks.
type BillingProvider interface {
	// CheckoutURL starts a hosted checkout for an account without a subscription.
	CheckoutURL(ctx context.Context, req CheckoutRequest) (string, error)

	// UpdateURL opens a confirmation flow that swaps the subscription price.
	UpdateURL(ctx context.Context, req UpdateRequest) (string, error)

	// CancelURL opens a confirmation flow that cancels the subscription.
	CancelURL(ctx context.Context, req CancelRequest) (string, error)

	// PortalURL opens the generic self-service billing portal.
	PortalURL(ctx context.Context, req PortalRequest) (string, error)

	// ParseWebhook verifies the signature and decodes the payload.
	// Verification failures wrap ErrWebhookVerificationFailed.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error)

	// SignatureHeader names the HTTP header carrying the webhook signature.
	SignatureHeader() string
}

// CheckoutRequest describes a new hosted checkout. CustomerRef is set when a
// previously cancelled account re-subscribes with its existing customer.
type CheckoutRequest struct {
	AccountID   string
	Tier        Tier
	PriceID     string
	CustomerRef string
	Email       string
	ReturnURL   string
}

type UpdateRequest struct {
	AccountID           string
	Tier                Tier
	CustomerRef         string
	SubscriptionRef     string
	SubscriptionItemRef string
	PriceID             string
	ReturnURL           string
}

type CancelRequest struct {
	CustomerRef     string
	SubscriptionRef string
	ReturnURL       string
}

type PortalRequest struct {
	CustomerRef string
	ReturnURL   string
}

// Metadata keys attached to checkout sessions and subscriptions so that
// webhooks can be traced back to an account.
const (
	MetadataAccountID = "account_id"
	MetadataTier      = "tier"

	// legacyMetadataAccountID is read as a fallback for sessions created
	// before account_id was introduced.
	legacyMetadataAccountID = "clerkUserId"
	legacyMetadataTier      = "newTier"
)

func accountFromMetadata(md map[string]string) string {
	if v := md[MetadataAccountID]; v != "" {
		return v
	}
	return md[legacyMetadataAccountID]
}

func tierFromMetadata(md map[string]string) Tier {
	v := md[MetadataTier]
	if v == "" {
		v = md[legacyMetadataTier]
	}
	t, err := ParseTier(v)
	if err != nil {
		return ""
	}
	return t
}
