package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements BillingProvider for Paddle Billing.
//
// Paddle has no per-item identifiers on subscriptions, so the price id of the
// first item doubles as the subscription item reference. In-place updates and
// cancellations go through the customer portal scoped to the subscription.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a new Paddle billing provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
	}, nil
}

func (p *PaddleProvider) SignatureHeader() string {
	return "Paddle-Signature"
}

// CheckoutURL creates a transaction from the catalog price and returns its
// hosted checkout link.
func (p *PaddleProvider) CheckoutURL(ctx context.Context, req CheckoutRequest) (string, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	txReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			MetadataAccountID: req.AccountID,
			MetadataTier:      string(req.Tier),
		},
	}
	if req.CustomerRef != "" {
		txReq.CustomerID = paddle.PtrTo(req.CustomerRef)
	}
	if req.Email != "" {
		txReq.CustomData["email"] = req.Email
	}
	if req.ReturnURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.ReturnURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return "", fmt.Errorf("failed to create paddle transaction: %w", err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil {
		return "", ErrNoRedirectURL
	}
	return *tx.Checkout.URL, nil
}

// UpdateURL returns the portal overview scoped to the subscription, where the
// customer confirms the plan change.
func (p *PaddleProvider) UpdateURL(ctx context.Context, req UpdateRequest) (string, error) {
	session, err := p.portalSession(ctx, req.CustomerRef, req.SubscriptionRef)
	if err != nil {
		return "", err
	}
	return session.URLs.General.Overview, nil
}

// CancelURL returns the portal deep link that cancels the subscription,
// falling back to the overview page.
func (p *PaddleProvider) CancelURL(ctx context.Context, req CancelRequest) (string, error) {
	session, err := p.portalSession(ctx, req.CustomerRef, req.SubscriptionRef)
	if err != nil {
		return "", err
	}
	for _, sub := range session.URLs.Subscriptions {
		if sub.ID == req.SubscriptionRef && sub.CancelSubscription != "" {
			return sub.CancelSubscription, nil
		}
	}
	return session.URLs.General.Overview, nil
}

func (p *PaddleProvider) PortalURL(ctx context.Context, req PortalRequest) (string, error) {
	session, err := p.portalSession(ctx, req.CustomerRef, "")
	if err != nil {
		return "", err
	}
	return session.URLs.General.Overview, nil
}

func (p *PaddleProvider) portalSession(ctx context.Context, customerID, subscriptionID string) (*paddle.CustomerPortalSession, error) {
	req := &paddle.CreateCustomerPortalSessionRequest{CustomerID: customerID}
	if subscriptionID != "" {
		req.SubscriptionIDs = []string{subscriptionID}
	}

	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle customer portal session: %w", err)
	}
	return session, nil
}

type paddleNotification struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type paddleSubscriptionData struct {
	ID         string            `json:"id"`
	CustomerID string            `json:"customer_id"`
	CustomData map[string]any    `json:"custom_data"`
	Items      []paddleItemPrice `json:"items"`
}

type paddleItemPrice struct {
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
}

type paddleTransactionData struct {
	ID             string         `json:"id"`
	CustomerID     string         `json:"customer_id"`
	SubscriptionID string         `json:"subscription_id"`
	CustomData     map[string]any `json:"custom_data"`
}

// ParseWebhook verifies the Paddle-Signature header and decodes the
// notification into a billing event.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", ErrWebhookVerificationFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set(p.SignatureHeader(), signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	switch n.EventType {
	case "subscription.created", "subscription.updated", "subscription.canceled":
		var data paddleSubscriptionData
		if err := json.Unmarshal(n.Data, &data); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		md := paddleMetadata(data.CustomData)
		var priceID string
		if len(data.Items) > 0 {
			priceID = data.Items[0].Price.ID
		}

		switch n.EventType {
		case "subscription.created":
			return SubscriptionCreated{
				ID:                  n.EventID,
				AccountID:           accountFromMetadata(md),
				CustomerRef:         data.CustomerID,
				SubscriptionRef:     data.ID,
				SubscriptionItemRef: priceID,
				PriceID:             priceID,
			}, nil
		case "subscription.updated":
			return SubscriptionUpdated{
				ID:                  n.EventID,
				AccountID:           accountFromMetadata(md),
				CustomerRef:         data.CustomerID,
				SubscriptionRef:     data.ID,
				SubscriptionItemRef: priceID,
				PriceID:             priceID,
			}, nil
		default:
			return SubscriptionDeleted{
				ID:              n.EventID,
				AccountID:       accountFromMetadata(md),
				CustomerRef:     data.CustomerID,
				SubscriptionRef: data.ID,
			}, nil
		}

	case "transaction.completed":
		var data paddleTransactionData
		if err := json.Unmarshal(n.Data, &data); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
		md := paddleMetadata(data.CustomData)
		return CheckoutCompleted{
			ID:              n.EventID,
			AccountID:       accountFromMetadata(md),
			CustomerRef:     data.CustomerID,
			SubscriptionRef: data.SubscriptionID,
			Tier:            tierFromMetadata(md),
		}, nil
	}

	return UnknownEvent{ID: n.EventID, Type: n.EventType}, nil
}

// paddleMetadata keeps the string values of Paddle custom_data.
func paddleMetadata(data map[string]any) map[string]string {
	md := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			md[k] = s
		}
	}
	return md
}
