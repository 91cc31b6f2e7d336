package billing

import (
	"github.com/dmitrymomot/billingkit/handler"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

type tierRequest struct {
	Tier     string `json:"tier"`
	Email    string `json:"email,omitempty"`
	Redirect bool   `query:"redirect" json:"-"`
}

type flowRequest struct {
	Redirect bool `query:"redirect"`
}

func (m *module) getSubscription(ctx handler.Context, _ struct{}) handler.Response {
	sub, err := m.svc.GetOrCreate(ctx, AccountID(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(viewOf(sub))
}

func (m *module) changeTier(ctx handler.Context, req tierRequest) handler.Response {
	tier, err := subscription.ParseTier(req.Tier)
	if err != nil {
		return handler.Error(err)
	}

	accountID := AccountID(ctx)
	if _, err := m.svc.GetOrCreate(ctx, accountID); err != nil {
		return handler.Error(err)
	}

	var opts []subscription.TierChangeOption
	if req.Email != "" {
		opts = append(opts, subscription.WithCustomerEmail(req.Email))
	}
	url, err := m.svc.RequestTierChange(ctx, accountID, tier, opts...)
	if err != nil {
		return handler.Error(err)
	}
	return redirectTo(url, req.Redirect)
}

func (m *module) cancel(ctx handler.Context, req flowRequest) handler.Response {
	url, err := m.svc.RequestCancellation(ctx, AccountID(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return redirectTo(url, req.Redirect)
}

func (m *module) portal(ctx handler.Context, req flowRequest) handler.Response {
	url, err := m.svc.RequestBillingPortal(ctx, AccountID(ctx))
	if err != nil {
		return handler.Error(err)
	}
	return redirectTo(url, req.Redirect)
}

// redirectTo answers 204 for a no-op flow.
func redirectTo(url string, redirect bool) handler.Response {
	switch {
	case url == "":
		return handler.Empty()
	case redirect:
		return handler.Redirect(url)
	default:
		return handler.JSON(redirectView{URL: url})
	}
}
