package billing

import (
	"time"

	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

type subscriptionView struct {
	AccountID       string    `json:"accountId"`
	Tier            string    `json:"tier"`
	PendingTier     *string   `json:"pendingTier"`
	Paid            bool      `json:"paid"`
	HasCustomer     bool      `json:"hasCustomer"`
	HasSubscription bool      `json:"hasSubscription"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func viewOf(sub *subscription.Subscription) subscriptionView {
	v := subscriptionView{
		AccountID:       sub.AccountID,
		Tier:            sub.Tier.String(),
		Paid:            sub.Tier.IsPaid(),
		HasCustomer:     sub.HasCustomer(),
		HasSubscription: sub.HasActiveSubscription(),
		CreatedAt:       sub.CreatedAt,
		UpdatedAt:       sub.UpdatedAt,
	}
	if sub.PendingTier != nil {
		pending := sub.PendingTier.String()
		v.PendingTier = &pending
	}
	return v
}

type redirectView struct {
	URL string `json:"url"`
}
