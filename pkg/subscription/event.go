package subscription

// EventKind names a normalized billing event.
type EventKind string

const (
	KindSubscriptionCreated EventKind = "subscription_created"
	KindCheckoutCompleted   EventKind = "checkout_completed"
	KindSubscriptionUpdated EventKind = "subscription_updated"
	KindSubscriptionDeleted EventKind = "subscription_deleted"
	KindUnknown             EventKind = "unknown"
)

// Event is a provider notification already verified and decoded into one of
// the variants below. Providers never hand raw payloads to the reconciler.
type Event interface {
	EventID() string
	Kind() EventKind
	isEvent()
}

// SubscriptionCreated reports a new provider subscription.
type SubscriptionCreated struct {
	ID                  string
	AccountID           string
	CustomerRef         string
	SubscriptionRef     string
	SubscriptionItemRef string
	PriceID             string
}

// CheckoutCompleted reports a finished hosted checkout. Tier comes from the
// checkout metadata and may be empty.
type CheckoutCompleted struct {
	ID              string
	AccountID       string
	CustomerRef     string
	SubscriptionRef string
	Tier            Tier
}

// SubscriptionUpdated reports a price or item change on a subscription.
type SubscriptionUpdated struct {
	ID                  string
	AccountID           string
	CustomerRef         string
	SubscriptionRef     string
	SubscriptionItemRef string
	PriceID             string
}

// SubscriptionDeleted reports the end of a subscription. AccountID may be
// empty, in which case the record is located by CustomerRef.
type SubscriptionDeleted struct {
	ID              string
	AccountID       string
	CustomerRef     string
	SubscriptionRef string
}

// UnknownEvent carries any provider event the reconciler does not handle.
type UnknownEvent struct {
	ID   string
	Type string
}

func (e SubscriptionCreated) EventID() string { return e.ID }
func (e CheckoutCompleted) EventID() string   { return e.ID }
func (e SubscriptionUpdated) EventID() string { return e.ID }
func (e SubscriptionDeleted) EventID() string { return e.ID }
func (e UnknownEvent) EventID() string        { return e.ID }

func (SubscriptionCreated) Kind() EventKind { return KindSubscriptionCreated }
func (CheckoutCompleted) Kind() EventKind   { return KindCheckoutCompleted }
func (SubscriptionUpdated) Kind() EventKind { return KindSubscriptionUpdated }
func (SubscriptionDeleted) Kind() EventKind { return KindSubscriptionDeleted }
func (UnknownEvent) Kind() EventKind        { return KindUnknown }

func (SubscriptionCreated) isEvent() {}
func (CheckoutCompleted) isEvent()   {}
func (SubscriptionUpdated) isEvent() {}
func (SubscriptionDeleted) isEvent() {}
func (UnknownEvent) isEvent()        {}
