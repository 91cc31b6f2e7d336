package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// AccountID records the account holder identity under the key "account_id".
// Empty ids produce an empty Attr so callers can log unconditionally.
func AccountID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("account_id", id)
}

// Tier records a subscription tier name under the key "tier".
func Tier(tier string) slog.Attr {
	return slog.String("tier", tier)
}

// BillingEvent records the billing event kind under the key "billing_event".
func BillingEvent(kind string) slog.Attr {
	return slog.String("billing_event", kind)
}

// EventID records the provider event identifier under the key "event_id".
func EventID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("event_id", id)
}

// CustomerRef records the billing provider customer reference.
func CustomerRef(ref string) slog.Attr {
	if ref == "" {
		return slog.Attr{}
	}
	return slog.String("customer_ref", ref)
}

// SubscriptionRef records the billing provider subscription reference.
func SubscriptionRef(ref string) slog.Attr {
	if ref == "" {
		return slog.Attr{}
	}
	return slog.String("subscription_ref", ref)
}

// PriceID records a provider price identifier under the key "price_id".
func PriceID(id string) slog.Attr {
	return slog.String("price_id", id)
}

// ProductID records the product identifier under the key "product_id".
func ProductID(id string) slog.Attr {
	return slog.String("product_id", id)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Flow records the billing redirect flow under the key "flow".
func Flow(name string) slog.Attr {
	return slog.String("flow", name)
}
