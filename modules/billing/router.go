package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/billingkit/binder"
	"github.com/dmitrymomot/billingkit/handler"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

// Option configures the billing router.
type Option func(*module)

func WithLogger(log *slog.Logger) Option {
	return func(m *module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithProviderName sets the webhook path segment, e.g. "stripe" serves
// POST /webhooks/stripe. Defaults to "provider".
func WithProviderName(name string) Option {
	return func(m *module) {
		if name != "" {
			m.provider = name
		}
	}
}

// WithWebhookOptions forwards options to subscription.WebhookHandler.
func WithWebhookOptions(opts ...subscription.WebhookHandlerOption) Option {
	return func(m *module) {
		m.webhookOpts = append(m.webhookOpts, opts...)
	}
}

// WithFlowMiddleware wraps the POST endpoints that open provider sessions,
// e.g. with a per-account rate limiter.
func WithFlowMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(m *module) {
		m.flowMW = append(m.flowMW, mw...)
	}
}

type module struct {
	svc         subscription.Service
	log         *slog.Logger
	provider    string
	webhookOpts []subscription.WebhookHandlerOption
	flowMW      []func(http.Handler) http.Handler
	errs        handler.ErrorHandler[handler.Context]
}

// ErrorMapper maps subscription errors to HTTP errors.
var ErrorMapper = handler.MapErrors(
	handler.ErrorMapping{Err: subscription.ErrMissingAccountID, HTTP: handler.ErrUnauthorized},
	handler.ErrorMapping{Err: subscription.ErrSubscriptionNotFound, HTTP: handler.NewHTTPError(http.StatusNotFound, "subscription_not_found")},
	handler.ErrorMapping{Err: subscription.ErrInvalidTier, HTTP: handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_tier")},
	handler.ErrorMapping{Err: subscription.ErrPriceNotConfigured, HTTP: handler.NewHTTPError(http.StatusUnprocessableEntity, "tier_not_available")},
	handler.ErrorMapping{Err: subscription.ErrTierUnchanged, HTTP: handler.NewHTTPError(http.StatusConflict, "tier_unchanged")},
	handler.ErrorMapping{Err: subscription.ErrInconsistentState, HTTP: handler.NewHTTPError(http.StatusConflict, "inconsistent_state")},
	handler.ErrorMapping{Err: subscription.ErrProviderError, HTTP: handler.ErrBadGateway},
	handler.ErrorMapping{Err: subscription.ErrNoRedirectURL, HTTP: handler.ErrBadGateway},
)

// Router mounts the account subscription endpoints and the provider webhook.
//
//	GET  /subscription          current record, created as Free on first access
//	POST /subscription/tier     {"tier": "Premium"} -> {"url": ...}
//	POST /subscription/cancel   {"url": ...} or 204 when there is nothing to cancel
//	POST /subscription/portal   {"url": ...} or 204 when the account has no customer
//	POST /webhooks/{provider}   signed provider notifications
//
// Subscription endpoints require the X-Account-ID header. Appending
// ?redirect=true answers 303 with the provider URL instead of JSON.
func Router(svc subscription.Service, opts ...Option) chi.Router {
	if svc == nil {
		panic("billing: subscription service is required")
	}
	m := &module{
		svc:      svc,
		log:      logger.Noop(),
		provider: "provider",
	}
	for _, opt := range opts {
		opt(m)
	}
	m.errs = handler.NewErrorHandler(m.log, ErrorMapper)

	r := chi.NewRouter()

	r.Route("/subscription", func(r chi.Router) {
		r.Use(RequireAccount)
		r.Get("/", handler.Wrap(m.getSubscription,
			handler.WithErrorHandler[handler.Context, struct{}](m.errs)))
		r.Group(func(r chi.Router) {
			r.Use(m.flowMW...)
			r.Post("/tier", handler.Wrap(m.changeTier,
				handler.WithBinders[handler.Context, tierRequest](binder.BindQuery(), binder.BindJSON()),
				handler.WithErrorHandler[handler.Context, tierRequest](m.errs)))
			r.Post("/cancel", handler.Wrap(m.cancel,
				handler.WithBinders[handler.Context, flowRequest](binder.BindQuery()),
				handler.WithErrorHandler[handler.Context, flowRequest](m.errs)))
			r.Post("/portal", handler.Wrap(m.portal,
				handler.WithBinders[handler.Context, flowRequest](binder.BindQuery()),
				handler.WithErrorHandler[handler.Context, flowRequest](m.errs)))
		})
	})

	r.Method(http.MethodPost, "/webhooks/"+m.provider, subscription.WebhookHandler(svc,
		append([]subscription.WebhookHandlerOption{subscription.WithWebhookLogger(m.log)}, m.webhookOpts...)...))

	return r
}
