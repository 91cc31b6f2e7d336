package subscription

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// DefaultMaxWebhookBodySize caps webhook payloads read into memory.
const DefaultMaxWebhookBodySize int64 = 1 << 20

// WebhookHandlerOption configures WebhookHandler.
type WebhookHandlerOption func(*webhookHandler)

// WithWebhookLogger sets the logger for rejected deliveries.
func WithWebhookLogger(log *slog.Logger) WebhookHandlerOption {
	return func(h *webhookHandler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMaxBodySize overrides DefaultMaxWebhookBodySize.
func WithMaxBodySize(n int64) WebhookHandlerOption {
	return func(h *webhookHandler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

type webhookHandler struct {
	svc     Service
	log     *slog.Logger
	maxBody int64
}

// WebhookHandler returns the billing event ingress endpoint.
//
// Invalid or missing signatures answer 400 and malformed payloads 400 too.
// Store failures answer 500 so that the provider redelivers. Everything else,
// including skipped and unknown events, is acknowledged with 200.
func WebhookHandler(svc Service, opts ...WebhookHandlerOption) http.Handler {
	if svc == nil {
		panic("subscription: Service is required")
	}
	h := &webhookHandler{
		svc:     svc,
		log:     logger.Noop(),
		maxBody: DefaultMaxWebhookBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *webhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeWebhookResponse(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		h.log.WarnContext(r.Context(), "billing webhook body unreadable", logger.Error(err))
		writeWebhookResponse(w, http.StatusBadRequest, "unreadable body")
		return
	}

	err = h.svc.HandleWebhook(r.Context(), payload, r.Header.Get(h.svc.SignatureHeader()))
	switch {
	case err == nil:
		writeWebhookResponse(w, http.StatusOK, "")
	case errors.Is(err, ErrWebhookVerificationFailed):
		writeWebhookResponse(w, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, ErrMalformedEvent):
		writeWebhookResponse(w, http.StatusBadRequest, "malformed event")
	default:
		h.log.ErrorContext(r.Context(), "billing webhook failed", logger.Error(err))
		writeWebhookResponse(w, http.StatusInternalServerError, "webhook handler failed")
	}
}

func writeWebhookResponse(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
