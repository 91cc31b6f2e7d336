package billing

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/billingkit/handler"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// AccountHeader carries the account identity set by the upstream auth layer.
const AccountHeader = "X-Account-ID"

var accountKey = handler.NewContextKey("account_id")

// RequireAccount rejects requests without an account identity with 401.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(AccountHeader))
		if id == "" {
			_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), accountKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountID returns the identity stored by RequireAccount.
func AccountID(ctx context.Context) string {
	return handler.ContextValue[string](ctx, accountKey)
}

// AccountKey keys per-account middleware such as rate limiters.
func AccountKey(r *http.Request) string {
	return AccountID(r.Context())
}

// AccountLogExtractor adds the account id to log records.
func AccountLogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := AccountID(ctx); id != "" {
			return logger.AccountID(id), true
		}
		return slog.Attr{}, false
	}
}
