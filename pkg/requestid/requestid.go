package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Header is the canonical request id header.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type contextKey struct{}

func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Option configures the middleware.
type Option func(*options)

type options struct {
	headers []string
	gen     func() string
}

// WithTrustedHeaders lists inbound headers whose value is reused as the
// request id, in order of preference. Providers forward their own delivery
// ids this way.
func WithTrustedHeaders(headers ...string) Option {
	return func(o *options) {
		if len(headers) > 0 {
			o.headers = headers
		}
	}
}

// WithGenerator overrides the id generator.
func WithGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.gen = gen
		}
	}
}

// Middleware attaches a request id to the context and echoes it back in the
// response header. Invalid inbound ids are replaced.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	o := &options{
		headers: []string{Header},
		gen:     newID,
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			for _, h := range o.headers {
				if v := r.Header.Get(h); isValid(v) {
					id = v
					break
				}
			}
			if id == "" {
				id = o.gen()
			}
			w.Header().Set(Header, id)
			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
		})
	}
}

// LoggerExtractor adds the request id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func isValid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
