package requestid_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/requestid"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, header http.Header) (string, string) {
	t.Helper()
	var seen string
	h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates uuid", func(t *testing.T) {
		t.Parallel()
		seen, echoed := serve(t, requestid.Middleware(), nil)
		require.NotEmpty(t, seen)
		assert.Equal(t, seen, echoed)
		parsed, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	})

	t.Run("reuses valid inbound id", func(t *testing.T) {
		t.Parallel()
		seen, echoed := serve(t, requestid.Middleware(), http.Header{"X-Request-Id": {"req_abc-123"}})
		assert.Equal(t, "req_abc-123", seen)
		assert.Equal(t, "req_abc-123", echoed)
	})

	t.Run("replaces invalid inbound id", func(t *testing.T) {
		t.Parallel()
		seen, _ := serve(t, requestid.Middleware(), http.Header{"X-Request-Id": {"bad id; drop table"}})
		assert.NotEqual(t, "bad id; drop table", seen)

		long := strings.Repeat("a", 200)
		seen, _ = serve(t, requestid.Middleware(), http.Header{"X-Request-Id": {long}})
		assert.NotEqual(t, long, seen)
	})

	t.Run("trusted headers in order", func(t *testing.T) {
		t.Parallel()
		mw := requestid.Middleware(
			requestid.WithTrustedHeaders("Request-Id", requestid.Header),
			requestid.WithGenerator(func() string { return "generated" }),
		)
		seen, _ := serve(t, mw, http.Header{"Request-Id": {"req_stripe"}, "X-Request-Id": {"req_client"}})
		assert.Equal(t, "req_stripe", seen)

		seen, _ = serve(t, mw, nil)
		assert.Equal(t, "generated", seen)
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	log.InfoContext(requestid.WithContext(context.Background(), "req_42"), "handled")
	assert.Contains(t, buf.String(), `"request_id":"req_42"`)

	buf.Reset()
	log.InfoContext(context.Background(), "handled")
	assert.NotContains(t, buf.String(), "request_id")
	assert.Empty(t, requestid.FromContext(context.Background()))
}
