package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/calendar"
	"github.com/dmitrymomot/billingkit/pkg/metrics"
	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

var (
	_ subscription.Recorder  = (*metrics.Metrics)(nil)
	_ calendar.FetchRecorder = (*metrics.Metrics)(nil)
)

func TestMetrics_Recorders(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.RecordBillingEvent(subscription.KindSubscriptionCreated, subscription.OutcomeApplied)
	m.RecordBillingEvent(subscription.KindSubscriptionCreated, subscription.OutcomeApplied)
	m.RecordBillingEvent(subscription.KindSubscriptionDeleted, subscription.OutcomeIgnored)
	m.RecordRedirect(subscription.FlowCheckout)
	m.RecordCalendarFetch(calendar.FetchHit)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BillingEvents.WithLabelValues("subscription_created", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillingEvents.WithLabelValues("subscription_deleted", "ignored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Redirects.WithLabelValues("checkout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalendarFetches.WithLabelValues("hit")))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.RecordRedirect(subscription.FlowPortal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `billingkit_billing_redirects_total{flow="portal"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

func TestMetrics_Middleware(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/holiday-discounts/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/holiday-discounts/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(
		m.HTTPRequests.WithLabelValues(http.MethodGet, "/holiday-discounts/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}
