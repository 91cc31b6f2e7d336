package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/billingkit/pkg/subscription"
)

const namespace = "billingkit"

// Metrics owns the service collectors and the registry they live in.
// It satisfies subscription.Recorder and calendar.FetchRecorder.
type Metrics struct {
	registry *prometheus.Registry

	BillingEvents   *prometheus.CounterVec
	Redirects       *prometheus.CounterVec
	CalendarFetches *prometheus.CounterVec

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BillingEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "billing_events_total",
				Help:      "Billing provider events by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Redirects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "billing_redirects_total",
				Help:      "Provider redirect URLs issued by flow",
			},
			[]string{"flow"},
		),
		CalendarFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "holiday_calendar_fetch_total",
				Help:      "Public holiday lookups by cache result",
			},
			[]string{"result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BillingEvents,
		m.Redirects,
		m.CalendarFetches,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordBillingEvent(kind subscription.EventKind, outcome string) {
	m.BillingEvents.WithLabelValues(string(kind), outcome).Inc()
}

func (m *Metrics) RecordRedirect(flow string) {
	m.Redirects.WithLabelValues(flow).Inc()
}

func (m *Metrics) RecordCalendarFetch(result string) {
	m.CalendarFetches.WithLabelValues(result).Inc()
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
