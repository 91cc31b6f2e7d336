package discounts

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/billingkit/binder"
	"github.com/dmitrymomot/billingkit/handler"
	"github.com/dmitrymomot/billingkit/pkg/calendar"
	"github.com/dmitrymomot/billingkit/pkg/discount"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Planner builds the merged holiday view of a product.
type Planner interface {
	Plan(ctx context.Context, productID string, year int, country string) ([]calendar.Entry, error)
}

// Option configures the discounts router.
type Option func(*module)

func WithLogger(log *slog.Logger) Option {
	return func(m *module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithDefaultCountry sets the calendar country used when the query omits it.
func WithDefaultCountry(country string) Option {
	return func(m *module) {
		if country != "" {
			m.country = country
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *module) {
		if now != nil {
			m.now = now
		}
	}
}

type module struct {
	svc     discount.Service
	planner Planner
	log     *slog.Logger
	country string
	now     func() time.Time
}

var (
	errInvalidID = handler.NewHTTPError(http.StatusBadRequest, "invalid_id")

	// ErrorMapper maps discount and calendar errors to HTTP errors.
	ErrorMapper = handler.MapErrors(
		handler.ErrorMapping{Err: discount.ErrMissingProduct, HTTP: handler.NewHTTPError(http.StatusUnprocessableEntity, "missing_product")},
		handler.ErrorMapping{Err: discount.ErrInvalidDate, HTTP: handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_date")},
		handler.ErrorMapping{Err: discount.ErrInvalidWindow, HTTP: handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_window")},
		handler.ErrorMapping{Err: discount.ErrInvalidPercentage, HTTP: handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_percentage")},
		handler.ErrorMapping{Err: discount.ErrEmptyDiscount, HTTP: handler.NewHTTPError(http.StatusUnprocessableEntity, "empty_discount")},
		handler.ErrorMapping{Err: discount.ErrRecordNotFound, HTTP: handler.ErrNotFound},
		handler.ErrorMapping{Err: discount.ErrDuplicateRecord, HTTP: handler.ErrConflict},
		handler.ErrorMapping{Err: calendar.ErrInvalidYear, HTTP: handler.NewHTTPError(http.StatusBadRequest, "invalid_year")},
		handler.ErrorMapping{Err: calendar.ErrInvalidCountry, HTTP: handler.NewHTTPError(http.StatusBadRequest, "invalid_country")},
		handler.ErrorMapping{Err: calendar.ErrUnknownCountry, HTTP: handler.NewHTTPError(http.StatusNotFound, "unknown_country")},
		handler.ErrorMapping{Err: calendar.ErrUpstream, HTTP: handler.ErrBadGateway},
		handler.ErrorMapping{Err: calendar.ErrInvalidResponse, HTTP: handler.ErrBadGateway},
	)
)

// Router mounts the holiday discount schedule.
//
//	GET    /holiday-discounts?productId=               stored schedule
//	POST   /holiday-discounts                          create or override one holiday
//	POST   /holiday-discounts/batch                    same for a list, empty items skipped
//	GET    /holiday-discounts/active?productId=&at=    records whose window contains at
//	GET    /holiday-discounts/calendar?productId=&year=&country=
//	GET    /holiday-discounts/{id}
//	PUT    /holiday-discounts/{id}
//	DELETE /holiday-discounts/{id}
func Router(svc discount.Service, planner Planner, opts ...Option) chi.Router {
	if svc == nil || planner == nil {
		panic("discounts: service and planner are required")
	}
	m := &module{
		svc:     svc,
		planner: planner,
		log:     logger.Noop(),
		country: "US",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	errs := handler.NewErrorHandler(m.log, ErrorMapper)

	r := chi.NewRouter()
	r.Route("/holiday-discounts", func(r chi.Router) {
		r.Get("/", handler.Wrap(m.list,
			handler.WithBinders[handler.Context, listRequest](binder.BindQuery()),
			handler.WithErrorHandler[handler.Context, listRequest](errs)))
		r.Post("/", handler.Wrap(m.submit,
			handler.WithBinders[handler.Context, discount.Input](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, discount.Input](errs)))
		r.Post("/batch", handler.Wrap(m.submitAll,
			handler.WithBinders[handler.Context, batchRequest](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, batchRequest](errs)))
		r.Get("/active", handler.Wrap(m.active,
			handler.WithBinders[handler.Context, activeRequest](binder.BindQuery()),
			handler.WithErrorHandler[handler.Context, activeRequest](errs)))
		r.Get("/calendar", handler.Wrap(m.calendar,
			handler.WithBinders[handler.Context, calendarRequest](binder.BindQuery()),
			handler.WithErrorHandler[handler.Context, calendarRequest](errs)))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handler.Wrap(m.get,
				handler.WithBinders[handler.Context, idRequest](binder.Path(chi.URLParam)),
				handler.WithErrorHandler[handler.Context, idRequest](errs)))
			r.Put("/", handler.Wrap(m.update,
				handler.WithBinders[handler.Context, updateRequest](binder.Path(chi.URLParam), binder.BindJSON()),
				handler.WithErrorHandler[handler.Context, updateRequest](errs)))
			r.Delete("/", handler.Wrap(m.delete,
				handler.WithBinders[handler.Context, idRequest](binder.Path(chi.URLParam)),
				handler.WithErrorHandler[handler.Context, idRequest](errs)))
		})
	})
	return r
}
