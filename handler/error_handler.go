package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/billingkit/binder"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/requestid"
)

// ErrorMapping pairs a sentinel error with the HTTP error it surfaces as.
type ErrorMapping struct {
	Err  error
	HTTP HTTPError
}

// ErrorMapper translates a domain error into an HTTPError.
type ErrorMapper func(err error) (HTTPError, bool)

// MapErrors matches err against mappings in order with errors.Is.
func MapErrors(mappings ...ErrorMapping) ErrorMapper {
	return func(err error) (HTTPError, bool) {
		for _, m := range mappings {
			if errors.Is(err, m.Err) {
				return m.HTTP, true
			}
		}
		return HTTPError{}, false
	}
}

var binderErrors = MapErrors(
	ErrorMapping{binder.ErrMissingContentType, ErrUnsupportedMediaType},
	ErrorMapping{binder.ErrUnsupportedMediaType, ErrUnsupportedMediaType},
	ErrorMapping{binder.ErrBodyTooLarge, ErrRequestEntityTooLarge},
	ErrorMapping{binder.ErrInvalidJSON, NewHTTPError(http.StatusBadRequest, "invalid_json")},
	ErrorMapping{binder.ErrInvalidQuery, NewHTTPError(http.StatusBadRequest, "invalid_query")},
	ErrorMapping{binder.ErrInvalidPath, NewHTTPError(http.StatusBadRequest, "invalid_path")},
)

// NewErrorHandler renders errors as JSON envelopes. Mappers run first, then
// binder errors, ValidationError and HTTPError. Client errors carry the
// error text; server errors carry a generic message. Every error is logged,
// 4xx at warn and 5xx at error.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = logger.Noop()
	}
	mappers = append(mappers, binderErrors)

	return func(ctx Context, err error) {
		status, detail := classify(err, mappers)

		r := ctx.Request()
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		resp := jsonResponse{status: status, body: JSONResponse{Error: detail}}
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error", logger.Error(renderErr))
		}
	}
}

func classify(err error, mappers []ErrorMapper) (int, *ErrorDetail) {
	for _, m := range mappers {
		if he, ok := m(err); ok {
			if he.Code >= http.StatusInternalServerError {
				return he.Code, &ErrorDetail{Code: he.Key, Message: http.StatusText(he.Code)}
			}
			return he.Code, &ErrorDetail{Code: he.Key, Message: err.Error()}
		}
	}

	status := http.StatusInternalServerError
	detail := errorToDetail(err, &status)
	return status, detail
}
