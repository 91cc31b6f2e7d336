package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/binder"
	"github.com/dmitrymomot/billingkit/handler"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

type tierRequest struct {
	Tier string `json:"tier"`
}

var errTierUnchanged = errors.New("tier unchanged")

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var body handler.JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWrap(t *testing.T) {
	t.Parallel()

	echo := func(_ handler.Context, req tierRequest) handler.Response {
		return handler.JSON(map[string]string{"tier": req.Tier})
	}

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(echo, handler.WithBinders[handler.Context, tierRequest](binder.BindJSON()))

		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tier":"Premium"}`))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"tier":"Premium"}}`, rec.Body.String())
	})

	t.Run("skips inapplicable binders", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(echo, handler.WithBinders[handler.Context, tierRequest](binder.BindJSON()))
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("binder error goes to error handler", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(echo,
			handler.WithBinders[handler.Context, tierRequest](binder.BindJSON()),
			handler.WithErrorHandler[handler.Context, tierRequest](handler.NewErrorHandler(nil)),
		)
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tier":`))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h(rec, r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", decode(t, rec).Error.Code)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()
		var order []string
		mark := func(name string) handler.Decorator[handler.Context, struct{}] {
			return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
				return func(ctx handler.Context, req struct{}) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(func(handler.Context, struct{}) handler.Response { return handler.Empty() },
			handler.WithDecorators(mark("outer"), mark("inner")))
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"outer", "inner"}, order)
	})
}

func TestResponses(t *testing.T) {
	t.Parallel()

	t.Run("redirect", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.Redirect("https://checkout.example.com/s/1").
			Render(rec, httptest.NewRequest(http.MethodPost, "/", nil)))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "https://checkout.example.com/s/1", rec.Header().Get("Location"))
	})

	t.Run("json with status and meta", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		resp := handler.JSON([]string{}, handler.WithJSONStatus(http.StatusCreated), handler.WithJSONMeta(map[string]any{"count": 0}))
		require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"data":[],"meta":{"count":0}}`, rec.Body.String())
	})

	t.Run("json error hides internal messages", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		require.NoError(t, handler.JSON(errors.New("pq: connection reset")).
			Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq:")
	})

	t.Run("validation error", func(t *testing.T) {
		t.Parallel()
		verr := handler.NewValidationError()
		verr.Add("holidayDate", "must be YYYY-MM-DD")
		rec := httptest.NewRecorder()
		require.NoError(t, handler.JSONError(verr).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, []string{"must be YYYY-MM-DD"}, body.Error.Details["holidayDate"])
	})
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithJSONFormatter())
	errs := handler.NewErrorHandler(log, handler.MapErrors(
		handler.ErrorMapping{Err: errTierUnchanged, HTTP: handler.ErrConflict},
		handler.ErrorMapping{Err: handler.ErrBadGateway, HTTP: handler.ErrBadGateway},
	))

	run := func(err error) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		errs(handler.NewContext(rec, httptest.NewRequest(http.MethodPost, "/subscription/tier", nil)), err)
		return rec
	}

	rec := run(fmt.Errorf("request tier change: %w", errTierUnchanged))
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "conflict", body.Error.Code)
	assert.Contains(t, body.Error.Message, "tier unchanged")
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	rec = run(fmt.Errorf("stripe: %w", handler.ErrBadGateway))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Bad Gateway", decode(t, rec).Error.Message)

	rec = run(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)

	rec = run(fmt.Errorf("%w: got text/plain", binder.ErrUnsupportedMediaType))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestError(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(handler.Context, struct{}) handler.Response {
		return handler.Error(fmt.Errorf("lookup: %w", errTierUnchanged))
	}, handler.WithErrorHandler[handler.Context, struct{}](handler.NewErrorHandler(nil, handler.MapErrors(
		handler.ErrorMapping{Err: errTierUnchanged, HTTP: handler.ErrConflict},
	))))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
