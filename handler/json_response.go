package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) { r.body.Meta = meta }
}

// JSON wraps v into the data field. Errors are routed to JSONError.
func JSON(v any, opts ...JSONOption) Response {
	if err, ok := v.(error); ok {
		return JSONError(err, opts...)
	}
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err into the error field. HTTPError and ValidationError
// pick their own status; anything else is a 500 with a generic message.
func JSONError(err error, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}
	r.body.Error = errorToDetail(err, &r.status)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error, status *int) *ErrorDetail {
	var valErr ValidationError
	if errors.As(err, &valErr) {
		*status = http.StatusUnprocessableEntity
		detail := &ErrorDetail{Code: "validation_error", Message: valErr.Error()}
		if len(valErr) > 0 {
			detail.Details = make(map[string][]string, len(valErr))
			maps.Copy(detail.Details, valErr)
		}
		return detail
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		*status = httpErr.Code
		msg := err.Error()
		if msg == httpErr.Key {
			msg = http.StatusText(httpErr.Code)
		}
		return &ErrorDetail{Code: httpErr.Key, Message: msg}
	}

	*status = http.StatusInternalServerError
	return &ErrorDetail{Code: ErrInternalServerError.Key, Message: http.StatusText(http.StatusInternalServerError)}
}
