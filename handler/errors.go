package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error with a status code and a stable machine-readable key.
type HTTPError struct {
	Code int
	Key  string
}

func (e HTTPError) Error() string {
	return e.Key
}

func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrBadRequest            = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrUnauthorized          = HTTPError{Code: http.StatusUnauthorized, Key: "unauthorized"}
	ErrNotFound              = HTTPError{Code: http.StatusNotFound, Key: "not_found"}
	ErrConflict              = HTTPError{Code: http.StatusConflict, Key: "conflict"}
	ErrRequestEntityTooLarge = HTTPError{Code: http.StatusRequestEntityTooLarge, Key: "request_entity_too_large"}
	ErrUnsupportedMediaType  = HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}
	ErrUnprocessableEntity   = HTTPError{Code: http.StatusUnprocessableEntity, Key: "unprocessable_entity"}
	ErrInternalServerError   = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
	ErrBadGateway            = HTTPError{Code: http.StatusBadGateway, Key: "bad_gateway"}
	ErrServiceUnavailable    = HTTPError{Code: http.StatusServiceUnavailable, Key: "service_unavailable"}
)
