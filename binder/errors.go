package binder

import "errors"

var (
	ErrBinderNotApplicable  = errors.New("binder not applicable")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidPath          = errors.New("invalid path parameter")
)
