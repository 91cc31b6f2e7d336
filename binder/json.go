package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxBodySize caps JSON request bodies.
const DefaultMaxBodySize int64 = 1 << 20

// BindJSON decodes a strict JSON body: unknown fields and trailing data are
// rejected. Requests without a body are left to other binders.
func BindJSON() func(r *http.Request, v any) error {
	return BindJSONWithLimit(DefaultMaxBodySize)
}

func BindJSONWithLimit(limit int64) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
			return ErrBinderNotApplicable
		}

		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, ct)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if int64(len(body)) > limit {
			return ErrBodyTooLarge
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()

		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrInvalidJSON)
			}
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}

		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
		}
		return nil
	}
}
