package binder

import (
	"fmt"
	"net/http"
	"reflect"
)

// Path binds `path:"name"` fields through extractor, e.g. chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}
		return bindStruct(v, "path", ErrInvalidPath, func(name string) []string {
			if val := extractor(r, name); val != "" {
				return []string{val}
			}
			return nil
		})
	}
}

// BindQuery binds `query:"name"` fields from the URL query string.
// Comma separated values fill slice fields.
func BindQuery() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindStruct(v, "query", ErrInvalidQuery, func(name string) []string {
			return q[name]
		})
	}
}

func bindStruct(v any, tag string, sentinel error, lookup func(name string) []string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: target must be a non-nil pointer", sentinel)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a pointer to struct", sentinel)
	}

	rt := rv.Type()
	for i := range rv.NumField() {
		field := rv.Field(i)
		sf := rt.Field(i)
		if !field.CanSet() {
			continue
		}
		name, ok := fieldName(sf, tag)
		if !ok {
			continue
		}
		values := lookup(name)
		if len(values) == 0 {
			continue
		}
		if err := setField(field, values); err != nil {
			return fmt.Errorf("%w: %s: %v", sentinel, name, err)
		}
	}
	return nil
}
