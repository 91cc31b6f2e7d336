package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// fieldName returns the tag name of sf, or false when the field is not
// tagged for this binder or explicitly skipped.
func fieldName(sf reflect.StructField, tag string) (string, bool) {
	raw, ok := sf.Tag.Lookup(tag)
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(raw, ",")
	if name == "-" {
		return "", false
	}
	if name == "" {
		name = strings.ToLower(sf.Name)
	}
	return name, true
}

func setField(field reflect.Value, values []string) error {
	switch field.Kind() {
	case reflect.Pointer:
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), values); err != nil {
			return err
		}
		field.Set(ptr)
		return nil

	case reflect.Slice:
		var parts []string
		for _, v := range values {
			for p := range strings.SplitSeq(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
		}
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := setScalar(slice.Index(i), p); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	return setScalar(field, values[0])
}

func setScalar(field reflect.Value, s string) error {
	s = strings.TrimSpace(s)
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}
