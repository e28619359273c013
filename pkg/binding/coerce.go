package binding

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
)

// isComplex reports whether t is bound member by member or from JSON rather
// than from a single string
func isComplex(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == timeType || reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8 && isComplex(t.Elem())
	}
	return false
}

// coerce converts raw string values to t. Slices take every value; other
// types take the first.
func coerce(raw []string, t reflect.Type, locale string) (reflect.Value, error) {
	if t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8 {
		out := reflect.MakeSlice(t, 0, len(raw))
		for _, r := range raw {
			v, err := coerceOne(r, t.Elem(), locale)
			if err != nil {
				return reflect.Value{}, err
			}
			out = reflect.Append(out, v)
		}
		return out, nil
	}
	if len(raw) == 0 {
		return reflect.Zero(t), nil
	}
	return coerceOne(raw[0], t, locale)
}

func coerceOne(raw string, t reflect.Type, locale string) (reflect.Value, error) {
	if t.Kind() == reflect.Ptr {
		inner, err := coerceOne(raw, t.Elem(), locale)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(inner)
		return p, nil
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) && t != timeType {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}

	switch t {
	case timeType:
		return parseTime(raw)
	case durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(localizeDecimal(strings.TrimSpace(raw), locale), t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	default:
		return reflect.Value{}, fmt.Errorf("cannot bind %s from a string", t)
	}
	return v, nil
}

// localizeDecimal accepts a comma decimal separator in cultures that use one
func localizeDecimal(raw, locale string) string {
	switch locale {
	case "fr", "es":
		if !strings.Contains(raw, ".") {
			return strings.Replace(raw, ",", ".", 1)
		}
	}
	return raw
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(raw string) (reflect.Value, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return reflect.ValueOf(t), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("invalid time %q", raw)
}
