package filter

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
)

// DateLayout is the calendar-date format accepted by date filters.
const DateLayout = "2006-01-02"

// Coerce converts a raw request string to the Go type of t.
func Coerce(t ValueType, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch t {
	case TypeInt:
		return cast.ToInt64E(raw)
	case TypeDecimal:
		return decimal.NewFromString(raw)
	case TypeBool:
		return cast.ToBoolE(raw)
	case TypeUUID:
		return id.Parse(raw)
	case TypeDate:
		return ParseDate(raw)
	}
	return raw, nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns midnight UTC of that calendar date.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func coerceField(f Field, param, raw string) (any, error) {
	v, err := Coerce(f.Type, raw)
	if err != nil {
		return nil, apperror.NewInvalidFilterValue(f.Name, param, raw, f.Type.String()).WithCause(err)
	}
	return v, nil
}

func coerceList(f Field, param string, raws []string) ([]any, error) {
	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		v, err := coerceField(f, param, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// splitValue applies the comma shorthand and drops blank items.
// The bool result reports whether the value is a list.
func splitValue(v Value, noSplit bool) ([]string, bool) {
	var items []string
	isList := v.IsList()
	switch {
	case isList:
		items = v.Strings()
	case !noSplit && strings.Contains(v.String(), ","):
		items = strings.Split(v.String(), ",")
		isList = true
	default:
		return []string{strings.TrimSpace(v.String())}, false
	}

	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, isList
}
