package filter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Value is one request parameter: a scalar string or an ordered list of strings.
type Value struct {
	scalar string
	list   []string
	isList bool
	isNull bool
}

// Scalar wraps a single string.
func Scalar(s string) Value { return Value{scalar: s} }

// List wraps an ordered list of strings.
func List(items ...string) Value { return Value{list: items, isList: true} }

// IsList reports whether the value arrived as a list.
func (v Value) IsList() bool { return v.isList }

// String returns the scalar, or the last list element.
func (v Value) String() string {
	if v.isList {
		if len(v.list) == 0 {
			return ""
		}
		return v.list[len(v.list)-1]
	}
	return v.scalar
}

// Strings returns the list, or the scalar as a one-element list.
func (v Value) Strings() []string {
	if v.isList {
		return v.list
	}
	return []string{v.scalar}
}

// Blank reports whether the value carries nothing usable:
// null, whitespace only, or a list whose every element is blank.
func (v Value) Blank() bool {
	if v.isNull {
		return true
	}
	if !v.isList {
		return strings.TrimSpace(v.scalar) == ""
	}
	for _, s := range v.list {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Params is the untyped request parameter mapping the compiler reads.
// Nested keys are flattened to bracket notation: filters[price][min].
type Params struct {
	values map[string]Value
}

// NewParams builds params from already flattened values.
func NewParams(values map[string]Value) Params {
	p := Params{values: make(map[string]Value, len(values))}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

// FromValues builds params from a query string.
// For repeated keys the last value wins; keys ending in [] collect every value into a list.
func FromValues(q url.Values) Params {
	p := Params{values: make(map[string]Value, len(q))}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	// plain keys first so that status[] overrides status
	sort.SliceStable(keys, func(i, j int) bool {
		return !strings.HasSuffix(keys[i], "[]") && strings.HasSuffix(keys[j], "[]")
	})

	for _, k := range keys {
		vs := q[k]
		if base, ok := strings.CutSuffix(k, "[]"); ok {
			p.values[base] = List(vs...)
			continue
		}
		if len(vs) == 0 {
			continue
		}
		p.values[k] = Scalar(vs[len(vs)-1])
	}
	return p
}

// FromMap builds params from a decoded JSON body.
// Objects are flattened into bracket keys, arrays become lists, null is kept as blank.
func FromMap(m map[string]any) Params {
	p := Params{values: make(map[string]Value)}
	for k, v := range m {
		p.flatten(k, v)
	}
	return p
}

func (p Params) flatten(key string, v any) {
	switch val := v.(type) {
	case nil:
		p.values[key] = Value{isNull: true}
	case map[string]any:
		for k, nested := range val {
			p.flatten(key+"["+k+"]", nested)
		}
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			if s, err := cast.ToStringE(item); err == nil {
				items = append(items, s)
			}
		}
		p.values[key] = List(items...)
	case []string:
		p.values[key] = List(val...)
	default:
		if s, err := cast.ToStringE(val); err == nil {
			p.values[key] = Scalar(s)
		}
	}
}

// Overlay returns p with every key of top set to top's value.
// Both sides are already flattened, so filters[price][min] from a query string
// and {"filters":{"price":{"min":..}}} from a body meet on the same key.
func (p Params) Overlay(top Params) Params {
	out := NewParams(p.values)
	for k, v := range top.values {
		out.values[k] = v
	}
	return out
}

// Get returns the raw value under key.
func (p Params) Get(key string) (Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Filled reports whether key is present and not blank.
func (p Params) Filled(key string) bool {
	v, ok := p.values[key]
	return ok && !v.Blank()
}

// Lookup returns the first filled value among keys.
func (p Params) Lookup(keys ...string) (Value, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if p.Filled(k) {
			return p.values[k], true
		}
	}
	return Value{}, false
}

// Nested returns the filled value at root[path0][path1]...
func (p Params) Nested(root string, path ...string) (Value, bool) {
	return p.Lookup(NestedKey(root, path...))
}

// NestedKey renders root[a][b].
func NestedKey(root string, path ...string) string {
	var b strings.Builder
	b.WriteString(root)
	for _, seg := range path {
		b.WriteString("[")
		b.WriteString(seg)
		b.WriteString("]")
	}
	return b.String()
}

// Len returns the number of keys.
func (p Params) Len() int {
	return len(p.values)
}
