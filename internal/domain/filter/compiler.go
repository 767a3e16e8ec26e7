package filter

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"resido/internal/core/apperror"
)

// Well-known request parameters.
const (
	ParamSearch    = "search"
	ParamSort      = "sort"
	ParamDirection = "direction"
	ParamFilters   = "filters"
	ParamPage      = "page"
	ParamPerPage   = "per_page"
	ParamLimit     = "limit"
	ParamOffset    = "offset"
)

// ParamSortStrict=true asks for UNKNOWN_SORT_FIELD instead of the default sort.
const ParamSortStrict = "sort_strict"

// dateRange maps the date filter parameters onto timestamp columns.
var dateRanges = []struct {
	column string
	from   string
	to     string
}{
	{column: "created_at", from: "created_from", to: "created_to"},
	{column: "updated_at", from: "updated_from", to: "updated_to"},
}

// Compiler turns request parameters into Query plans using the registered FieldSpecs.
// It holds no mutable state and is safe for concurrent use.
type Compiler struct {
	registry *Registry
}

// NewCompiler creates a compiler over registry.
func NewCompiler(registry *Registry) *Compiler {
	return &Compiler{registry: registry}
}

// Registry returns the registry the compiler reads.
func (c *Compiler) Registry() *Registry {
	return c.registry
}

// Option adjusts a single compilation.
type Option func(*options)

type options struct {
	sortable   []string
	strictSort bool
	direction  Direction
}

// WithSortable narrows the sort allow-list, e.g. to the fields common to several kinds.
func WithSortable(fields []string) Option {
	return func(o *options) { o.sortable = fields }
}

// StrictSort rejects unknown sort fields with UNKNOWN_SORT_FIELD instead of falling back.
func StrictSort() Option {
	return func(o *options) { o.strictSort = true }
}

// RequestOptions returns opts plus the options a request may turn on itself.
// Listings pass their fixed options through it.
func RequestOptions(params Params, opts ...Option) []Option {
	if v, ok := params.Lookup(ParamSortStrict); ok {
		if strict, err := cast.ToBoolE(v.String()); err == nil && strict {
			opts = append(opts, StrictSort())
		}
	}
	return opts
}

// WithDefaultDirection sets the direction used when none (or an invalid one) is given.
func WithDefaultDirection(d Direction) Option {
	return func(o *options) { o.direction = d }
}

// Compile builds the query plan for kind.
func (c *Compiler) Compile(kind Kind, params Params, opts ...Option) (Query, error) {
	spec, err := c.registry.SpecFor(kind)
	if err != nil {
		return Query{}, err
	}
	return CompileSpec(spec, params, opts...)
}

// CompileSpec builds the query plan for an explicit FieldSpec.
//
// Predicates come out in a fixed order: common fields (ranges, multi-value,
// exact, JSON containment, relations), then the kind's extension fields in the
// same phase order, then date ranges. Parameters that match no declared field
// are ignored.
func CompileSpec(spec FieldSpec, params Params, opts ...Option) (Query, error) {
	o := options{direction: Desc}
	for _, opt := range opts {
		opt(&o)
	}

	q := Query{Kind: spec.Kind}

	for _, fields := range [][]Field{spec.Common, spec.Extension} {
		preds, err := compileFields(fields, params)
		if err != nil {
			return Query{}, err
		}
		q.Predicates = append(q.Predicates, preds...)
	}

	q.Search = compileSearch(spec, params)

	dates, err := compileDateRanges(params)
	if err != nil {
		return Query{}, err
	}
	q.Predicates = append(q.Predicates, dates...)

	q.Sort, err = compileSort(spec, params, o)
	if err != nil {
		return Query{}, err
	}

	q.Page, err = compilePage(params)
	if err != nil {
		return Query{}, err
	}
	return q, nil
}

func compileFields(fields []Field, params Params) ([]Predicate, error) {
	var out []Predicate
	for _, op := range []Op{OpRange, OpMultiValue, OpExact, OpJSONContains, OpRelation} {
		for _, f := range fields {
			if f.Op != op {
				continue
			}
			var (
				preds []Predicate
				err   error
			)
			switch op {
			case OpRange:
				preds, err = compileRange(f, params)
			case OpMultiValue, OpRelation:
				preds, err = compileMultiValue(f, params)
			case OpExact:
				preds, err = compileExact(f, params)
			case OpJSONContains:
				preds, err = compileJSONContains(f, params)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, preds...)
		}
	}
	return out, nil
}

func compileRange(f Field, params Params) ([]Predicate, error) {
	param := f.ParamName()
	minKey, maxKey := f.BoundKeys()

	var out []Predicate
	bounds := []struct {
		key    string
		nested string
		op     Operator
	}{
		{key: minKey, nested: NestedKey(ParamFilters, param, "min"), op: GreaterOrEqual},
		{key: maxKey, nested: NestedKey(ParamFilters, param, "max"), op: LessOrEqual},
	}
	for _, b := range bounds {
		v, ok := params.Lookup(b.key, b.nested)
		if !ok {
			continue
		}
		used := b.key
		if !params.Filled(b.key) {
			used = b.nested
		}
		val, err := coerceField(f, used, v.String())
		if err != nil {
			return nil, err
		}
		out = append(out, Predicate{Field: f.Name, Operator: b.op, Value: val})
	}

	if f.Bounds == BoundsNone {
		if v, ok := params.Lookup(param, NestedKey(ParamFilters, param)); ok {
			val, err := coerceField(f, param, v.String())
			if err != nil {
				return nil, err
			}
			out = append(out, Predicate{Field: f.Name, Operator: Equal, Value: val})
		}
	}
	return out, nil
}

func compileMultiValue(f Field, params Params) ([]Predicate, error) {
	param := f.ParamName()
	v, ok := params.Lookup(param, NestedKey(ParamFilters, param))
	if !ok {
		return nil, nil
	}

	items, isList := splitValue(v, f.NoSplit)
	if len(items) == 0 {
		return nil, nil
	}
	if !isList {
		val, err := coerceField(f, param, items[0])
		if err != nil {
			return nil, err
		}
		return []Predicate{{Relation: f.Relation, Field: f.Name, Operator: Equal, Value: val}}, nil
	}

	vals, err := coerceList(f, param, items)
	if err != nil {
		return nil, err
	}
	return []Predicate{{Relation: f.Relation, Field: f.Name, Operator: InList, Value: vals}}, nil
}

func compileExact(f Field, params Params) ([]Predicate, error) {
	param := f.ParamName()
	v, ok := params.Lookup(param, NestedKey(ParamFilters, param))
	if !ok {
		return nil, nil
	}
	val, err := coerceField(f, param, v.String())
	if err != nil {
		return nil, err
	}
	return []Predicate{{Field: f.Name, Operator: Equal, Value: val}}, nil
}

func compileJSONContains(f Field, params Params) ([]Predicate, error) {
	param := f.ParamName()
	v, ok := params.Lookup(param, NestedKey(ParamFilters, param))
	if !ok {
		return nil, nil
	}

	items, _ := splitValue(v, f.NoSplit)
	out := make([]Predicate, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		val, err := coerceField(f, param, item)
		if err != nil {
			return nil, err
		}
		out = append(out, Predicate{Field: f.Name, Operator: JSONContains, Value: val})
	}
	return out, nil
}

func compileSearch(spec FieldSpec, params Params) *Predicate {
	if len(spec.Search) == 0 {
		return nil
	}
	v, ok := params.Lookup(ParamSearch)
	if !ok {
		return nil
	}
	term := strings.TrimSpace(strings.Join(v.Strings(), " "))
	if term == "" {
		return nil
	}

	p := &Predicate{Any: make([]Predicate, 0, len(spec.Search))}
	for _, sf := range spec.Search {
		p.Any = append(p.Any, Predicate{
			Relation: sf.Relation,
			Field:    sf.Field,
			Operator: Like,
			Value:    term,
		})
	}
	return p
}

func compileDateRanges(params Params) ([]Predicate, error) {
	var out []Predicate
	for _, dr := range dateRanges {
		bounds := []struct {
			key    string
			nested string
			op     Operator
		}{
			{key: dr.from, nested: NestedKey(ParamFilters, dr.column, "from"), op: GreaterOrEqual},
			{key: dr.to, nested: NestedKey(ParamFilters, dr.column, "to"), op: LessOrEqual},
		}
		for _, b := range bounds {
			v, ok := params.Lookup(b.key, b.nested)
			if !ok {
				continue
			}
			day, err := ParseDate(strings.TrimSpace(v.String()))
			if err != nil {
				return nil, apperror.NewInvalidFilterValue(dr.column, b.key, v.String(), TypeDate.String()).WithCause(err)
			}
			out = append(out, Predicate{Field: dr.column, Operator: b.op, Value: day, DateOnly: true})
		}
	}
	return out, nil
}

func compileSort(spec FieldSpec, params Params, o options) (SortSpec, error) {
	allowed := spec.Sortable
	if o.sortable != nil {
		allowed = o.sortable
	}

	field, rawDir := "", ""
	if v, ok := params.Nested(ParamSort, "field"); ok {
		field = v.String()
	} else if v, ok := params.Lookup(ParamSort); ok && !v.IsList() {
		field = v.String()
	}
	if v, ok := params.Nested(ParamSort, "direction"); ok {
		rawDir = v.String()
	} else if v, ok := params.Lookup(ParamDirection); ok {
		rawDir = v.String()
	}

	// -price is shorthand for price desc, +price for price asc
	def := o.direction
	field = strings.TrimSpace(field)
	if rest, ok := strings.CutPrefix(field, "-"); ok {
		field, def = rest, Desc
	} else if rest, ok := strings.CutPrefix(field, "+"); ok {
		field, def = rest, Asc
	}

	s := SortSpec{Field: field, Direction: ParseDirection(rawDir, def)}
	if s.Field != "" && contains(allowed, s.Field) {
		return s, nil
	}
	if s.Field != "" && o.strictSort {
		return SortSpec{}, apperror.NewUnknownSortField(s.Field, allowed)
	}

	s.Field = spec.DefaultSort
	if !contains(allowed, s.Field) && len(allowed) > 0 {
		s.Field = allowed[0]
	}
	return s, nil
}

// compilePage reads limit/offset or page/per_page. An offset past MaxOffset
// is rejected so that offset+limit arithmetic downstream cannot overflow.
func compilePage(params Params) (Page, error) {
	if params.Filled(ParamLimit) || params.Filled(ParamOffset) {
		limit := clampPerPage(intParam(params, ParamLimit, DefaultPerPage))
		offset := max(intParam(params, ParamOffset, 0), 0)
		if offset > MaxOffset {
			return Page{}, pageError(params, ParamOffset)
		}
		return Page{Limit: limit, Offset: offset}, nil
	}

	page := max(intParam(params, ParamPage, 1), 1)
	perPage := clampPerPage(intParam(params, ParamPerPage, DefaultPerPage))
	if page-1 > MaxOffset/perPage {
		return Page{}, pageError(params, ParamPage)
	}
	return Page{Limit: perPage, Offset: (page - 1) * perPage}, nil
}

func pageError(params Params, key string) error {
	v, _ := params.Lookup(key)
	return apperror.NewInvalidFilterValue(key, key, v.String(), fmt.Sprintf("offset of at most %d rows", MaxOffset))
}

func intParam(params Params, key string, def int) int {
	v, ok := params.Lookup(key)
	if !ok {
		return def
	}
	n, err := Coerce(TypeInt, v.String())
	if err != nil {
		return def
	}
	return int(n.(int64))
}

func clampPerPage(n int) int {
	if n < 1 {
		return DefaultPerPage
	}
	return min(n, MaxPerPage)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
