package filter

import (
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/apperror"
)

func testSpec() FieldSpec {
	return FieldSpec{
		Kind: KindApartment,
		Common: []Field{
			{Name: "price", Op: OpRange, Type: TypeDecimal},
			{Name: "area", Op: OpRange, Type: TypeDecimal, Bounds: BoundsCamel},
			{Name: "status", Op: OpMultiValue},
			{Name: "currency", Op: OpMultiValue, NoSplit: true},
			{Name: "features", Op: OpJSONContains},
			{Name: "building_id", Op: OpRelation, Type: TypeInt, Relation: "floor", Param: "building_id"},
			{Name: "email", Op: OpRelation, Relation: "residents", Param: "resident_email"},
		},
		Extension: []Field{
			{Name: "rooms", Op: OpRange, Type: TypeInt, Bounds: BoundsNone},
			{Name: "furnished", Op: OpExact, Type: TypeBool},
		},
		Search: []SearchField{
			{Field: "identifier"},
			{Field: "description"},
			{Relation: "floor.building", Field: "identifier"},
		},
		Sortable:    []string{"created_at", "price", "rooms"},
		DefaultSort: "created_at",
	}
}

func compile(t *testing.T, raw string, opts ...Option) Query {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	out, err := CompileSpec(testSpec(), FromValues(q), opts...)
	require.NoError(t, err)
	return out
}

func TestCompile_RangeBounds(t *testing.T) {
	q := compile(t, "min_price=100&max_price=250.50")

	require.Len(t, q.Predicates, 2)
	assert.Equal(t, "price", q.Predicates[0].Field)
	assert.Equal(t, GreaterOrEqual, q.Predicates[0].Operator)
	assert.True(t, decimal.RequireFromString("100").Equal(q.Predicates[0].Value.(decimal.Decimal)))
	assert.Equal(t, LessOrEqual, q.Predicates[1].Operator)
	assert.True(t, decimal.RequireFromString("250.50").Equal(q.Predicates[1].Value.(decimal.Decimal)))
}

func TestCompile_RangeBoundStyles(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Predicate
	}{
		{
			name: "camel case bounds",
			raw:  "minArea=40",
			want: []Predicate{{Field: "area", Operator: GreaterOrEqual}},
		},
		{
			name: "snake case ignored for camel field",
			raw:  "min_area=40",
			want: nil,
		},
		{
			name: "nested filters form",
			raw:  "filters[price][max]=10",
			want: []Predicate{{Field: "price", Operator: LessOrEqual}},
		},
		{
			name: "bare value on field without bounds",
			raw:  "rooms=3",
			want: []Predicate{{Field: "rooms", Operator: Equal, Value: int64(3)}},
		},
		{
			name: "bare value on bounded field ignored",
			raw:  "price=100",
			want: nil,
		},
		{
			name: "absent parameter is an open filter",
			raw:  "min_price=",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := compile(t, tt.raw)
			require.Len(t, q.Predicates, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Field, q.Predicates[i].Field)
				assert.Equal(t, want.Operator, q.Predicates[i].Operator)
				if want.Value != nil {
					assert.Equal(t, want.Value, q.Predicates[i].Value)
				}
			}
		})
	}
}

func TestCompile_MultiValueCommaSplitEquivalence(t *testing.T) {
	split := compile(t, "status=a,b,c")
	list := compile(t, "status[]=a&status[]=b&status[]=c")

	assert.Equal(t, list.Predicates, split.Predicates)
	require.Len(t, split.Predicates, 1)
	assert.Equal(t, InList, split.Predicates[0].Operator)
	assert.Equal(t, []any{"a", "b", "c"}, split.Predicates[0].Value)
}

func TestCompile_MultiValueSingle(t *testing.T) {
	q := compile(t, "status=available")

	require.Len(t, q.Predicates, 1)
	assert.Equal(t, Predicate{Field: "status", Operator: Equal, Value: "available"}, q.Predicates[0])
}

func TestCompile_NoSplitKeepsCommas(t *testing.T) {
	q := compile(t, "currency=USD,EUR")

	require.Len(t, q.Predicates, 1)
	assert.Equal(t, Equal, q.Predicates[0].Operator)
	assert.Equal(t, "USD,EUR", q.Predicates[0].Value)
}

func TestCompile_JSONContainsIsConjunctive(t *testing.T) {
	q := compile(t, "features=pool,garage")

	require.Len(t, q.Predicates, 2)
	assert.Equal(t, Predicate{Field: "features", Operator: JSONContains, Value: "pool"}, q.Predicates[0])
	assert.Equal(t, Predicate{Field: "features", Operator: JSONContains, Value: "garage"}, q.Predicates[1])
}

func TestCompile_Relation(t *testing.T) {
	q := compile(t, "building_id=7")
	require.Len(t, q.Predicates, 1)
	assert.Equal(t, Predicate{Relation: "floor", Field: "building_id", Operator: Equal, Value: int64(7)}, q.Predicates[0])
	assert.True(t, q.Predicates[0].IsRelation())

	q = compile(t, "resident_email=a@x.io,b@x.io")
	require.Len(t, q.Predicates, 1)
	assert.Equal(t, InList, q.Predicates[0].Operator)
	assert.Equal(t, "residents", q.Predicates[0].Relation)
}

func TestCompile_PhaseOrder(t *testing.T) {
	q := compile(t, "rooms=2&building_id=1&features=pool&status=x&min_price=1&created_from=2024-01-01&furnished=true")

	fields := make([]string, 0, len(q.Predicates))
	for _, p := range q.Predicates {
		fields = append(fields, p.Field)
	}
	assert.Equal(t, []string{"price", "status", "features", "building_id", "rooms", "furnished", "created_at"}, fields)
}

func TestCompile_UnknownFieldIgnored(t *testing.T) {
	params := FromMap(map[string]any{"not_a_real_field": 5})

	q, err := CompileSpec(testSpec(), params)
	require.NoError(t, err)
	assert.Empty(t, q.Predicates)
	assert.Nil(t, q.Search)
}

func TestCompile_InvalidFilterValue(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		param string
	}{
		{name: "decimal range", raw: "min_price=cheap", param: "min_price"},
		{name: "int relation", raw: "building_id=seven", param: "building_id"},
		{name: "int list item", raw: "building_id=1,x", param: "building_id"},
		{name: "bool exact", raw: "furnished=maybe", param: "furnished"},
		{name: "date", raw: "created_to=yesterday", param: "created_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)

			_, err = CompileSpec(testSpec(), FromValues(q))
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidFilterValue))

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.param, appErr.Details["param"])
		})
	}
}

func TestCompile_Search(t *testing.T) {
	q := compile(t, "search=Tower")

	require.NotNil(t, q.Search)
	require.Len(t, q.Search.Any, 3)
	assert.Equal(t, Predicate{Field: "identifier", Operator: Like, Value: "Tower"}, q.Search.Any[0])
	assert.Equal(t, "floor.building", q.Search.Any[2].Relation)
	assert.Equal(t, []string{"floor", "building"}, q.Search.Any[2].RelationPath())
	assert.Len(t, q.Conditions(), 1)

	q = compile(t, "search=%20%20")
	assert.Nil(t, q.Search)
}

func TestCompile_DateRanges(t *testing.T) {
	q := compile(t, "created_from=2024-01-05&updated_to=2024-02-01T10:00:00Z&filters[created_at][to]=2024-01-31")

	require.Len(t, q.Predicates, 3)
	for _, p := range q.Predicates {
		assert.True(t, p.DateOnly)
	}
	assert.Equal(t, Predicate{Field: "created_at", Operator: GreaterOrEqual, Value: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), DateOnly: true}, q.Predicates[0])
	assert.Equal(t, "created_at", q.Predicates[1].Field)
	assert.Equal(t, LessOrEqual, q.Predicates[1].Operator)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), q.Predicates[2].Value)
}

func TestCompile_SortForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want SortSpec
	}{
		{name: "default", raw: "", want: SortSpec{Field: "created_at", Direction: Desc}},
		{name: "flat", raw: "sort=price&direction=asc", want: SortSpec{Field: "price", Direction: Asc}},
		{name: "nested", raw: "sort[field]=rooms&sort[direction]=ASC", want: SortSpec{Field: "rooms", Direction: Asc}},
		{name: "dash prefix", raw: "sort=-price", want: SortSpec{Field: "price", Direction: Desc}},
		{name: "plus prefix", raw: "sort=%2Bprice", want: SortSpec{Field: "price", Direction: Asc}},
		{name: "unknown field falls back", raw: "sort=password&direction=asc", want: SortSpec{Field: "created_at", Direction: Asc}},
		{name: "invalid direction up", raw: "sort=price&direction=up", want: SortSpec{Field: "price", Direction: Desc}},
		{name: "invalid direction empty", raw: "sort=price&direction=", want: SortSpec{Field: "price", Direction: Desc}},
		{name: "invalid direction DESCENDING", raw: "sort=price&direction=DESCENDING", want: SortSpec{Field: "price", Direction: Desc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, tt.raw).Sort)
		})
	}
}

func TestCompile_SortOptions(t *testing.T) {
	q := compile(t, "sort=rooms", WithSortable([]string{"created_at", "price"}))
	assert.Equal(t, "created_at", q.Sort.Field)

	q = compile(t, "direction=sideways", WithDefaultDirection(Asc))
	assert.Equal(t, Asc, q.Sort.Direction)

	_, err := CompileSpec(testSpec(), FromValues(url.Values{"sort": {"password"}}), StrictSort())
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownSortField))
}

func TestRequestOptions_SortStrict(t *testing.T) {
	strict := FromValues(url.Values{"sort": {"password"}, "sort_strict": {"true"}})
	_, err := CompileSpec(testSpec(), strict, RequestOptions(strict)...)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnknownSortField, appErr.Code)
	assert.Equal(t, "password", appErr.Details["field"])

	for _, raw := range []string{"sort=password", "sort=password&sort_strict=0", "sort=password&sort_strict=maybe"} {
		q, err := url.ParseQuery(raw)
		require.NoError(t, err)
		params := FromValues(q)
		out, err := CompileSpec(testSpec(), params, RequestOptions(params, WithDefaultDirection(Asc))...)
		require.NoError(t, err, raw)
		assert.Equal(t, testSpec().DefaultSort, out.Sort.Field, raw)
		assert.Equal(t, Asc, out.Sort.Direction, raw)
	}
}

func TestCompile_Pagination(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Page
	}{
		{name: "default", raw: "", want: Page{Limit: 15, Offset: 0}},
		{name: "page and per_page", raw: "page=3&per_page=20", want: Page{Limit: 20, Offset: 40}},
		{name: "per_page clamped", raw: "per_page=1000", want: Page{Limit: 100, Offset: 0}},
		{name: "garbage page", raw: "page=abc", want: Page{Limit: 15, Offset: 0}},
		{name: "limit and offset", raw: "limit=5&offset=12", want: Page{Limit: 5, Offset: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, tt.raw).Page)
		})
	}
}

func TestCompile_PaginationBounds(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		param string
	}{
		{name: "page overflows int", raw: "page=92233720368547759&per_page=100", param: ParamPage},
		{name: "page past max offset", raw: "page=21474838&per_page=100", param: ParamPage},
		{name: "offset past max", raw: "limit=10&offset=2147483648", param: ParamOffset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)

			_, err = CompileSpec(testSpec(), FromValues(q))
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeInvalidFilterValue, appErr.Code)
			assert.Equal(t, tt.param, appErr.Details["param"])
		})
	}

	last := compile(t, "page=21474836&per_page=100").Page
	assert.Equal(t, Page{Limit: 100, Offset: 2147483500}, last)
	assert.False(t, Page{Limit: last.Offset + last.Limit}.Unbounded())
}

func TestCompiler_UnknownEntityKind(t *testing.T) {
	c := NewCompiler(MustRegistry(testSpec()))

	_, err := c.Compile(KindHouse, Params{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownEntityKind))

	q, err := c.Compile(KindApartment, Params{})
	require.NoError(t, err)
	assert.Equal(t, KindApartment, q.Kind)
}

func TestParseDirection(t *testing.T) {
	for _, raw := range []string{"up", "", "DESCENDING", "random"} {
		assert.Equal(t, Desc, ParseDirection(raw, ""), raw)
	}
	assert.Equal(t, Asc, ParseDirection(" AsC ", Desc))
	assert.Equal(t, Desc, ParseDirection("desc", Asc))
	assert.Equal(t, Asc, ParseDirection("nope", Asc))
}
