package property_repo

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/core/id"
	"resido/internal/domain/filter"
	"resido/internal/domain/property"
)

var testCols = []string{"id", "identifier", "description", "price", "status", "features", "floor_id", "created_at"}

func testRepo() *baseRepo[*property.Apartment] {
	return newBaseRepo(nil, TableApartments, testCols, func() *property.Apartment { return &property.Apartment{} })
}

const selectCols = "SELECT apartments.id, apartments.identifier, apartments.description, apartments.price, " +
	"apartments.status, apartments.features, apartments.floor_id, apartments.created_at FROM apartments"

func compileApartments(t *testing.T, raw string) filter.Query {
	t.Helper()
	registry, err := property.NewRegistry()
	require.NoError(t, err)
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := filter.NewCompiler(registry).Compile(filter.KindApartment, filter.FromValues(values))
	require.NoError(t, err)
	return q
}

func TestFindSQL(t *testing.T) {
	buildingID := id.New()

	tests := []struct {
		name     string
		params   string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:   "relation filter is a semi-join",
			params: "building_id=" + buildingID.String() + "&sort=price&direction=asc&per_page=10&page=2",
			wantSQL: selectCols + " WHERE EXISTS (SELECT 1 FROM floors AS r1 WHERE r1.id = apartments.floor_id" +
				" AND r1.building_id = $1) ORDER BY apartments.price ASC, apartments.id ASC LIMIT 10 OFFSET 10",
			wantArgs: []any{buildingID.String()},
		},
		{
			name:   "search spans own columns and the building",
			params: "search=Tower",
			wantSQL: selectCols + " WHERE (apartments.identifier ILIKE $1 OR apartments.description ILIKE $2" +
				" OR EXISTS (SELECT 1 FROM floors AS r1 JOIN buildings AS r2 ON r2.id = r1.building_id" +
				" WHERE r1.id = apartments.floor_id AND r2.identifier ILIKE $3))" +
				" ORDER BY apartments.created_at DESC, apartments.id ASC LIMIT 15",
			wantArgs: []any{"%Tower%", "%Tower%", "%Tower%"},
		},
		{
			name:   "json containment is conjunctive",
			params: "features=pool,garage",
			wantSQL: selectCols + " WHERE apartments.features @> $1::jsonb AND apartments.features @> $2::jsonb" +
				" ORDER BY apartments.created_at DESC, apartments.id ASC LIMIT 15",
			wantArgs: []any{`["pool"]`, `["garage"]`},
		},
		{
			name:   "multi value becomes IN",
			params: "status=available,reserved",
			wantSQL: selectCols + " WHERE apartments.status IN ($1,$2)" +
				" ORDER BY apartments.created_at DESC, apartments.id ASC LIMIT 15",
			wantArgs: []any{"available", "reserved"},
		},
		{
			name:   "residents relation",
			params: "resident_email=jane@example.com",
			wantSQL: selectCols + " WHERE EXISTS (SELECT 1 FROM residents AS r1 WHERE r1.apartment_id = apartments.id" +
				" AND r1.email = $1) ORDER BY apartments.created_at DESC, apartments.id ASC LIMIT 15",
			wantArgs: []any{"jane@example.com"},
		},
		{
			name:   "search metacharacters are escaped",
			params: "search=" + url.QueryEscape("50%_off"),
			wantSQL: selectCols + " WHERE (apartments.identifier ILIKE $1 OR apartments.description ILIKE $2" +
				" OR EXISTS (SELECT 1 FROM floors AS r1 JOIN buildings AS r2 ON r2.id = r1.building_id" +
				" WHERE r1.id = apartments.floor_id AND r2.identifier ILIKE $3))" +
				" ORDER BY apartments.created_at DESC, apartments.id ASC LIMIT 15",
			wantArgs: []any{`%50\%\_off%`, `%50\%\_off%`, `%50\%\_off%`},
		},
	}

	repo := testRepo()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.findSQL(compileApartments(t, tt.params))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFindSQL_DateRange(t *testing.T) {
	sql, args, err := testRepo().findSQL(compileApartments(t, "created_from=2026-01-01&created_to=2026-01-31"))
	require.NoError(t, err)

	assert.Equal(t, selectCols+" WHERE (apartments.created_at AT TIME ZONE 'UTC')::date >= $1::date"+
		" AND (apartments.created_at AT TIME ZONE 'UTC')::date <= $2::date"+
		" ORDER BY apartments.created_at DESC, apartments.id ASC LIMIT 15", sql)
	require.Len(t, args, 2)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), args[1])
}

func TestCountSQL_IgnoresSortAndPage(t *testing.T) {
	sql, args, err := testRepo().countSQL(compileApartments(t, "min_price=100&sort=price&per_page=5&page=3"))
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM ("+selectCols+" WHERE apartments.price >= $1) AS sub", sql)
	require.Len(t, args, 1)
}

func TestFindSQL_RejectsUnknownColumns(t *testing.T) {
	repo := newBaseRepo(nil, TableApartments, []string{"id", "price"}, func() *property.Apartment { return nil })

	_, _, err := repo.findSQL(filter.Query{Sort: filter.SortSpec{Field: "created_at", Direction: filter.Desc}})
	assert.Error(t, err)

	_, _, err = repo.findSQL(filter.Query{
		Predicates: []filter.Predicate{{Field: "price; DROP TABLE apartments", Operator: filter.Equal, Value: 1}},
		Sort:       filter.SortSpec{Field: "price", Direction: filter.Asc},
	})
	assert.Error(t, err)
}

func TestRelationsCoverSpecPaths(t *testing.T) {
	for _, spec := range []filter.FieldSpec{property.ApartmentSpec(), property.HouseSpec()} {
		table := TableApartments
		if spec.Kind == filter.KindHouse {
			table = TableHouses
		}
		for _, f := range spec.Fields() {
			if f.Relation == "" {
				continue
			}
			parent := table
			for _, hop := range (filter.Predicate{Relation: f.Relation}).RelationPath() {
				rel, ok := Relations[parent][hop]
				require.True(t, ok, "%s: relation %q missing on %s", spec.Kind, hop, parent)
				parent = rel.Table
			}
		}
	}
}
