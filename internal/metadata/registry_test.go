package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resido/internal/domain/billing"
	"resido/internal/domain/filter"
	"resido/internal/domain/property"
	"resido/internal/metadata"
)

func TestFromFilters(t *testing.T) {
	reg, err := property.NewRegistry(billing.BillSpec())
	require.NoError(t, err)

	meta, err := metadata.FromFilters(reg, map[filter.Kind]any{
		filter.KindApartment: property.Apartment{},
		filter.KindBill:      billing.Bill{},
	})
	require.NoError(t, err)

	names := make([]string, 0)
	for _, def := range meta.List() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"apartment", "bill", "house"}, names)

	house, ok := meta.Get("house")
	require.True(t, ok)
	assert.Empty(t, house.Fields)
	assert.NotEmpty(t, house.Filters)
}

func TestDescribe_Bill(t *testing.T) {
	def := metadata.Describe(billing.BillSpec(), &billing.Bill{})

	assert.Equal(t, "bill", def.Name)
	assert.Equal(t, "due_date", def.DefaultSort)
	assert.Contains(t, def.Search, "number")

	byName := map[string]metadata.FilterDef{}
	for _, f := range def.Filters {
		byName[f.Field] = f
	}

	amount := byName["amount"]
	assert.Equal(t, "range", amount.Op)
	assert.Equal(t, "decimal", amount.Type)
	assert.Contains(t, amount.Params, "min_amount")
	assert.Contains(t, amount.Params, "max_amount")
	assert.Contains(t, amount.Params, "filters[amount][min]")

	due := byName["due_date"]
	assert.Contains(t, due.Params, "min_due")

	assert.True(t, byName["currency"].NoSplit)
	assert.Equal(t, "resident", byName["email"].Relation)
	assert.Contains(t, byName["email"].Params, "resident_email")

	fields := map[string]metadata.FieldDef{}
	for _, f := range def.Fields {
		fields[f.Name] = f
	}
	assert.Equal(t, metadata.TypeMoney, fields["amount"].Type)
	assert.Equal(t, metadata.TypeReference, fields["residentId"].Type)
	assert.Equal(t, "resident", fields["residentId"].ReferenceType)
	assert.True(t, fields["id"].ReadOnly)
	assert.Equal(t, metadata.TypeDate, fields["dueDate"].Type)
}
