package billing

import "resido/internal/domain/filter"

// RelResident names the bill's resident relation.
const RelResident = "resident"

// BillSpec declares how bills are filtered, searched and sorted.
func BillSpec() filter.FieldSpec {
	return filter.FieldSpec{
		Kind: filter.KindBill,
		Common: []filter.Field{
			{Name: "amount", Op: filter.OpRange, Type: filter.TypeDecimal},
			{Name: "status", Op: filter.OpMultiValue},
			{Name: "currency", Op: filter.OpMultiValue, NoSplit: true},
			{Name: "resident_id", Op: filter.OpExact, Type: filter.TypeUUID},
			{Name: "property_kind", Op: filter.OpExact},
		},
		Extension: []filter.Field{
			{Name: "property_id", Op: filter.OpExact, Type: filter.TypeUUID},
			{Name: "due_date", Op: filter.OpRange, Type: filter.TypeDate, Param: "due"},
			{Name: "email", Op: filter.OpRelation, Relation: RelResident},
		},
		Search: []filter.SearchField{
			{Field: "number"},
			{Field: "description"},
		},
		Sortable:    []string{"created_at", "due_date", "amount", "number", "status"},
		DefaultSort: "due_date",
	}
}
