package property

import "resido/internal/domain/filter"

// Relation names understood by the property repositories.
const (
	RelFloor         = "floor"
	RelFloorBuilding = "floor.building"
	RelResidents     = "residents"
)

// commonFields are filterable on every property kind.
func commonFields() []filter.Field {
	return []filter.Field{
		{Name: "price", Op: filter.OpRange, Type: filter.TypeDecimal},
		{Name: "area", Op: filter.OpRange, Type: filter.TypeDecimal},
		{Name: "rooms", Op: filter.OpRange, Type: filter.TypeInt},
		{Name: "bathrooms", Op: filter.OpRange, Type: filter.TypeInt},
		{Name: "status", Op: filter.OpMultiValue},
		{Name: "currency", Op: filter.OpMultiValue, NoSplit: true},
		{Name: "features", Op: filter.OpJSONContains},
		{Name: "email", Op: filter.OpRelation, Relation: RelResidents, Param: "resident_email"},
	}
}

var commonSortable = []string{"created_at", "updated_at", "identifier", "price", "area", "rooms", "bathrooms"}

// ApartmentSpec declares how apartments are filtered, searched and sorted.
func ApartmentSpec() filter.FieldSpec {
	return filter.FieldSpec{
		Kind:   filter.KindApartment,
		Common: commonFields(),
		Extension: []filter.Field{
			{Name: "floor_id", Op: filter.OpExact, Type: filter.TypeUUID},
			{Name: "building_id", Op: filter.OpRelation, Type: filter.TypeUUID, Relation: RelFloor, Param: "building_id"},
			{Name: "number", Op: filter.OpRelation, Type: filter.TypeInt, Relation: RelFloor, Param: "floor_number"},
			// read from building_identifier
			{Name: "identifier", Op: filter.OpRelation, Relation: RelFloorBuilding},
		},
		Search: []filter.SearchField{
			{Field: "identifier"},
			{Field: "description"},
			{Relation: RelFloorBuilding, Field: "identifier"},
		},
		Sortable:    commonSortable,
		DefaultSort: "created_at",
		EagerLoads:  []string{RelFloorBuilding, RelResidents},
	}
}

// HouseSpec declares how houses are filtered, searched and sorted.
func HouseSpec() filter.FieldSpec {
	return filter.FieldSpec{
		Kind:   filter.KindHouse,
		Common: commonFields(),
		Extension: []filter.Field{
			{Name: "lot_size", Op: filter.OpRange, Type: filter.TypeDecimal, Bounds: filter.BoundsCamel},
			{Name: "stories", Op: filter.OpRange, Type: filter.TypeInt, Bounds: filter.BoundsNone},
			{Name: "property_style", Op: filter.OpMultiValue},
		},
		Search: []filter.SearchField{
			{Field: "identifier"},
			{Field: "description"},
			{Field: "property_style"},
		},
		Sortable:    append(append([]string{}, commonSortable...), "lot_size", "stories"),
		DefaultSort: "created_at",
		EagerLoads:  []string{RelResidents},
	}
}
