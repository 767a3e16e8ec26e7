package property_repo

import (
	"resido/internal/domain/property"
	"resido/internal/infrastructure/storage/postgres"
)

// Table names.
const (
	TableBuildings  = "buildings"
	TableFloors     = "floors"
	TableApartments = "apartments"
	TableHouses     = "houses"
	TableResidents  = "residents"
)

// Relations resolves the relation paths used by the property field specs.
// A path such as "floor.building" is walked hop by hop from the root table.
var Relations = postgres.RelationGraph{
	TableApartments: {
		property.RelFloor:     {Table: TableFloors, LocalKey: "floor_id", ForeignKey: "id"},
		property.RelResidents: {Table: TableResidents, LocalKey: "id", ForeignKey: "apartment_id"},
	},
	TableHouses: {
		property.RelResidents: {Table: TableResidents, LocalKey: "id", ForeignKey: "house_id"},
	},
	TableFloors: {
		"building": {Table: TableBuildings, LocalKey: "building_id", ForeignKey: "id"},
	},
}
