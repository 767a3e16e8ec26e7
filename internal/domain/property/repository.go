package property

import (
	"context"

	"resido/internal/core/id"
	"resido/internal/domain"
	"resido/internal/domain/filter"
)

// Finder executes compiled filter plans, eager-loading the kind's relations.
type Finder[T any] interface {
	// Find returns the rows of q in q.Sort order within q.Page.
	Find(ctx context.Context, q filter.Query) ([]T, error)
	// Count ignores q.Sort and q.Page.
	Count(ctx context.Context, q filter.Query) (int64, error)
}

// ApartmentRepository persists apartments.
type ApartmentRepository interface {
	domain.CRUDRepository[*Apartment]
	Finder[*Apartment]
}

// HouseRepository persists houses.
type HouseRepository interface {
	domain.CRUDRepository[*House]
	Finder[*House]
}

// BuildingRepository persists buildings and their floors.
type BuildingRepository interface {
	CreateBuilding(ctx context.Context, b *Building) error
	CreateFloor(ctx context.Context, f *Floor) error
	// ListWithFloors returns every building with floors ordered by number.
	ListWithFloors(ctx context.Context) ([]*Building, error)
	GetFloor(ctx context.Context, floorID id.ID) (*Floor, error)
}

// ResidentRepository persists residents.
type ResidentRepository interface {
	Create(ctx context.Context, r *Resident, passwordHash string) error
	GetByID(ctx context.Context, residentID id.ID) (*Resident, error)
}
