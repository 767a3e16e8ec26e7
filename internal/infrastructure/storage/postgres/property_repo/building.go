package property_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/domain/property"
	"resido/internal/infrastructure/storage/postgres"
)

// BuildingRepo implements property.BuildingRepository.
type BuildingRepo struct {
	buildings *baseRepo[*property.Building]
	floors    *baseRepo[*property.Floor]
}

var _ property.BuildingRepository = (*BuildingRepo)(nil)

// NewBuildingRepo creates the building repository.
func NewBuildingRepo(txm *postgres.TxManager) *BuildingRepo {
	return &BuildingRepo{
		buildings: newBaseRepo(txm, TableBuildings, postgres.Columns[property.Building](),
			func() *property.Building { return &property.Building{} }),
		floors: newBaseRepo(txm, TableFloors, postgres.Columns[property.Floor](),
			func() *property.Floor { return &property.Floor{} }),
	}
}

// CreateBuilding inserts a building.
func (r *BuildingRepo) CreateBuilding(ctx context.Context, b *property.Building) error {
	return r.buildings.Create(ctx, b)
}

// CreateFloor inserts a floor; the building must exist.
func (r *BuildingRepo) CreateFloor(ctx context.Context, f *property.Floor) error {
	return r.floors.Create(ctx, f)
}

// GetFloor loads one floor.
func (r *BuildingRepo) GetFloor(ctx context.Context, floorID id.ID) (*property.Floor, error) {
	f, err := r.floors.GetByID(ctx, floorID)
	if err != nil && apperror.IsNotFound(err) {
		return nil, apperror.NewNotFound("floor", floorID.String())
	}
	return f, err
}

// ListWithFloors returns every building ordered by identifier, floors ordered by number.
func (r *BuildingRepo) ListWithFloors(ctx context.Context) ([]*property.Building, error) {
	q := r.buildings.querier(ctx)

	sql, args, err := postgres.Builder().
		Select(r.buildings.cols...).
		From(TableBuildings).
		OrderBy("identifier").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var buildings []*property.Building
	if err := pgxscan.Select(ctx, q, &buildings, sql, args...); err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	if len(buildings) == 0 {
		return buildings, nil
	}

	ids := make([]id.ID, len(buildings))
	for i, b := range buildings {
		ids[i] = b.ID
	}
	sql, args, err = postgres.Builder().
		Select(r.floors.cols...).
		From(TableFloors).
		Where(squirrel.Eq{"building_id": ids}).
		OrderBy("building_id", "number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var floors []property.Floor
	if err := pgxscan.Select(ctx, q, &floors, sql, args...); err != nil {
		return nil, fmt.Errorf("list floors: %w", err)
	}

	byBuilding := make(map[id.ID][]property.Floor, len(buildings))
	for _, f := range floors {
		byBuilding[f.BuildingID] = append(byBuilding[f.BuildingID], f)
	}
	for _, b := range buildings {
		b.Floors = byBuilding[b.ID]
	}
	return buildings, nil
}
