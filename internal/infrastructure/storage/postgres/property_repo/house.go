package property_repo

import (
	"context"

	"resido/internal/domain/filter"
	"resido/internal/domain/property"
	"resido/internal/infrastructure/storage/postgres"
)

// HouseRepo implements property.HouseRepository.
type HouseRepo struct {
	*baseRepo[*property.House]
	eager *eagerLoader
}

var _ property.HouseRepository = (*HouseRepo)(nil)

// NewHouseRepo creates the house repository.
func NewHouseRepo(txm *postgres.TxManager) *HouseRepo {
	return &HouseRepo{
		baseRepo: newBaseRepo(txm, TableHouses, postgres.Columns[property.House](),
			func() *property.House { return &property.House{} }),
		eager: newEagerLoader(txm, property.HouseSpec().EagerLoads),
	}
}

// Find returns the page of houses matching q with residents attached.
func (r *HouseRepo) Find(ctx context.Context, q filter.Query) ([]*property.House, error) {
	items, err := r.baseRepo.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := r.eager.Houses(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}
