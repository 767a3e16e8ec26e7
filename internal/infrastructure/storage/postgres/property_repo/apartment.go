package property_repo

import (
	"context"

	"resido/internal/domain/filter"
	"resido/internal/domain/property"
	"resido/internal/infrastructure/storage/postgres"
)

// ApartmentRepo implements property.ApartmentRepository.
type ApartmentRepo struct {
	*baseRepo[*property.Apartment]
	eager *eagerLoader
}

var _ property.ApartmentRepository = (*ApartmentRepo)(nil)

// NewApartmentRepo creates the apartment repository.
func NewApartmentRepo(txm *postgres.TxManager) *ApartmentRepo {
	return &ApartmentRepo{
		baseRepo: newBaseRepo(txm, TableApartments, postgres.Columns[property.Apartment](),
			func() *property.Apartment { return &property.Apartment{} }),
		eager: newEagerLoader(txm, property.ApartmentSpec().EagerLoads),
	}
}

// Find returns the page of apartments matching q with floor, building and residents attached.
func (r *ApartmentRepo) Find(ctx context.Context, q filter.Query) ([]*property.Apartment, error) {
	items, err := r.baseRepo.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := r.eager.Apartments(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}
