package property_repo

import (
	"context"
	"fmt"

	"resido/internal/core/id"
	"resido/internal/domain/property"
	"resido/internal/infrastructure/storage/postgres"
)

// ResidentRepo implements property.ResidentRepository.
type ResidentRepo struct {
	*baseRepo[*property.Resident]
}

var _ property.ResidentRepository = (*ResidentRepo)(nil)

// NewResidentRepo creates the resident repository.
func NewResidentRepo(txm *postgres.TxManager) *ResidentRepo {
	return &ResidentRepo{
		baseRepo: newBaseRepo(txm, TableResidents, postgres.Columns[property.Resident](),
			func() *property.Resident { return &property.Resident{} }),
	}
}

// Create inserts a resident with the login password hash.
func (r *ResidentRepo) Create(ctx context.Context, res *property.Resident, passwordHash string) error {
	data := postgres.StructToMap(res)
	data["password_hash"] = passwordHash

	sql, args, err := postgres.Builder().Insert(TableResidents).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.mapWriteErr(err, "insert")
	}
	return nil
}

// GetByID loads one resident.
func (r *ResidentRepo) GetByID(ctx context.Context, residentID id.ID) (*property.Resident, error) {
	return r.baseRepo.GetByID(ctx, residentID)
}
