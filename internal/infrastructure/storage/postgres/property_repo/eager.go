package property_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/graph-gophers/dataloader"

	"resido/internal/core/id"
	"resido/internal/domain/property"
	"resido/internal/infrastructure/storage/postgres"
)

const batchWait = 2 * time.Millisecond

// eagerLoader fetches the relations listed in a spec's EagerLoads for a page of rows.
// Each call builds fresh loaders so nothing is cached across requests.
type eagerLoader struct {
	txm       *postgres.TxManager
	relations []string
}

func newEagerLoader(txm *postgres.TxManager, relations []string) *eagerLoader {
	return &eagerLoader{txm: txm, relations: relations}
}

func (e *eagerLoader) wants(relation string) bool {
	return slices.Contains(e.relations, relation)
}

// newLoader wraps fetch in a batched loader keyed by id string.
func newLoader[T any](fetch func(ctx context.Context, ids []id.ID) (map[id.ID]T, error)) *dataloader.Loader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))
		ids := make([]id.ID, 0, len(keys))
		for _, k := range keys {
			parsed, err := id.Parse(k.String())
			if err != nil {
				return fail(results, fmt.Errorf("invalid key %q: %w", k.String(), err))
			}
			ids = append(ids, parsed)
		}

		found, err := fetch(ctx, ids)
		if err != nil {
			return fail(results, err)
		}
		for i, key := range ids {
			results[i] = &dataloader.Result{}
			if v, ok := found[key]; ok {
				results[i].Data = v
			}
		}
		return results
	}
	return dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(batchWait))
}

func fail(results []*dataloader.Result, err error) []*dataloader.Result {
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

// loadMany resolves ids through l. Missing ids are absent from the map.
func loadMany[T any](ctx context.Context, l *dataloader.Loader, ids []id.ID) (map[id.ID]T, error) {
	out := make(map[id.ID]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make(dataloader.Keys, len(ids))
	for i, v := range ids {
		keys[i] = dataloader.StringKey(v.String())
	}
	values, errs := l.LoadMany(ctx, keys)()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	for i, v := range values {
		if typed, ok := v.(T); ok {
			out[ids[i]] = typed
		}
	}
	return out, nil
}

func uniqueIDs(ids []id.ID) []id.ID {
	seen := make(map[id.ID]bool, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if id.IsNil(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Apartments attaches floors (with their building) and residents.
func (e *eagerLoader) Apartments(ctx context.Context, items []*property.Apartment) error {
	if len(items) == 0 {
		return nil
	}

	if e.wants(property.RelFloor) || e.wants(property.RelFloorBuilding) {
		floorIDs := make([]id.ID, len(items))
		for i, a := range items {
			floorIDs[i] = a.FloorID
		}
		floors, err := loadMany[*property.Floor](ctx, newLoader(e.fetchFloors), uniqueIDs(floorIDs))
		if err != nil {
			return fmt.Errorf("load floors: %w", err)
		}

		if e.wants(property.RelFloorBuilding) {
			buildingIDs := make([]id.ID, 0, len(floors))
			for _, f := range floors {
				buildingIDs = append(buildingIDs, f.BuildingID)
			}
			buildings, err := loadMany[*property.Building](ctx, newLoader(e.fetchBuildings), uniqueIDs(buildingIDs))
			if err != nil {
				return fmt.Errorf("load buildings: %w", err)
			}
			for _, f := range floors {
				f.Building = buildings[f.BuildingID]
			}
		}
		for _, a := range items {
			a.Floor = floors[a.FloorID]
		}
	}

	if e.wants(property.RelResidents) {
		ids := make([]id.ID, len(items))
		for i, a := range items {
			ids[i] = a.ID
		}
		residents, err := loadMany[[]property.Resident](ctx, newLoader(e.residentsBy("apartment_id")), ids)
		if err != nil {
			return fmt.Errorf("load residents: %w", err)
		}
		for _, a := range items {
			a.Residents = orEmpty(residents[a.ID])
		}
	}
	return nil
}

// Houses attaches residents.
func (e *eagerLoader) Houses(ctx context.Context, items []*property.House) error {
	if len(items) == 0 || !e.wants(property.RelResidents) {
		return nil
	}

	ids := make([]id.ID, len(items))
	for i, h := range items {
		ids[i] = h.ID
	}
	residents, err := loadMany[[]property.Resident](ctx, newLoader(e.residentsBy("house_id")), ids)
	if err != nil {
		return fmt.Errorf("load residents: %w", err)
	}
	for _, h := range items {
		h.Residents = orEmpty(residents[h.ID])
	}
	return nil
}

func orEmpty(r []property.Resident) []property.Resident {
	if r == nil {
		return []property.Resident{}
	}
	return r
}

func (e *eagerLoader) fetchFloors(ctx context.Context, ids []id.ID) (map[id.ID]*property.Floor, error) {
	var rows []*property.Floor
	if err := e.selectIn(ctx, &rows, TableFloors, postgres.Columns[property.Floor](), "id", ids, "number"); err != nil {
		return nil, err
	}
	out := make(map[id.ID]*property.Floor, len(rows))
	for _, f := range rows {
		out[f.ID] = f
	}
	return out, nil
}

func (e *eagerLoader) fetchBuildings(ctx context.Context, ids []id.ID) (map[id.ID]*property.Building, error) {
	var rows []*property.Building
	if err := e.selectIn(ctx, &rows, TableBuildings, postgres.Columns[property.Building](), "id", ids, "identifier"); err != nil {
		return nil, err
	}
	out := make(map[id.ID]*property.Building, len(rows))
	for _, b := range rows {
		out[b.ID] = b
	}
	return out, nil
}

func (e *eagerLoader) residentsBy(column string) func(ctx context.Context, ids []id.ID) (map[id.ID][]property.Resident, error) {
	return func(ctx context.Context, ids []id.ID) (map[id.ID][]property.Resident, error) {
		var rows []property.Resident
		if err := e.selectIn(ctx, &rows, TableResidents, postgres.Columns[property.Resident](), column, ids, "last_name, first_name"); err != nil {
			return nil, err
		}
		out := make(map[id.ID][]property.Resident, len(ids))
		for _, r := range rows {
			owner := r.HouseID
			if column == "apartment_id" {
				owner = r.ApartmentID
			}
			if owner != nil {
				out[*owner] = append(out[*owner], r)
			}
		}
		return out, nil
	}
}

func (e *eagerLoader) selectIn(ctx context.Context, dst any, table string, cols []string, column string, ids []id.ID, orderBy string) error {
	sql, args, err := postgres.Builder().
		Select(cols...).
		From(table).
		Where(squirrel.Eq{column: ids}).
		OrderBy(orderBy).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s lookup: %w", table, err)
	}
	if err := pgxscan.Select(ctx, e.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	return nil
}
