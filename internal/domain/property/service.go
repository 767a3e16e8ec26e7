package property

import (
	"context"
	"fmt"
	"strings"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/core/tx"
	"resido/internal/domain"
	"resido/internal/domain/filter"
	"resido/pkg/logger"
)

// ParamType restricts a combined listing to some kinds: type=apartment,house.
const ParamType = "type"

// Service provides filtering and CRUD over apartments and houses.
type Service struct {
	apartments *domain.CRUDService[*Apartment]
	houses     *domain.CRUDService[*House]

	apartmentRepo ApartmentRepository
	houseRepo     HouseRepository
	buildingRepo  BuildingRepository
	compiler      *filter.Compiler
	txManager     tx.ReadOnlyManager
}

// NewRegistry registers the property kinds' field specs.
func NewRegistry(extra ...filter.FieldSpec) (*filter.Registry, error) {
	return filter.NewRegistry(append([]filter.FieldSpec{ApartmentSpec(), HouseSpec()}, extra...)...)
}

// NewService creates the property service.
func NewService(
	apartments ApartmentRepository,
	houses HouseRepository,
	buildings BuildingRepository,
	compiler *filter.Compiler,
	txm tx.ReadOnlyManager,
) *Service {
	s := &Service{
		apartments:    domain.NewCRUDService[*Apartment](apartments, txm, "apartment"),
		houses:        domain.NewCRUDService[*House](houses, txm, "house"),
		apartmentRepo: apartments,
		houseRepo:     houses,
		buildingRepo:  buildings,
		compiler:      compiler,
		txManager:     txm,
	}

	s.apartments.Hooks().On(domain.BeforeCreate, s.checkFloor)
	s.apartments.Hooks().On(domain.BeforeUpdate, s.checkFloor)
	s.apartments.Hooks().On(domain.BeforeDelete, func(_ context.Context, a *Apartment) error {
		return refuseOccupied(a.Status)
	})
	s.houses.Hooks().On(domain.BeforeDelete, func(_ context.Context, h *House) error {
		return refuseOccupied(h.Status)
	})
	return s
}

func (s *Service) checkFloor(ctx context.Context, a *Apartment) error {
	if _, err := s.buildingRepo.GetFloor(ctx, a.FloorID); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("floor does not exist").
				WithDetail("field", "floorId").
				WithDetail("value", a.FloorID.String())
		}
		return err
	}
	return nil
}

func refuseOccupied(status Status) error {
	if status == StatusOccupied {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "an occupied property cannot be deleted")
	}
	return nil
}

// --- Listings ---

// FilterApartments returns the page of apartments matching params.
func (s *Service) FilterApartments(ctx context.Context, params filter.Params) (domain.ListResult[*Apartment], error) {
	q, err := s.compiler.Compile(filter.KindApartment, params, filter.RequestOptions(params)...)
	if err != nil {
		return domain.ListResult[*Apartment]{}, err
	}
	return list[*Apartment](ctx, s.txManager, s.apartmentRepo, q)
}

// FilterHouses returns the page of houses matching params.
func (s *Service) FilterHouses(ctx context.Context, params filter.Params) (domain.ListResult[*House], error) {
	q, err := s.compiler.Compile(filter.KindHouse, params, filter.RequestOptions(params)...)
	if err != nil {
		return domain.ListResult[*House]{}, err
	}
	return list[*House](ctx, s.txManager, s.houseRepo, q)
}

func list[T any](ctx context.Context, txm tx.ReadOnlyManager, repo Finder[T], q filter.Query) (domain.ListResult[T], error) {
	logger.Debug(ctx, "property listing compiled",
		"kind", q.Kind.String(),
		"predicates", len(q.Predicates),
		"search", q.Search != nil,
		"sort", q.Sort.String(),
	)

	var (
		items []T
		total int64
	)
	err := txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if items, err = repo.Find(ctx, q); err != nil {
			return err
		}
		total, err = repo.Count(ctx, q)
		return err
	})
	if err != nil {
		return domain.ListResult[T]{}, err
	}
	return domain.NewListResult(items, total, q.Page), nil
}

// CombineAndSort merges already fetched apartments and houses under the sort named by params.
// The sort field must be sortable on both kinds, otherwise created_at is used.
func (s *Service) CombineAndSort(apartments []*Apartment, houses []*House, params filter.Params) ([]Property, error) {
	kinds := []filter.Kind{filter.KindApartment, filter.KindHouse}
	q, err := s.compileCombined(kinds, filter.KindApartment, params)
	if err != nil {
		return nil, err
	}
	return filter.Merge(map[filter.Kind][]Property{
		filter.KindApartment: asProperties(apartments),
		filter.KindHouse:     asProperties(houses),
	}, q.Sort), nil
}

// ListProperties filters every requested kind with the same params and returns one merged page.
func (s *Service) ListProperties(ctx context.Context, params filter.Params) (domain.ListResult[Property], error) {
	kinds, err := requestedKinds(params)
	if err != nil {
		return domain.ListResult[Property]{}, err
	}

	queries := make(map[filter.Kind]filter.Query, len(kinds))
	for _, k := range kinds {
		if queries[k], err = s.compileCombined(kinds, k, params); err != nil {
			return domain.ListResult[Property]{}, err
		}
	}
	page := queries[kinds[0]].Page
	sortSpec := queries[kinds[0]].Sort

	// every kind contributes its first offset+limit rows; the merged page is cut from those
	head := filter.Page{Limit: page.Offset + page.Limit}

	results := make(map[filter.Kind][]Property, len(kinds))
	var total int64
	err = s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		for _, k := range kinds {
			q := queries[k].WithPage(head)
			var (
				items []Property
				count int64
				err   error
			)
			switch k {
			case filter.KindApartment:
				items, count, err = fetch[*Apartment](ctx, s.apartmentRepo, q)
			case filter.KindHouse:
				items, count, err = fetch[*House](ctx, s.houseRepo, q)
			}
			if err != nil {
				return err
			}
			results[k] = items
			total += count
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[Property]{}, err
	}

	merged := filter.Merge(results, sortSpec)
	return domain.NewListResult(filter.Window(merged, page), total, page), nil
}

func (s *Service) compileCombined(kinds []filter.Kind, kind filter.Kind, params filter.Params) (filter.Query, error) {
	common, err := s.compiler.Registry().CommonSortable(kinds...)
	if err != nil {
		return filter.Query{}, err
	}
	return s.compiler.Compile(kind, params, filter.RequestOptions(params, filter.WithSortable(common))...)
}

func fetch[T Property](ctx context.Context, repo Finder[T], q filter.Query) ([]Property, int64, error) {
	items, err := repo.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	count, err := repo.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return asProperties(items), count, nil
}

func asProperties[T Property](items []T) []Property {
	out := make([]Property, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func requestedKinds(params filter.Params) ([]filter.Kind, error) {
	v, ok := params.Lookup(ParamType)
	if !ok {
		return []filter.Kind{filter.KindApartment, filter.KindHouse}, nil
	}

	seen := make(map[filter.Kind]bool)
	for _, raw := range v.Strings() {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			k, ok := filter.ParseKind(name)
			if !ok || (k != filter.KindApartment && k != filter.KindHouse) {
				return nil, apperror.NewInvalidFilterValue("type", ParamType, name, "apartment or house")
			}
			seen[k] = true
		}
	}

	kinds := make([]filter.Kind, 0, len(seen))
	for _, k := range []filter.Kind{filter.KindApartment, filter.KindHouse} {
		if seen[k] {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return []filter.Kind{filter.KindApartment, filter.KindHouse}, nil
	}
	return kinds, nil
}

// --- CRUD ---

// CreateApartment validates and inserts an apartment on an existing floor.
func (s *Service) CreateApartment(ctx context.Context, a *Apartment) error {
	a.applyDefaults()
	return s.apartments.Create(ctx, a)
}

// GetApartment loads an apartment.
func (s *Service) GetApartment(ctx context.Context, apartmentID id.ID) (*Apartment, error) {
	return s.apartments.GetByID(ctx, apartmentID)
}

// UpdateApartment saves an apartment.
func (s *Service) UpdateApartment(ctx context.Context, a *Apartment) error {
	return s.apartments.Update(ctx, a)
}

// DeleteApartment removes an apartment unless it is occupied.
func (s *Service) DeleteApartment(ctx context.Context, apartmentID id.ID) error {
	return s.apartments.Delete(ctx, apartmentID)
}

// CreateHouse validates and inserts a house.
func (s *Service) CreateHouse(ctx context.Context, h *House) error {
	h.applyDefaults()
	return s.houses.Create(ctx, h)
}

// GetHouse loads a house.
func (s *Service) GetHouse(ctx context.Context, houseID id.ID) (*House, error) {
	return s.houses.GetByID(ctx, houseID)
}

// UpdateHouse saves a house.
func (s *Service) UpdateHouse(ctx context.Context, h *House) error {
	return s.houses.Update(ctx, h)
}

// DeleteHouse removes a house.
func (s *Service) DeleteHouse(ctx context.Context, houseID id.ID) error {
	return s.houses.Delete(ctx, houseID)
}

// Buildings lists buildings with their floors.
func (s *Service) Buildings(ctx context.Context) ([]*Building, error) {
	b, err := s.buildingRepo.ListWithFloors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return b, nil
}
