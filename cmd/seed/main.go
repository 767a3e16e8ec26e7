// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"resido/internal/config"
	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/entity"
	"resido/internal/core/id"
	corenum "resido/internal/core/numerator"
	"resido/internal/domain/auth"
	"resido/internal/domain/billing"
	"resido/internal/domain/filter"
	"resido/internal/domain/property"
	"resido/internal/infrastructure/storage/postgres"
	"resido/internal/infrastructure/storage/postgres/auth_repo"
	"resido/internal/infrastructure/storage/postgres/billing_repo"
	"resido/internal/infrastructure/storage/postgres/property_repo"
	"resido/pkg/logger"
	"resido/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger("resido-seed"))
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Pool("resido-seed"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	authService := auth.NewService(
		auth_repo.NewAccountRepo(txm),
		auth_repo.NewTokenRepo(txm),
		txm,
		auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret)),
		auth.DefaultServiceConfig(),
	)

	if err := seedAdmin(ctx, authService, log); err != nil {
		log.Fatalw("failed to seed administrator", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		s := &seeder{
			txm:       txm,
			buildings: property_repo.NewBuildingRepo(txm),
			residents: property_repo.NewResidentRepo(txm),
			numbers: numerator.NewWithSource(func(ctx context.Context) numerator.Querier {
				return txm.GetQuerier(ctx)
			}),
			log: log,
		}
		s.properties = property.NewService(
			property_repo.NewApartmentRepo(txm),
			property_repo.NewHouseRepo(txm),
			s.buildings,
			filter.NewCompiler(filter.MustRegistry(property.ApartmentSpec(), property.HouseSpec())),
			txm,
		)
		if err := s.run(ctx); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func seedAdmin(ctx context.Context, svc *auth.Service, log *logger.Logger) error {
	email := envOr("ADMIN_EMAIL", "admin@resido.local")
	password := envOr("ADMIN_PASSWORD", "Admin123!")

	account, err := svc.CreateAccount(ctx, appctx.ClassAdmin, email, password, "Site", "Administrator")
	if err != nil {
		if apperror.HasCode(err, apperror.CodeDuplicate) {
			log.Infow("administrator already exists", "email", email)
			return nil
		}
		return err
	}
	log.Infow("administrator created", "email", email, "id", account.ID)
	return nil
}

type seeder struct {
	txm        *postgres.TxManager
	buildings  *property_repo.BuildingRepo
	residents  *property_repo.ResidentRepo
	properties *property.Service
	numbers    *numerator.Service
	log        *logger.Logger
}

// run seeds one building with three floors, six apartments, three houses,
// a resident per occupied home and one open bill each. It is skipped when
// any building exists.
func (s *seeder) run(ctx context.Context) error {
	existing, err := s.buildings.ListWithFloors(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		s.log.Infow("demo data already present", "buildings", len(existing))
		return nil
	}

	password, err := auth.HashPassword(envOr("RESIDENT_PASSWORD", "Resident123!"))
	if err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		building := &property.Building{Base: entity.NewBase(), Identifier: "B-1", Address: "1 Harbour Road"}
		if err := s.buildings.CreateBuilding(ctx, building); err != nil {
			return err
		}

		var bills []*billing.Bill
		for floorNo := 1; floorNo <= 3; floorNo++ {
			floor := &property.Floor{Base: entity.NewBase(), BuildingID: building.ID, Number: floorNo}
			if err := s.buildings.CreateFloor(ctx, floor); err != nil {
				return err
			}

			for unit := 1; unit <= 2; unit++ {
				a := &property.Apartment{
					Listing: demoListing(fmt.Sprintf("B-1-%d0%d", floorNo, unit), 900+floorNo*150+unit*50, 2+unit%2),
					FloorID: floor.ID,
				}
				if unit == 1 {
					a.Status = property.StatusOccupied
				}
				if err := s.properties.CreateApartment(ctx, a); err != nil {
					return err
				}
				if unit != 1 {
					continue
				}

				res := demoResident(fmt.Sprintf("resident%d@resido.local", floorNo))
				res.ApartmentID = &a.ID
				if err := s.residents.Create(ctx, res, password); err != nil {
					return err
				}
				bills = append(bills, demoBill(res.ID, billing.PropertyApartment, a.ID, a.Price, floorNo))
			}
		}

		styles := []string{"bungalow", "cottage", "villa"}
		for i, style := range styles {
			h := &property.House{
				Listing:       demoListing(fmt.Sprintf("H-%d", i+1), 2500+i*1000, 4+i),
				Address:       fmt.Sprintf("%d Orchard Lane", 10+i),
				PropertyStyle: style,
				LotSize:       decimal.NewFromInt(int64(400 + i*250)),
				Stories:       1 + i%2,
			}
			if i == 0 {
				h.Status = property.StatusOccupied
			}
			if err := s.properties.CreateHouse(ctx, h); err != nil {
				return err
			}
			if i != 0 {
				continue
			}
			res := demoResident("house1@resido.local")
			res.HouseID = &h.ID
			if err := s.residents.Create(ctx, res, password); err != nil {
				return err
			}
			bills = append(bills, demoBill(res.ID, billing.PropertyHouse, h.ID, h.Price, 1))
		}

		if err := s.insertBills(ctx, bills); err != nil {
			return err
		}
		s.log.Infow("demo data seeded", "building", building.Identifier, "bills", len(bills))
		return nil
	})
}

// insertBills numbers the bills and sends the inserts as one batch.
func (s *seeder) insertBills(ctx context.Context, bills []*billing.Bill) error {
	numbering := corenum.DefaultConfig(billing.NumberPrefix)
	stmts := make([]postgres.Statement, 0, len(bills))
	for _, b := range bills {
		number, err := s.numbers.GetNextNumber(ctx, numbering, nil, b.CreatedAt)
		if err != nil {
			return err
		}
		b.Number = number

		sql, args, err := postgres.Builder().
			Insert(billing_repo.TableBills).
			SetMap(postgres.StructToMap(b)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		stmts = append(stmts, postgres.Statement{SQL: sql, Args: args})
	}
	return s.txm.ExecBatch(ctx, stmts)
}

func demoListing(identifier string, price, rooms int) property.Listing {
	return property.Listing{
		Base:        entity.NewBase(),
		Identifier:  identifier,
		Description: "Demo listing " + identifier,
		Price:       decimal.NewFromInt(int64(price)),
		Currency:    "EUR",
		Area:        decimal.NewFromInt(int64(35 + rooms*18)),
		Rooms:       rooms,
		Bathrooms:   1 + rooms/3,
		Status:      property.StatusAvailable,
		Features:    demoFeatures(rooms),
	}
}

func demoFeatures(rooms int) []string {
	features := []string{"heating"}
	if rooms >= 3 {
		features = append(features, "balcony")
	}
	if rooms >= 4 {
		features = append(features, "garden", "parking")
	}
	return features
}

func demoResident(email string) *property.Resident {
	return &property.Resident{
		Base:      entity.NewBase(),
		FirstName: "Demo",
		LastName:  "Resident",
		Email:     email,
	}
}

func demoBill(residentID id.ID, kind billing.PropertyKind, propertyID id.ID, rent decimal.Decimal, dueInDays int) *billing.Bill {
	b := billing.NewBill()
	b.ResidentID = residentID
	b.PropertyKind = kind
	b.PropertyID = propertyID
	b.Description = "Monthly rent"
	b.Amount = rent
	b.Currency = "EUR"
	b.DueDate = time.Now().UTC().AddDate(0, 0, dueInDays).Truncate(24 * time.Hour)
	return b
}
