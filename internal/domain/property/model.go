// Package property holds apartments, houses and the buildings, floors and
// residents they relate to, together with their filter declarations.
package property

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"resido/internal/core/apperror"
	"resido/internal/core/entity"
	"resido/internal/core/id"
	"resido/internal/domain/filter"
)

// Status is the availability of a property.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusReserved    Status = "reserved"
	StatusMaintenance Status = "maintenance"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusMaintenance:
		return true
	}
	return false
}

// Building groups floors.
type Building struct {
	entity.Base
	Identifier string  `db:"identifier" json:"identifier"`
	Address    string  `db:"address" json:"address"`
	Floors     []Floor `db:"-" json:"floors,omitempty"`
}

// Floor is a level of a building holding apartments.
type Floor struct {
	entity.Base
	BuildingID id.ID     `db:"building_id" json:"buildingId"`
	Number     int       `db:"number" json:"number"`
	Building   *Building `db:"-" json:"building,omitempty"`
}

// Resident lives in an apartment or a house.
type Resident struct {
	entity.Base
	FirstName   string `db:"first_name" json:"firstName"`
	LastName    string `db:"last_name" json:"lastName"`
	Email       string `db:"email" json:"email"`
	Phone       string `db:"phone" json:"phone,omitempty"`
	ApartmentID *id.ID `db:"apartment_id" json:"apartmentId,omitempty"`
	HouseID     *id.ID `db:"house_id" json:"houseId,omitempty"`
}

// FullName returns "First Last".
func (r Resident) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Listing holds the attributes apartments and houses share.
type Listing struct {
	entity.Base
	Identifier  string          `db:"identifier" json:"identifier"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Currency    string          `db:"currency" json:"currency"`
	Area        decimal.Decimal `db:"area" json:"area"`
	Rooms       int             `db:"rooms" json:"rooms"`
	Bathrooms   int             `db:"bathrooms" json:"bathrooms"`
	Status      Status          `db:"status" json:"status"`
	Features    []string        `db:"features" json:"features"`
	Residents   []Resident      `db:"-" json:"residents"`
}

func (l *Listing) validate() error {
	if strings.TrimSpace(l.Identifier) == "" {
		return apperror.NewValidation("identifier is required").WithDetail("field", "identifier")
	}
	if l.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	if l.Area.IsNegative() {
		return apperror.NewValidation("area must not be negative").WithDetail("field", "area")
	}
	if l.Rooms < 0 || l.Bathrooms < 0 {
		return apperror.NewValidation("room counts must not be negative").WithDetail("field", "rooms")
	}
	if len(l.Currency) != 3 {
		return apperror.NewValidation("currency must be an ISO 4217 code").
			WithDetail("field", "currency").
			WithDetail("value", l.Currency)
	}
	if !l.Status.Valid() {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(l.Status))
	}
	return nil
}

// applyDefaults fills the values a freshly created listing starts with.
func (l *Listing) applyDefaults() {
	if l.Status == "" {
		l.Status = StatusAvailable
	}
	l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
	if l.Features == nil {
		l.Features = []string{}
	}
}

// sortValue serves the sortable columns shared by both kinds.
func (l *Listing) sortValue(field string) (any, bool) {
	switch field {
	case "created_at":
		return l.CreatedAt, true
	case "updated_at":
		return l.UpdatedAt, true
	case "identifier":
		return l.Identifier, true
	case "price":
		return l.Price, true
	case "area":
		return l.Area, true
	case "rooms":
		return l.Rooms, true
	case "bathrooms":
		return l.Bathrooms, true
	case "status":
		return string(l.Status), true
	}
	return nil, false
}

// Apartment is a unit on a building floor.
type Apartment struct {
	Listing
	FloorID id.ID  `db:"floor_id" json:"floorId"`
	Floor   *Floor `db:"-" json:"floor,omitempty"`
}

// EntityKind implements filter.Record.
func (a *Apartment) EntityKind() filter.Kind { return filter.KindApartment }

// SortValue implements filter.Record.
func (a *Apartment) SortValue(field string) (any, bool) {
	return a.sortValue(field)
}

// Validate implements entity.Validatable.
func (a *Apartment) Validate(_ context.Context) error {
	if err := a.validate(); err != nil {
		return err
	}
	if id.IsNil(a.FloorID) {
		return apperror.NewValidation("floor is required").WithDetail("field", "floorId")
	}
	return nil
}

// House is a detached property.
type House struct {
	Listing
	Address       string          `db:"address" json:"address"`
	PropertyStyle string          `db:"property_style" json:"propertyStyle"`
	LotSize       decimal.Decimal `db:"lot_size" json:"lotSize"`
	Stories       int             `db:"stories" json:"stories"`
}

// EntityKind implements filter.Record.
func (h *House) EntityKind() filter.Kind { return filter.KindHouse }

// SortValue implements filter.Record.
func (h *House) SortValue(field string) (any, bool) {
	switch field {
	case "lot_size":
		return h.LotSize, true
	case "stories":
		return h.Stories, true
	case "property_style":
		return h.PropertyStyle, true
	}
	return h.sortValue(field)
}

// Validate implements entity.Validatable.
func (h *House) Validate(_ context.Context) error {
	if err := h.validate(); err != nil {
		return err
	}
	if h.LotSize.IsNegative() {
		return apperror.NewValidation("lot size must not be negative").WithDetail("field", "lotSize")
	}
	if h.Stories < 1 {
		return apperror.NewValidation("a house has at least one story").WithDetail("field", "stories")
	}
	return nil
}

// Property is an apartment or a house in a combined listing.
type Property interface {
	filter.Record
	GetID() id.ID
}

var (
	_ Property = (*Apartment)(nil)
	_ Property = (*House)(nil)
)
