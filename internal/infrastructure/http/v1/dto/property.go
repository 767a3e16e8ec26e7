package dto

import (
	"github.com/shopspring/decimal"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/domain"
	"resido/internal/domain/property"
)

// ListingRequest holds the fields apartments and houses share.
type ListingRequest struct {
	Identifier  string          `json:"identifier" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency" binding:"required,len=3"`
	Area        decimal.Decimal `json:"area"`
	Rooms       int             `json:"rooms" binding:"min=0"`
	Bathrooms   int             `json:"bathrooms" binding:"min=0"`
	Status      string          `json:"status"`
	Features    []string        `json:"features"`
}

func (r *ListingRequest) apply(l *property.Listing) {
	l.Identifier = r.Identifier
	l.Description = r.Description
	l.Price = r.Price
	l.Currency = r.Currency
	l.Area = r.Area
	l.Rooms = r.Rooms
	l.Bathrooms = r.Bathrooms
	if r.Status != "" {
		l.Status = property.Status(r.Status)
	}
	if r.Features != nil {
		l.Features = r.Features
	}
}

// ApartmentRequest creates or replaces an apartment.
type ApartmentRequest struct {
	ListingRequest
	FloorID string `json:"floorId" binding:"required,uuid"`
}

// Apply copies the request onto a, keeping its identity and timestamps.
func (r *ApartmentRequest) Apply(a *property.Apartment) error {
	floorID, err := id.Parse(r.FloorID)
	if err != nil {
		return apperror.NewValidation("invalid floor id").WithDetail("field", "floorId")
	}
	r.ListingRequest.apply(&a.Listing)
	a.FloorID = floorID
	return nil
}

// HouseRequest creates or replaces a house.
type HouseRequest struct {
	ListingRequest
	Address       string          `json:"address" binding:"required"`
	PropertyStyle string          `json:"propertyStyle"`
	LotSize       decimal.Decimal `json:"lotSize"`
	Stories       int             `json:"stories" binding:"min=1"`
}

// Apply copies the request onto h.
func (r *HouseRequest) Apply(h *property.House) {
	r.ListingRequest.apply(&h.Listing)
	h.Address = r.Address
	h.PropertyStyle = r.PropertyStyle
	h.LotSize = r.LotSize
	h.Stories = r.Stories
}

// PropertyItem is one entry of a combined listing, tagged with its kind.
type PropertyItem struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// FromProperty tags p with its kind.
func FromProperty(p property.Property) PropertyItem {
	return PropertyItem{Type: p.EntityKind().String(), Data: p}
}

// FromProperties maps a combined listing page.
func FromProperties(res domain.ListResult[property.Property]) ListResponse[PropertyItem] {
	return FromListResult(res, FromProperty)
}
