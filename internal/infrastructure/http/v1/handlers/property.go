package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"resido/internal/core/entity"
	"resido/internal/core/id"
	"resido/internal/domain"
	"resido/internal/domain/filter"
	"resido/internal/domain/property"
	"resido/internal/infrastructure/http/v1/dto"
)

// PropertyService is what PropertyHandler needs from property.Service.
type PropertyService interface {
	FilterApartments(ctx context.Context, params filter.Params) (domain.ListResult[*property.Apartment], error)
	FilterHouses(ctx context.Context, params filter.Params) (domain.ListResult[*property.House], error)
	ListProperties(ctx context.Context, params filter.Params) (domain.ListResult[property.Property], error)

	CreateApartment(ctx context.Context, a *property.Apartment) error
	GetApartment(ctx context.Context, apartmentID id.ID) (*property.Apartment, error)
	UpdateApartment(ctx context.Context, a *property.Apartment) error
	DeleteApartment(ctx context.Context, apartmentID id.ID) error

	CreateHouse(ctx context.Context, h *property.House) error
	GetHouse(ctx context.Context, houseID id.ID) (*property.House, error)
	UpdateHouse(ctx context.Context, h *property.House) error
	DeleteHouse(ctx context.Context, houseID id.ID) error

	Buildings(ctx context.Context) ([]*property.Building, error)
}

// PropertyHandler serves apartments, houses, combined listings and buildings.
type PropertyHandler struct {
	*BaseHandler
	service PropertyService
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(base *BaseHandler, service PropertyService) *PropertyHandler {
	return &PropertyHandler{BaseHandler: base, service: service}
}

func identity[T any](v T) T { return v }

// ListApartments handles GET /apartments and POST /apartments/search
func (h *PropertyHandler) ListApartments(c *gin.Context) {
	params, ok := h.FilterParams(c)
	if !ok {
		return
	}
	res, err := h.service.FilterApartments(c.Request.Context(), params)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, identity[*property.Apartment]))
}

// ListHouses handles GET /houses and POST /houses/search
func (h *PropertyHandler) ListHouses(c *gin.Context) {
	params, ok := h.FilterParams(c)
	if !ok {
		return
	}
	res, err := h.service.FilterHouses(c.Request.Context(), params)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, identity[*property.House]))
}

// ListProperties handles GET /properties and POST /properties/search
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	params, ok := h.FilterParams(c)
	if !ok {
		return
	}
	res, err := h.service.ListProperties(c.Request.Context(), params)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProperties(res))
}

// --- Apartments ---

// CreateApartment handles POST /apartments
func (h *PropertyHandler) CreateApartment(c *gin.Context) {
	var req dto.ApartmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a := &property.Apartment{Listing: property.Listing{Base: entity.NewBase()}}
	if err := req.Apply(a); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateApartment(c.Request.Context(), a); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, a)
}

// GetApartment handles GET /apartments/:id
func (h *PropertyHandler) GetApartment(c *gin.Context) {
	apartmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	a, err := h.service.GetApartment(c.Request.Context(), apartmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}

// UpdateApartment handles PUT /apartments/:id
func (h *PropertyHandler) UpdateApartment(c *gin.Context) {
	apartmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ApartmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	a, err := h.service.GetApartment(ctx, apartmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.Apply(a); err != nil {
		h.Error(c, err)
		return
	}
	a.Touch()
	if err := h.service.UpdateApartment(ctx, a); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}

// DeleteApartment handles DELETE /apartments/:id
func (h *PropertyHandler) DeleteApartment(c *gin.Context) {
	apartmentID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteApartment(c.Request.Context(), apartmentID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// --- Houses ---

// CreateHouse handles POST /houses
func (h *PropertyHandler) CreateHouse(c *gin.Context) {
	var req dto.HouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	house := &property.House{Listing: property.Listing{Base: entity.NewBase()}}
	req.Apply(house)
	if err := h.service.CreateHouse(c.Request.Context(), house); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, house)
}

// GetHouse handles GET /houses/:id
func (h *PropertyHandler) GetHouse(c *gin.Context) {
	houseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	house, err := h.service.GetHouse(c.Request.Context(), houseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, house)
}

// UpdateHouse handles PUT /houses/:id
func (h *PropertyHandler) UpdateHouse(c *gin.Context) {
	houseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.HouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	house, err := h.service.GetHouse(ctx, houseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.Apply(house)
	house.Touch()
	if err := h.service.UpdateHouse(ctx, house); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, house)
}

// DeleteHouse handles DELETE /houses/:id
func (h *PropertyHandler) DeleteHouse(c *gin.Context) {
	houseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteHouse(c.Request.Context(), houseID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Buildings handles GET /buildings
func (h *PropertyHandler) Buildings(c *gin.Context) {
	buildings, err := h.service.Buildings(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": buildings})
}
