package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"resido/internal/core/id"
	"resido/internal/domain"
	"resido/internal/domain/billing"
	"resido/internal/domain/filter"
	"resido/internal/infrastructure/http/v1/dto"
)

// BillingService is what BillingHandler needs from billing.Service.
type BillingService interface {
	ListBills(ctx context.Context, params filter.Params) (domain.ListResult[*billing.Bill], error)
	CreateBill(ctx context.Context, b *billing.Bill) error
	GetBill(ctx context.Context, billID id.ID) (*billing.Bill, error)
	Pay(ctx context.Context, billID id.ID, in billing.PaymentInput) (*billing.Payment, *billing.Bill, error)
	Payments(ctx context.Context, billID id.ID) ([]*billing.Payment, error)
}

// BillingHandler serves bills and payments.
type BillingHandler struct {
	*BaseHandler
	service BillingService
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(base *BaseHandler, service BillingService) *BillingHandler {
	return &BillingHandler{BaseHandler: base, service: service}
}

// List handles GET /bills and POST /bills/search
func (h *BillingHandler) List(c *gin.Context) {
	params, ok := h.FilterParams(c)
	if !ok {
		return
	}
	res, err := h.service.ListBills(c.Request.Context(), params)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res, identity[*billing.Bill]))
}

// Create handles POST /bills
func (h *BillingHandler) Create(c *gin.Context) {
	var req dto.CreateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := req.ToBill()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateBill(c.Request.Context(), b); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// Get handles GET /bills/:id
func (h *BillingHandler) Get(c *gin.Context) {
	billID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.GetBill(c.Request.Context(), billID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Pay handles POST /bills/:id/payments
func (h *BillingHandler) Pay(c *gin.Context) {
	billID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	payment, bill, err := h.service.Pay(c.Request.Context(), billID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.PaymentResponse{Payment: payment, Bill: bill})
}

// Payments handles GET /bills/:id/payments
func (h *BillingHandler) Payments(c *gin.Context) {
	billID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	payments, err := h.service.Payments(c.Request.Context(), billID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": payments})
}
