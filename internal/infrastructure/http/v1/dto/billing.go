package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"resido/internal/core/apperror"
	"resido/internal/core/id"
	"resido/internal/domain/billing"
)

// CreateBillRequest issues a bill.
type CreateBillRequest struct {
	ResidentID   string          `json:"residentId" binding:"required,uuid"`
	PropertyKind string          `json:"propertyKind" binding:"required,oneof=apartment house"`
	PropertyID   string          `json:"propertyId" binding:"required,uuid"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency" binding:"required,len=3"`
	DueDate      string          `json:"dueDate" binding:"required"` // YYYY-MM-DD
}

// ToBill builds a new unpaid bill.
func (r *CreateBillRequest) ToBill() (*billing.Bill, error) {
	residentID, err := id.Parse(r.ResidentID)
	if err != nil {
		return nil, apperror.NewValidation("invalid resident id").WithDetail("field", "residentId")
	}
	propertyID, err := id.Parse(r.PropertyID)
	if err != nil {
		return nil, apperror.NewValidation("invalid property id").WithDetail("field", "propertyId")
	}
	due, err := time.Parse(time.DateOnly, r.DueDate)
	if err != nil {
		return nil, apperror.NewValidation("due date must be YYYY-MM-DD").
			WithDetail("field", "dueDate").
			WithDetail("value", r.DueDate)
	}

	b := billing.NewBill()
	b.ResidentID = residentID
	b.PropertyKind = billing.PropertyKind(r.PropertyKind)
	b.PropertyID = propertyID
	b.Description = r.Description
	b.Amount = r.Amount
	b.Currency = r.Currency
	b.DueDate = due
	return b, nil
}

// PaymentRequest records a payment against a bill.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt *time.Time      `json:"paidAt"`
}

// ToInput converts to the service input.
func (r *PaymentRequest) ToInput() billing.PaymentInput {
	in := billing.PaymentInput{
		Amount: r.Amount,
		Method: billing.Method(r.Method),
	}
	if r.PaidAt != nil {
		in.PaidAt = *r.PaidAt
	}
	return in
}

// PaymentResponse returns the payment and the bill it settled.
type PaymentResponse struct {
	Payment *billing.Payment `json:"payment"`
	Bill    *billing.Bill    `json:"bill"`
}
