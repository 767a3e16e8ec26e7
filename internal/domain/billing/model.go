// Package billing issues bills to residents and records their payments.
package billing

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"resido/internal/core/apperror"
	"resido/internal/core/entity"
	"resido/internal/core/id"
	"resido/internal/domain/filter"
)

// Status is the settlement state of a bill.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// PropertyKind names the property a bill is charged for.
type PropertyKind string

const (
	PropertyApartment PropertyKind = "apartment"
	PropertyHouse     PropertyKind = "house"
)

// Valid reports whether k is apartment or house.
func (k PropertyKind) Valid() bool {
	return k == PropertyApartment || k == PropertyHouse
}

// Bill is an amount owed by a resident for a property.
type Bill struct {
	entity.Base
	Number       string          `db:"number" json:"number"`
	ResidentID   id.ID           `db:"resident_id" json:"residentId"`
	PropertyKind PropertyKind    `db:"property_kind" json:"propertyKind"`
	PropertyID   id.ID           `db:"property_id" json:"propertyId"`
	Description  string          `db:"description" json:"description"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	PaidAmount   decimal.Decimal `db:"paid_amount" json:"paidAmount"`
	Currency     string          `db:"currency" json:"currency"`
	DueDate      time.Time       `db:"due_date" json:"dueDate"`
	Status       Status          `db:"status" json:"status"`
}

// NewBill returns an unpaid bill with a fresh id.
func NewBill() *Bill {
	return &Bill{Base: entity.NewBase(), Status: StatusUnpaid, PaidAmount: decimal.Zero}
}

// EntityKind implements filter.Record.
func (b *Bill) EntityKind() filter.Kind { return filter.KindBill }

// SortValue implements filter.Record.
func (b *Bill) SortValue(field string) (any, bool) {
	switch field {
	case "created_at":
		return b.CreatedAt, true
	case "due_date":
		return b.DueDate, true
	case "amount":
		return b.Amount, true
	case "number":
		return b.Number, true
	case "status":
		return string(b.Status), true
	}
	return nil, false
}

// Outstanding is the amount still owed.
func (b *Bill) Outstanding() decimal.Decimal {
	return b.Amount.Sub(b.PaidAmount)
}

// Validate implements entity.Validatable.
func (b *Bill) Validate(_ context.Context) error {
	if id.IsNil(b.ResidentID) {
		return apperror.NewValidation("resident is required").WithDetail("field", "residentId")
	}
	if !b.PropertyKind.Valid() {
		return apperror.NewValidation("property kind must be apartment or house").
			WithDetail("field", "propertyKind").
			WithDetail("value", string(b.PropertyKind))
	}
	if id.IsNil(b.PropertyID) {
		return apperror.NewValidation("property is required").WithDetail("field", "propertyId")
	}
	if !b.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("field", "amount")
	}
	if len(b.Currency) != 3 {
		return apperror.NewValidation("currency must be an ISO 4217 code").
			WithDetail("field", "currency").
			WithDetail("value", b.Currency)
	}
	if b.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").WithDetail("field", "dueDate")
	}
	return nil
}

func (b *Bill) normalize() {
	b.Currency = strings.ToUpper(strings.TrimSpace(b.Currency))
	b.Description = strings.TrimSpace(b.Description)
	b.DueDate = b.DueDate.UTC().Truncate(24 * time.Hour)
}

// ApplyPayment adds amount to the paid total and recomputes the status.
// A settled bill or an amount above the outstanding balance is refused.
func (b *Bill) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").WithDetail("field", "amount")
	}
	if b.Status == StatusPaid {
		return apperror.NewBusinessRule(apperror.CodeBillSettled, "the bill is already paid").
			WithDetail("number", b.Number)
	}
	if amount.GreaterThan(b.Outstanding()) {
		return apperror.NewBusinessRule(apperror.CodeOverpayment, "payment exceeds the outstanding amount").
			WithDetail("outstanding", b.Outstanding().String()).
			WithDetail("amount", amount.String())
	}

	b.PaidAmount = b.PaidAmount.Add(amount)
	switch {
	case b.PaidAmount.Equal(b.Amount):
		b.Status = StatusPaid
	case b.PaidAmount.IsPositive():
		b.Status = StatusPartial
	default:
		b.Status = StatusUnpaid
	}
	b.Touch()
	return nil
}

// Method is how a payment was made.
type Method string

const (
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodCash:
		return true
	}
	return false
}

// Payment is one settlement of a bill.
type Payment struct {
	ID        id.ID           `db:"id" json:"id"`
	BillID    id.ID           `db:"bill_id" json:"billId"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Method    Method          `db:"method" json:"method"`
	PaidAt    time.Time       `db:"paid_at" json:"paidAt"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
