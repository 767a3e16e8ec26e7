// Package notification schedules in-app notifications for residents.
package notification

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"resido/internal/core/id"
)

// Kind classifies a notification.
type Kind string

const (
	KindBillReminder Kind = "bill_reminder"
	KindMeeting      Kind = "meeting"
)

// Notification is a message shown to a resident once ScheduledFor has passed.
type Notification struct {
	ID           id.ID      `db:"id" json:"id"`
	ResidentID   id.ID      `db:"resident_id" json:"residentId"`
	BillID       *id.ID     `db:"bill_id" json:"billId,omitempty"`
	Kind         Kind       `db:"kind" json:"kind"`
	Title        string     `db:"title" json:"title"`
	Body         string     `db:"body" json:"body"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduledFor"`
	SentAt       *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	ReadAt       *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// IsRead reports whether the resident has read n.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// DueBill is an open bill approaching its due date with no reminder yet.
type DueBill struct {
	BillID     id.ID           `db:"id"`
	ResidentID id.ID           `db:"resident_id"`
	Number     string          `db:"number"`
	Amount     decimal.Decimal `db:"amount"`
	PaidAmount decimal.Decimal `db:"paid_amount"`
	Currency   string          `db:"currency"`
	DueDate    time.Time       `db:"due_date"`
}

// Reminder builds the reminder notification for b.
func (b DueBill) Reminder(now time.Time) *Notification {
	billID := b.BillID
	return &Notification{
		ID:           id.New(),
		ResidentID:   b.ResidentID,
		BillID:       &billID,
		Kind:         KindBillReminder,
		Title:        fmt.Sprintf("Bill %s is due on %s", b.Number, b.DueDate.Format("2006-01-02")),
		Body:         fmt.Sprintf("%s %s remain to be paid.", b.Amount.Sub(b.PaidAmount).StringFixed(2), b.Currency),
		ScheduledFor: now,
		CreatedAt:    now,
	}
}
