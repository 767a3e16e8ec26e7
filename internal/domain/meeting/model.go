// Package meeting handles meeting requests residents send to the administration.
package meeting

import (
	"context"
	"strings"
	"time"

	"resido/internal/core/apperror"
	"resido/internal/core/entity"
	"resido/internal/core/id"
)

// Status is the decision state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a resident asking to meet an administrator.
type Request struct {
	entity.Base
	ResidentID   id.ID      `db:"resident_id" json:"residentId"`
	Subject      string     `db:"subject" json:"subject"`
	Message      string     `db:"message" json:"message"`
	RequestedFor time.Time  `db:"requested_for" json:"requestedFor"`
	Status       Status     `db:"status" json:"status"`
	DecidedBy    *id.ID     `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt    *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
	Note         string     `db:"note" json:"note,omitempty"`
}

// Validate implements entity.Validatable.
func (r *Request) Validate(_ context.Context) error {
	if id.IsNil(r.ResidentID) {
		return apperror.NewValidation("resident is required").WithDetail("field", "residentId")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return apperror.NewValidation("subject is required").WithDetail("field", "subject")
	}
	if len(r.Subject) > 200 {
		return apperror.NewValidation("subject is too long").WithDetail("field", "subject")
	}
	if r.RequestedFor.IsZero() {
		return apperror.NewValidation("requested time is required").WithDetail("field", "requestedFor")
	}
	return nil
}

// Decide moves a pending request to approved or rejected.
func (r *Request) Decide(status Status, adminID id.ID, note string, at time.Time) error {
	if status != StatusApproved && status != StatusRejected {
		return apperror.NewValidation("decision must be approved or rejected").
			WithDetail("field", "status").
			WithDetail("value", string(status))
	}
	if r.Status != StatusPending {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "the request has already been decided").
			WithDetail("status", string(r.Status))
	}
	r.Status = status
	r.DecidedBy = &adminID
	r.DecidedAt = &at
	r.Note = strings.TrimSpace(note)
	r.UpdatedAt = at
	return nil
}
