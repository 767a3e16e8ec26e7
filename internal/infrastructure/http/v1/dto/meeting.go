package dto

import (
	"time"

	"resido/internal/domain/meeting"
)

// MeetingRequest asks an administrator for a meeting.
type MeetingRequest struct {
	Subject      string    `json:"subject" binding:"required"`
	Message      string    `json:"message"`
	RequestedFor time.Time `json:"requestedFor" binding:"required"`
}

// ToInput converts to the service input.
func (r *MeetingRequest) ToInput() meeting.RequestInput {
	return meeting.RequestInput{
		Subject:      r.Subject,
		Message:      r.Message,
		RequestedFor: r.RequestedFor,
	}
}

// DecisionRequest approves or rejects a meeting request.
type DecisionRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Note   string `json:"note"`
}
