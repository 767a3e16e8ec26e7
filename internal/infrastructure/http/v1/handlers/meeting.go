package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"resido/internal/core/id"
	"resido/internal/domain/meeting"
	"resido/internal/infrastructure/http/v1/dto"
)

// MeetingService is what MeetingHandler needs from meeting.Service.
type MeetingService interface {
	Request(ctx context.Context, in meeting.RequestInput) (*meeting.Request, error)
	List(ctx context.Context, status meeting.Status) ([]*meeting.Request, error)
	Decide(ctx context.Context, requestID id.ID, status meeting.Status, note string) (*meeting.Request, error)
}

// MeetingHandler serves meeting requests.
type MeetingHandler struct {
	*BaseHandler
	service MeetingService
}

// NewMeetingHandler creates a new meeting handler.
func NewMeetingHandler(base *BaseHandler, service MeetingService) *MeetingHandler {
	return &MeetingHandler{BaseHandler: base, service: service}
}

// Create handles POST /meetings
func (h *MeetingHandler) Create(c *gin.Context) {
	var req dto.MeetingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.service.Request(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, r)
}

// List handles GET /meetings?status=pending
func (h *MeetingHandler) List(c *gin.Context) {
	requests, err := h.service.List(c.Request.Context(), meeting.Status(c.Query("status")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": requests})
}

// Decide handles POST /meetings/:id/decision
func (h *MeetingHandler) Decide(c *gin.Context) {
	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	r, err := h.service.Decide(c.Request.Context(), requestID, meeting.Status(req.Status), req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}
