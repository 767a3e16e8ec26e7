package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"resido/internal/core/id"
	"resido/internal/domain/notification"
)

// NotificationService is what NotificationHandler needs from notification.Service.
type NotificationService interface {
	List(ctx context.Context, unreadOnly bool) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, notificationID id.ID) error
}

// NotificationHandler serves a resident's notifications.
type NotificationHandler struct {
	*BaseHandler
	service NotificationService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(base *BaseHandler, service NotificationService) *NotificationHandler {
	return &NotificationHandler{BaseHandler: base, service: service}
}

// List handles GET /notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	unread, _ := strconv.ParseBool(c.Query("unread"))
	items, err := h.service.List(c.Request.Context(), unread)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), notificationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
