package handlers

import (
	"github.com/gin-gonic/gin"

	"resido/internal/core/apperror"
	"resido/internal/metadata"
)

type MetadataHandler struct {
	*BaseHandler
	registry *metadata.Registry
}

func NewMetadataHandler(base *BaseHandler, registry *metadata.Registry) *MetadataHandler {
	return &MetadataHandler{
		BaseHandler: base,
		registry:    registry,
	}
}

// ListFilters returns the definitions of every filterable kind.
// GET /api/v1/meta/filters
func (h *MetadataHandler) ListFilters(c *gin.Context) {
	h.OK(c, gin.H{"items": h.registry.List()})
}

// GetFilters returns the definition of one kind.
// GET /api/v1/meta/filters/:kind
func (h *MetadataHandler) GetFilters(c *gin.Context) {
	kind := c.Param("kind")
	def, ok := h.registry.Get(kind)
	if !ok {
		h.Error(c, apperror.NewNotFound("entity kind", kind))
		return
	}
	h.OK(c, def)
}
