// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "resido/internal/core/context"
	"resido/internal/infrastructure/http/v1/middleware"
)

// CRUDRouteHandler is a filterable resource with administrator-only writes.
type CRUDRouteHandler struct {
	List   gin.HandlerFunc
	Create gin.HandlerFunc
	Get    gin.HandlerFunc
	Update gin.HandlerFunc
	Delete gin.HandlerFunc
}

// RegisterCRUDRoutes registers the listing, search and CRUD routes of a resource.
// Any authenticated principal may read; only administrators may write.
//
// Usage:
//
//	RegisterCRUDRoutes(api.Group("/apartments"), CRUDRouteHandler{
//		List: h.ListApartments, Create: h.CreateApartment, ...
//	})
func RegisterCRUDRoutes(group *gin.RouterGroup, handler CRUDRouteHandler) {
	adminOnly := middleware.RequireClass(appctx.ClassAdmin)

	group.GET("", handler.List)
	group.POST("/search", handler.List)
	group.POST("", adminOnly, handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", adminOnly, handler.Update)
	group.DELETE("/:id", adminOnly, handler.Delete)
}
