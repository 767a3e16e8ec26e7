package v1

import (
	"github.com/gin-gonic/gin"

	appctx "resido/internal/core/context"
	"resido/internal/infrastructure/http/v1/handlers"
	"resido/internal/infrastructure/http/v1/middleware"
	"resido/internal/metadata"
	"resido/pkg/logger"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// DB backs the readiness check
	DB handlers.Pinger

	AuthService         handlers.AuthService
	PropertyService     handlers.PropertyService
	BillingService      handlers.BillingService
	MeetingService      handlers.MeetingService
	NotificationService handlers.NotificationService

	// MetadataRegistry describes the filterable kinds
	MetadataRegistry *metadata.Registry

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	api := router.Group("/api/v1")

	// --- Auth ---
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/:class/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)

	// --- Properties ---
	propertyHandler := handlers.NewPropertyHandler(base, cfg.PropertyService)
	RegisterCRUDRoutes(protected.Group("/apartments"), CRUDRouteHandler{
		List:   propertyHandler.ListApartments,
		Create: propertyHandler.CreateApartment,
		Get:    propertyHandler.GetApartment,
		Update: propertyHandler.UpdateApartment,
		Delete: propertyHandler.DeleteApartment,
	})
	RegisterCRUDRoutes(protected.Group("/houses"), CRUDRouteHandler{
		List:   propertyHandler.ListHouses,
		Create: propertyHandler.CreateHouse,
		Get:    propertyHandler.GetHouse,
		Update: propertyHandler.UpdateHouse,
		Delete: propertyHandler.DeleteHouse,
	})
	protected.GET("/properties", propertyHandler.ListProperties)
	protected.POST("/properties/search", propertyHandler.ListProperties)
	protected.GET("/buildings", propertyHandler.Buildings)

	// --- Billing ---
	// residents see their own bills; the service enforces it
	billingHandler := handlers.NewBillingHandler(base, cfg.BillingService)
	bills := protected.Group("/bills")
	bills.Use(middleware.RequireClass(appctx.ClassAdmin, appctx.ClassResident))
	{
		bills.GET("", billingHandler.List)
		bills.POST("/search", billingHandler.List)
		bills.POST("", middleware.RequireClass(appctx.ClassAdmin), billingHandler.Create)
		bills.GET("/:id", billingHandler.Get)
		bills.GET("/:id/payments", billingHandler.Payments)
		bills.POST("/:id/payments", billingHandler.Pay)
	}

	// --- Meetings ---
	meetingHandler := handlers.NewMeetingHandler(base, cfg.MeetingService)
	meetings := protected.Group("/meetings")
	{
		meetings.POST("", middleware.RequireClass(appctx.ClassResident), meetingHandler.Create)
		meetings.GET("", middleware.RequireClass(appctx.ClassAdmin, appctx.ClassResident), meetingHandler.List)
		meetings.POST("/:id/decision", middleware.RequireClass(appctx.ClassAdmin), meetingHandler.Decide)
	}

	// --- Notifications ---
	notificationHandler := handlers.NewNotificationHandler(base, cfg.NotificationService)
	notifications := protected.Group("/notifications")
	notifications.Use(middleware.RequireClass(appctx.ClassResident))
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	// --- Metadata ---
	metaHandler := handlers.NewMetadataHandler(base, cfg.MetadataRegistry)
	meta := protected.Group("/meta")
	{
		meta.GET("/filters", metaHandler.ListFilters)
		meta.GET("/filters/:kind", metaHandler.GetFilters)
	}

	return router
}
