// Package main is the entry point for the resido API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"

	"resido/internal/config"
	"resido/internal/domain/auth"
	"resido/internal/domain/billing"
	"resido/internal/domain/filter"
	"resido/internal/domain/meeting"
	"resido/internal/domain/notification"
	"resido/internal/domain/property"
	v1 "resido/internal/infrastructure/http/v1"
	"resido/internal/infrastructure/http/v1/middleware"
	"resido/internal/infrastructure/storage/postgres"
	"resido/internal/infrastructure/storage/postgres/auth_repo"
	"resido/internal/infrastructure/storage/postgres/billing_repo"
	"resido/internal/infrastructure/storage/postgres/meeting_repo"
	"resido/internal/infrastructure/storage/postgres/notification_repo"
	"resido/internal/infrastructure/storage/postgres/property_repo"
	"resido/internal/metadata"
	"resido/pkg/logger"
	"resido/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger("resido-server"))
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting resido server", "env", cfg.Env)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, cfg.Pool("resido-api"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	postgres.LogPoolStats(ctx, pool)

	txm := postgres.NewTxManager(pool)

	// --- Filtering ---
	registry, err := property.NewRegistry(billing.BillSpec())
	if err != nil {
		log.Fatalw("invalid field specs", "error", err)
	}
	compiler := filter.NewCompiler(registry)

	metadataRegistry, err := metadata.FromFilters(registry, map[filter.Kind]any{
		filter.KindApartment: property.Apartment{},
		filter.KindHouse:     property.House{},
		filter.KindBill:      billing.Bill{},
	})
	if err != nil {
		log.Fatalw("failed to describe filters", "error", err)
	}

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.JWTTTL
	jwtService := auth.NewJWTService(jwtConfig)
	authService := auth.NewService(
		auth_repo.NewAccountRepo(txm),
		auth_repo.NewTokenRepo(txm),
		txm,
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Domain services ---
	propertyService := property.NewService(
		property_repo.NewApartmentRepo(txm),
		property_repo.NewHouseRepo(txm),
		property_repo.NewBuildingRepo(txm),
		compiler,
		txm,
	)

	numbers := numerator.NewWithSource(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})
	billingService := billing.NewService(
		billing_repo.NewBillRepo(txm),
		billing_repo.NewPaymentRepo(txm),
		compiler,
		numbers,
		txm,
	)

	meetingService := meeting.NewService(meeting_repo.NewRepo(txm), txm)
	notificationService := notification.NewService(notification_repo.NewRepo(txm), txm, notification.Config{
		ReminderLeadDays: cfg.ReminderLeadDays,
		Retention:        cfg.NotificationRetention,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:              log,
		JWTValidator:        jwtService,
		DB:                  pool,
		AuthService:         authService,
		PropertyService:     propertyService,
		BillingService:      billingService,
		MeetingService:      meetingService,
		NotificationService: notificationService,
		MetadataRegistry:    metadataRegistry,
		Debug:               !cfg.IsProduction(),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: true,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler.Handler(gzhttp.GzipHandler(router)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
