package main

import (
	"context"
	"fmt"
	"log"
	"os"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"github.com/redis/go-redis/v9"

	"rentdesk/internal/bus"
	"rentdesk/internal/caching"
	"rentdesk/internal/config"
	"rentdesk/internal/handlers"
	"rentdesk/internal/jobs"
	"rentdesk/internal/middleware"
	"rentdesk/internal/models"
	"rentdesk/internal/querycache"
	"rentdesk/internal/repositories"
	"rentdesk/internal/services"
	"rentdesk/internal/session"
	"rentdesk/internal/supervisor"
	"rentdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(os.Getenv("RENTDESK_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	pool, err := database.NewPool(cfg.Server.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Redis backs the token cache, the query cache, and session persistence.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	cacheSvc := caching.NewRedisCacheService(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)

	// Application message bus.
	eventBus := bus.New()

	// Query cache with bus-driven invalidation.
	queryCache := querycache.New(redisClient, "rentdesk:queries", querycache.Options{
		StaleAfter:    cfg.Cache.StaleAfter(),
		MaxAge:        cfg.Cache.MaxAge(),
		RetryAttempts: cfg.Cache.RetryAttempts,
		RetryDelay:    cfg.Cache.RetryDelay(),
	})
	queryCache.BindBus(eventBus)

	// Session store with Redis persistence; a restart within the max age
	// picks the session back up.
	sessionStore := session.NewStore(session.NewRedisPersister(redisClient, "rentdesk:session", cfg.Session.MaxAge()))
	sessionStore.Restore(context.Background())

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	reservationRepo := repositories.NewReservationRepo(pool)
	vehicleRepo := repositories.NewVehicleRepo(pool)
	branchRepo := repositories.NewBranchRepo(pool)

	// Services
	authService := services.NewAuthService(userRepo, cacheSvc, jwtSecret,
		cfg.Auth.AccessTokenMinutes*60, cfg.Auth.RefreshTokenDays*24*3600)
	rentalService := services.NewRentalService(reservationRepo, vehicleRepo, eventBus)
	reservationService := services.NewReservationService(reservationRepo, queryCache, eventBus)
	vehicleService := services.NewVehicleService(vehicleRepo, eventBus)
	reportService := services.NewReportService(vehicleRepo, reservationRepo, queryCache)
	notificationService := services.NewNotificationService()
	notificationService.BindBus(eventBus)

	documentService, err := services.NewDocumentService(
		cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey,
		cfg.Storage.Bucket, cfg.Storage.UseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize document storage: %v", err)
	}
	if err := documentService.EnsureBucketExists(context.Background()); err != nil {
		log.Printf("WARN: could not verify agreement bucket: %v", err)
	}

	// Fault-isolation tiers. The app boundary catches anything the inner
	// tiers do not cover; each feature group trips independently.
	faultHook := func(f supervisor.Fault) {
		log.Printf("FAULT [%s]: %s", f.Scope, f.Message)
		eventBus.Publish(bus.ShowNotification{
			Severity: bus.SeverityError,
			Text:     fmt.Sprintf("A fault tripped the %s boundary", f.Scope),
		})
	}
	appBoundary := supervisor.New("application", supervisor.WithFaultHook(faultHook))
	rentalBoundary := supervisor.New("rentals", supervisor.WithFaultHook(faultHook))
	reservationBoundary := supervisor.New("reservations", supervisor.WithFaultHook(faultHook))
	reportBoundary := supervisor.New("reports", supervisor.WithFaultHook(faultHook))

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authService, sessionStore, cacheSvc)
	rentalHandlers := handlers.NewRentalHandlers(rentalService)
	reservationHandlers := handlers.NewReservationHandlers(reservationService, documentService)
	vehicleHandlers := handlers.NewVehicleHandlers(vehicleService)
	reportHandlers := handlers.NewReportHandlers(reportService)
	branchHandlers := handlers.NewBranchHandlers(branchRepo)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc,
		appBoundary, rentalBoundary, reservationBoundary, reportBoundary)
	boundaryHandlers := handlers.NewBoundaryHandlers(
		appBoundary, rentalBoundary, reservationBoundary, reportBoundary)

	// Background jobs
	scheduler, err := jobs.NewJobScheduler(queryCache, reservationRepo, reportService, eventBus, cfg.Cache.GCInterval())
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.Boundary(appBoundary))

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	v1 := e.Group("/v1")

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/revoke", authHandlers.Revoke)

	// Protected routes
	jwtMW := echojwt.WithConfig(middleware.JWTConfig(jwtSecret))
	userMW := middleware.UserContext(userRepo)
	gate := middleware.NewRoleGate()
	anyStaff := gate.RequireRole(models.RoleAgent, models.RoleManager, models.RoleAdmin)

	protected := v1.Group("", jwtMW, userMW, anyStaff)
	protected.GET("/me", authHandlers.Me)
	protected.POST("/logout", authHandlers.Logout)

	// Reservation lookup and management, behind its own boundary tier.
	reservations := v1.Group("/reservations", jwtMW, userMW, anyStaff, middleware.Boundary(reservationBoundary))
	reservations.GET("", reservationHandlers.Lookup)
	reservations.POST("", reservationHandlers.Create)
	reservations.GET("/:confirmation_no", reservationHandlers.Get)
	reservations.DELETE("/:confirmation_no", reservationHandlers.Cancel)
	reservations.POST("/:confirmation_no/agreement", reservationHandlers.UploadAgreement)
	reservations.GET("/:confirmation_no/agreement", reservationHandlers.AgreementURL)

	// Counter operations.
	rentals := v1.Group("/rentals", jwtMW, userMW, anyStaff, middleware.Boundary(rentalBoundary))
	rentals.POST("/rent", rentalHandlers.Rent)
	rentals.POST("/return", rentalHandlers.Return)
	rentals.POST("/exchange", rentalHandlers.Exchange)

	// Fleet management: agents can look, managers can touch.
	vehicles := v1.Group("/vehicles", jwtMW, userMW)
	vehicles.GET("", vehicleHandlers.List, anyStaff)
	vehicles.GET("/available", vehicleHandlers.ListAvailable, anyStaff)
	vehicles.GET("/:id", vehicleHandlers.Get, anyStaff)
	managerOnly := gate.RequireRole(models.RoleManager, models.RoleAdmin)
	vehicles.POST("", vehicleHandlers.Create, managerOnly)
	vehicles.PUT("/:id", vehicleHandlers.Update, managerOnly)
	vehicles.DELETE("/:id", vehicleHandlers.Retire, managerOnly)

	// Branches feed the lookup screen's location filter.
	branches := v1.Group("/branches", jwtMW, userMW)
	branches.GET("", branchHandlers.List, anyStaff)
	branches.GET("/:code", branchHandlers.Get, anyStaff)
	branches.POST("", branchHandlers.Create, managerOnly)

	// Reports are manager-facing and run behind their own tier.
	reports := v1.Group("/reports", jwtMW, userMW, managerOnly, middleware.Boundary(reportBoundary))
	reports.GET("/fleet", reportHandlers.FleetUtilization)
	reports.GET("/revenue", reportHandlers.Revenue)

	// Boundary administration.
	adminOnly := gate.RequireRole(models.RoleAdmin)
	admin := v1.Group("/admin", jwtMW, userMW, adminOnly)
	admin.GET("/boundaries", boundaryHandlers.List)
	admin.POST("/boundaries/:scope/retry", boundaryHandlers.Retry)

	log.Printf("rentdesk v%s starting on port %s", version, cfg.Server.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%s", cfg.Server.Port)))
}
