package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"aquaserve-backend/internal/cache"
	"aquaserve-backend/internal/config"
	"aquaserve-backend/internal/handlers"
	"aquaserve-backend/internal/jobs"
	"aquaserve-backend/internal/middleware"
	"aquaserve-backend/internal/models"
	"aquaserve-backend/internal/repository"
	"aquaserve-backend/internal/seeders"
	"aquaserve-backend/internal/services"
)

// @title AquaServe Field Service API
// @version 1.0.0
// @description Field service management backend for water filter installation and servicing

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.AutoMigrate(
		&models.Role{},
		&models.Region{},
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Installation{},
		&models.ServiceRequest{},
		&models.ApprovalHistory{},
		&models.ReassignmentHistory{},
		&models.WorkLog{},
		&models.WorkMedia{},
		&models.ServiceUsedProduct{},
		&models.StockHistory{},
		&models.Notification{},
	); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	// Seed roles and the initial admin account
	if err := seeders.SeedRoles(db, logger); err != nil {
		logger.Fatalf("Failed to seed roles: %v", err)
	}
	if err := seeders.SeedAdminUser(db, logger, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatalf("Failed to seed admin user: %v", err)
	}

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Permission cache degrades to no-op when Redis is unreachable
	permCache, err := cache.NewPermissionCache(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB, cfg.PermCacheTTLSec)
	if err != nil {
		logger.Warnf("Failed to initialize permission cache: %v", err)
	}
	if permCache != nil && !permCache.IsAvailable() {
		logger.Warn("Redis unavailable, permission caching disabled")
	}

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo, logger)
	permissionService := services.NewPermissionService(directoryRepo, permCache, logger)
	authService := services.NewAuthService(directoryRepo, cfg.JWTSecret, cfg.TokenExpiryHours)
	userService := services.NewUserService(directoryRepo, permCache)
	requestService := services.NewRequestService(requestRepo, directoryRepo, notificationService, logger)
	workflowService := services.NewWorkflowService(requestRepo, directoryRepo, notificationService, logger)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(authService, userService, permissionService)
	requestHandler := handlers.NewRequestHandler(requestService)
	technicianHandler := handlers.NewTechnicianHandler(workflowService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Start stale-pending reminder job
	reminderJob := jobs.NewReminderJob(requestRepo, directoryRepo, notificationService, logger,
		cfg.ReminderIntervalMinutes, cfg.ReminderThresholdHours)
	jobCtx, jobCancel := context.WithCancel(context.Background())
	go reminderJob.Start(jobCtx)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	api := router.Group("/api/v1")

	// Public auth endpoint
	api.POST("/auth/login", userHandler.Login)

	// Everything below requires a valid token
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authService))

	// Service request lifecycle
	{
		authed.POST("/requests",
			middleware.RequirePermission(permissionService, models.PermServicesCreate),
			requestHandler.CreateRequest)
		authed.GET("/requests",
			middleware.RequirePermission(permissionService, models.PermServicesView),
			requestHandler.ListRequests)
		authed.GET("/requests/:id",
			middleware.RequirePermission(permissionService, models.PermServicesView),
			requestHandler.GetRequest)
		authed.POST("/requests/:id/sales-approve",
			middleware.RequirePermission(permissionService, models.PermServicesApprove),
			requestHandler.SalesApprove)
		authed.POST("/requests/:id/approve",
			middleware.RequirePermission(permissionService, models.PermServicesApprove),
			requestHandler.ServiceApprove)
		authed.POST("/requests/:id/reject",
			middleware.RequirePermission(permissionService, models.PermServicesApprove),
			requestHandler.RejectRequest)
		authed.POST("/requests/:id/auto-assign",
			middleware.RequirePermission(permissionService, models.PermServicesAssign),
			requestHandler.AutoAssign)
		authed.POST("/requests/:id/assign",
			middleware.RequirePermission(permissionService, models.PermServicesAssign),
			requestHandler.ManualAssign)
		authed.POST("/requests/:id/reassign",
			middleware.RequirePermission(permissionService, models.PermServicesAssign),
			requestHandler.Reassign)
		authed.POST("/requests/:id/acknowledge",
			middleware.RequirePermission(permissionService, models.PermServicesEdit),
			requestHandler.Acknowledge)
		authed.GET("/requests/:id/approval-history",
			middleware.RequirePermission(permissionService, models.PermServicesView),
			requestHandler.GetApprovalHistory)
		authed.GET("/requests/:id/reassignment-history",
			middleware.RequirePermission(permissionService, models.PermServicesView),
			requestHandler.GetReassignmentHistory)
		authed.GET("/requests/:id/work-logs",
			middleware.RequirePermission(permissionService, models.PermServicesView),
			technicianHandler.GetWorkLogs)
		authed.GET("/requests/:id/used-products",
			middleware.RequirePermission(permissionService, models.PermServicesView),
			requestHandler.GetUsedProducts)
		authed.GET("/requests/:id/customer-history",
			middleware.RequirePermission(permissionService, models.PermServicesView),
			requestHandler.GetCustomerServiceHistory)
		authed.GET("/technicians/workload",
			middleware.RequirePermission(permissionService, models.PermServicesAssign),
			requestHandler.ListTechnicianWorkloads)
	}

	// Technician self-service
	{
		authed.GET("/technician/assignments", technicianHandler.MyAssignments)
		authed.GET("/technician/task-history", technicianHandler.TaskHistory)
		authed.GET("/technician/stats", technicianHandler.MyStats)
		authed.POST("/technician/requests/:id/start", technicianHandler.StartWork)
		authed.POST("/technician/requests/:id/stop", technicianHandler.StopWork)
		authed.POST("/technician/requests/:id/used-products", technicianHandler.AddUsedProducts)
		authed.POST("/technician/requests/:id/media", technicianHandler.AddWorkMedia)
	}

	// Dashboard
	authed.GET("/dashboard/stats",
		middleware.RequirePermission(permissionService, models.PermDashboardView),
		requestHandler.GetDashboardStats)

	// Notifications (own inbox, no extra permission)
	{
		authed.GET("/notifications", notificationHandler.List)
		authed.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
		authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		authed.POST("/notifications/delivered", notificationHandler.MarkDelivered)
	}

	// Staff management
	{
		authed.POST("/users",
			middleware.RequirePermission(permissionService, models.PermUsersCreate),
			userHandler.CreateUser)
		authed.GET("/users/:id",
			middleware.RequirePermission(permissionService, models.PermUsersView),
			userHandler.GetUser)
		authed.PUT("/users/:id/status",
			middleware.RequirePermission(permissionService, models.PermUsersEdit),
			userHandler.SetUserStatus)
		authed.GET("/users/:id/permissions",
			middleware.RequirePermission(permissionService, models.PermUsersView),
			userHandler.GetUserPermissions)
		authed.PUT("/users/:id/permissions",
			middleware.RequirePermission(permissionService, models.PermUsersEdit),
			userHandler.UpdateUserPermissions)
		authed.GET("/technicians",
			middleware.RequirePermission(permissionService, models.PermUsersView),
			userHandler.ListTechnicians)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("AquaServe backend starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	jobCancel()
	reminderJob.Stop()

	if permCache != nil {
		_ = permCache.Close()
	}

	logger.Info("Server shutdown complete")
}
