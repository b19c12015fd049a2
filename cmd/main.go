package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/nexofit/gym-api/docs" // Import generated docs
	"github.com/nexofit/gym-api/internal/access"
	accessvendor "github.com/nexofit/gym-api/internal/access/vendorapi"
	"github.com/nexofit/gym-api/internal/auth"
	"github.com/nexofit/gym-api/internal/config"
	"github.com/nexofit/gym-api/internal/controllers"
	"github.com/nexofit/gym-api/internal/database"
	"github.com/nexofit/gym-api/internal/middleware"
	"github.com/nexofit/gym-api/internal/models"
	"github.com/nexofit/gym-api/internal/services"
)

var (
	db            *gorm.DB
	configuration *config.Config

	branchController  *controllers.BranchController
	memberController  *controllers.MemberController
	billingController *controllers.BillingController
	classController   *controllers.ClassController
	accessController  *controllers.AccessController
	authController    *controllers.AuthController
	clientController  *controllers.ClientController
	oauthService      *auth.OAuthService

	accessScheduler *access.Scheduler
)

// @title Gym Management API
// @version 1.0
// @description Multi-tenant gym management API with access-control vendor integration
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// Initialize services, the access integration and controllers
	setupComponents()

	// Initialize Gin router
	router := setupRouter()

	// Start the access polling scheduler
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	accessScheduler.Start(ctx)

	// Start the server
	addr := fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	// Stop polling first so in-flight ticks finish or time out, then drain HTTP
	accessScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown was not clean")
	}
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase initializes the database connection and migrates the schema
func setupDatabase(conf *config.Config) {
	var err error
	db, err = database.InitDatabase(database.DatabaseConfig{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	})
	checkPanicErr(err)

	err = db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.OAuthToken{},
		&models.Branch{},
		&models.Member{},
		&models.MembershipPlan{},
		&models.Invoice{},
		&models.GymClass{},
		&models.ClassBooking{},
		&models.BranchAccessSettings{},
		&models.AccessDevice{},
		&models.AccessToken{},
		&models.AccessEvent{},
		&models.SyncLogEntry{},
		&models.AccessPerson{},
		&models.PrivilegeAssignment{},
	)
	checkPanicErr(err)

	seedDatabase()
}

// seedDatabase creates a default admin account and demo branch on first run
func seedDatabase() {
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Info("Database already seeded")
		return
	}

	log.Info("Database is empty, seeding initial data")
	admin := &models.User{
		Email:    "admin@gym.local",
		Password: "admin123",
		Name:     "Administrator",
		Role:     "admin",
	}
	checkPanicErr(admin.HashPassword())
	db.Create(admin)

	db.Create(&models.Branch{Name: "Central", Address: "1 Main St", Active: true})
	log.Info("Database seeded successfully")
}

// setupComponents wires services, the access-control integration and controllers
func setupComponents() {
	std := log.StandardLogger()

	// Access integration: transport chains -> vendor client -> core
	cloudChain := access.CloudChain(std, configuration.AccessRelayURL, configuration.AccessCloudTimeout)
	deviceChain := access.DeviceChain(std, configuration.AccessRelayURL, configuration.AccessDeviceTimeout, configuration.AccessAllowSimulated)
	vendorClient := accessvendor.NewClient(cloudChain, deviceChain, std)

	accessStore := access.NewStore(db)
	tokenManager := access.NewTokenManager(accessStore, vendorClient, std)
	enroller := access.NewEnroller(accessStore, tokenManager, vendorClient, std)
	accessScheduler = access.NewScheduler(accessStore, tokenManager, vendorClient, access.SchedulerConfig{
		Interval: configuration.AccessPollInterval,
		PageSize: configuration.AccessPageSize,
	}, std)

	// CRUD services and controllers
	branchController = controllers.NewBranchController(services.NewBranchService(db))
	memberController = controllers.NewMemberController(services.NewMemberService(db), enroller, accessStore)
	billingController = controllers.NewBillingController(services.NewBillingService(db))
	classController = controllers.NewClassController(services.NewClassService(db))
	accessController = controllers.NewAccessController(accessStore, accessScheduler, enroller)
	authController = controllers.NewAuthController(services.NewUserService(db), configuration.JWTSecret)
	clientController = controllers.NewClientController(services.NewClientService(db))
	oauthService = auth.NewOAuthService(db, configuration.JWTSecret)
}

// setupRouter initializes the Gin router and sets up the routes
func setupRouter() *gin.Engine {
	router := gin.Default()
	setupRoutes(router)
	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	// OAuth2 token endpoint for machine clients
	router.POST("/oauth/token", oauthService.HandleToken)

	v1 := router.Group("/api/v1")
	{
		publicApi := v1.Group("/public")
		{
			publicApi.GET("/plans", billingController.GetPlans)
			publicApi.GET("/classes", classController.GetClasses)
		}

		authApi := v1.Group("/auth")
		{
			authApi.POST("/register", authController.Register)
			authApi.POST("/login", authController.Login)
		}

		// Protected routes (requires a valid bearer token)
		protectedApi := v1.Group("/protected")
		protectedApi.Use(middleware.OAuth2Auth([]byte(configuration.JWTSecret)))
		{
			protectedApi.GET("/branches", branchController.GetAllBranches)
			protectedApi.GET("/branches/:id", branchController.GetBranchByID)

			protectedApi.GET("/members", memberController.GetMembers)
			protectedApi.GET("/members/:id", memberController.GetMemberByID)
			protectedApi.POST("/members", memberController.CreateMember)
			protectedApi.PUT("/members/:id", memberController.UpdateMember)
			protectedApi.PUT("/members/:id/status", memberController.SetMemberStatus)

			protectedApi.GET("/invoices", billingController.GetInvoices)
			protectedApi.POST("/invoices", billingController.CreateInvoice)
			protectedApi.POST("/invoices/:id/pay", billingController.MarkInvoicePaid)

			protectedApi.POST("/classes", classController.CreateClass)
			protectedApi.POST("/classes/:id/bookings", classController.BookClass)
			protectedApi.DELETE("/classes/:id/bookings/:member_id", classController.CancelBooking)

			branchScoped := middleware.RequireBranchAccess("id")
			protectedApi.GET("/branches/:id/access/events", branchScoped, accessController.GetEvents)
			protectedApi.GET("/branches/:id/access/log", branchScoped, accessController.GetSyncLog)
			protectedApi.GET("/branches/:id/access/members/:member_id/privileges", branchScoped, accessController.GetMemberPrivileges)
			protectedApi.POST("/access/enroll", accessController.EnrollMember)

			protectedApi.POST("/clients", clientController.CreateClient)
			protectedApi.GET("/clients", clientController.ListClients)
			protectedApi.DELETE("/clients/:id", clientController.DeleteClient)

			adminApi := protectedApi.Group("/admin")
			adminApi.Use(middleware.RequireRole("admin"))
			{
				adminApi.POST("/branches", branchController.CreateBranch)
				adminApi.PUT("/branches/:id", branchController.UpdateBranch)
				adminApi.DELETE("/branches/:id", branchController.DeactivateBranch)
				adminApi.POST("/plans", billingController.CreatePlan)

				adminApi.PUT("/branches/:id/access/settings", accessController.UpsertSettings)
				adminApi.POST("/branches/:id/access/poll", accessController.TriggerPoll)
				adminApi.DELETE("/branches/:id/access/members/:member_id/privileges", accessController.RevokeMemberPrivileges)
			}
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gym-api",
	})
}
