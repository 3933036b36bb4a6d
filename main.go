package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/database"
	"github.com/voltmotors/voltride-backend/internal/jobs"
	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/routes"
	"github.com/voltmotors/voltride-backend/internal/services"
	"github.com/voltmotors/voltride-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		if err := database.Connect(cfg); err != nil {
			log.Fatal(err)
		}

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.OTPVerification{},
			&models.Lead{},
			&models.Booking{},
			&models.FormSubmission{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}

	// SMS delivery: required in production, optional in dev mode where the
	// OTP code is echoed in API responses instead.
	var smsSender services.SMSSender
	twilioService, err := services.NewTwilioService(cfg)
	if err != nil {
		if !cfg.DevMode {
			log.Fatal("Failed to initialize Twilio service: ", err)
		}
		log.Println("⚠️  Twilio not configured - running in dev mode without SMS delivery")
	} else {
		smsSender = twilioService
		log.Println("✅ Twilio service initialized")
	}

	// Initialize all services
	otpService := services.NewOTPService(store, smsSender, cfg)
	salesforceService := services.NewSalesforceService(store, cfg)
	notificationService := services.NewNotificationService(store, services.NewGomailSender(cfg), cfg)

	// Start the OTP cleanup sweep
	cleanupJob := jobs.NewCleanupJob(otpService)
	cleanupJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database":   status == "healthy",
				"sms":        smsSender != nil,
				"salesforce": salesforceService.Enabled(),
			},
		})
	})

	// Setup routes
	routes.SetupRoutes(app, store, otpService, salesforceService, notificationService, cfg)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		cleanupJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🛵 VoltRide Backend starting on port %s", cfg.Port)
	log.Printf("📊 Storage: %s", storageType())
	log.Printf("📱 SMS delivery: %s", configuredStatus(smsSender != nil))
	log.Printf("☁️  Salesforce CRM: %s", configuredStatus(salesforceService.Enabled()))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.Port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func configuredStatus(ok bool) string {
	if ok {
		return "Configured"
	}
	return "Not configured"
}
