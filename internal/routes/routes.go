package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/handlers"
	"github.com/voltmotors/voltride-backend/internal/middleware"
	"github.com/voltmotors/voltride-backend/internal/services"
	"github.com/voltmotors/voltride-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	app *fiber.App,
	store storage.Store,
	otpService *services.OTPService,
	salesforceService *services.SalesforceService,
	notificationService *services.NotificationService,
	cfg *config.Config,
) {
	otpHandler := handlers.NewOTPHandler(otpService)
	leadHandler := handlers.NewLeadHandler(store, otpService, salesforceService, cfg)
	bookingHandler := handlers.NewBookingHandler(store, otpService, cfg)
	paymentHandler := handlers.NewPaymentHandler(store, notificationService)
	adminHandler := handlers.NewAdminHandler(store, cfg)

	// API routes
	api := app.Group("/api")

	// OTP verification
	otp := api.Group("/otp")
	otp.Post("/request", otpHandler.RequestOTP)
	otp.Post("/verify", otpHandler.VerifyOTP)
	otp.Get("/status", otpHandler.Status)

	// Lead capture
	leads := api.Group("/leads")
	leads.Post("/contact", leadHandler.CreateContactLead)
	leads.Post("/test-ride", leadHandler.CreateTestRideLead)

	// Bookings
	bookings := api.Group("/bookings")
	bookings.Post("/", bookingHandler.CreateBooking)
	bookings.Get("/:transactionID", bookingHandler.GetBooking)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	if cfg.DevMode || cfg.PaymentWebhookSecret == "" {
		// Development: skip signature validation
		webhooks.Post("/payment", paymentHandler.HandleWebhook)
	} else {
		webhooks.Post("/payment", middleware.ValidatePaymentSignature(cfg.PaymentWebhookSecret), paymentHandler.HandleWebhook)
	}

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/admin")
	admin.Post("/login", adminHandler.Login)

	protected := admin.Group("", middleware.AdminAuth(cfg))
	protected.Get("/overview", adminHandler.Overview)
	protected.Get("/leads", adminHandler.GetLeads)
	protected.Get("/bookings", adminHandler.GetBookings)
	protected.Get("/export/leads.csv", adminHandler.ExportLeadsCSV)
}
