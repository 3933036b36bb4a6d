package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/services"
	"github.com/voltmotors/voltride-backend/internal/storage"
	"github.com/voltmotors/voltride-backend/internal/utils"
)

// BookingHandler handles scooter reservation requests
type BookingHandler struct {
	store      storage.Store
	otpService *services.OTPService
	validate   *validator.Validate
	cfg        *config.Config
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(store storage.Store, otpService *services.OTPService, cfg *config.Config) *BookingHandler {
	return &BookingHandler{
		store:      store,
		otpService: otpService,
		validate:   validator.New(),
		cfg:        cfg,
	}
}

type createBookingRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=120"`
	Phone        string  `json:"phone" validate:"required"`
	Email        string  `json:"email" validate:"omitempty,email"`
	Pincode      string  `json:"pincode" validate:"required,len=6,numeric"`
	ScooterModel string  `json:"scooter_model" validate:"required,max=40"`
	Color        string  `json:"color" validate:"omitempty,max=30"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
}

// CreateBooking handles creating a new booking
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed: " + err.Error(),
		})
	}

	// Bookings store the normalized phone, same as the OTP and lead tables.
	phone, err := utils.NormalizePhone(req.Phone, h.cfg.StrictPhoneValidation)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid phone number",
		})
	}

	if !h.otpService.IsVerified(phone, models.PurposeBookingForm) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Phone number not verified",
		})
	}

	booking := &models.Booking{
		TransactionID: uuid.NewString(),
		Name:          req.Name,
		Phone:         phone,
		Email:         req.Email,
		Pincode:       req.Pincode,
		ScooterModel:  req.ScooterModel,
		Color:         req.Color,
		Amount:        req.Amount,
		PaymentStatus: models.PaymentStatusPending,
	}

	booking, err = h.store.CreateBooking(booking)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create booking",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Booking created successfully",
		"booking": booking,
	})
}

// GetBooking retrieves a booking by its transaction ID
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	transactionID := c.Params("transactionID")
	if transactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Transaction ID is required",
		})
	}

	booking, err := h.store.GetBookingByTransactionID(transactionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Booking not found",
		})
	}

	return c.JSON(booking)
}
