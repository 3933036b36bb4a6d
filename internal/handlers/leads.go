package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/services"
	"github.com/voltmotors/voltride-backend/internal/storage"
	"github.com/voltmotors/voltride-backend/internal/utils"
)

// LeadHandler handles the contact and test-ride form submissions.
type LeadHandler struct {
	store      storage.Store
	otpService *services.OTPService
	salesforce *services.SalesforceService
	validate   *validator.Validate
	cfg        *config.Config
}

func NewLeadHandler(store storage.Store, otpService *services.OTPService, salesforce *services.SalesforceService, cfg *config.Config) *LeadHandler {
	return &LeadHandler{
		store:      store,
		otpService: otpService,
		salesforce: salesforce,
		validate:   validator.New(),
		cfg:        cfg,
	}
}

type contactLeadRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	City    string `json:"city" validate:"omitempty,max=80"`
	Message string `json:"message" validate:"required,max=2000"`
}

type testRideLeadRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=120"`
	Phone        string `json:"phone" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	Pincode      string `json:"pincode" validate:"required,len=6,numeric"`
	ScooterModel string `json:"scooter_model" validate:"required,max=40"`
}

// CreateContactLead stores a contact form enquiry
func (h *LeadHandler) CreateContactLead(c *fiber.Ctx) error {
	var req contactLeadRequest
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

	// Stored phones are normalized so the lead row, the CRM push and the CSV
	// export all carry the same string the OTP tables key on.
	phone, err := utils.NormalizePhone(req.Phone, h.cfg.StrictPhoneValidation)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid phone number",
		})
	}

	if !h.otpService.IsVerified(phone, models.PurposeContactForm) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Phone number not verified",
		})
	}

	lead := &models.Lead{
		LeadType: models.LeadTypeContact,
		Name:     req.Name,
		Phone:    phone,
		Email:    req.Email,
		City:     req.City,
		Message:  req.Message,
	}
	lead, err = h.store.CreateLead(lead)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save enquiry",
		})
	}

	h.submitToCRM(lead)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Enquiry received",
		"lead_id": lead.ID,
	})
}

// CreateTestRideLead stores a test-ride request
func (h *LeadHandler) CreateTestRideLead(c *fiber.Ctx) error {
	var req testRideLeadRequest
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

	phone, err := utils.NormalizePhone(req.Phone, h.cfg.StrictPhoneValidation)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid phone number",
		})
	}

	if !h.otpService.IsVerified(phone, models.PurposeTestRide) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Phone number not verified",
		})
	}

	lead := &models.Lead{
		LeadType:     models.LeadTypeTestRide,
		Name:         req.Name,
		Phone:        phone,
		Email:        req.Email,
		Pincode:      req.Pincode,
		ScooterModel: req.ScooterModel,
	}
	lead, err = h.store.CreateLead(lead)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save test ride request",
		})
	}

	h.submitToCRM(lead)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Test ride request received",
		"lead_id": lead.ID,
	})
}

// submitToCRM pushes the lead to Salesforce without blocking the response.
// The dedup ledger inside the service keeps retries from double-submitting.
func (h *LeadHandler) submitToCRM(lead *models.Lead) {
	if h.salesforce == nil || !h.salesforce.Enabled() {
		return
	}
	go func(l models.Lead) {
		if err := h.salesforce.SubmitLead(&l); err != nil {
			log.Printf("Salesforce submission failed for lead %d: %v", l.ID, err)
		}
	}(*lead)
}
