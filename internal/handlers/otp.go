package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voltmotors/voltride-backend/internal/services"
)

// OTPHandler exposes the phone verification endpoints used by the site forms.
type OTPHandler struct {
	otpService *services.OTPService
}

func NewOTPHandler(otpService *services.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// RequestOTP issues (or re-issues) an OTP for a phone + purpose
func (h *OTPHandler) RequestOTP(c *fiber.Ctx) error {
	var req struct {
		Phone    string `json:"phone"`
		Purpose  string `json:"purpose"`
		ForceNew bool   `json:"force_new"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Phone == "" || req.Purpose == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone and purpose are required",
		})
	}

	result := h.otpService.Issue(req.Phone, req.Purpose, req.ForceNew)
	return c.Status(issueStatusCode(result)).JSON(result)
}

// VerifyOTP checks a submitted code
func (h *OTPHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Phone   string `json:"phone"`
		Code    string `json:"code"`
		Purpose string `json:"purpose"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Phone == "" || req.Code == "" || req.Purpose == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone, code and purpose are required",
		})
	}

	result := h.otpService.Verify(req.Phone, req.Code, req.Purpose)
	return c.Status(verifyStatusCode(result)).JSON(result)
}

// Status reports whether a phone has a recent verification for a purpose
func (h *OTPHandler) Status(c *fiber.Ctx) error {
	phone := c.Query("phone")
	purpose := c.Query("purpose")
	if phone == "" || purpose == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone and purpose are required",
		})
	}

	return c.JSON(fiber.Map{
		"verified": h.otpService.IsVerified(phone, purpose),
	})
}

func issueStatusCode(r *services.IssueResult) int {
	switch {
	case r.Success:
		return fiber.StatusOK
	case r.RateLimited:
		return fiber.StatusTooManyRequests
	case r.Detail != "":
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

func verifyStatusCode(r *services.VerifyResult) int {
	switch {
	case r.Success:
		return fiber.StatusOK
	case r.Detail != "":
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}
