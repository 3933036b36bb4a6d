package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/middleware"
	"github.com/voltmotors/voltride-backend/internal/storage"
)

// AdminHandler serves the admin panel API: captured data listings and export.
type AdminHandler struct {
	store storage.Store
	cfg   *config.Config
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		store: store,
		cfg:   cfg,
	}
}

// Login checks the configured admin credentials and returns a JWT
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username != h.cfg.AdminUser || req.Password != h.cfg.AdminPassword {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := middleware.GenerateAdminJWT(h.cfg, req.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

// GetLeads lists captured leads, optionally filtered by type
func (h *AdminHandler) GetLeads(c *fiber.Ctx) error {
	leads, err := h.store.GetLeads(c.Query("type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch leads",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"leads":   leads,
		"count":   len(leads),
	})
}

// GetBookings lists bookings, optionally filtered by payment status
func (h *AdminHandler) GetBookings(c *fiber.Ctx) error {
	bookings, err := h.store.GetBookings(c.Query("status"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch bookings",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// ExportLeadsCSV streams all leads as a CSV download
func (h *AdminHandler) ExportLeadsCSV(c *fiber.Ctx) error {
	leads, err := h.store.GetLeads(c.Query("type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch leads",
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"ID", "Type", "Name", "Phone", "Email", "Pincode", "City", "Model", "Message", "CRM Submitted", "Created At"})
	for _, lead := range leads {
		_ = w.Write([]string{
			fmt.Sprintf("%d", lead.ID),
			lead.LeadType,
			lead.Name,
			lead.Phone,
			lead.Email,
			lead.Pincode,
			lead.City,
			lead.ScooterModel,
			lead.Message,
			fmt.Sprintf("%t", lead.CRMSubmitted),
			lead.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build CSV",
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="leads.csv"`)
	return c.Send(buf.Bytes())
}

// Overview reports row counts for the dashboard landing page
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	counts, err := h.store.CountRows()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch counts",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"counts":  counts,
	})
}
