package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/services"
	"github.com/voltmotors/voltride-backend/internal/storage"
)

// PaymentHandler processes gateway webhooks for booking payments
type PaymentHandler struct {
	store         storage.Store
	notifications *services.NotificationService
}

func NewPaymentHandler(store storage.Store, notifications *services.NotificationService) *PaymentHandler {
	return &PaymentHandler{
		store:         store,
		notifications: notifications,
	}
}

// HandleWebhook records a payment status transition reported by the gateway.
// Gateways retry webhooks aggressively; the notification dedup ledger keeps
// each (transaction, status) mail to at most one send.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	var req struct {
		TransactionID string `json:"transaction_id"`
		Status        string `json:"status"`
		PaymentRef    string `json:"payment_ref"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.TransactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Transaction ID is required",
		})
	}
	if !models.ValidPaymentStatus(req.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status value",
		})
	}

	var paidAt *time.Time
	if req.Status == models.PaymentStatusSuccess {
		now := time.Now()
		paidAt = &now
	}

	if err := h.store.UpdateBookingPayment(req.TransactionID, req.Status, req.PaymentRef, paidAt); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Booking not found",
		})
	}

	booking, err := h.store.GetBookingByTransactionID(req.TransactionID)
	if err == nil && h.notifications != nil {
		go func(b models.Booking) {
			if err := h.notifications.NotifyBookingStatus(&b); err != nil {
				log.Printf("Booking notification failed for %s: %v", b.TransactionID, err)
			}
		}(*booking)
	}

	return c.JSON(fiber.Map{
		"message": "Payment status updated",
	})
}
