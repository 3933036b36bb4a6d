package models

import (
	"time"

	"gorm.io/gorm"
)

// Booking represents a paid scooter reservation made through the site.
type Booking struct {
	gorm.Model
	TransactionID string `gorm:"size:64;not null;uniqueIndex" json:"transaction_id"`

	Name    string `gorm:"size:120;not null" json:"name"`
	Phone   string `gorm:"size:16;not null;index" json:"phone"`
	Email   string `gorm:"size:120" json:"email"`
	Pincode string `gorm:"size:10" json:"pincode"`

	ScooterModel string  `gorm:"size:40;not null" json:"scooter_model"`
	Color        string  `gorm:"size:30" json:"color"`
	Amount       float64 `gorm:"not null" json:"amount"`

	// Payment tracking
	PaymentStatus string     `gorm:"size:20;default:pending;index" json:"payment_status"`
	PaymentRef    string     `gorm:"size:64" json:"payment_ref"` // gateway's own reference
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

var validPaymentStatuses = map[string]bool{
	PaymentStatusPending: true,
	PaymentStatusSuccess: true,
	PaymentStatusFailed:  true,
}

// ValidPaymentStatus reports whether status is a known gateway outcome.
func ValidPaymentStatus(status string) bool {
	return validPaymentStatuses[status]
}
