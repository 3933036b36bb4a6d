package models

import (
	"time"

	"gorm.io/gorm"
)

// OTPVerification is a single issued OTP for a phone number. A phone can hold
// several rows at once (stale, expired, superseded); the issuance and
// verification queries always pick the newest pending row.
type OTPVerification struct {
	gorm.Model
	Phone       string    `gorm:"not null;index:idx_otp_phone_purpose" json:"phone"`
	Code        string    `gorm:"size:6;not null;index:idx_otp_code_expiry" json:"-"`
	Purpose     string    `gorm:"not null;index:idx_otp_phone_purpose" json:"purpose"`
	Verified    bool      `gorm:"default:false" json:"verified"`
	ExpiresAt   time.Time `gorm:"not null;index:idx_otp_code_expiry" json:"expires_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	Attempts    int       `gorm:"default:0" json:"attempts"`
	MaxAttempts int       `gorm:"default:3" json:"max_attempts"`
}

func (OTPVerification) TableName() string { return "otp_verifications" }

// OTP purposes. The column is a plain string so new purposes ship without a
// schema migration; ValidPurpose is the only gate.
const (
	PurposeContactForm = "contact_form"
	PurposeTestRide    = "test_ride"
	PurposeBookingForm = "booking_form"
)

var validPurposes = map[string]bool{
	PurposeContactForm: true,
	PurposeTestRide:    true,
	PurposeBookingForm: true,
}

// ValidPurpose reports whether purpose is one of the known OTP contexts.
func ValidPurpose(purpose string) bool {
	return validPurposes[purpose]
}
