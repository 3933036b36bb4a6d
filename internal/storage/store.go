package storage

import (
	"time"

	"github.com/voltmotors/voltride-backend/internal/models"
)

// Store defines the interface for storage operations. The OTP lookups return
// (nil, nil) when no row matches so callers can tell "no record" apart from a
// storage failure.
type Store interface {
	// OTP operations
	CreateOTP(otp *models.OTPVerification) (*models.OTPVerification, error)
	GetActiveOTP(phone, code, purpose string) (*models.OTPVerification, error)
	GetLatestPendingOTP(phone, purpose string) (*models.OTPVerification, error)
	// IncrementOTPAttempts bumps the attempt counter as a single conditional
	// update guarded by attempts < max_attempts; reports whether a row changed.
	IncrementOTPAttempts(id uint) (bool, error)
	// MarkOTPVerified flips verified as a single conditional update guarded by
	// verified = false; reports whether a row changed.
	MarkOTPVerified(id uint, at time.Time) (bool, error)
	DeleteSiblingOTPs(phone, purpose string, keepID uint) error
	CountOTPsCreatedSince(phone string, since time.Time) (int64, error)
	DeleteOTPsExpiredBefore(cutoff time.Time) (int64, error)
	GetVerifiedOTP(phone, purpose string, verifiedSince time.Time) (*models.OTPVerification, error)

	// Lead operations
	CreateLead(lead *models.Lead) (*models.Lead, error)
	GetLeads(leadType string) ([]*models.Lead, error)
	MarkLeadCRMSubmitted(id uint) error

	// Booking operations
	CreateBooking(booking *models.Booking) (*models.Booking, error)
	GetBookingByTransactionID(transactionID string) (*models.Booking, error)
	UpdateBookingPayment(transactionID, status, paymentRef string, paidAt *time.Time) error
	GetBookings(status string) ([]*models.Booking, error)

	// Submission dedup ledger
	RecordSubmission(referenceID, category, subCategory string) error
	HasSubmission(referenceID, category, subCategory string) (bool, error)

	// Admin overview
	CountRows() (map[string]int64, error)
}
