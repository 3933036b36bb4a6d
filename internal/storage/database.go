package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voltmotors/voltride-backend/internal/models"
)

// DatabaseStore implements Store on top of PostgreSQL via GORM.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// OTP operations

func (s *DatabaseStore) CreateOTP(otp *models.OTPVerification) (*models.OTPVerification, error) {
	if err := s.db.Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *DatabaseStore) GetActiveOTP(phone, code, purpose string) (*models.OTPVerification, error) {
	var otp models.OTPVerification
	err := s.db.
		Where("phone = ? AND code = ? AND purpose = ? AND verified = ? AND expires_at > ?",
			phone, code, purpose, false, time.Now()).
		Order("created_at DESC, id DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (s *DatabaseStore) GetLatestPendingOTP(phone, purpose string) (*models.OTPVerification, error) {
	var otp models.OTPVerification
	err := s.db.
		Where("phone = ? AND purpose = ? AND verified = ? AND expires_at > ?",
			phone, purpose, false, time.Now()).
		Order("created_at DESC, id DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (s *DatabaseStore) IncrementOTPAttempts(id uint) (bool, error) {
	res := s.db.Model(&models.OTPVerification{}).
		Where("id = ? AND attempts < max_attempts", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *DatabaseStore) MarkOTPVerified(id uint, at time.Time) (bool, error) {
	res := s.db.Model(&models.OTPVerification{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *DatabaseStore) DeleteSiblingOTPs(phone, purpose string, keepID uint) error {
	return s.db.
		Where("phone = ? AND purpose = ? AND id <> ?", phone, purpose, keepID).
		Delete(&models.OTPVerification{}).Error
}

func (s *DatabaseStore) CountOTPsCreatedSince(phone string, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.OTPVerification{}).
		Where("phone = ? AND created_at > ?", phone, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *DatabaseStore) DeleteOTPsExpiredBefore(cutoff time.Time) (int64, error) {
	res := s.db.
		Where("expires_at < ?", cutoff).
		Delete(&models.OTPVerification{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (s *DatabaseStore) GetVerifiedOTP(phone, purpose string, verifiedSince time.Time) (*models.OTPVerification, error) {
	var otp models.OTPVerification
	err := s.db.
		Where("phone = ? AND purpose = ? AND verified = ? AND verified_at > ?",
			phone, purpose, true, verifiedSince).
		Order("verified_at DESC, id DESC").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// Lead operations

func (s *DatabaseStore) CreateLead(lead *models.Lead) (*models.Lead, error) {
	if err := s.db.Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *DatabaseStore) GetLeads(leadType string) ([]*models.Lead, error) {
	var leads []*models.Lead
	query := s.db.Order("created_at DESC")
	if leadType != "" {
		query = query.Where("lead_type = ?", leadType)
	}
	if err := query.Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *DatabaseStore) MarkLeadCRMSubmitted(id uint) error {
	return s.db.Model(&models.Lead{}).
		Where("id = ?", id).
		Update("crm_submitted", true).Error
}

// Booking operations

func (s *DatabaseStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	if err := s.db.Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *DatabaseStore) GetBookingByTransactionID(transactionID string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Where("transaction_id = ?", transactionID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("booking not found")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *DatabaseStore) UpdateBookingPayment(transactionID, status, paymentRef string, paidAt *time.Time) error {
	updates := map[string]interface{}{
		"payment_status": status,
		"payment_ref":    paymentRef,
	}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}
	res := s.db.Model(&models.Booking{}).
		Where("transaction_id = ?", transactionID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("booking not found")
	}
	return nil
}

func (s *DatabaseStore) GetBookings(status string) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := s.db.Order("created_at DESC")
	if status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if err := query.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// Submission dedup ledger

func (s *DatabaseStore) RecordSubmission(referenceID, category, subCategory string) error {
	sub := models.FormSubmission{
		ReferenceID: referenceID,
		Category:    category,
		SubCategory: subCategory,
	}
	// Re-recording an existing key only refreshes its timestamp.
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "reference_id"}, {Name: "category"}, {Name: "sub_category"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now()}),
	}).Create(&sub).Error
}

func (s *DatabaseStore) HasSubmission(referenceID, category, subCategory string) (bool, error) {
	var count int64
	err := s.db.Model(&models.FormSubmission{}).
		Where("reference_id = ? AND category = ? AND sub_category = ?",
			referenceID, category, subCategory).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Admin overview

func (s *DatabaseStore) CountRows() (map[string]int64, error) {
	counts := map[string]int64{}
	var n int64
	if err := s.db.Model(&models.Lead{}).Count(&n).Error; err != nil {
		return nil, err
	}
	counts["leads"] = n
	if err := s.db.Model(&models.Booking{}).Count(&n).Error; err != nil {
		return nil, err
	}
	counts["bookings"] = n
	if err := s.db.Model(&models.OTPVerification{}).Count(&n).Error; err != nil {
		return nil, err
	}
	counts["otps"] = n
	if err := s.db.Model(&models.FormSubmission{}).Count(&n).Error; err != nil {
		return nil, err
	}
	counts["submissions"] = n
	return counts, nil
}
