package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/voltmotors/voltride-backend/internal/models"
)

// MemoryStore holds all data in memory. Used for tests and local development
// without PostgreSQL (USE_MEMORY_STORE=true).
type MemoryStore struct {
	otps        map[uint]*models.OTPVerification
	leads       map[uint]*models.Lead
	bookings    map[uint]*models.Booking
	submissions map[string]*models.FormSubmission

	// Mutexes for thread safety
	otpMu        sync.Mutex
	leadMu       sync.RWMutex
	bookingMu    sync.RWMutex
	submissionMu sync.Mutex

	// Counters for ID generation
	otpCounter     uint
	leadCounter    uint
	bookingCounter uint
	subCounter     uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		otps:        make(map[uint]*models.OTPVerification),
		leads:       make(map[uint]*models.Lead),
		bookings:    make(map[uint]*models.Booking),
		submissions: make(map[string]*models.FormSubmission),
	}
}

// OTP operations

func (m *MemoryStore) CreateOTP(otp *models.OTPVerification) (*models.OTPVerification, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otpCounter++
	otp.ID = m.otpCounter
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	otp.UpdatedAt = otp.CreatedAt

	stored := *otp
	m.otps[otp.ID] = &stored
	return otp, nil
}

// newestFirst sorts by creation time descending, breaking ties on id
// descending (insertion order), matching the database ordering.
func newestFirst(otps []*models.OTPVerification) {
	sort.Slice(otps, func(i, j int) bool {
		if !otps[i].CreatedAt.Equal(otps[j].CreatedAt) {
			return otps[i].CreatedAt.After(otps[j].CreatedAt)
		}
		return otps[i].ID > otps[j].ID
	})
}

func (m *MemoryStore) GetActiveOTP(phone, code, purpose string) (*models.OTPVerification, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	now := time.Now()
	var matches []*models.OTPVerification
	for _, otp := range m.otps {
		if otp.Phone == phone && otp.Code == code && otp.Purpose == purpose &&
			!otp.Verified && otp.ExpiresAt.After(now) {
			matches = append(matches, otp)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	newestFirst(matches)
	copied := *matches[0]
	return &copied, nil
}

func (m *MemoryStore) GetLatestPendingOTP(phone, purpose string) (*models.OTPVerification, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	now := time.Now()
	var matches []*models.OTPVerification
	for _, otp := range m.otps {
		if otp.Phone == phone && otp.Purpose == purpose &&
			!otp.Verified && otp.ExpiresAt.After(now) {
			matches = append(matches, otp)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	newestFirst(matches)
	copied := *matches[0]
	return &copied, nil
}

func (m *MemoryStore) IncrementOTPAttempts(id uint) (bool, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists || otp.Attempts >= otp.MaxAttempts {
		return false, nil
	}
	otp.Attempts++
	otp.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryStore) MarkOTPVerified(id uint, at time.Time) (bool, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists || otp.Verified {
		return false, nil
	}
	otp.Verified = true
	otp.VerifiedAt = &at
	otp.UpdatedAt = at
	return true, nil
}

func (m *MemoryStore) DeleteSiblingOTPs(phone, purpose string, keepID uint) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for id, otp := range m.otps {
		if otp.Phone == phone && otp.Purpose == purpose && id != keepID {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *MemoryStore) CountOTPsCreatedSince(phone string, since time.Time) (int64, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	var count int64
	for _, otp := range m.otps {
		if otp.Phone == phone && otp.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) DeleteOTPsExpiredBefore(cutoff time.Time) (int64, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	var deleted int64
	for id, otp := range m.otps {
		if otp.ExpiresAt.Before(cutoff) {
			delete(m.otps, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) GetVerifiedOTP(phone, purpose string, verifiedSince time.Time) (*models.OTPVerification, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	var newest *models.OTPVerification
	for _, otp := range m.otps {
		if otp.Phone == phone && otp.Purpose == purpose && otp.Verified &&
			otp.VerifiedAt != nil && otp.VerifiedAt.After(verifiedSince) {
			if newest == nil || otp.VerifiedAt.After(*newest.VerifiedAt) ||
				(otp.VerifiedAt.Equal(*newest.VerifiedAt) && otp.ID > newest.ID) {
				newest = otp
			}
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

// Lead operations

func (m *MemoryStore) CreateLead(lead *models.Lead) (*models.Lead, error) {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	m.leadCounter++
	lead.ID = m.leadCounter
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt

	stored := *lead
	m.leads[lead.ID] = &stored
	return lead, nil
}

func (m *MemoryStore) GetLeads(leadType string) ([]*models.Lead, error) {
	m.leadMu.RLock()
	defer m.leadMu.RUnlock()

	var leads []*models.Lead
	for _, lead := range m.leads {
		if leadType == "" || lead.LeadType == leadType {
			copied := *lead
			leads = append(leads, &copied)
		}
	}
	sort.Slice(leads, func(i, j int) bool { return leads[i].ID > leads[j].ID })
	return leads, nil
}

func (m *MemoryStore) MarkLeadCRMSubmitted(id uint) error {
	m.leadMu.Lock()
	defer m.leadMu.Unlock()

	lead, exists := m.leads[id]
	if !exists {
		return fmt.Errorf("lead not found")
	}
	lead.CRMSubmitted = true
	lead.UpdatedAt = time.Now()
	return nil
}

// Booking operations

func (m *MemoryStore) CreateBooking(booking *models.Booking) (*models.Booking, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	m.bookingCounter++
	booking.ID = m.bookingCounter
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.PaymentStatusPending
	}

	stored := *booking
	m.bookings[booking.ID] = &stored
	return booking, nil
}

func (m *MemoryStore) GetBookingByTransactionID(transactionID string) (*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	for _, booking := range m.bookings {
		if booking.TransactionID == transactionID {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("booking not found")
}

func (m *MemoryStore) UpdateBookingPayment(transactionID, status, paymentRef string, paidAt *time.Time) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	for _, booking := range m.bookings {
		if booking.TransactionID == transactionID {
			booking.PaymentStatus = status
			booking.PaymentRef = paymentRef
			if paidAt != nil {
				booking.PaidAt = paidAt
			}
			booking.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("booking not found")
}

func (m *MemoryStore) GetBookings(status string) ([]*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	var bookings []*models.Booking
	for _, booking := range m.bookings {
		if status == "" || booking.PaymentStatus == status {
			copied := *booking
			bookings = append(bookings, &copied)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID > bookings[j].ID })
	return bookings, nil
}

// Submission dedup ledger

func submissionKey(referenceID, category, subCategory string) string {
	return referenceID + "|" + category + "|" + subCategory
}

func (m *MemoryStore) RecordSubmission(referenceID, category, subCategory string) error {
	m.submissionMu.Lock()
	defer m.submissionMu.Unlock()

	key := submissionKey(referenceID, category, subCategory)
	if existing, ok := m.submissions[key]; ok {
		existing.UpdatedAt = time.Now()
		return nil
	}

	m.subCounter++
	now := time.Now()
	m.submissions[key] = &models.FormSubmission{
		ID:          m.subCounter,
		ReferenceID: referenceID,
		Category:    category,
		SubCategory: subCategory,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}

func (m *MemoryStore) HasSubmission(referenceID, category, subCategory string) (bool, error) {
	m.submissionMu.Lock()
	defer m.submissionMu.Unlock()

	_, ok := m.submissions[submissionKey(referenceID, category, subCategory)]
	return ok, nil
}

// Admin overview

func (m *MemoryStore) CountRows() (map[string]int64, error) {
	m.otpMu.Lock()
	otps := int64(len(m.otps))
	m.otpMu.Unlock()

	m.leadMu.RLock()
	leads := int64(len(m.leads))
	m.leadMu.RUnlock()

	m.bookingMu.RLock()
	bookings := int64(len(m.bookings))
	m.bookingMu.RUnlock()

	m.submissionMu.Lock()
	submissions := int64(len(m.submissions))
	m.submissionMu.Unlock()

	return map[string]int64{
		"leads":       leads,
		"bookings":    bookings,
		"otps":        otps,
		"submissions": submissions,
	}, nil
}
