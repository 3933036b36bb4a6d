package services

import (
	"log"
	"time"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/storage"
	"github.com/voltmotors/voltride-backend/internal/utils"
)

const (
	otpTTL           = 5 * time.Minute
	otpMaxAttempts   = 3
	rateLimitWindow  = time.Hour
	rateLimitMax     = 15
	verifiedValidity = time.Hour
	cleanupRetention = time.Hour
)

// SMSSender delivers an OTP code to a phone number. Delivery is
// fire-and-forget: a failed send never invalidates the stored record.
type SMSSender interface {
	SendOTPSMS(phone, code string) error
}

// OTPService issues and verifies phone OTPs for the site's forms.
// Public methods never return raw errors; every outcome is a structured
// result the form handlers serialize as-is.
type OTPService struct {
	store storage.Store
	sms   SMSSender
	cfg   *config.Config
}

func NewOTPService(store storage.Store, sms SMSSender, cfg *config.Config) *OTPService {
	return &OTPService{store: store, sms: sms, cfg: cfg}
}

// IssueResult is the outcome of an OTP issuance request.
type IssueResult struct {
	Success     bool   `json:"success"`
	ExistingOTP bool   `json:"existing_otp,omitempty"`
	Resent      bool   `json:"resent,omitempty"`
	RateLimited bool   `json:"rate_limited,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"` // seconds
	Code        string `json:"code,omitempty"`       // populated in dev mode only
	Error       string `json:"error,omitempty"`
	Detail      string `json:"detail,omitempty"` // underlying error text, for logs
}

// VerifyResult is the outcome of an OTP verification request.
type VerifyResult struct {
	Success             bool   `json:"success"`
	Verified            bool   `json:"verified,omitempty"`
	InvalidOTP          bool   `json:"invalid_otp,omitempty"`
	MaxAttemptsExceeded bool   `json:"max_attempts_exceeded,omitempty"`
	Error               string `json:"error,omitempty"`
	Detail              string `json:"detail,omitempty"`
}

// Issue hands out an OTP for (phone, purpose). An unexpired pending OTP is
// reused rather than replaced: without forceNew the caller just gets the
// remaining TTL, with forceNew the same code is re-sent. Attempt counters and
// expiry are never reset by re-issuance.
func (s *OTPService) Issue(phone, purpose string, forceNew bool) *IssueResult {
	if !models.ValidPurpose(purpose) {
		return &IssueResult{Error: "invalid purpose"}
	}

	normalized, err := utils.NormalizePhone(phone, s.cfg.StrictPhoneValidation)
	if err != nil {
		return &IssueResult{Error: "invalid phone number"}
	}

	existing, err := s.store.GetLatestPendingOTP(normalized, purpose)
	if err != nil {
		return issueStorageFailure(err)
	}

	if existing != nil {
		remaining := int(time.Until(existing.ExpiresAt).Seconds())
		result := &IssueResult{
			Success:     true,
			ExistingOTP: true,
			ExpiresIn:   remaining,
		}
		if forceNew {
			// Re-deliver the same code; no new record, no counter reset.
			s.deliver(normalized, existing.Code)
			result.Resent = true
		}
		if s.cfg.DevMode {
			result.Code = existing.Code
		}
		return result
	}

	if !s.checkRateLimit(normalized) {
		return &IssueResult{
			RateLimited: true,
			Error:       "too many OTP requests, try again later",
		}
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return issueStorageFailure(err)
	}

	otp := &models.OTPVerification{
		Phone:       normalized,
		Code:        code,
		Purpose:     purpose,
		ExpiresAt:   time.Now().Add(otpTTL),
		Attempts:    0,
		MaxAttempts: otpMaxAttempts,
	}
	if _, err := s.store.CreateOTP(otp); err != nil {
		return issueStorageFailure(err)
	}

	s.deliver(normalized, code)

	result := &IssueResult{
		Success:   true,
		ExpiresIn: int(otpTTL.Seconds()),
	}
	if s.cfg.DevMode {
		result.Code = code
	}
	return result
}

// Verify checks a submitted code against the pending OTP for (phone, purpose).
// A wrong code increments the newest pending record's attempt counter via a
// conditional update so concurrent attempts can never push it past the
// ceiling; the response stays a generic invalid-OTP signal either way.
func (s *OTPService) Verify(phone, code, purpose string) *VerifyResult {
	if !models.ValidPurpose(purpose) {
		return &VerifyResult{Error: "invalid purpose"}
	}

	normalized, err := utils.NormalizePhone(phone, s.cfg.StrictPhoneValidation)
	if err != nil {
		return &VerifyResult{Error: "invalid phone number"}
	}

	otp, err := s.store.GetActiveOTP(normalized, code, purpose)
	if err != nil {
		return verifyStorageFailure(err)
	}

	if otp == nil {
		// Wrong code, expired code, or no OTP at all. Bump the newest pending
		// record if there is one, and answer the same way in every case so the
		// endpoint can't be used to probe which phones have OTPs in flight.
		latest, err := s.store.GetLatestPendingOTP(normalized, purpose)
		if err != nil {
			return verifyStorageFailure(err)
		}
		if latest != nil {
			if _, err := s.store.IncrementOTPAttempts(latest.ID); err != nil {
				return verifyStorageFailure(err)
			}
		}
		return &VerifyResult{InvalidOTP: true, Error: "invalid OTP"}
	}

	// Strictly greater than: a record that burned its full attempt budget can
	// still be verified with the right code.
	if otp.Attempts > otp.MaxAttempts {
		return &VerifyResult{MaxAttemptsExceeded: true, Error: "maximum attempts exceeded"}
	}

	ok, err := s.store.MarkOTPVerified(otp.ID, time.Now())
	if err != nil {
		return verifyStorageFailure(err)
	}
	if !ok {
		// Lost a race with a concurrent verify of the same record.
		return &VerifyResult{InvalidOTP: true, Error: "invalid OTP"}
	}

	if err := s.store.DeleteSiblingOTPs(normalized, purpose, otp.ID); err != nil {
		log.Printf("Failed to delete sibling OTPs for %s/%s: %v", normalized, purpose, err)
	}

	return &VerifyResult{Success: true, Verified: true}
}

// IsVerified reports whether (phone, purpose) was verified within the last
// hour. This is the gate every form submission handler checks.
func (s *OTPService) IsVerified(phone, purpose string) bool {
	normalized, err := utils.NormalizePhone(phone, s.cfg.StrictPhoneValidation)
	if err != nil {
		return false
	}

	otp, err := s.store.GetVerifiedOTP(normalized, purpose, time.Now().Add(-verifiedValidity))
	if err != nil {
		// Fail closed: an unverifiable phone must not pass the submission gate.
		log.Printf("Verified-OTP lookup failed for %s/%s: %v", normalized, purpose, err)
		return false
	}
	return otp != nil
}

// CleanupExpired hard-deletes records more than an hour past expiry. Rows
// that expired recently are kept so verification failures stay explainable in
// the admin panel. Idempotent; runs from the cron sweep.
func (s *OTPService) CleanupExpired() (int64, error) {
	return s.store.DeleteOTPsExpiredBefore(time.Now().Add(-cleanupRetention))
}

// checkRateLimit caps OTP issuance per phone across all purposes. On a
// storage failure the limiter's behaviour is a named policy choice:
// RateLimitFailOpen keeps the booking and contact flows available at the cost
// of strict abuse prevention.
func (s *OTPService) checkRateLimit(phone string) bool {
	count, err := s.store.CountOTPsCreatedSince(phone, time.Now().Add(-rateLimitWindow))
	if err != nil {
		log.Printf("Rate-limit query failed for %s: %v", phone, err)
		return s.cfg.RateLimitFailOpen
	}
	return count < rateLimitMax
}

func (s *OTPService) deliver(phone, code string) {
	if s.sms == nil {
		log.Printf("SMS sender not configured, skipping OTP delivery to %s", phone)
		return
	}
	if err := s.sms.SendOTPSMS(phone, code); err != nil {
		// The record stays valid; in dev mode the code is surfaced in the
		// response anyway.
		log.Printf("Failed to deliver OTP SMS to %s: %v", phone, err)
	}
}

func issueStorageFailure(err error) *IssueResult {
	log.Printf("OTP issuance failed: %v", err)
	return &IssueResult{Error: "failed to process OTP request", Detail: err.Error()}
}

func verifyStorageFailure(err error) *VerifyResult {
	log.Printf("OTP verification failed: %v", err)
	return &VerifyResult{Error: "failed to process OTP request", Detail: err.Error()}
}
