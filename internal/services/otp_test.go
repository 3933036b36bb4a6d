package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/storage"
)

// fakeSMS records every delivery instead of talking to Twilio.
type fakeSMS struct {
	sent []struct{ phone, code string }
	fail bool
}

func (f *fakeSMS) SendOTPSMS(phone, code string) error {
	f.sent = append(f.sent, struct{ phone, code string }{phone, code})
	if f.fail {
		return assert.AnError
	}
	return nil
}

func newTestOTPService() (*OTPService, *storage.MemoryStore, *fakeSMS) {
	store := storage.NewMemoryStore()
	sms := &fakeSMS{}
	cfg := &config.Config{
		DevMode:           true,
		RateLimitFailOpen: true,
	}
	return NewOTPService(store, sms, cfg), store, sms
}

func TestIssueFreshOTP(t *testing.T) {
	svc, store, sms := newTestOTPService()

	result := svc.Issue("9876543210", models.PurposeContactForm, false)
	require.True(t, result.Success)
	assert.False(t, result.ExistingOTP)
	assert.Equal(t, 300, result.ExpiresIn)
	assert.Len(t, result.Code, 6, "dev mode should echo the code")

	otp, err := store.GetLatestPendingOTP("+919876543210", models.PurposeContactForm)
	require.NoError(t, err)
	require.NotNil(t, otp, "phone should be stored normalized")
	assert.Equal(t, 0, otp.Attempts)
	assert.Equal(t, 3, otp.MaxAttempts)
	assert.False(t, otp.Verified)
	assert.WithinDuration(t, otp.CreatedAt.Add(5*time.Minute), otp.ExpiresAt, time.Second)

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+919876543210", sms.sent[0].phone)
	assert.Equal(t, result.Code, sms.sent[0].code)
}

func TestIssueReusesPendingOTP(t *testing.T) {
	svc, store, sms := newTestOTPService()

	first := svc.Issue("9876543210", models.PurposeTestRide, false)
	require.True(t, first.Success)

	second := svc.Issue("9876543210", models.PurposeTestRide, false)
	require.True(t, second.Success)
	assert.True(t, second.ExistingOTP)
	assert.False(t, second.Resent)
	assert.LessOrEqual(t, second.ExpiresIn, 300)
	assert.Greater(t, second.ExpiresIn, 0)
	assert.Equal(t, first.Code, second.Code)

	// No new record, no second SMS.
	count, err := store.CountOTPsCreatedSince("+919876543210", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, sms.sent, 1)
}

func TestIssueForceNewResendsSameCode(t *testing.T) {
	svc, store, sms := newTestOTPService()

	first := svc.Issue("9876543210", models.PurposeTestRide, false)
	require.True(t, first.Success)

	resent := svc.Issue("9876543210", models.PurposeTestRide, true)
	require.True(t, resent.Success)
	assert.True(t, resent.ExistingOTP)
	assert.True(t, resent.Resent)
	assert.Equal(t, first.Code, resent.Code)

	require.Len(t, sms.sent, 2)
	assert.Equal(t, sms.sent[0].code, sms.sent[1].code)

	count, err := store.CountOTPsCreatedSince("+919876543210", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "forceNew must not create a new record")
}

func TestIssueDifferentPurposesAreIndependent(t *testing.T) {
	svc, _, _ := newTestOTPService()

	contact := svc.Issue("9876543210", models.PurposeContactForm, false)
	ride := svc.Issue("9876543210", models.PurposeTestRide, false)

	require.True(t, contact.Success)
	require.True(t, ride.Success)
	assert.False(t, ride.ExistingOTP, "purposes scope pending OTPs separately")
}

func TestIssueInvalidPurpose(t *testing.T) {
	svc, _, _ := newTestOTPService()

	result := svc.Issue("9876543210", "password_reset", false)
	assert.False(t, result.Success)
	assert.Equal(t, "invalid purpose", result.Error)
}

func TestIssueSMSFailureKeepsRecordValid(t *testing.T) {
	svc, _, sms := newTestOTPService()
	sms.fail = true

	issued := svc.Issue("9876543210", models.PurposeBookingForm, false)
	require.True(t, issued.Success, "delivery failure must not fail issuance")

	verified := svc.Verify("9876543210", issued.Code, models.PurposeBookingForm)
	assert.True(t, verified.Success)
}

func TestVerifyHappyPath(t *testing.T) {
	svc, _, _ := newTestOTPService()

	issued := svc.Issue("9876543210", models.PurposeContactForm, false)
	require.True(t, issued.Success)

	result := svc.Verify("9876543210", issued.Code, models.PurposeContactForm)
	require.True(t, result.Success)
	assert.True(t, result.Verified)

	assert.True(t, svc.IsVerified("9876543210", models.PurposeContactForm))
	assert.False(t, svc.IsVerified("9876543210", models.PurposeTestRide))
}

func TestVerifyWrongCodeIncrementsAttempts(t *testing.T) {
	svc, store, _ := newTestOTPService()

	issued := svc.Issue("9876543210", models.PurposeContactForm, false)
	require.True(t, issued.Success)

	result := svc.Verify("9876543210", "000000", models.PurposeContactForm)
	assert.False(t, result.Success)
	assert.True(t, result.InvalidOTP)

	otp, err := store.GetLatestPendingOTP("+919876543210", models.PurposeContactForm)
	require.NoError(t, err)
	require.NotNil(t, otp)
	assert.Equal(t, 1, otp.Attempts)
}

// The documented boundary: three wrong attempts leave attempts at the cap,
// and a correct code still succeeds because the cutoff is strictly greater
// than maxAttempts.
func TestVerifyAttemptBudgetBoundary(t *testing.T) {
	svc, store, _ := newTestOTPService()

	issued := svc.Issue("9876543210", models.PurposeContactForm, false)
	require.True(t, issued.Success)
	require.NotEqual(t, "000000", issued.Code)

	for i := 0; i < 3; i++ {
		result := svc.Verify("9876543210", "000000", models.PurposeContactForm)
		assert.True(t, result.InvalidOTP)
	}

	otp, err := store.GetLatestPendingOTP("+919876543210", models.PurposeContactForm)
	require.NoError(t, err)
	require.NotNil(t, otp)
	assert.Equal(t, 3, otp.Attempts)

	// A fourth wrong attempt must not push the counter past the ceiling.
	svc.Verify("9876543210", "000000", models.PurposeContactForm)
	otp, err = store.GetLatestPendingOTP("+919876543210", models.PurposeContactForm)
	require.NoError(t, err)
	require.NotNil(t, otp)
	assert.Equal(t, 3, otp.Attempts)

	// Correct code on the next attempt still succeeds (3 is not > 3).
	result := svc.Verify("9876543210", issued.Code, models.PurposeContactForm)
	assert.True(t, result.Success)

	// Once verified, nothing pending remains: a repeat verify is a generic
	// invalid-OTP answer.
	repeat := svc.Verify("9876543210", issued.Code, models.PurposeContactForm)
	assert.False(t, repeat.Success)
	assert.True(t, repeat.InvalidOTP)
}

func TestVerifyMaxAttemptsExceeded(t *testing.T) {
	svc, store, _ := newTestOTPService()

	// Seed a record whose counter already passed the cap (e.g. legacy rows
	// written before the conditional-update guard existed).
	_, err := store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "123456",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
		Attempts:    4,
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	result := svc.Verify("9876543210", "123456", models.PurposeContactForm)
	assert.False(t, result.Success)
	assert.True(t, result.MaxAttemptsExceeded)
}

func TestVerifyExpiredOTP(t *testing.T) {
	svc, store, _ := newTestOTPService()

	_, err := store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "123456",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   time.Now().Add(-time.Minute),
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	// Even the correct code is a generic invalid-OTP answer after expiry.
	result := svc.Verify("9876543210", "123456", models.PurposeContactForm)
	assert.False(t, result.Success)
	assert.True(t, result.InvalidOTP)
	assert.False(t, result.MaxAttemptsExceeded)
}

func TestVerifyNoPendingOTPIsIndistinguishable(t *testing.T) {
	svc, _, _ := newTestOTPService()

	// No OTP was ever issued for this phone; the answer must look exactly
	// like a wrong code.
	result := svc.Verify("9876543210", "000000", models.PurposeContactForm)
	assert.False(t, result.Success)
	assert.True(t, result.InvalidOTP)
	assert.Equal(t, "invalid OTP", result.Error)
}

func TestVerifyDeletesSiblings(t *testing.T) {
	svc, store, _ := newTestOTPService()

	// Two pending records for the same lineage (the concurrent-issuance
	// window allows this).
	_, err := store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "111111",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
		MaxAttempts: 3,
	})
	require.NoError(t, err)
	_, err = store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "222222",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	result := svc.Verify("9876543210", "222222", models.PurposeContactForm)
	require.True(t, result.Success)

	// The older sibling is gone: its code no longer verifies.
	stale := svc.Verify("9876543210", "111111", models.PurposeContactForm)
	assert.True(t, stale.InvalidOTP)
}

func TestRateLimit(t *testing.T) {
	svc, store, _ := newTestOTPService()

	// 15 issuance events inside the window (already expired, so they don't
	// short-circuit as an existing pending OTP).
	for i := 0; i < 15; i++ {
		_, err := store.CreateOTP(&models.OTPVerification{
			Phone:       "+919876543210",
			Code:        "111111",
			Purpose:     models.PurposeContactForm,
			ExpiresAt:   time.Now().Add(-time.Minute),
			MaxAttempts: 3,
		})
		require.NoError(t, err)
	}

	result := svc.Issue("9876543210", models.PurposeContactForm, false)
	assert.False(t, result.Success)
	assert.True(t, result.RateLimited)

	// The window is per phone, not per purpose.
	result = svc.Issue("9876543210", models.PurposeBookingForm, false)
	assert.True(t, result.RateLimited)

	// Other phones are unaffected.
	result = svc.Issue("9123456780", models.PurposeContactForm, false)
	assert.True(t, result.Success)
}

func TestRateLimitWindowAgesOut(t *testing.T) {
	svc, store, _ := newTestOTPService()

	for i := 0; i < 15; i++ {
		_, err := store.CreateOTP(&models.OTPVerification{
			Model:       gorm.Model{CreatedAt: time.Now().Add(-2 * time.Hour)},
			Phone:       "+919876543210",
			Code:        "111111",
			Purpose:     models.PurposeContactForm,
			ExpiresAt:   time.Now().Add(-2 * time.Hour),
			MaxAttempts: 3,
		})
		require.NoError(t, err)
	}

	result := svc.Issue("9876543210", models.PurposeContactForm, false)
	assert.True(t, result.Success, "rows outside the trailing hour must not count")
}

func TestIsVerifiedWindowExpires(t *testing.T) {
	svc, store, _ := newTestOTPService()

	old := time.Now().Add(-2 * time.Hour)
	otp, err := store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "123456",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   old.Add(5 * time.Minute),
		MaxAttempts: 3,
	})
	require.NoError(t, err)
	ok, err := store.MarkOTPVerified(otp.ID, old)
	require.NoError(t, err)
	require.True(t, ok)

	assert.False(t, svc.IsVerified("9876543210", models.PurposeContactForm),
		"verification older than an hour no longer gates submissions")
}

func TestCleanupExpired(t *testing.T) {
	svc, store, _ := newTestOTPService()

	// Expired two hours ago: eligible.
	_, err := store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "111111",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   time.Now().Add(-2 * time.Hour),
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	// Expired 30 minutes ago: inside the retention hour, kept.
	_, err = store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "222222",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   time.Now().Add(-30 * time.Minute),
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	// Still live: kept.
	_, err = store.CreateOTP(&models.OTPVerification{
		Phone:       "+919876543210",
		Code:        "333333",
		Purpose:     models.PurposeContactForm,
		ExpiresAt:   time.Now().Add(5 * time.Minute),
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	deleted, err := svc.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := store.CountOTPsCreatedSince("+919876543210", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)
}

func TestDevModeOffHidesCode(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewOTPService(store, &fakeSMS{}, &config.Config{DevMode: false, RateLimitFailOpen: true})

	result := svc.Issue("9876543210", models.PurposeContactForm, false)
	require.True(t, result.Success)
	assert.Empty(t, result.Code, "plaintext code must never leak outside dev mode")
}

// End-to-end walk of the documented scenario for phone 9876543210.
func TestContactFormScenario(t *testing.T) {
	svc, store, _ := newTestOTPService()

	issued := svc.Issue("9876543210", models.PurposeContactForm, false)
	require.True(t, issued.Success)
	assert.Equal(t, 300, issued.ExpiresIn)
	require.Len(t, issued.Code, 6)
	require.NotEqual(t, "000000", issued.Code)

	for i := 0; i < 3; i++ {
		r := svc.Verify("9876543210", "000000", models.PurposeContactForm)
		assert.True(t, r.InvalidOTP)
	}
	otp, err := store.GetLatestPendingOTP("+919876543210", models.PurposeContactForm)
	require.NoError(t, err)
	require.NotNil(t, otp)
	assert.Equal(t, 3, otp.Attempts)

	fourth := svc.Verify("9876543210", issued.Code, models.PurposeContactForm)
	assert.True(t, fourth.Success, "attempts == maxAttempts still verifies")

	fifth := svc.Verify("9876543210", issued.Code, models.PurposeContactForm)
	assert.True(t, fifth.InvalidOTP, "no pending record remains after success")
}
