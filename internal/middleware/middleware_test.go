package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmotors/voltride-backend/config"
)

func TestValidatePaymentSignature(t *testing.T) {
	const secret = "whsec_test"
	body := `{"transaction_id":"txn-1","status":"success"}`

	app := fiber.New()
	app.Post("/webhook/payment", ValidatePaymentSignature(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	sign := func(payload string) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(payload))
		return hex.EncodeToString(mac.Sum(nil))
	}

	t.Run("valid signature passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/payment", strings.NewReader(body))
		req.Header.Set("X-Payment-Signature", sign(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/payment", strings.NewReader(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/payment", strings.NewReader(`{"transaction_id":"txn-1","status":"failed"}`))
		req.Header.Set("X-Payment-Signature", sign(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAdminAuth(t *testing.T) {
	cfg := &config.Config{AdminJWTSecret: "test-secret"}

	app := fiber.New()
	app.Get("/admin/overview", AdminAuth(cfg), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": c.Locals("admin_user")})
	})

	t.Run("valid token passes and exposes the user", func(t *testing.T) {
		token, err := GenerateAdminJWT(cfg, "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with another secret rejected", func(t *testing.T) {
		other := &config.Config{AdminJWTSecret: "other-secret"}
		token, err := GenerateAdminJWT(other, "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
