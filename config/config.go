package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port    string
	AppName string

	// Database
	DBUser string
	DBPass string
	DBName string
	DBHost string
	DBPort string

	// Twilio SMS
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// SMTP for ops notifications
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	OpsEmail     string

	// Salesforce Web-to-Lead
	SalesforceOrgID string
	SalesforceURL   string

	// Payment webhook
	PaymentWebhookSecret string

	// Admin panel
	AdminUser      string
	AdminPassword  string
	AdminJWTSecret string

	// OTP behaviour flags
	DevMode               bool // echo plaintext OTP codes in API responses
	RateLimitFailOpen     bool // allow issuance when the rate-limit query fails
	StrictPhoneValidation bool // reject unrecognised phone formats instead of last-10-digit fallback
}

// Load reads configuration from environment variables (with .env support for
// local development) and validates the values the service cannot run without.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		AppName: getEnv("APP_NAME", "VoltRide Backend"),

		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "voltride"),
		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		OpsEmail:     os.Getenv("OPS_EMAIL"),

		SalesforceOrgID: os.Getenv("SALESFORCE_ORG_ID"),
		SalesforceURL:   getEnv("SALESFORCE_URL", "https://webto.salesforce.com/servlet/servlet.WebToLead"),

		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		AdminUser:      getEnv("ADMIN_USER", "admin"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),

		DevMode:               getEnvBool("DEV_MODE", false),
		RateLimitFailOpen:     getEnvBool("RATE_LIMIT_FAIL_OPEN", true),
		StrictPhoneValidation: getEnvBool("STRICT_PHONE_VALIDATION", false),
	}

	// Missing SMS credentials are a hard failure: a broken OTP flow blocks every
	// form on the site. DevMode runs without Twilio and echoes codes instead.
	if !cfg.DevMode {
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
			return nil, fmt.Errorf("missing Twilio credentials (TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER)")
		}
	}

	if cfg.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD is required")
	}

	if cfg.SalesforceOrgID == "" {
		log.Println("Warning: SALESFORCE_ORG_ID not set - CRM submissions disabled")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
