package models

import (
	"gorm.io/gorm"
)

// Lead is a captured enquiry from one of the site forms (contact or test
// ride). Phone is stored normalized; the form handlers only accept leads for
// phones with a recent verified OTP.
type Lead struct {
	gorm.Model
	LeadType string `gorm:"size:32;not null;index" json:"lead_type"`
	Name     string `gorm:"size:120;not null" json:"name"`
	Phone    string `gorm:"size:16;not null;index" json:"phone"`
	Email    string `gorm:"size:120" json:"email"`
	Pincode  string `gorm:"size:10" json:"pincode"`
	City     string `gorm:"size:80" json:"city"`

	// Test-ride specifics
	ScooterModel string `gorm:"size:40" json:"scooter_model,omitempty"`

	// Contact-form specifics
	Message string `gorm:"size:2000" json:"message,omitempty"`

	// CRM tracking
	CRMSubmitted bool `gorm:"default:false" json:"crm_submitted"`
}

// Lead types
const (
	LeadTypeContact  = "contact"
	LeadTypeTestRide = "test_ride"
)
