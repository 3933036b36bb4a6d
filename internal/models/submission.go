package models

import (
	"time"
)

// FormSubmission is the dedup ledger for outbound actions (CRM submission,
// notification email). One row per (reference, category, sub-category); a
// repeated send attempt finds the row and skips the action. Re-recording an
// existing key only refreshes UpdatedAt.
type FormSubmission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReferenceID string    `gorm:"size:64;not null;uniqueIndex:idx_submission_key" json:"reference_id"`
	Category    string    `gorm:"size:32;not null;uniqueIndex:idx_submission_key" json:"category"`
	SubCategory string    `gorm:"size:32;not null;uniqueIndex:idx_submission_key" json:"sub_category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (FormSubmission) TableName() string { return "form_submissions" }

// Ledger categories
const (
	SubmissionCategorySalesforce = "salesforce"
	SubmissionCategoryEmail      = "email"
)
