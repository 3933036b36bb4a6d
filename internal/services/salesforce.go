package services

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/voltmotors/voltride-backend/config"
	"github.com/voltmotors/voltride-backend/internal/models"
	"github.com/voltmotors/voltride-backend/internal/storage"
)

// SalesforceService pushes captured leads to Salesforce via the Web-to-Lead
// form endpoint. Every push is guarded by the submission dedup ledger so a
// retried form handler or replayed webhook can't create duplicate CRM leads.
type SalesforceService struct {
	store  storage.Store
	client *resty.Client
	orgID  string
}

func NewSalesforceService(store storage.Store, cfg *config.Config) *SalesforceService {
	client := resty.New().
		SetBaseURL(cfg.SalesforceURL).
		SetTimeout(10 * time.Second)

	return &SalesforceService{
		store:  store,
		client: client,
		orgID:  cfg.SalesforceOrgID,
	}
}

// Enabled reports whether CRM submission is configured.
func (s *SalesforceService) Enabled() bool {
	return s.orgID != ""
}

// SubmitLead sends one lead to Salesforce, at most once per (lead, form type).
func (s *SalesforceService) SubmitLead(lead *models.Lead) error {
	if !s.Enabled() {
		return nil
	}

	ref := "lead-" + strconv.FormatUint(uint64(lead.ID), 10)

	already, err := s.store.HasSubmission(ref, models.SubmissionCategorySalesforce, lead.LeadType)
	if err != nil {
		return fmt.Errorf("dedup check failed: %w", err)
	}
	if already {
		log.Printf("Lead %s already submitted to Salesforce, skipping", ref)
		return nil
	}

	form := map[string]string{
		"oid":         s.orgID,
		"last_name":   lead.Name,
		"email":       lead.Email,
		"phone":       lead.Phone,
		"zip":         lead.Pincode,
		"city":        lead.City,
		"lead_source": "Website - " + lead.LeadType,
		"description": lead.Message,
	}
	if lead.ScooterModel != "" {
		form["00N_scooter_model"] = lead.ScooterModel
	}

	resp, err := s.client.R().
		SetFormData(form).
		Post("")
	if err != nil {
		return fmt.Errorf("web-to-lead request failed: %w", err)
	}
	// Web-to-Lead answers 200 even for bad field data; anything else means the
	// request itself was rejected.
	if resp.StatusCode() != 200 {
		return fmt.Errorf("web-to-lead returned status %d", resp.StatusCode())
	}

	if err := s.store.RecordSubmission(ref, models.SubmissionCategorySalesforce, lead.LeadType); err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	if err := s.store.MarkLeadCRMSubmitted(lead.ID); err != nil {
		log.Printf("Failed to mark lead %d as CRM-submitted: %v", lead.ID, err)
	}

	log.Printf("✅ Lead %s submitted to Salesforce", ref)
	return nil
}
