package domain

import "time"

// Campaign types drive the default lead-conversion mode.
const (
	CampaignOutreach = "outreach"
	CampaignContent  = "content"
)

// Campaign groups people, products and templates for a push.
type Campaign struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	IsArchived     bool      `json:"is_archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CampaignMember links an existing person to a campaign.
type CampaignMember struct {
	CampaignID string    `json:"campaign_id"`
	PersonID   string    `json:"person_id"`
	PersonName string    `json:"person_name"`
	AddedAt    time.Time `json:"added_at"`
}

// CampaignLead is a prospective contact attached to a campaign,
// possibly not yet a Person record.
type CampaignLead struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	CampaignID     string    `json:"campaign_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Status         string    `json:"status"` // new | converted
	CreatedAt      time.Time `json:"created_at"`
}

// Conversion modes. Derived from context, overridable per call.
const (
	ConvertContactDeal = "contact_deal"
	ConvertContactOnly = "contact_only"
	ConvertDealOnly    = "deal_only"
)

// Bulk duplicate strategies.
const (
	DuplicateSkip         = "skip"
	DuplicateCreateAnyway = "create_anyway"
)

// ConvertLeadRequest is the structured argument for the
// convert_campaign_lead backend procedure.
type ConvertLeadRequest struct {
	OrganizationID string  `json:"organization_id"`
	CampaignID     string  `json:"campaign_id"`
	LeadID         string  `json:"lead_id,omitempty"`
	PersonID       string  `json:"person_id,omitempty"` // set when converting an existing member
	Mode           string  `json:"mode"`
	ProductID      string  `json:"product_id,omitempty"`
	DealValue      float64 `json:"deal_value,omitempty"`
	DealCurrency   string  `json:"deal_currency,omitempty"`
	LogInteraction bool    `json:"log_interaction"`
}

// ConvertLeadResult is the structured result of a single conversion.
type ConvertLeadResult struct {
	PersonID           string `json:"person_id"`
	DealID             string `json:"deal_id,omitempty"`
	InteractionID      string `json:"interaction_id,omitempty"`
	PersonCreated      bool   `json:"person_created"`
	DealCreated        bool   `json:"deal_created"`
	DuplicateOpenDeal  string `json:"duplicate_open_deal,omitempty"`
}

// BulkConvertRequest converts a batch of leads under one duplicate strategy.
type BulkConvertRequest struct {
	OrganizationID    string   `json:"organization_id"`
	CampaignID        string   `json:"campaign_id"`
	LeadIDs           []string `json:"lead_ids"`
	Mode              string   `json:"mode"`
	ProductID         string   `json:"product_id,omitempty"`
	DuplicateStrategy string   `json:"duplicate_strategy"`
}

// BulkConvertRowResult is the per-row outcome of a bulk conversion.
type BulkConvertRowResult struct {
	LeadID   string `json:"lead_id"`
	Status   string `json:"status"` // converted | skipped_duplicate | error
	PersonID string `json:"person_id,omitempty"`
	DealID   string `json:"deal_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// BulkConvertResult summarizes a bulk conversion.
type BulkConvertResult struct {
	Converted int                    `json:"converted"`
	Skipped   int                    `json:"skipped"`
	Errors    int                    `json:"errors"`
	Rows      []BulkConvertRowResult `json:"rows"`
}
