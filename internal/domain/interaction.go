package domain

import "time"

// Interaction records a touchpoint with a person. The deal, campaign,
// template and product links are all optional.
type Interaction struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	PersonID       string     `json:"person_id"`
	DealID         string     `json:"deal_id,omitempty"`
	CampaignID     string     `json:"campaign_id,omitempty"`
	TemplateID     string     `json:"template_id,omitempty"`
	ProductID      string     `json:"product_id,omitempty"`
	Type           string     `json:"type"` // call | email | meeting | note
	Summary        string     `json:"summary"`
	OccurredAt     time.Time  `json:"occurred_at"`
	NextStepAt     *time.Time `json:"next_step_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// InteractionListFilter narrows an interactions list query.
type InteractionListFilter struct {
	PersonID   string
	DealID     string
	CampaignID string
}
