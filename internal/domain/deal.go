package domain

import "time"

// Pipeline stages, in board order. The Kanban columns follow this slice.
const (
	StageProspect    = "prospect"
	StageInterested  = "interested"
	StageProposal    = "proposal"
	StageCommitted   = "committed"
	StageWon         = "won"
	StageLost        = "lost"
)

// PipelineStages is the ordered set of deal stages.
var PipelineStages = []string{
	StageProspect,
	StageInterested,
	StageProposal,
	StageCommitted,
	StageWon,
	StageLost,
}

// ValidStage reports whether s is a known pipeline stage.
func ValidStage(s string) bool {
	for _, known := range PipelineStages {
		if s == known {
			return true
		}
	}
	return false
}

// Deal is a pipeline entry linking a person to a product, optionally
// sourced from a campaign.
type Deal struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	PersonID       string     `json:"person_id"`
	ProductID      string     `json:"product_id"`
	CampaignID     string     `json:"campaign_id,omitempty"`
	Stage          string     `json:"stage"`
	Value          float64    `json:"value"`
	Currency       string     `json:"currency"`
	NextStepAt     *time.Time `json:"next_step_at,omitempty"`
	Notes          string     `json:"notes"`
	IsArchived     bool       `json:"is_archived"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DealListFilter narrows a deals list query. Params feed the cache key,
// so two differently-filtered lists are cached independently.
type DealListFilter struct {
	Stage     string
	PersonID  string
	ProductID string
	Archived  bool
}
