package domain

import "time"

// Dashboard widgets are pure reads against backend aggregate RPCs.
// All ranking and grouping happens server-side; the client only formats.

// FollowUp is a due next step, from either a person or a deal.
type FollowUp struct {
	PersonID   string    `json:"person_id"`
	PersonName string    `json:"person_name"`
	DealID     string    `json:"deal_id,omitempty"`
	Summary    string    `json:"summary"`
	DueAt      time.Time `json:"due_at"`
}

// StaleDeal is an open deal untouched for longer than the caller's
// staleness threshold.
type StaleDeal struct {
	DealID     string    `json:"deal_id"`
	PersonName string    `json:"person_name"`
	Stage      string    `json:"stage"`
	Value      float64   `json:"value"`
	DaysIdle   int       `json:"days_idle"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PipelineStageCount is one column of the pipeline snapshot.
type PipelineStageCount struct {
	Stage      string  `json:"stage"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
}

// RankedItem is a top-products / top-campaigns row.
type RankedItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"total_value"`
}

// DashboardOverview bundles all widgets for the combined endpoint.
type DashboardOverview struct {
	FollowUps    []FollowUp           `json:"follow_ups"`
	StaleDeals   []StaleDeal          `json:"stale_deals"`
	Pipeline     []PipelineStageCount `json:"pipeline"`
	TopProducts  []RankedItem         `json:"top_products"`
	TopCampaigns []RankedItem         `json:"top_campaigns"`
}
