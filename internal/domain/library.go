package domain

import "time"

// Product is a library content entity, linked to campaigns, deals and
// interactions by id.
type Product struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	IsArchived     bool      `json:"is_archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Template is reusable outreach content.
type Template struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Channel        string    `json:"channel"` // email | linkedin | sms
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Tags           []string  `json:"tags,omitempty"`
	IsArchived     bool      `json:"is_archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Template import commit modes.
const (
	ImportModePartial  = "partial"
	ImportModeAbortAll = "abort_all"
)

// Proposed actions in an import preview.
const (
	ImportActionCreate        = "create"
	ImportActionWouldConflict = "would_conflict"
)

// TemplateImportRow is one parsed document from a Markdown batch.
type TemplateImportRow struct {
	Index    int      `json:"index"`
	Name     string   `json:"name"`
	Channel  string   `json:"channel"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags,omitempty"`
	Action   string   `json:"action"`
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages,omitempty"`
}

// TemplateImportPreview is the dry-run result: proposed per-row actions
// and validation messages, computed without mutating storage.
type TemplateImportPreview struct {
	Rows    []TemplateImportRow `json:"rows"`
	Valid   int                 `json:"valid"`
	Invalid int                 `json:"invalid"`
}

// TemplateImportResult is the commit outcome returned by the backend.
type TemplateImportResult struct {
	Applied bool                `json:"applied"`
	Created int                 `json:"created"`
	Failed  int                 `json:"failed"`
	Rows    []TemplateImportRow `json:"rows"`
}
