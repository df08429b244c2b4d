package domain

import "time"

// Person lifecycle stages. Lifecycle is categorical status, distinct
// from the archive flag.
const (
	LifecycleNew      = "new"
	LifecycleEngaged  = "engaged"
	LifecycleCustomer = "customer"
	LifecycleDormant  = "dormant"
)

// KnownLifecycles lists the accepted lifecycle values.
var KnownLifecycles = []string{LifecycleNew, LifecycleEngaged, LifecycleCustomer, LifecycleDormant}

// Person is a contact record.
type Person struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Lifecycle      string    `json:"lifecycle"`
	Notes          string    `json:"notes"`
	IsArchived     bool      `json:"is_archived"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PersonListFilter narrows a people list query.
type PersonListFilter struct {
	Lifecycle string
	Archived  bool
	Search    string
}

// ImportRowError records a per-row failure during a CSV import,
// preserving the original row index.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary is the best-effort outcome of a CSV person import.
type ImportSummary struct {
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Skipped   int              `json:"skipped"`
	Errors    int              `json:"errors"`
	RowErrors []ImportRowError `json:"row_errors,omitempty"`
}
