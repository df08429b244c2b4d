package domain

import "time"

// Organization is the tenant boundary. Every entity row and every cache
// key is scoped to exactly one organization.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// OrganizationMember joins a user to an organization with a role.
// Display fields come from the joined profile row.
type OrganizationMember struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationRevoked  = "revoked"
	InvitationAccepted = "accepted"
)

// OrganizationInvitation is a pending invite to join an organization.
// The token is a random UUID; validation and acceptance are delegated
// to backend RPCs, never decided locally.
type OrganizationInvitation struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Token          string    `json:"token"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// InvitationCheck is the backend's verdict on an invitation token.
type InvitationCheck struct {
	Valid            bool   `json:"valid"`
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	Reason           string `json:"reason,omitempty"`
}
