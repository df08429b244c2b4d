package domain

import "time"

// User is an authenticated account. CurrentOrganizationID mirrors the
// profile row in the backend; the session token embeds the same value.
type User struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	CurrentOrganizationID string    `json:"current_organization_id"`
	CreatedAt             time.Time `json:"created_at"`
}

// Credential is the stored password material for a user.
type Credential struct {
	UserID         string     `json:"user_id"`
	PasswordHash   string     `json:"password_hash"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
}

// RefreshToken is a stored (hashed) refresh token.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is what login/refresh/switch return to the SPA.
type Session struct {
	AccessToken    string         `json:"access_token"`
	RefreshToken   string         `json:"refresh_token"`
	ExpiresIn      int            `json:"expires_in"`
	User           *User          `json:"user"`
	OrganizationID string         `json:"organization_id"`
	Organizations  []Organization `json:"organizations"`
}

// QuickAddIntent is a short-lived cross-view handoff: which creation
// affordance the destination view should open, and for which org.
// Carried in memory, never as a URL parameter.
type QuickAddIntent struct {
	Kind           string    `json:"kind"` // person | interaction | deal | campaign | template
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// QuickAddKinds lists the accepted intent kinds.
var QuickAddKinds = []string{"person", "interaction", "deal", "campaign", "template"}
