package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// OrganizationsStore implementation — tenants, members, invitations
// ============================================================

// orgMembershipRow joins a membership row to its organization.
type orgMembershipRow struct {
	Role         string              `json:"role"`
	Organization domain.Organization `json:"organization"`
}

func (c *Client) ListOrganizationsForUser(ctx context.Context, userID string) ([]domain.Organization, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOrganizationsForUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf(
		"organization_members?user_id=eq.%s&select=role,organization:organizations(*)&order=joined_at.asc",
		userID,
	)
	rows, err := fetchRows[orgMembershipRow](ctx, c, path)
	if err != nil {
		return nil, err
	}

	orgs := make([]domain.Organization, 0, len(rows))
	for _, r := range rows {
		orgs = append(orgs, r.Organization)
	}
	return orgs, nil
}

func (c *Client) GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetOrganization")
	defer span.End()

	path := fmt.Sprintf("organizations?id=eq.%s&limit=1", orgID)
	org, err := fetchOne[domain.Organization](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, &domain.ErrNotFound{Resource: "organization", ID: orgID}
	}
	return org, nil
}

// CreateOrganization inserts the tenant row and the owner membership.
func (c *Client) CreateOrganization(ctx context.Context, org *domain.Organization) (*domain.Organization, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateOrganization")
	defer span.End()

	now := time.Now().UTC().Format(time.RFC3339)
	orgData := map[string]any{
		"id":         uuid.New().String(),
		"name":       org.Name,
		"slug":       org.Slug,
		"owner_id":   org.OwnerID,
		"created_at": now,
		"updated_at": now,
	}

	body, err := c.doPost(ctx, "organizations", orgData)
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	created, err := decodeInserted[domain.Organization]("organizations", body)
	if err != nil {
		return nil, err
	}

	memberData := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": created.ID,
		"user_id":         org.OwnerID,
		"role":            domain.RoleOwner,
		"joined_at":       now,
	}
	if _, err := c.doPost(ctx, "organization_members", memberData); err != nil {
		return nil, fmt.Errorf("create owner membership: %w", err)
	}

	return created, nil
}

func (c *Client) UpdateOrganization(ctx context.Context, orgID string, updates map[string]any) (*domain.Organization, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateOrganization")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("organizations?id=eq.%s", orgID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetOrganization(ctx, orgID)
}

// DeleteOrganization removes the tenant row. Entity rows cascade in
// the backend schema.
func (c *Client) DeleteOrganization(ctx context.Context, orgID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteOrganization")
	defer span.End()

	path := fmt.Sprintf("organizations?id=eq.%s", orgID)
	return c.doDelete(ctx, path)
}

// --- Members ---

// memberRow joins a membership row to its profile for display fields.
type memberRow struct {
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"`
	JoinedAt       time.Time `json:"joined_at"`
	Profile        struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"profile"`
}

func (r memberRow) toDomain() domain.OrganizationMember {
	return domain.OrganizationMember{
		OrganizationID: r.OrganizationID,
		UserID:         r.UserID,
		Role:           r.Role,
		Name:           r.Profile.Name,
		Email:          r.Profile.Email,
		JoinedAt:       r.JoinedAt,
	}
}

func (c *Client) ListMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMembers")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	path := fmt.Sprintf(
		"organization_members?organization_id=eq.%s&select=organization_id,user_id,role,joined_at,profile:profiles(name,email)&order=joined_at.asc",
		orgID,
	)
	rows, err := fetchRows[memberRow](ctx, c, path)
	if err != nil {
		return nil, err
	}

	members := make([]domain.OrganizationMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toDomain())
	}
	return members, nil
}

func (c *Client) GetMember(ctx context.Context, orgID, userID string) (*domain.OrganizationMember, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetMember")
	defer span.End()

	path := fmt.Sprintf(
		"organization_members?organization_id=eq.%s&user_id=eq.%s&select=organization_id,user_id,role,joined_at,profile:profiles(name,email)&limit=1",
		orgID, userID,
	)
	row, err := fetchOne[memberRow](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	m := row.toDomain()
	return &m, nil
}

func (c *Client) AddMember(ctx context.Context, orgID, userID, role string) error {
	ctx, span := tracer.Start(ctx, "Supabase.AddMember")
	defer span.End()

	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": orgID,
		"user_id":         userID,
		"role":            role,
		"joined_at":       time.Now().UTC().Format(time.RFC3339),
	}
	_, err := c.doPost(ctx, "organization_members", data)
	return err
}

func (c *Client) UpdateMemberRole(ctx context.Context, orgID, userID, role string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateMemberRole")
	defer span.End()

	path := fmt.Sprintf("organization_members?organization_id=eq.%s&user_id=eq.%s", orgID, userID)
	return c.doPatch(ctx, path, map[string]any{"role": role})
}

func (c *Client) RemoveMember(ctx context.Context, orgID, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RemoveMember")
	defer span.End()

	path := fmt.Sprintf("organization_members?organization_id=eq.%s&user_id=eq.%s", orgID, userID)
	return c.doDelete(ctx, path)
}

// --- Invitations ---

func (c *Client) ListInvitations(ctx context.Context, orgID string) ([]domain.OrganizationInvitation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvitations")
	defer span.End()

	path := fmt.Sprintf("organization_invitations?organization_id=eq.%s&order=created_at.desc", orgID)
	rows, err := fetchRows[domain.OrganizationInvitation](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.OrganizationInvitation{}
	}
	return rows, nil
}

func (c *Client) CreateInvitation(ctx context.Context, inv *domain.OrganizationInvitation) (*domain.OrganizationInvitation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInvitation")
	defer span.End()

	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": inv.OrganizationID,
		"email":           inv.Email,
		"role":            inv.Role,
		"token":           inv.Token,
		"status":          domain.InvitationPending,
		"expires_at":      inv.ExpiresAt.UTC().Format(time.RFC3339),
		"created_at":      time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "organization_invitations", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.OrganizationInvitation]("organization_invitations", body)
}

func (c *Client) RevokeInvitation(ctx context.Context, orgID, invitationID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeInvitation")
	defer span.End()

	path := fmt.Sprintf("organization_invitations?id=eq.%s&organization_id=eq.%s&status=eq.%s",
		invitationID, orgID, domain.InvitationPending)
	return c.doPatch(ctx, path, map[string]any{"status": domain.InvitationRevoked})
}

// ValidateInvitation asks the backend for a verdict on the token.
// Expiry, revocation and prior acceptance are decided there.
func (c *Client) ValidateInvitation(ctx context.Context, token string) (*domain.InvitationCheck, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ValidateInvitation")
	defer span.End()

	body, err := c.doRPC(ctx, "validate_invitation", map[string]any{"invitation_token": token})
	if err != nil {
		return nil, err
	}

	var check domain.InvitationCheck
	if err := json.Unmarshal(body, &check); err != nil {
		return nil, fmt.Errorf("decode validate_invitation: %w", err)
	}
	return &check, nil
}

// AcceptInvitation consumes the token and creates the membership in
// one backend transaction.
func (c *Client) AcceptInvitation(ctx context.Context, token, userID string) (*domain.InvitationCheck, error) {
	ctx, span := tracer.Start(ctx, "Supabase.AcceptInvitation")
	defer span.End()

	body, err := c.doRPC(ctx, "accept_invitation", map[string]any{
		"invitation_token": token,
		"accepting_user":   userID,
	})
	if err != nil {
		return nil, err
	}

	var check domain.InvitationCheck
	if err := json.Unmarshal(body, &check); err != nil {
		return nil, fmt.Errorf("decode accept_invitation: %w", err)
	}
	return &check, nil
}
