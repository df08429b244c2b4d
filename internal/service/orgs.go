package service

import (
	"context"
	"strings"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var orgsTracer = otel.Tracer("service/orgs")

// OrganizationsService manages tenants, membership and invitations.
// Settings mutations are owner-gated; invitation verdicts come from
// backend RPCs.
type OrganizationsService struct {
	store         port.OrganizationsStore
	cache         port.Cache[any]
	metrics       *observability.Metrics
	logger        *zap.Logger
	invitationTTL time.Duration
}

// NewOrganizationsService creates a new organizations service.
func NewOrganizationsService(store port.OrganizationsStore, c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger, invitationTTL time.Duration) *OrganizationsService {
	return &OrganizationsService{store: store, cache: c, metrics: metrics, logger: logger, invitationTTL: invitationTTL}
}

func (s *OrganizationsService) ListForUser(ctx context.Context, userID string) ([]domain.Organization, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.ListForUser")
	defer span.End()

	return s.store.ListOrganizationsForUser(ctx, userID)
}

func (s *OrganizationsService) Get(ctx context.Context, orgID, actorID string) (*domain.Organization, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.Get")
	defer span.End()

	if err := s.requireMember(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	return s.store.GetOrganization(ctx, orgID)
}

func (s *OrganizationsService) Create(ctx context.Context, name, ownerID string) (*domain.Organization, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.Create")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}

	org := &domain.Organization{
		Name:    name,
		Slug:    slugify(name),
		OwnerID: ownerID,
	}
	return s.store.CreateOrganization(ctx, org)
}

func (s *OrganizationsService) Update(ctx context.Context, orgID, actorID string, updates map[string]any) (*domain.Organization, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.Update")
	defer span.End()

	if err := s.requireOwner(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	if name, ok := updates["name"].(string); ok {
		if strings.TrimSpace(name) == "" {
			return nil, &domain.ErrValidation{Field: "name", Message: "required"}
		}
		updates["slug"] = slugify(name)
	}

	updated, err := s.store.UpdateOrganization(ctx, orgID, updates)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheOrgs)
	return updated, nil
}

// Delete removes the tenant. The caller must be an owner and must
// retype the organization's exact name.
func (s *OrganizationsService) Delete(ctx context.Context, orgID, actorID, confirmName string) error {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	if err := s.requireOwner(ctx, orgID, actorID); err != nil {
		return err
	}

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if confirmName != org.Name {
		return &domain.ErrValidation{Field: "confirm_name", Message: "must match the organization name exactly"}
	}

	if err := s.store.DeleteOrganization(ctx, orgID); err != nil {
		return err
	}

	s.logger.Info("organization deleted",
		zap.String("org_id", orgID),
		zap.String("actor_id", actorID),
	)
	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID,
		cachePeople, cacheDeals, cacheCampaigns, cacheInteractions, cacheLibrary, cacheDashboard, cacheOrgs, cacheQuickAdd)
	return nil
}

// --- Members ---

func (s *OrganizationsService) ListMembers(ctx context.Context, orgID, actorID string) ([]domain.OrganizationMember, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.ListMembers")
	defer span.End()

	if err := s.requireMember(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, orgID)
}

func (s *OrganizationsService) UpdateMemberRole(ctx context.Context, orgID, actorID, userID, role string) error {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.UpdateMemberRole")
	defer span.End()

	if role != domain.RoleOwner && role != domain.RoleMember {
		return &domain.ErrValidation{Field: "role", Message: "must be owner or member"}
	}
	if err := s.requireOwner(ctx, orgID, actorID); err != nil {
		return err
	}

	target, err := s.store.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if target == nil {
		return &domain.ErrNotFound{Resource: "member", ID: userID}
	}

	if target.Role == domain.RoleOwner && role != domain.RoleOwner {
		sole, err := s.soleOwner(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if sole {
			return &domain.ErrConflict{Message: "cannot demote the only owner"}
		}
	}

	return s.store.UpdateMemberRole(ctx, orgID, userID, role)
}

func (s *OrganizationsService) RemoveMember(ctx context.Context, orgID, actorID, userID string) error {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.RemoveMember")
	defer span.End()

	// Members may leave on their own; removing someone else is
	// owner-gated.
	if actorID != userID {
		if err := s.requireOwner(ctx, orgID, actorID); err != nil {
			return err
		}
	}

	target, err := s.store.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if target == nil {
		return &domain.ErrNotFound{Resource: "member", ID: userID}
	}

	if target.Role == domain.RoleOwner {
		sole, err := s.soleOwner(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if sole {
			return &domain.ErrConflict{Message: "cannot remove the only owner"}
		}
	}

	return s.store.RemoveMember(ctx, orgID, userID)
}

// --- Invitations ---

func (s *OrganizationsService) ListInvitations(ctx context.Context, orgID, actorID string) ([]domain.OrganizationInvitation, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.ListInvitations")
	defer span.End()

	// Invitation rows carry the join token; they must never leave the
	// tenant they belong to.
	if err := s.requireMember(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	return s.store.ListInvitations(ctx, orgID)
}

func (s *OrganizationsService) CreateInvitation(ctx context.Context, orgID, actorID, email, role string) (*domain.OrganizationInvitation, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.CreateInvitation")
	defer span.End()

	if err := s.requireOwner(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleOwner && role != domain.RoleMember {
		return nil, &domain.ErrValidation{Field: "role", Message: "must be owner or member"}
	}

	inv := &domain.OrganizationInvitation{
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		Token:          uuid.New().String(),
		ExpiresAt:      time.Now().UTC().Add(s.invitationTTL),
	}
	return s.store.CreateInvitation(ctx, inv)
}

func (s *OrganizationsService) RevokeInvitation(ctx context.Context, orgID, actorID, invitationID string) error {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.RevokeInvitation")
	defer span.End()

	if err := s.requireOwner(ctx, orgID, actorID); err != nil {
		return err
	}
	return s.store.RevokeInvitation(ctx, orgID, invitationID)
}

// ValidateInvitation checks a token without consuming it. The backend
// decides expiry, revocation and prior acceptance.
func (s *OrganizationsService) ValidateInvitation(ctx context.Context, token string) (*domain.InvitationCheck, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.ValidateInvitation")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return nil, &domain.ErrInvalidToken{Reason: "missing token"}
	}
	check, err := s.store.ValidateInvitation(ctx, token)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, &domain.ErrInvalidToken{Reason: check.Reason}
	}
	return check, nil
}

// AcceptInvitation consumes the token and joins the user to the
// organization in one backend transaction.
func (s *OrganizationsService) AcceptInvitation(ctx context.Context, token, userID string) (*domain.InvitationCheck, error) {
	ctx, span := orgsTracer.Start(ctx, "OrganizationsService.AcceptInvitation")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		return nil, &domain.ErrInvalidToken{Reason: "missing token"}
	}
	check, err := s.store.AcceptInvitation(ctx, token, userID)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, &domain.ErrInvalidToken{Reason: check.Reason}
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, check.OrganizationID, cacheOrgs)
	return check, nil
}

// --- Helpers ---

// The backend client authenticates with the service-role key, so
// tenant isolation is enforced here, not by row-level security:
// reads require membership, settings mutations require ownership.
func (s *OrganizationsService) requireMember(ctx context.Context, orgID, userID string) error {
	member, err := s.store.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return &domain.ErrForbidden{Action: "not a member of this organization"}
	}
	return nil
}

func (s *OrganizationsService) requireOwner(ctx context.Context, orgID, userID string) error {
	member, err := s.store.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if member == nil || member.Role != domain.RoleOwner {
		return &domain.ErrForbidden{Action: "organization settings require the owner role"}
	}
	return nil
}

func (s *OrganizationsService) soleOwner(ctx context.Context, orgID, userID string) (bool, error) {
	members, err := s.store.ListMembers(ctx, orgID)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m.Role == domain.RoleOwner && m.UserID != userID {
			return false, nil
		}
	}
	return true, nil
}

func slugify(name string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case !prevDash:
			b.WriteByte('-')
			prevDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
