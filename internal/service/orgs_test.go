package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

func newOrgsService(store *fakeOrgsStore) *service.OrganizationsService {
	return service.NewOrganizationsService(store, cache.New[any](5*time.Minute),
		observability.NewMetrics(), zap.NewNop(), 14*24*time.Hour)
}

func seedOrg(store *fakeOrgsStore, name string, members ...domain.OrganizationMember) *domain.Organization {
	org := &domain.Organization{Name: name, Slug: name}
	org.ID = "org-" + name
	store.orgs[org.ID] = org
	store.members[org.ID] = members
	return org
}

func TestCreateOrganization_Slugifies(t *testing.T) {
	store := newFakeOrgsStore()
	svc := newOrgsService(store)

	org, err := svc.Create(context.Background(), "  Acme & Söhne GmbH  ", "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if org.Name != "Acme & Söhne GmbH" {
		t.Errorf("name should be trimmed only, got %q", org.Name)
	}
	if org.Slug != "acme-s-hne-gmbh" {
		t.Errorf("unexpected slug: %q", org.Slug)
	}
	if org.OwnerID != "user-1" {
		t.Errorf("unexpected owner: %q", org.OwnerID)
	}
}

func TestOrganizationReads_RequireMembership(t *testing.T) {
	store := newFakeOrgsStore()
	org := seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
	)
	store.invitations = []domain.OrganizationInvitation{
		{ID: "inv-1", OrganizationID: org.ID, Email: "new@example.com", Token: "tok-secret"},
	}
	svc := newOrgsService(store)
	ctx := context.Background()

	// An authenticated outsider must not see another tenant's data.
	var ferr *domain.ErrForbidden
	if _, err := svc.Get(ctx, org.ID, "u-outsider"); !errors.As(err, &ferr) {
		t.Errorf("get: expected forbidden for a non-member, got %v", err)
	}
	if _, err := svc.ListMembers(ctx, org.ID, "u-outsider"); !errors.As(err, &ferr) {
		t.Errorf("list members: expected forbidden for a non-member, got %v", err)
	}
	if _, err := svc.ListInvitations(ctx, org.ID, "u-outsider"); !errors.As(err, &ferr) {
		t.Errorf("list invitations: expected forbidden for a non-member, got %v", err)
	}

	// A member reads all three.
	if _, err := svc.Get(ctx, org.ID, "u-owner"); err != nil {
		t.Errorf("get as member: %v", err)
	}
	members, err := svc.ListMembers(ctx, org.ID, "u-owner")
	if err != nil || len(members) != 1 {
		t.Errorf("list members as member: %v (%d rows)", err, len(members))
	}
	invitations, err := svc.ListInvitations(ctx, org.ID, "u-owner")
	if err != nil || len(invitations) != 1 {
		t.Errorf("list invitations as member: %v (%d rows)", err, len(invitations))
	}
}

func TestUpdateOrganization_RequiresOwner(t *testing.T) {
	store := newFakeOrgsStore()
	seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
		domain.OrganizationMember{UserID: "u-member", Role: domain.RoleMember},
	)
	svc := newOrgsService(store)

	_, err := svc.Update(context.Background(), "org-acme", "u-member", map[string]any{"name": "New Name"})
	var ferr *domain.ErrForbidden
	if !errors.As(err, &ferr) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteOrganization_ExactNameConfirm(t *testing.T) {
	store := newFakeOrgsStore()
	org := seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
	)
	org.Name = "Acme Corp"
	svc := newOrgsService(store)
	ctx := context.Background()

	err := svc.Delete(ctx, org.ID, "u-owner", "acme corp")
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error on case mismatch, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("mismatched confirmation must not delete")
	}

	if err := svc.Delete(ctx, org.ID, "u-owner", "Acme Corp"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != org.ID {
		t.Errorf("expected deletion of %s, got %v", org.ID, store.deleted)
	}
}

func TestUpdateMemberRole_SoleOwnerCannotBeDemoted(t *testing.T) {
	store := newFakeOrgsStore()
	seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
		domain.OrganizationMember{UserID: "u-member", Role: domain.RoleMember},
	)
	svc := newOrgsService(store)

	err := svc.UpdateMemberRole(context.Background(), "org-acme", "u-owner", "u-owner", domain.RoleMember)
	var cerr *domain.ErrConflict
	if !errors.As(err, &cerr) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(store.roleChanges) != 0 {
		t.Error("demotion must not reach the store")
	}
}

func TestUpdateMemberRole_DemoteWithSecondOwner(t *testing.T) {
	store := newFakeOrgsStore()
	seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
		domain.OrganizationMember{UserID: "u-owner2", Role: domain.RoleOwner},
	)
	svc := newOrgsService(store)

	if err := svc.UpdateMemberRole(context.Background(), "org-acme", "u-owner", "u-owner", domain.RoleMember); err != nil {
		t.Fatalf("demote: %v", err)
	}
	if len(store.roleChanges) != 1 || store.roleChanges[0] != "org-acme/u-owner/member" {
		t.Errorf("unexpected role changes: %v", store.roleChanges)
	}
}

func TestRemoveMember_SelfRemovalNeedsNoOwnerRole(t *testing.T) {
	store := newFakeOrgsStore()
	seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
		domain.OrganizationMember{UserID: "u-member", Role: domain.RoleMember},
	)
	svc := newOrgsService(store)

	if err := svc.RemoveMember(context.Background(), "org-acme", "u-member", "u-member"); err != nil {
		t.Fatalf("leaving should not require the owner role: %v", err)
	}
	if len(store.removed) != 1 || store.removed[0] != "org-acme/u-member" {
		t.Errorf("unexpected removals: %v", store.removed)
	}
}

func TestRemoveMember_SoleOwnerCannotLeave(t *testing.T) {
	store := newFakeOrgsStore()
	seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
		domain.OrganizationMember{UserID: "u-member", Role: domain.RoleMember},
	)
	svc := newOrgsService(store)

	err := svc.RemoveMember(context.Background(), "org-acme", "u-owner", "u-owner")
	var cerr *domain.ErrConflict
	if !errors.As(err, &cerr) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateInvitation_DefaultsAndNormalizes(t *testing.T) {
	store := newFakeOrgsStore()
	seedOrg(store, "acme",
		domain.OrganizationMember{UserID: "u-owner", Role: domain.RoleOwner},
	)
	svc := newOrgsService(store)

	inv, err := svc.CreateInvitation(context.Background(), "org-acme", "u-owner", "  Ada@Example.COM ", "")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if inv.Email != "ada@example.com" {
		t.Errorf("email must be lowercased and trimmed, got %q", inv.Email)
	}
	if inv.Role != domain.RoleMember {
		t.Errorf("expected member default, got %q", inv.Role)
	}
	if inv.Token == "" {
		t.Error("expected a generated token")
	}
	if !inv.ExpiresAt.After(time.Now().Add(13 * 24 * time.Hour)) {
		t.Errorf("expected roughly two weeks of validity, got %v", inv.ExpiresAt)
	}
}

func TestValidateInvitation_InvalidVerdictBecomesTokenError(t *testing.T) {
	store := newFakeOrgsStore()
	store.check = &domain.InvitationCheck{Valid: false, Reason: "expired"}
	svc := newOrgsService(store)

	_, err := svc.ValidateInvitation(context.Background(), "tok-123")
	var terr *domain.ErrInvalidToken
	if !errors.As(err, &terr) {
		t.Fatalf("expected invalid-token error, got %v", err)
	}
	if terr.Reason != "expired" {
		t.Errorf("expected backend reason carried through, got %q", terr.Reason)
	}
}

func TestAcceptInvitation_ValidVerdict(t *testing.T) {
	store := newFakeOrgsStore()
	store.check = &domain.InvitationCheck{Valid: true, OrganizationID: "org-acme", Role: domain.RoleMember}
	svc := newOrgsService(store)

	check, err := svc.AcceptInvitation(context.Background(), "tok-123", "u-new")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if check.OrganizationID != "org-acme" {
		t.Errorf("unexpected org: %q", check.OrganizationID)
	}
}
