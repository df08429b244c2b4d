// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
)

// Cache provides generic caching with TTL over structured,
// organization-scoped keys.
type Cache[T any] interface {
	Get(k cache.Key) (T, bool)
	Set(k cache.Key, value T)
	Delete(k cache.Key)
	Invalidate(pred func(cache.Key) bool) int
	Snapshot(pred func(cache.Key) bool) map[cache.Key]T
	Restore(snap map[cache.Key]T)
	Clear()
}

// PeopleStore defines data operations on contact records. Lookups that
// can legitimately miss (dedupe probes) return (nil, nil) rather than
// ErrNotFound.
type PeopleStore interface {
	ListPeople(ctx context.Context, orgID string, f domain.PersonListFilter) ([]domain.Person, error)
	GetPerson(ctx context.Context, orgID, personID string) (*domain.Person, error)
	CreatePerson(ctx context.Context, p *domain.Person) (*domain.Person, error)
	UpdatePerson(ctx context.Context, orgID, personID string, updates map[string]any) (*domain.Person, error)
	ArchivePerson(ctx context.Context, orgID, personID string) error
	FindPersonByEmail(ctx context.Context, orgID, email string) (*domain.Person, error)
	FindPersonByPhone(ctx context.Context, orgID, phone string) (*domain.Person, error)
}

// DealsStore defines data operations on pipeline deals.
type DealsStore interface {
	ListDeals(ctx context.Context, orgID string, f domain.DealListFilter) ([]domain.Deal, error)
	GetDeal(ctx context.Context, orgID, dealID string) (*domain.Deal, error)
	CreateDeal(ctx context.Context, d *domain.Deal) (*domain.Deal, error)
	UpdateDeal(ctx context.Context, orgID, dealID string, updates map[string]any) (*domain.Deal, error)
	UpdateDealStage(ctx context.Context, orgID, dealID, stage string) (*domain.Deal, error)
	ArchiveDeal(ctx context.Context, orgID, dealID string) error
	FindOpenDeal(ctx context.Context, orgID, personID, productID string) (*domain.Deal, error)
}

// CampaignsStore defines campaign CRUD, membership and the lead
// conversion remote procedures.
type CampaignsStore interface {
	ListCampaigns(ctx context.Context, orgID string, includeArchived bool) ([]domain.Campaign, error)
	GetCampaign(ctx context.Context, orgID, campaignID string) (*domain.Campaign, error)
	CreateCampaign(ctx context.Context, c *domain.Campaign) (*domain.Campaign, error)
	UpdateCampaign(ctx context.Context, orgID, campaignID string, updates map[string]any) (*domain.Campaign, error)
	ArchiveCampaign(ctx context.Context, orgID, campaignID string) error

	ListCampaignMembers(ctx context.Context, orgID, campaignID string) ([]domain.CampaignMember, error)
	AddCampaignMember(ctx context.Context, orgID, campaignID, personID string) error
	RemoveCampaignMember(ctx context.Context, orgID, campaignID, personID string) error

	ListCampaignLeads(ctx context.Context, orgID, campaignID string) ([]domain.CampaignLead, error)
	GetCampaignLead(ctx context.Context, orgID, leadID string) (*domain.CampaignLead, error)
	CreateCampaignLead(ctx context.Context, l *domain.CampaignLead) (*domain.CampaignLead, error)

	ConvertLead(ctx context.Context, req *domain.ConvertLeadRequest) (*domain.ConvertLeadResult, error)
	BulkConvertLeads(ctx context.Context, req *domain.BulkConvertRequest) (*domain.BulkConvertResult, error)
}

// InteractionsStore defines data operations on interactions.
type InteractionsStore interface {
	ListInteractions(ctx context.Context, orgID string, f domain.InteractionListFilter) ([]domain.Interaction, error)
	CreateInteraction(ctx context.Context, it *domain.Interaction) (*domain.Interaction, error)
	DeleteInteraction(ctx context.Context, orgID, interactionID string) error
}

// LibraryStore defines data operations on products and templates,
// including the Markdown batch import procedure.
type LibraryStore interface {
	ListProducts(ctx context.Context, orgID string, includeArchived bool) ([]domain.Product, error)
	GetProduct(ctx context.Context, orgID, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, orgID, productID string, updates map[string]any) (*domain.Product, error)
	ArchiveProduct(ctx context.Context, orgID, productID string) error

	ListTemplates(ctx context.Context, orgID string, includeArchived bool) ([]domain.Template, error)
	GetTemplate(ctx context.Context, orgID, templateID string) (*domain.Template, error)
	CreateTemplate(ctx context.Context, t *domain.Template) (*domain.Template, error)
	UpdateTemplate(ctx context.Context, orgID, templateID string, updates map[string]any) (*domain.Template, error)
	ArchiveTemplate(ctx context.Context, orgID, templateID string) error
	FindTemplateByName(ctx context.Context, orgID, name string) (*domain.Template, error)

	ImportTemplates(ctx context.Context, orgID, mode string, rows []domain.TemplateImportRow) (*domain.TemplateImportResult, error)
}

// DashboardStore defines the aggregate reads. All grouping and ranking
// happens in the backend RPCs; these calls only fetch.
type DashboardStore interface {
	FollowUps(ctx context.Context, orgID string) ([]domain.FollowUp, error)
	StaleDeals(ctx context.Context, orgID string, thresholdDays int) ([]domain.StaleDeal, error)
	PipelineSnapshot(ctx context.Context, orgID string) ([]domain.PipelineStageCount, error)
	TopProducts(ctx context.Context, orgID string, limit int) ([]domain.RankedItem, error)
	TopCampaigns(ctx context.Context, orgID string, limit int) ([]domain.RankedItem, error)
}

// OrganizationsStore defines tenant, membership and invitation
// operations. Invitation validity is decided by backend RPCs.
type OrganizationsStore interface {
	ListOrganizationsForUser(ctx context.Context, userID string) ([]domain.Organization, error)
	GetOrganization(ctx context.Context, orgID string) (*domain.Organization, error)
	CreateOrganization(ctx context.Context, org *domain.Organization) (*domain.Organization, error)
	UpdateOrganization(ctx context.Context, orgID string, updates map[string]any) (*domain.Organization, error)
	DeleteOrganization(ctx context.Context, orgID string) error

	ListMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error)
	GetMember(ctx context.Context, orgID, userID string) (*domain.OrganizationMember, error)
	AddMember(ctx context.Context, orgID, userID, role string) error
	UpdateMemberRole(ctx context.Context, orgID, userID, role string) error
	RemoveMember(ctx context.Context, orgID, userID string) error

	ListInvitations(ctx context.Context, orgID string) ([]domain.OrganizationInvitation, error)
	CreateInvitation(ctx context.Context, inv *domain.OrganizationInvitation) (*domain.OrganizationInvitation, error)
	RevokeInvitation(ctx context.Context, orgID, invitationID string) error
	ValidateInvitation(ctx context.Context, token string) (*domain.InvitationCheck, error)
	AcceptInvitation(ctx context.Context, token, userID string) (*domain.InvitationCheck, error)
}

// AuthStore defines user, credential and refresh-token operations.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User, passwordHash string) (*domain.User, error)
	SetCurrentOrganization(ctx context.Context, userID, orgID string) error

	GetCredentials(ctx context.Context, userID string) (*domain.Credential, error)
	UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}
