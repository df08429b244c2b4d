package service_test

import (
	"context"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
)

// --- People ---

type fakePeopleStore struct {
	people    []domain.Person
	byEmail   map[string]*domain.Person
	byPhone   map[string]*domain.Person
	created   []*domain.Person
	updates   map[string]map[string]any
	listCalls int
	createErr error
	updateErr error
}

func newFakePeopleStore() *fakePeopleStore {
	return &fakePeopleStore{
		byEmail: map[string]*domain.Person{},
		byPhone: map[string]*domain.Person{},
		updates: map[string]map[string]any{},
	}
}

func (f *fakePeopleStore) ListPeople(_ context.Context, _ string, _ domain.PersonListFilter) ([]domain.Person, error) {
	f.listCalls++
	return f.people, nil
}

func (f *fakePeopleStore) GetPerson(_ context.Context, _, personID string) (*domain.Person, error) {
	for i := range f.people {
		if f.people[i].ID == personID {
			return &f.people[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "person", ID: personID}
}

func (f *fakePeopleStore) CreatePerson(_ context.Context, p *domain.Person) (*domain.Person, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePeopleStore) UpdatePerson(_ context.Context, _, personID string, updates map[string]any) (*domain.Person, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates[personID] = updates
	return &domain.Person{ID: personID}, nil
}

func (f *fakePeopleStore) ArchivePerson(_ context.Context, _, _ string) error { return nil }

func (f *fakePeopleStore) FindPersonByEmail(_ context.Context, _, email string) (*domain.Person, error) {
	return f.byEmail[email], nil
}

func (f *fakePeopleStore) FindPersonByPhone(_ context.Context, _, phone string) (*domain.Person, error) {
	return f.byPhone[phone], nil
}

// --- Deals ---

type fakeDealsStore struct {
	deals     []domain.Deal
	openDeal  *domain.Deal
	listCalls int
	moveErr   error
	moved     []string
}

func (f *fakeDealsStore) ListDeals(_ context.Context, _ string, _ domain.DealListFilter) ([]domain.Deal, error) {
	f.listCalls++
	return f.deals, nil
}

func (f *fakeDealsStore) GetDeal(_ context.Context, _, dealID string) (*domain.Deal, error) {
	for i := range f.deals {
		if f.deals[i].ID == dealID {
			return &f.deals[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "deal", ID: dealID}
}

func (f *fakeDealsStore) CreateDeal(_ context.Context, d *domain.Deal) (*domain.Deal, error) {
	return d, nil
}

func (f *fakeDealsStore) UpdateDeal(_ context.Context, _, dealID string, _ map[string]any) (*domain.Deal, error) {
	return &domain.Deal{ID: dealID}, nil
}

func (f *fakeDealsStore) UpdateDealStage(_ context.Context, _, dealID, stage string) (*domain.Deal, error) {
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	f.moved = append(f.moved, dealID+":"+stage)
	return &domain.Deal{ID: dealID, Stage: stage}, nil
}

func (f *fakeDealsStore) ArchiveDeal(_ context.Context, _, _ string) error { return nil }

func (f *fakeDealsStore) FindOpenDeal(_ context.Context, _, _, _ string) (*domain.Deal, error) {
	return f.openDeal, nil
}

// --- Interactions ---

type fakeInteractionsStore struct {
	interactions []domain.Interaction
	listCalls    int
	created      []*domain.Interaction
	deleted      []string
}

func (f *fakeInteractionsStore) ListInteractions(_ context.Context, _ string, _ domain.InteractionListFilter) ([]domain.Interaction, error) {
	f.listCalls++
	return f.interactions, nil
}

func (f *fakeInteractionsStore) CreateInteraction(_ context.Context, it *domain.Interaction) (*domain.Interaction, error) {
	f.created = append(f.created, it)
	return it, nil
}

func (f *fakeInteractionsStore) DeleteInteraction(_ context.Context, _, interactionID string) error {
	f.deleted = append(f.deleted, interactionID)
	return nil
}

// --- Campaigns ---

type fakeCampaignsStore struct {
	campaign      *domain.Campaign
	leads         []domain.CampaignLead
	convertReqs   []*domain.ConvertLeadRequest
	convertResult *domain.ConvertLeadResult
	bulkReqs      []*domain.BulkConvertRequest
	bulkResult    *domain.BulkConvertResult
	convertErr    error
}

func (f *fakeCampaignsStore) ListCampaigns(_ context.Context, _ string, _ bool) ([]domain.Campaign, error) {
	if f.campaign == nil {
		return nil, nil
	}
	return []domain.Campaign{*f.campaign}, nil
}

func (f *fakeCampaignsStore) GetCampaign(_ context.Context, _, campaignID string) (*domain.Campaign, error) {
	if f.campaign == nil {
		return nil, &domain.ErrNotFound{Resource: "campaign", ID: campaignID}
	}
	return f.campaign, nil
}

func (f *fakeCampaignsStore) CreateCampaign(_ context.Context, c *domain.Campaign) (*domain.Campaign, error) {
	return c, nil
}

func (f *fakeCampaignsStore) UpdateCampaign(_ context.Context, _, campaignID string, _ map[string]any) (*domain.Campaign, error) {
	return &domain.Campaign{ID: campaignID}, nil
}

func (f *fakeCampaignsStore) ArchiveCampaign(_ context.Context, _, _ string) error { return nil }

func (f *fakeCampaignsStore) ListCampaignMembers(_ context.Context, _, _ string) ([]domain.CampaignMember, error) {
	return nil, nil
}

func (f *fakeCampaignsStore) AddCampaignMember(_ context.Context, _, _, _ string) error { return nil }

func (f *fakeCampaignsStore) RemoveCampaignMember(_ context.Context, _, _, _ string) error {
	return nil
}

func (f *fakeCampaignsStore) ListCampaignLeads(_ context.Context, _, _ string) ([]domain.CampaignLead, error) {
	return f.leads, nil
}

func (f *fakeCampaignsStore) GetCampaignLead(_ context.Context, _, leadID string) (*domain.CampaignLead, error) {
	for i := range f.leads {
		if f.leads[i].ID == leadID {
			return &f.leads[i], nil
		}
	}
	return nil, nil
}

func (f *fakeCampaignsStore) CreateCampaignLead(_ context.Context, l *domain.CampaignLead) (*domain.CampaignLead, error) {
	return l, nil
}

func (f *fakeCampaignsStore) ConvertLead(_ context.Context, req *domain.ConvertLeadRequest) (*domain.ConvertLeadResult, error) {
	if f.convertErr != nil {
		return nil, f.convertErr
	}
	f.convertReqs = append(f.convertReqs, req)
	if f.convertResult != nil {
		return f.convertResult, nil
	}
	return &domain.ConvertLeadResult{PersonID: "p-new"}, nil
}

func (f *fakeCampaignsStore) BulkConvertLeads(_ context.Context, req *domain.BulkConvertRequest) (*domain.BulkConvertResult, error) {
	f.bulkReqs = append(f.bulkReqs, req)
	if f.bulkResult != nil {
		return f.bulkResult, nil
	}
	return &domain.BulkConvertResult{}, nil
}

// --- Library ---

type fakeLibraryStore struct {
	templates    map[string]*domain.Template
	importCalls  int
	importMode   string
	importRows   []domain.TemplateImportRow
	importResult *domain.TemplateImportResult
}

func newFakeLibraryStore() *fakeLibraryStore {
	return &fakeLibraryStore{templates: map[string]*domain.Template{}}
}

func (f *fakeLibraryStore) ListProducts(_ context.Context, _ string, _ bool) ([]domain.Product, error) {
	return nil, nil
}

func (f *fakeLibraryStore) GetProduct(_ context.Context, _, productID string) (*domain.Product, error) {
	return nil, &domain.ErrNotFound{Resource: "product", ID: productID}
}

func (f *fakeLibraryStore) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	return p, nil
}

func (f *fakeLibraryStore) UpdateProduct(_ context.Context, _, productID string, _ map[string]any) (*domain.Product, error) {
	return &domain.Product{ID: productID}, nil
}

func (f *fakeLibraryStore) ArchiveProduct(_ context.Context, _, _ string) error { return nil }

func (f *fakeLibraryStore) ListTemplates(_ context.Context, _ string, _ bool) ([]domain.Template, error) {
	return nil, nil
}

func (f *fakeLibraryStore) GetTemplate(_ context.Context, _, templateID string) (*domain.Template, error) {
	return nil, &domain.ErrNotFound{Resource: "template", ID: templateID}
}

func (f *fakeLibraryStore) CreateTemplate(_ context.Context, t *domain.Template) (*domain.Template, error) {
	return t, nil
}

func (f *fakeLibraryStore) UpdateTemplate(_ context.Context, _, templateID string, _ map[string]any) (*domain.Template, error) {
	return &domain.Template{ID: templateID}, nil
}

func (f *fakeLibraryStore) ArchiveTemplate(_ context.Context, _, _ string) error { return nil }

func (f *fakeLibraryStore) FindTemplateByName(_ context.Context, _, name string) (*domain.Template, error) {
	return f.templates[name], nil
}

func (f *fakeLibraryStore) ImportTemplates(_ context.Context, _, mode string, rows []domain.TemplateImportRow) (*domain.TemplateImportResult, error) {
	f.importCalls++
	f.importMode = mode
	f.importRows = rows
	if f.importResult != nil {
		return f.importResult, nil
	}
	return &domain.TemplateImportResult{Applied: true, Created: len(rows), Rows: rows}, nil
}

// --- Dashboard ---

type fakeDashboardStore struct {
	followUpCalls int
	staleCalls    int
	staleDays     int
	topNSeen      int
}

func (f *fakeDashboardStore) FollowUps(_ context.Context, _ string) ([]domain.FollowUp, error) {
	f.followUpCalls++
	return []domain.FollowUp{{PersonID: "p1", PersonName: "Ada", DueAt: time.Now()}}, nil
}

func (f *fakeDashboardStore) StaleDeals(_ context.Context, _ string, thresholdDays int) ([]domain.StaleDeal, error) {
	f.staleCalls++
	f.staleDays = thresholdDays
	return []domain.StaleDeal{{DealID: "d1", Stage: "proposal"}}, nil
}

func (f *fakeDashboardStore) PipelineSnapshot(_ context.Context, _ string) ([]domain.PipelineStageCount, error) {
	return []domain.PipelineStageCount{{Stage: "prospect", Count: 2}}, nil
}

func (f *fakeDashboardStore) TopProducts(_ context.Context, _ string, limit int) ([]domain.RankedItem, error) {
	f.topNSeen = limit
	return []domain.RankedItem{{ID: "prod-1", Name: "Consulting"}}, nil
}

func (f *fakeDashboardStore) TopCampaigns(_ context.Context, _ string, limit int) ([]domain.RankedItem, error) {
	return []domain.RankedItem{{ID: "camp-1", Name: "Q3 Push"}}, nil
}

// --- Organizations ---

type fakeOrgsStore struct {
	orgs        map[string]*domain.Organization
	members     map[string][]domain.OrganizationMember
	invitations []domain.OrganizationInvitation
	check       *domain.InvitationCheck
	deleted     []string
	roleChanges []string
	removed     []string
}

func newFakeOrgsStore() *fakeOrgsStore {
	return &fakeOrgsStore{
		orgs:    map[string]*domain.Organization{},
		members: map[string][]domain.OrganizationMember{},
	}
}

func (f *fakeOrgsStore) ListOrganizationsForUser(_ context.Context, _ string) ([]domain.Organization, error) {
	out := make([]domain.Organization, 0, len(f.orgs))
	for _, o := range f.orgs {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrgsStore) GetOrganization(_ context.Context, orgID string) (*domain.Organization, error) {
	if o, ok := f.orgs[orgID]; ok {
		return o, nil
	}
	return nil, &domain.ErrNotFound{Resource: "organization", ID: orgID}
}

func (f *fakeOrgsStore) CreateOrganization(_ context.Context, org *domain.Organization) (*domain.Organization, error) {
	org.ID = "org-" + org.Slug
	f.orgs[org.ID] = org
	return org, nil
}

func (f *fakeOrgsStore) UpdateOrganization(_ context.Context, orgID string, _ map[string]any) (*domain.Organization, error) {
	return f.orgs[orgID], nil
}

func (f *fakeOrgsStore) DeleteOrganization(_ context.Context, orgID string) error {
	f.deleted = append(f.deleted, orgID)
	delete(f.orgs, orgID)
	return nil
}

func (f *fakeOrgsStore) ListMembers(_ context.Context, orgID string) ([]domain.OrganizationMember, error) {
	return f.members[orgID], nil
}

func (f *fakeOrgsStore) GetMember(_ context.Context, orgID, userID string) (*domain.OrganizationMember, error) {
	for i, m := range f.members[orgID] {
		if m.UserID == userID {
			return &f.members[orgID][i], nil
		}
	}
	return nil, nil
}

func (f *fakeOrgsStore) AddMember(_ context.Context, orgID, userID, role string) error {
	f.members[orgID] = append(f.members[orgID], domain.OrganizationMember{
		OrganizationID: orgID, UserID: userID, Role: role,
	})
	return nil
}

func (f *fakeOrgsStore) UpdateMemberRole(_ context.Context, orgID, userID, role string) error {
	f.roleChanges = append(f.roleChanges, orgID+"/"+userID+"/"+role)
	return nil
}

func (f *fakeOrgsStore) RemoveMember(_ context.Context, orgID, userID string) error {
	f.removed = append(f.removed, orgID+"/"+userID)
	return nil
}

func (f *fakeOrgsStore) ListInvitations(_ context.Context, _ string) ([]domain.OrganizationInvitation, error) {
	return f.invitations, nil
}

func (f *fakeOrgsStore) CreateInvitation(_ context.Context, inv *domain.OrganizationInvitation) (*domain.OrganizationInvitation, error) {
	f.invitations = append(f.invitations, *inv)
	return inv, nil
}

func (f *fakeOrgsStore) RevokeInvitation(_ context.Context, _, _ string) error { return nil }

func (f *fakeOrgsStore) ValidateInvitation(_ context.Context, _ string) (*domain.InvitationCheck, error) {
	return f.check, nil
}

func (f *fakeOrgsStore) AcceptInvitation(_ context.Context, _, _ string) (*domain.InvitationCheck, error) {
	return f.check, nil
}

// --- Auth ---

type fakeAuthStore struct {
	usersByEmail map[string]*domain.User
	usersByID    map[string]*domain.User
	creds        map[string]*domain.Credential
	refresh      map[string]*domain.RefreshToken
	currentOrg   map[string]string
	revokedAll   []string
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{
		usersByEmail: map[string]*domain.User{},
		usersByID:    map[string]*domain.User{},
		creds:        map[string]*domain.Credential{},
		refresh:      map[string]*domain.RefreshToken{},
		currentOrg:   map[string]string{},
	}
}

func (f *fakeAuthStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.usersByEmail[email], nil
}

func (f *fakeAuthStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	if u, ok := f.usersByID[userID]; ok {
		return u, nil
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
}

func (f *fakeAuthStore) CreateUser(_ context.Context, u *domain.User, passwordHash string) (*domain.User, error) {
	u.ID = "user-" + u.Email
	f.usersByEmail[u.Email] = u
	f.usersByID[u.ID] = u
	f.creds[u.ID] = &domain.Credential{UserID: u.ID, PasswordHash: passwordHash}
	return u, nil
}

func (f *fakeAuthStore) SetCurrentOrganization(_ context.Context, userID, orgID string) error {
	f.currentOrg[userID] = orgID
	if u, ok := f.usersByID[userID]; ok {
		u.CurrentOrganizationID = orgID
	}
	return nil
}

func (f *fakeAuthStore) GetCredentials(_ context.Context, userID string) (*domain.Credential, error) {
	if c, ok := f.creds[userID]; ok {
		return c, nil
	}
	return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
}

func (f *fakeAuthStore) UpdateCredentials(_ context.Context, userID string, updates map[string]any) error {
	c := f.creds[userID]
	if v, ok := updates["failed_attempts"].(int); ok {
		c.FailedAttempts = v
	}
	if v, ok := updates["locked_until"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			c.LockedUntil = &t
		}
	}
	if v, ok := updates["locked_until"]; ok && v == nil {
		c.LockedUntil = nil
	}
	return nil
}

func (f *fakeAuthStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.refresh[tokenHash] = &domain.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeAuthStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	return f.refresh[tokenHash], nil
}

func (f *fakeAuthStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	delete(f.refresh, tokenHash)
	return nil
}

func (f *fakeAuthStore) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	for h, t := range f.refresh {
		if t.UserID == userID {
			delete(f.refresh, h)
		}
	}
	return nil
}
