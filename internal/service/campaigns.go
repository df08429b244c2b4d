package service

import (
	"context"
	"strings"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var campaignsTracer = otel.Tracer("service/campaigns")

// CampaignsService orchestrates campaigns, membership and lead
// conversion. Conversion itself is one backend transaction; this layer
// derives the mode, runs the advisory duplicate check and invalidates
// every affected cache domain afterwards.
type CampaignsService struct {
	store   port.CampaignsStore
	deals   port.DealsStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCampaignsService creates a new campaigns service.
func NewCampaignsService(store port.CampaignsStore, deals port.DealsStore, c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *CampaignsService {
	return &CampaignsService{store: store, deals: deals, cache: c, metrics: metrics, logger: logger}
}

func (s *CampaignsService) List(ctx context.Context, orgID string, includeArchived bool) ([]domain.Campaign, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.List")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	key := listKey(cacheCampaigns, orgID, "archived="+boolParam(includeArchived))
	if cached, ok := s.cache.Get(key); ok {
		if campaigns, ok := cached.([]domain.Campaign); ok {
			s.metrics.IncrCacheHit(cacheCampaigns)
			return campaigns, nil
		}
	}
	s.metrics.IncrCacheMiss(cacheCampaigns)

	campaigns, err := s.store.ListCampaigns(ctx, orgID, includeArchived)
	if err != nil {
		s.metrics.IncrExternalError("supabase/campaigns")
		return nil, err
	}
	s.cache.Set(key, campaigns)
	return campaigns, nil
}

func (s *CampaignsService) Get(ctx context.Context, orgID, campaignID string) (*domain.Campaign, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.Get")
	defer span.End()

	return s.store.GetCampaign(ctx, orgID, campaignID)
}

func (s *CampaignsService) Create(ctx context.Context, cp *domain.Campaign) (*domain.Campaign, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.Create")
	defer span.End()

	if strings.TrimSpace(cp.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if cp.Type != domain.CampaignOutreach && cp.Type != domain.CampaignContent {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be outreach or content"}
	}

	created, err := s.store.CreateCampaign(ctx, cp)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, cp.OrganizationID, cacheCampaigns, cacheDashboard)
	return created, nil
}

func (s *CampaignsService) Update(ctx context.Context, orgID, campaignID string, updates map[string]any) (*domain.Campaign, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.Update")
	defer span.End()

	if t, ok := updates["type"].(string); ok && t != domain.CampaignOutreach && t != domain.CampaignContent {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be outreach or content"}
	}

	updated, err := s.store.UpdateCampaign(ctx, orgID, campaignID, updates)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheCampaigns, cacheDashboard)
	return updated, nil
}

func (s *CampaignsService) Archive(ctx context.Context, orgID, campaignID string) error {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.Archive")
	defer span.End()

	if err := s.store.ArchiveCampaign(ctx, orgID, campaignID); err != nil {
		return err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheCampaigns, cacheDashboard)
	return nil
}

// --- Members ---

func (s *CampaignsService) ListMembers(ctx context.Context, orgID, campaignID string) ([]domain.CampaignMember, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.ListMembers")
	defer span.End()

	return s.store.ListCampaignMembers(ctx, orgID, campaignID)
}

func (s *CampaignsService) AddMember(ctx context.Context, orgID, campaignID, personID string) error {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.AddMember")
	defer span.End()

	if personID == "" {
		return &domain.ErrValidation{Field: "person_id", Message: "required"}
	}
	if err := s.store.AddCampaignMember(ctx, orgID, campaignID, personID); err != nil {
		return err
	}

	// Membership feeds the top-campaigns ranking.
	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheCampaigns, cacheDashboard)
	return nil
}

func (s *CampaignsService) RemoveMember(ctx context.Context, orgID, campaignID, personID string) error {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.RemoveMember")
	defer span.End()

	if err := s.store.RemoveCampaignMember(ctx, orgID, campaignID, personID); err != nil {
		return err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheCampaigns, cacheDashboard)
	return nil
}

// --- Leads ---

func (s *CampaignsService) ListLeads(ctx context.Context, orgID, campaignID string) ([]domain.CampaignLead, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.ListLeads")
	defer span.End()

	return s.store.ListCampaignLeads(ctx, orgID, campaignID)
}

func (s *CampaignsService) CreateLead(ctx context.Context, l *domain.CampaignLead) (*domain.CampaignLead, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.CreateLead")
	defer span.End()

	if strings.TrimSpace(l.Name) == "" && l.Email == "" && l.Phone == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "a lead needs a name, email or phone"}
	}

	created, err := s.store.CreateCampaignLead(ctx, l)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, l.OrganizationID, cacheCampaigns)
	return created, nil
}

// --- Conversion ---

// DeriveMode picks the default conversion mode from context: existing
// members already have a Person, so only the deal is created; new
// leads default by campaign type. Callers may override per request.
func DeriveMode(campaignType string, existingMember bool) string {
	if existingMember {
		return domain.ConvertDealOnly
	}
	if campaignType == domain.CampaignContent {
		return domain.ConvertContactOnly
	}
	return domain.ConvertContactDeal
}

func validMode(mode string) bool {
	switch mode {
	case domain.ConvertContactDeal, domain.ConvertContactOnly, domain.ConvertDealOnly:
		return true
	}
	return false
}

func modeCreatesDeal(mode string) bool {
	return mode == domain.ConvertContactDeal || mode == domain.ConvertDealOnly
}

// ConvertLead runs a single conversion through the backend procedure.
// When the mode will create a deal for an existing person, any open
// deal for the same person/product is surfaced in the result; creation
// still proceeds, the duplicate signal is advisory.
func (s *CampaignsService) ConvertLead(ctx context.Context, req *domain.ConvertLeadRequest) (*domain.ConvertLeadResult, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.ConvertLead")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", req.CampaignID))

	campaign, err := s.store.GetCampaign(ctx, req.OrganizationID, req.CampaignID)
	if err != nil {
		return nil, err
	}

	if req.Mode == "" {
		req.Mode = DeriveMode(campaign.Type, req.PersonID != "")
	}
	if !validMode(req.Mode) {
		return nil, &domain.ErrValidation{Field: "mode", Message: "unknown conversion mode"}
	}
	if req.LeadID == "" && req.PersonID == "" {
		return nil, &domain.ErrValidation{Field: "lead_id", Message: "lead_id or person_id required"}
	}
	if modeCreatesDeal(req.Mode) && req.ProductID == "" {
		return nil, &domain.ErrValidation{Field: "product_id", Message: "required for deal-creating modes"}
	}

	var duplicate *domain.Deal
	if modeCreatesDeal(req.Mode) && req.PersonID != "" {
		duplicate, err = s.deals.FindOpenDeal(ctx, req.OrganizationID, req.PersonID, req.ProductID)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.store.ConvertLead(ctx, req)
	if err != nil {
		s.metrics.CountConversion("error")
		return nil, err
	}
	if duplicate != nil && result.DuplicateOpenDeal == "" {
		result.DuplicateOpenDeal = duplicate.ID
	}
	s.metrics.CountConversion("converted")

	invalidateScoped(s.cache, s.metrics, invalidateMutation, req.OrganizationID,
		cachePeople, cacheDeals, cacheCampaigns, cacheInteractions, cacheDashboard)
	return result, nil
}

// BulkConvert converts a batch of leads under one duplicate strategy.
// Per-row outcomes come back from the backend; the batch never fails
// as a whole.
func (s *CampaignsService) BulkConvert(ctx context.Context, req *domain.BulkConvertRequest) (*domain.BulkConvertResult, error) {
	ctx, span := campaignsTracer.Start(ctx, "CampaignsService.BulkConvert")
	defer span.End()
	span.SetAttributes(
		attribute.String("campaign.id", req.CampaignID),
		attribute.Int("lead.count", len(req.LeadIDs)),
	)

	if len(req.LeadIDs) == 0 {
		return nil, &domain.ErrValidation{Field: "lead_ids", Message: "required"}
	}
	if req.DuplicateStrategy == "" {
		req.DuplicateStrategy = domain.DuplicateSkip
	}
	if req.DuplicateStrategy != domain.DuplicateSkip && req.DuplicateStrategy != domain.DuplicateCreateAnyway {
		return nil, &domain.ErrValidation{Field: "duplicate_strategy", Message: "must be skip or create_anyway"}
	}

	campaign, err := s.store.GetCampaign(ctx, req.OrganizationID, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if req.Mode == "" {
		req.Mode = DeriveMode(campaign.Type, false)
	}
	if !validMode(req.Mode) {
		return nil, &domain.ErrValidation{Field: "mode", Message: "unknown conversion mode"}
	}
	if modeCreatesDeal(req.Mode) && req.ProductID == "" {
		return nil, &domain.ErrValidation{Field: "product_id", Message: "required for deal-creating modes"}
	}

	result, err := s.store.BulkConvertLeads(ctx, req)
	if err != nil {
		s.metrics.CountConversion("error")
		return nil, err
	}
	for _, row := range result.Rows {
		s.metrics.CountConversion(row.Status)
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, req.OrganizationID,
		cachePeople, cacheDeals, cacheCampaigns, cacheInteractions, cacheDashboard)
	return result, nil
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
