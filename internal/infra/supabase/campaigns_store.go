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
// CampaignsStore implementation — campaigns, members, leads
// ============================================================

func (c *Client) ListCampaigns(ctx context.Context, orgID string, includeArchived bool) ([]domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCampaigns")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	path := fmt.Sprintf("campaigns?organization_id=eq.%s&order=created_at.desc", orgID)
	if !includeArchived {
		path += "&is_archived=eq.false"
	}

	rows, err := fetchRows[domain.Campaign](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Campaign{}
	}
	return rows, nil
}

func (c *Client) GetCampaign(ctx context.Context, orgID, campaignID string) (*domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCampaign")
	defer span.End()

	path := fmt.Sprintf("campaigns?id=eq.%s&organization_id=eq.%s&limit=1", campaignID, orgID)
	cp, err := fetchOne[domain.Campaign](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, &domain.ErrNotFound{Resource: "campaign", ID: campaignID}
	}
	return cp, nil
}

func (c *Client) CreateCampaign(ctx context.Context, cp *domain.Campaign) (*domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCampaign")
	defer span.End()

	now := time.Now().UTC().Format(time.RFC3339)
	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": cp.OrganizationID,
		"name":            cp.Name,
		"type":            cp.Type,
		"is_archived":     false,
		"created_at":      now,
		"updated_at":      now,
	}

	body, err := c.doPost(ctx, "campaigns", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.Campaign]("campaigns", body)
}

func (c *Client) UpdateCampaign(ctx context.Context, orgID, campaignID string, updates map[string]any) (*domain.Campaign, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCampaign")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("campaigns?id=eq.%s&organization_id=eq.%s", campaignID, orgID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetCampaign(ctx, orgID, campaignID)
}

func (c *Client) ArchiveCampaign(ctx context.Context, orgID, campaignID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ArchiveCampaign")
	defer span.End()

	path := fmt.Sprintf("campaigns?id=eq.%s&organization_id=eq.%s", campaignID, orgID)
	return c.doPatch(ctx, path, map[string]any{
		"is_archived": true,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Members ---

// campaignMemberRow maps the membership row with the joined person name.
type campaignMemberRow struct {
	CampaignID string    `json:"campaign_id"`
	PersonID   string    `json:"person_id"`
	AddedAt    time.Time `json:"added_at"`
	Person     struct {
		Name string `json:"name"`
	} `json:"person"`
}

func (c *Client) ListCampaignMembers(ctx context.Context, orgID, campaignID string) ([]domain.CampaignMember, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCampaignMembers")
	defer span.End()

	path := fmt.Sprintf(
		"campaign_members?organization_id=eq.%s&campaign_id=eq.%s&select=campaign_id,person_id,added_at,person:people(name)&order=added_at.desc",
		orgID, campaignID,
	)
	rows, err := fetchRows[campaignMemberRow](ctx, c, path)
	if err != nil {
		return nil, err
	}

	members := make([]domain.CampaignMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, domain.CampaignMember{
			CampaignID: r.CampaignID,
			PersonID:   r.PersonID,
			PersonName: r.Person.Name,
			AddedAt:    r.AddedAt,
		})
	}
	return members, nil
}

func (c *Client) AddCampaignMember(ctx context.Context, orgID, campaignID, personID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.AddCampaignMember")
	defer span.End()

	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": orgID,
		"campaign_id":     campaignID,
		"person_id":       personID,
		"added_at":        time.Now().UTC().Format(time.RFC3339),
	}
	_, err := c.doPost(ctx, "campaign_members", data)
	return err
}

func (c *Client) RemoveCampaignMember(ctx context.Context, orgID, campaignID, personID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RemoveCampaignMember")
	defer span.End()

	path := fmt.Sprintf("campaign_members?organization_id=eq.%s&campaign_id=eq.%s&person_id=eq.%s",
		orgID, campaignID, personID)
	return c.doDelete(ctx, path)
}

// --- Leads ---

func (c *Client) ListCampaignLeads(ctx context.Context, orgID, campaignID string) ([]domain.CampaignLead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCampaignLeads")
	defer span.End()

	path := fmt.Sprintf("campaign_leads?organization_id=eq.%s&campaign_id=eq.%s&order=created_at.desc",
		orgID, campaignID)
	rows, err := fetchRows[domain.CampaignLead](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.CampaignLead{}
	}
	return rows, nil
}

func (c *Client) GetCampaignLead(ctx context.Context, orgID, leadID string) (*domain.CampaignLead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCampaignLead")
	defer span.End()

	path := fmt.Sprintf("campaign_leads?id=eq.%s&organization_id=eq.%s&limit=1", leadID, orgID)
	l, err := fetchOne[domain.CampaignLead](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, &domain.ErrNotFound{Resource: "campaign_lead", ID: leadID}
	}
	return l, nil
}

func (c *Client) CreateCampaignLead(ctx context.Context, l *domain.CampaignLead) (*domain.CampaignLead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCampaignLead")
	defer span.End()

	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": l.OrganizationID,
		"campaign_id":     l.CampaignID,
		"name":            l.Name,
		"email":           l.Email,
		"phone":           l.Phone,
		"status":          "new",
		"created_at":      time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "campaign_leads", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.CampaignLead]("campaign_leads", body)
}

// --- Conversion RPCs ---

// ConvertLead delegates the contact/deal/interaction creation and the
// lead status flip to a single backend transaction.
func (c *Client) ConvertLead(ctx context.Context, req *domain.ConvertLeadRequest) (*domain.ConvertLeadResult, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ConvertLead")
	defer span.End()
	span.SetAttributes(
		attribute.String("campaign.id", req.CampaignID),
		attribute.String("convert.mode", req.Mode),
	)

	body, err := c.doRPC(ctx, "convert_campaign_lead", req)
	if err != nil {
		return nil, err
	}

	var result domain.ConvertLeadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode convert_campaign_lead: %w", err)
	}
	return &result, nil
}

func (c *Client) BulkConvertLeads(ctx context.Context, req *domain.BulkConvertRequest) (*domain.BulkConvertResult, error) {
	ctx, span := tracer.Start(ctx, "Supabase.BulkConvertLeads")
	defer span.End()
	span.SetAttributes(
		attribute.String("campaign.id", req.CampaignID),
		attribute.Int("lead.count", len(req.LeadIDs)),
	)

	body, err := c.doRPC(ctx, "bulk_convert_campaign_leads", req)
	if err != nil {
		return nil, err
	}

	var result domain.BulkConvertResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode bulk_convert_campaign_leads: %w", err)
	}
	return &result, nil
}
