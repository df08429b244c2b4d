package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// DealsStore implementation — pipeline deals via PostgREST
// ============================================================

func (c *Client) ListDeals(ctx context.Context, orgID string, f domain.DealListFilter) ([]domain.Deal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDeals")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	path := fmt.Sprintf("deals?organization_id=eq.%s&is_archived=eq.%t&order=updated_at.desc", orgID, f.Archived)
	if f.Stage != "" {
		path += "&stage=eq." + f.Stage
	}
	if f.PersonID != "" {
		path += "&person_id=eq." + f.PersonID
	}
	if f.ProductID != "" {
		path += "&product_id=eq." + f.ProductID
	}

	rows, err := fetchRows[domain.Deal](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Deal{}
	}
	return rows, nil
}

func (c *Client) GetDeal(ctx context.Context, orgID, dealID string) (*domain.Deal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDeal")
	defer span.End()

	path := fmt.Sprintf("deals?id=eq.%s&organization_id=eq.%s&limit=1", dealID, orgID)
	d, err := fetchOne[domain.Deal](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &domain.ErrNotFound{Resource: "deal", ID: dealID}
	}
	return d, nil
}

func (c *Client) CreateDeal(ctx context.Context, d *domain.Deal) (*domain.Deal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDeal")
	defer span.End()

	stage := d.Stage
	if stage == "" {
		stage = domain.StageProspect
	}

	now := time.Now().UTC().Format(time.RFC3339)
	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": d.OrganizationID,
		"person_id":       d.PersonID,
		"product_id":      d.ProductID,
		"stage":           stage,
		"value":           d.Value,
		"currency":        d.Currency,
		"notes":           d.Notes,
		"is_archived":     false,
		"created_at":      now,
		"updated_at":      now,
	}
	if d.CampaignID != "" {
		data["campaign_id"] = d.CampaignID
	}
	if d.NextStepAt != nil {
		data["next_step_at"] = d.NextStepAt.UTC().Format(time.RFC3339)
	}

	body, err := c.doPost(ctx, "deals", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.Deal]("deals", body)
}

func (c *Client) UpdateDeal(ctx context.Context, orgID, dealID string, updates map[string]any) (*domain.Deal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDeal")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("deals?id=eq.%s&organization_id=eq.%s", dealID, orgID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetDeal(ctx, orgID, dealID)
}

func (c *Client) UpdateDealStage(ctx context.Context, orgID, dealID, stage string) (*domain.Deal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDealStage")
	defer span.End()
	span.SetAttributes(
		attribute.String("deal.id", dealID),
		attribute.String("deal.stage", stage),
	)

	return c.UpdateDeal(ctx, orgID, dealID, map[string]any{"stage": stage})
}

func (c *Client) ArchiveDeal(ctx context.Context, orgID, dealID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ArchiveDeal")
	defer span.End()

	path := fmt.Sprintf("deals?id=eq.%s&organization_id=eq.%s", dealID, orgID)
	return c.doPatch(ctx, path, map[string]any{
		"is_archived": true,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	})
}

// FindOpenDeal looks for a non-archived deal for the same person and
// product that is not yet won or lost. Used as an advisory duplicate
// check before conversion; a miss is (nil, nil).
func (c *Client) FindOpenDeal(ctx context.Context, orgID, personID, productID string) (*domain.Deal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindOpenDeal")
	defer span.End()

	path := fmt.Sprintf(
		"deals?organization_id=eq.%s&person_id=eq.%s&product_id=eq.%s&is_archived=eq.false&stage=not.in.(%s,%s)&limit=1",
		orgID, personID, productID, domain.StageWon, domain.StageLost,
	)
	return fetchOne[domain.Deal](ctx, c, path)
}
