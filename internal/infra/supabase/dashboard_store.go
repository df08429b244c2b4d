package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// DashboardStore implementation — aggregate RPCs
//
// The backend owns all grouping and ranking. Each widget maps to one
// named function returning pre-aggregated JSON.
// ============================================================

func rpcRows[T any](ctx context.Context, c *Client, fn string, args map[string]any) ([]T, error) {
	body, err := c.doRPC(ctx, fn, args)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 || string(body) == "[]" || string(body) == "null" {
		return []T{}, nil
	}

	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fn, err)
	}
	return rows, nil
}

func (c *Client) FollowUps(ctx context.Context, orgID string) ([]domain.FollowUp, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FollowUps")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	return rpcRows[domain.FollowUp](ctx, c, "dashboard_follow_ups", map[string]any{
		"org_id": orgID,
	})
}

func (c *Client) StaleDeals(ctx context.Context, orgID string, thresholdDays int) ([]domain.StaleDeal, error) {
	ctx, span := tracer.Start(ctx, "Supabase.StaleDeals")
	defer span.End()
	span.SetAttributes(
		attribute.String("org.id", orgID),
		attribute.Int("threshold.days", thresholdDays),
	)

	return rpcRows[domain.StaleDeal](ctx, c, "dashboard_stale_deals", map[string]any{
		"org_id":         orgID,
		"threshold_days": thresholdDays,
	})
}

func (c *Client) PipelineSnapshot(ctx context.Context, orgID string) ([]domain.PipelineStageCount, error) {
	ctx, span := tracer.Start(ctx, "Supabase.PipelineSnapshot")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	return rpcRows[domain.PipelineStageCount](ctx, c, "dashboard_pipeline_snapshot", map[string]any{
		"org_id": orgID,
	})
}

func (c *Client) TopProducts(ctx context.Context, orgID string, limit int) ([]domain.RankedItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.TopProducts")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	return rpcRows[domain.RankedItem](ctx, c, "dashboard_top_products", map[string]any{
		"org_id":    orgID,
		"max_items": limit,
	})
}

func (c *Client) TopCampaigns(ctx context.Context, orgID string, limit int) ([]domain.RankedItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.TopCampaigns")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	return rpcRows[domain.RankedItem](ctx, c, "dashboard_top_campaigns", map[string]any{
		"org_id":    orgID,
		"max_items": limit,
	})
}
