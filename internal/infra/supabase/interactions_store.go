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
// InteractionsStore implementation
// ============================================================

func (c *Client) ListInteractions(ctx context.Context, orgID string, f domain.InteractionListFilter) ([]domain.Interaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInteractions")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	path := fmt.Sprintf("interactions?organization_id=eq.%s&order=occurred_at.desc", orgID)
	if f.PersonID != "" {
		path += "&person_id=eq." + f.PersonID
	}
	if f.DealID != "" {
		path += "&deal_id=eq." + f.DealID
	}
	if f.CampaignID != "" {
		path += "&campaign_id=eq." + f.CampaignID
	}

	rows, err := fetchRows[domain.Interaction](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Interaction{}
	}
	return rows, nil
}

func (c *Client) CreateInteraction(ctx context.Context, it *domain.Interaction) (*domain.Interaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInteraction")
	defer span.End()

	occurredAt := it.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": it.OrganizationID,
		"person_id":       it.PersonID,
		"type":            it.Type,
		"summary":         it.Summary,
		"occurred_at":     occurredAt.UTC().Format(time.RFC3339),
		"created_at":      time.Now().UTC().Format(time.RFC3339),
	}
	if it.DealID != "" {
		data["deal_id"] = it.DealID
	}
	if it.CampaignID != "" {
		data["campaign_id"] = it.CampaignID
	}
	if it.TemplateID != "" {
		data["template_id"] = it.TemplateID
	}
	if it.ProductID != "" {
		data["product_id"] = it.ProductID
	}
	if it.NextStepAt != nil {
		data["next_step_at"] = it.NextStepAt.UTC().Format(time.RFC3339)
	}

	body, err := c.doPost(ctx, "interactions", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.Interaction]("interactions", body)
}

func (c *Client) DeleteInteraction(ctx context.Context, orgID, interactionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInteraction")
	defer span.End()

	path := fmt.Sprintf("interactions?id=eq.%s&organization_id=eq.%s", interactionID, orgID)
	return c.doDelete(ctx, path)
}
