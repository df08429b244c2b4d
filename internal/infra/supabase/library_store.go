package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// LibraryStore implementation — products and templates
// ============================================================

// --- Products ---

func (c *Client) ListProducts(ctx context.Context, orgID string, includeArchived bool) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	path := fmt.Sprintf("products?organization_id=eq.%s&order=name.asc", orgID)
	if !includeArchived {
		path += "&is_archived=eq.false"
	}

	rows, err := fetchRows[domain.Product](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Product{}
	}
	return rows, nil
}

func (c *Client) GetProduct(ctx context.Context, orgID, productID string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProduct")
	defer span.End()

	path := fmt.Sprintf("products?id=eq.%s&organization_id=eq.%s&limit=1", productID, orgID)
	p, err := fetchOne[domain.Product](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ErrNotFound{Resource: "product", ID: productID}
	}
	return p, nil
}

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduct")
	defer span.End()

	now := time.Now().UTC().Format(time.RFC3339)
	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": p.OrganizationID,
		"name":            p.Name,
		"description":     p.Description,
		"price":           p.Price,
		"currency":        p.Currency,
		"is_archived":     false,
		"created_at":      now,
		"updated_at":      now,
	}

	body, err := c.doPost(ctx, "products", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.Product]("products", body)
}

func (c *Client) UpdateProduct(ctx context.Context, orgID, productID string, updates map[string]any) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProduct")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("products?id=eq.%s&organization_id=eq.%s", productID, orgID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetProduct(ctx, orgID, productID)
}

func (c *Client) ArchiveProduct(ctx context.Context, orgID, productID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ArchiveProduct")
	defer span.End()

	path := fmt.Sprintf("products?id=eq.%s&organization_id=eq.%s", productID, orgID)
	return c.doPatch(ctx, path, map[string]any{
		"is_archived": true,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Templates ---

func (c *Client) ListTemplates(ctx context.Context, orgID string, includeArchived bool) ([]domain.Template, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTemplates")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	path := fmt.Sprintf("templates?organization_id=eq.%s&order=name.asc", orgID)
	if !includeArchived {
		path += "&is_archived=eq.false"
	}

	rows, err := fetchRows[domain.Template](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Template{}
	}
	return rows, nil
}

func (c *Client) GetTemplate(ctx context.Context, orgID, templateID string) (*domain.Template, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTemplate")
	defer span.End()

	path := fmt.Sprintf("templates?id=eq.%s&organization_id=eq.%s&limit=1", templateID, orgID)
	t, err := fetchOne[domain.Template](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &domain.ErrNotFound{Resource: "template", ID: templateID}
	}
	return t, nil
}

func (c *Client) CreateTemplate(ctx context.Context, t *domain.Template) (*domain.Template, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTemplate")
	defer span.End()

	now := time.Now().UTC().Format(time.RFC3339)
	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": t.OrganizationID,
		"name":            t.Name,
		"channel":         t.Channel,
		"subject":         t.Subject,
		"body":            t.Body,
		"tags":            t.Tags,
		"is_archived":     false,
		"created_at":      now,
		"updated_at":      now,
	}

	body, err := c.doPost(ctx, "templates", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.Template]("templates", body)
}

func (c *Client) UpdateTemplate(ctx context.Context, orgID, templateID string, updates map[string]any) (*domain.Template, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTemplate")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("templates?id=eq.%s&organization_id=eq.%s", templateID, orgID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetTemplate(ctx, orgID, templateID)
}

func (c *Client) ArchiveTemplate(ctx context.Context, orgID, templateID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ArchiveTemplate")
	defer span.End()

	path := fmt.Sprintf("templates?id=eq.%s&organization_id=eq.%s", templateID, orgID)
	return c.doPatch(ctx, path, map[string]any{
		"is_archived": true,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	})
}

// FindTemplateByName is the conflict probe for Markdown imports.
// Name matching is exact and case-sensitive; a miss is (nil, nil).
func (c *Client) FindTemplateByName(ctx context.Context, orgID, name string) (*domain.Template, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindTemplateByName")
	defer span.End()

	path := fmt.Sprintf("templates?organization_id=eq.%s&name=eq.%s&is_archived=eq.false&limit=1",
		orgID, url.QueryEscape(name))
	return fetchOne[domain.Template](ctx, c, path)
}

// ImportTemplates commits a parsed Markdown batch through the backend
// procedure, which applies the partial/abort_all mode transactionally.
func (c *Client) ImportTemplates(ctx context.Context, orgID, mode string, rows []domain.TemplateImportRow) (*domain.TemplateImportResult, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ImportTemplates")
	defer span.End()
	span.SetAttributes(
		attribute.String("import.mode", mode),
		attribute.Int("import.rows", len(rows)),
	)

	args := map[string]any{
		"org_id": orgID,
		"mode":   mode,
		"rows":   rows,
	}
	body, err := c.doRPC(ctx, "import_templates_markdown", args)
	if err != nil {
		return nil, err
	}

	var result domain.TemplateImportResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode import_templates_markdown: %w", err)
	}
	return &result, nil
}
