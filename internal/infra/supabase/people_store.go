package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// PeopleStore implementation — contacts via PostgREST
// ============================================================

func (c *Client) ListPeople(ctx context.Context, orgID string, f domain.PersonListFilter) ([]domain.Person, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPeople")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	path := fmt.Sprintf("people?organization_id=eq.%s&is_archived=eq.%t&order=updated_at.desc", orgID, f.Archived)
	if f.Lifecycle != "" {
		path += "&lifecycle=eq." + url.QueryEscape(f.Lifecycle)
	}
	if f.Search != "" {
		q := url.QueryEscape(f.Search)
		path += fmt.Sprintf("&or=(name.ilike.*%s*,email.ilike.*%s*)", q, q)
	}

	rows, err := fetchRows[domain.Person](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Person{}
	}
	return rows, nil
}

func (c *Client) GetPerson(ctx context.Context, orgID, personID string) (*domain.Person, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPerson")
	defer span.End()

	path := fmt.Sprintf("people?id=eq.%s&organization_id=eq.%s&limit=1", personID, orgID)
	p, err := fetchOne[domain.Person](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ErrNotFound{Resource: "person", ID: personID}
	}
	return p, nil
}

func (c *Client) CreatePerson(ctx context.Context, p *domain.Person) (*domain.Person, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePerson")
	defer span.End()

	lifecycle := p.Lifecycle
	if lifecycle == "" {
		lifecycle = domain.LifecycleNew
	}

	now := time.Now().UTC().Format(time.RFC3339)
	data := map[string]any{
		"id":              uuid.New().String(),
		"organization_id": p.OrganizationID,
		"name":            p.Name,
		"email":           p.Email,
		"phone":           p.Phone,
		"lifecycle":       lifecycle,
		"notes":           p.Notes,
		"is_archived":     false,
		"created_at":      now,
		"updated_at":      now,
	}

	body, err := c.doPost(ctx, "people", data)
	if err != nil {
		return nil, err
	}
	return decodeInserted[domain.Person]("people", body)
}

func (c *Client) UpdatePerson(ctx context.Context, orgID, personID string, updates map[string]any) (*domain.Person, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePerson")
	defer span.End()

	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("people?id=eq.%s&organization_id=eq.%s", personID, orgID)
	if err := c.doPatch(ctx, path, updates); err != nil {
		return nil, err
	}
	return c.GetPerson(ctx, orgID, personID)
}

func (c *Client) ArchivePerson(ctx context.Context, orgID, personID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.ArchivePerson")
	defer span.End()

	path := fmt.Sprintf("people?id=eq.%s&organization_id=eq.%s", personID, orgID)
	return c.doPatch(ctx, path, map[string]any{
		"is_archived": true,
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Dedupe lookups. A miss is (nil, nil), not an error. ---

func (c *Client) FindPersonByEmail(ctx context.Context, orgID, email string) (*domain.Person, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindPersonByEmail")
	defer span.End()

	path := fmt.Sprintf("people?organization_id=eq.%s&email=eq.%s&limit=1", orgID, url.QueryEscape(email))
	return fetchOne[domain.Person](ctx, c, path)
}

func (c *Client) FindPersonByPhone(ctx context.Context, orgID, phone string) (*domain.Person, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindPersonByPhone")
	defer span.End()

	path := fmt.Sprintf("people?organization_id=eq.%s&phone=eq.%s&limit=1", orgID, url.QueryEscape(phone))
	return fetchOne[domain.Person](ctx, c, path)
}
