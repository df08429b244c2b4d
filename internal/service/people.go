package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var peopleTracer = otel.Tracer("service/people")

// PeopleService orchestrates contact operations via the backend store.
type PeopleService struct {
	store   port.PeopleStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewPeopleService creates a new people service.
func NewPeopleService(store port.PeopleStore, c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *PeopleService {
	return &PeopleService{store: store, cache: c, metrics: metrics, logger: logger}
}

func peopleListParams(f domain.PersonListFilter) string {
	return fmt.Sprintf("lifecycle=%s;archived=%t;search=%s", f.Lifecycle, f.Archived, f.Search)
}

func (s *PeopleService) List(ctx context.Context, orgID string, f domain.PersonListFilter) ([]domain.Person, error) {
	ctx, span := peopleTracer.Start(ctx, "PeopleService.List")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	key := listKey(cachePeople, orgID, peopleListParams(f))
	if cached, ok := s.cache.Get(key); ok {
		if people, ok := cached.([]domain.Person); ok {
			s.metrics.IncrCacheHit(cachePeople)
			return people, nil
		}
	}
	s.metrics.IncrCacheMiss(cachePeople)

	people, err := s.store.ListPeople(ctx, orgID, f)
	if err != nil {
		s.metrics.IncrExternalError("supabase/people")
		return nil, err
	}
	s.cache.Set(key, people)
	return people, nil
}

func (s *PeopleService) Get(ctx context.Context, orgID, personID string) (*domain.Person, error) {
	ctx, span := peopleTracer.Start(ctx, "PeopleService.Get")
	defer span.End()

	return s.store.GetPerson(ctx, orgID, personID)
}

func (s *PeopleService) Create(ctx context.Context, p *domain.Person) (*domain.Person, error) {
	ctx, span := peopleTracer.Start(ctx, "PeopleService.Create")
	defer span.End()

	if strings.TrimSpace(p.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if p.Lifecycle != "" && !knownLifecycle(p.Lifecycle) {
		return nil, &domain.ErrValidation{Field: "lifecycle", Message: "unknown lifecycle"}
	}

	created, err := s.store.CreatePerson(ctx, p)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, p.OrganizationID, cachePeople, cacheDashboard)
	return created, nil
}

func (s *PeopleService) Update(ctx context.Context, orgID, personID string, updates map[string]any) (*domain.Person, error) {
	ctx, span := peopleTracer.Start(ctx, "PeopleService.Update")
	defer span.End()

	if lc, ok := updates["lifecycle"].(string); ok && !knownLifecycle(lc) {
		return nil, &domain.ErrValidation{Field: "lifecycle", Message: "unknown lifecycle"}
	}

	updated, err := s.store.UpdatePerson(ctx, orgID, personID, updates)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cachePeople, cacheDashboard)
	return updated, nil
}

func (s *PeopleService) Archive(ctx context.Context, orgID, personID string) error {
	ctx, span := peopleTracer.Start(ctx, "PeopleService.Archive")
	defer span.End()

	if err := s.store.ArchivePerson(ctx, orgID, personID); err != nil {
		return err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cachePeople, cacheDashboard)
	return nil
}

// ExportCSV fetches the filtered list and renders it as downloadable
// CSV bytes. The list read goes through the same cache as List.
func (s *PeopleService) ExportCSV(ctx context.Context, orgID string, f domain.PersonListFilter) ([]byte, error) {
	ctx, span := peopleTracer.Start(ctx, "PeopleService.ExportCSV")
	defer span.End()

	people, err := s.List(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	return BuildPeopleCSV(people)
}

func knownLifecycle(lc string) bool {
	for _, known := range domain.KnownLifecycles {
		if lc == known {
			return true
		}
	}
	return false
}
