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

var libraryTracer = otel.Tracer("service/library")

// Template channels.
var knownChannels = []string{"email", "linkedin", "sms"}

// LibraryService orchestrates the products and templates library.
type LibraryService struct {
	store   port.LibraryStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(store port.LibraryStore, c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *LibraryService {
	return &LibraryService{store: store, cache: c, metrics: metrics, logger: logger}
}

// --- Products ---

func (s *LibraryService) ListProducts(ctx context.Context, orgID string, includeArchived bool) ([]domain.Product, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.ListProducts")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	key := listKey(cacheLibrary, orgID, "products;archived="+boolParam(includeArchived))
	if cached, ok := s.cache.Get(key); ok {
		if products, ok := cached.([]domain.Product); ok {
			s.metrics.IncrCacheHit(cacheLibrary)
			return products, nil
		}
	}
	s.metrics.IncrCacheMiss(cacheLibrary)

	products, err := s.store.ListProducts(ctx, orgID, includeArchived)
	if err != nil {
		s.metrics.IncrExternalError("supabase/library")
		return nil, err
	}
	s.cache.Set(key, products)
	return products, nil
}

func (s *LibraryService) GetProduct(ctx context.Context, orgID, productID string) (*domain.Product, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.GetProduct")
	defer span.End()

	return s.store.GetProduct(ctx, orgID, productID)
}

func (s *LibraryService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.CreateProduct")
	defer span.End()

	if strings.TrimSpace(p.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if p.Price < 0 {
		return nil, &domain.ErrValidation{Field: "price", Message: "must not be negative"}
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}

	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, p.OrganizationID, cacheLibrary, cacheDashboard)
	return created, nil
}

func (s *LibraryService) UpdateProduct(ctx context.Context, orgID, productID string, updates map[string]any) (*domain.Product, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.UpdateProduct")
	defer span.End()

	updated, err := s.store.UpdateProduct(ctx, orgID, productID, updates)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheLibrary, cacheDashboard)
	return updated, nil
}

func (s *LibraryService) ArchiveProduct(ctx context.Context, orgID, productID string) error {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.ArchiveProduct")
	defer span.End()

	if err := s.store.ArchiveProduct(ctx, orgID, productID); err != nil {
		return err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheLibrary, cacheDashboard)
	return nil
}

// --- Templates ---

func (s *LibraryService) ListTemplates(ctx context.Context, orgID string, includeArchived bool) ([]domain.Template, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.ListTemplates")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	key := listKey(cacheLibrary, orgID, "templates;archived="+boolParam(includeArchived))
	if cached, ok := s.cache.Get(key); ok {
		if templates, ok := cached.([]domain.Template); ok {
			s.metrics.IncrCacheHit(cacheLibrary)
			return templates, nil
		}
	}
	s.metrics.IncrCacheMiss(cacheLibrary)

	templates, err := s.store.ListTemplates(ctx, orgID, includeArchived)
	if err != nil {
		s.metrics.IncrExternalError("supabase/library")
		return nil, err
	}
	s.cache.Set(key, templates)
	return templates, nil
}

func (s *LibraryService) GetTemplate(ctx context.Context, orgID, templateID string) (*domain.Template, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.GetTemplate")
	defer span.End()

	return s.store.GetTemplate(ctx, orgID, templateID)
}

func (s *LibraryService) CreateTemplate(ctx context.Context, t *domain.Template) (*domain.Template, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.CreateTemplate")
	defer span.End()

	if strings.TrimSpace(t.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if !knownChannel(t.Channel) {
		return nil, &domain.ErrValidation{Field: "channel", Message: "must be email, linkedin or sms"}
	}
	if strings.TrimSpace(t.Body) == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "required"}
	}

	created, err := s.store.CreateTemplate(ctx, t)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, t.OrganizationID, cacheLibrary)
	return created, nil
}

func (s *LibraryService) UpdateTemplate(ctx context.Context, orgID, templateID string, updates map[string]any) (*domain.Template, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.UpdateTemplate")
	defer span.End()

	if ch, ok := updates["channel"].(string); ok && !knownChannel(ch) {
		return nil, &domain.ErrValidation{Field: "channel", Message: "must be email, linkedin or sms"}
	}

	updated, err := s.store.UpdateTemplate(ctx, orgID, templateID, updates)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheLibrary)
	return updated, nil
}

func (s *LibraryService) ArchiveTemplate(ctx context.Context, orgID, templateID string) error {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.ArchiveTemplate")
	defer span.End()

	if err := s.store.ArchiveTemplate(ctx, orgID, templateID); err != nil {
		return err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheLibrary)
	return nil
}

func knownChannel(ch string) bool {
	for _, known := range knownChannels {
		if ch == known {
			return true
		}
	}
	return false
}
