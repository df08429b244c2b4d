package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var dealsTracer = otel.Tracer("service/deals")

// DealsService orchestrates pipeline operations, including the
// optimistic Kanban stage move.
type DealsService struct {
	store   port.DealsStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDealsService creates a new deals service.
func NewDealsService(store port.DealsStore, c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *DealsService {
	return &DealsService{store: store, cache: c, metrics: metrics, logger: logger}
}

func dealsListParams(f domain.DealListFilter) string {
	return fmt.Sprintf("stage=%s;person=%s;product=%s;archived=%t", f.Stage, f.PersonID, f.ProductID, f.Archived)
}

func (s *DealsService) List(ctx context.Context, orgID string, f domain.DealListFilter) ([]domain.Deal, error) {
	ctx, span := dealsTracer.Start(ctx, "DealsService.List")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	key := listKey(cacheDeals, orgID, dealsListParams(f))
	if cached, ok := s.cache.Get(key); ok {
		if deals, ok := cached.([]domain.Deal); ok {
			s.metrics.IncrCacheHit(cacheDeals)
			return deals, nil
		}
	}
	s.metrics.IncrCacheMiss(cacheDeals)

	deals, err := s.store.ListDeals(ctx, orgID, f)
	if err != nil {
		s.metrics.IncrExternalError("supabase/deals")
		return nil, err
	}
	s.cache.Set(key, deals)
	return deals, nil
}

func (s *DealsService) Get(ctx context.Context, orgID, dealID string) (*domain.Deal, error) {
	ctx, span := dealsTracer.Start(ctx, "DealsService.Get")
	defer span.End()

	return s.store.GetDeal(ctx, orgID, dealID)
}

func (s *DealsService) Create(ctx context.Context, d *domain.Deal) (*domain.Deal, error) {
	ctx, span := dealsTracer.Start(ctx, "DealsService.Create")
	defer span.End()

	if d.PersonID == "" {
		return nil, &domain.ErrValidation{Field: "person_id", Message: "required"}
	}
	if d.ProductID == "" {
		return nil, &domain.ErrValidation{Field: "product_id", Message: "required"}
	}
	if d.Stage != "" && !domain.ValidStage(d.Stage) {
		return nil, &domain.ErrValidation{Field: "stage", Message: "unknown stage"}
	}
	if d.Value < 0 {
		return nil, &domain.ErrValidation{Field: "value", Message: "must not be negative"}
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}

	created, err := s.store.CreateDeal(ctx, d)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, d.OrganizationID, cacheDeals, cacheDashboard)
	return created, nil
}

func (s *DealsService) Update(ctx context.Context, orgID, dealID string, updates map[string]any) (*domain.Deal, error) {
	ctx, span := dealsTracer.Start(ctx, "DealsService.Update")
	defer span.End()

	if st, ok := updates["stage"].(string); ok && !domain.ValidStage(st) {
		return nil, &domain.ErrValidation{Field: "stage", Message: "unknown stage"}
	}

	updated, err := s.store.UpdateDeal(ctx, orgID, dealID, updates)
	if err != nil {
		return nil, err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheDeals, cacheDashboard)
	return updated, nil
}

func (s *DealsService) Archive(ctx context.Context, orgID, dealID string) error {
	ctx, span := dealsTracer.Start(ctx, "DealsService.Archive")
	defer span.End()

	if err := s.store.ArchiveDeal(ctx, orgID, dealID); err != nil {
		return err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheDeals, cacheDashboard)
	return nil
}

// MoveStage is the optimistic Kanban drag: snapshot the org's cached
// deal lists, apply the provisional move so readers see it
// immediately, then commit remotely. On failure the snapshot is
// restored verbatim. Concurrent moves of the same deal resolve
// last-write-wins, matching the board behavior.
func (s *DealsService) MoveStage(ctx context.Context, orgID, dealID, stage string) (*domain.Deal, error) {
	ctx, span := dealsTracer.Start(ctx, "DealsService.MoveStage")
	defer span.End()
	span.SetAttributes(
		attribute.String("deal.id", dealID),
		attribute.String("deal.stage", stage),
	)

	if !domain.ValidStage(stage) {
		return nil, &domain.ErrValidation{Field: "stage", Message: "unknown stage"}
	}

	pred := func(k cache.Key) bool { return k.Org == orgID && k.Domain == cacheDeals }
	snap := s.cache.Snapshot(pred)

	now := time.Now().UTC()
	for k, v := range snap {
		list, ok := v.([]domain.Deal)
		if !ok {
			continue
		}
		provisional := make([]domain.Deal, len(list))
		copy(provisional, list)
		for i := range provisional {
			if provisional[i].ID == dealID {
				provisional[i].Stage = stage
				provisional[i].UpdatedAt = now
			}
		}
		s.cache.Set(k, provisional)
	}

	deal, err := s.store.UpdateDealStage(ctx, orgID, dealID, stage)
	if err != nil {
		s.cache.Restore(snap)
		s.logger.Warn("stage move failed, cache rolled back",
			zap.String("deal_id", dealID),
			zap.String("stage", stage),
			zap.Error(err),
		)
		return nil, err
	}

	// Dashboard aggregates go stale on any stage change; the refreshed
	// deal lists stay, they already reflect the committed move.
	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheDashboard)
	return deal, nil
}

// FindOpenDeal surfaces an existing open deal for the same person and
// product. Advisory only: callers may still create a duplicate.
func (s *DealsService) FindOpenDeal(ctx context.Context, orgID, personID, productID string) (*domain.Deal, error) {
	ctx, span := dealsTracer.Start(ctx, "DealsService.FindOpenDeal")
	defer span.End()

	if strings.TrimSpace(personID) == "" {
		return nil, &domain.ErrValidation{Field: "person_id", Message: "required"}
	}
	if strings.TrimSpace(productID) == "" {
		return nil, &domain.ErrValidation{Field: "product_id", Message: "required"}
	}
	return s.store.FindOpenDeal(ctx, orgID, personID, productID)
}
