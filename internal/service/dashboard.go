package service

import (
	"context"
	"fmt"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// Widget defaults.
const (
	DefaultStaleDays = 14
	DefaultTopN      = 5
)

// DashboardService serves the read-only widgets. Every widget is a
// cached fetch of a backend aggregate; no client-side grouping or
// ranking beyond formatting.
type DashboardService struct {
	store   port.DashboardStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store port.DashboardStore, c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, cache: c, metrics: metrics, logger: logger}
}

// widget wraps the cache-aside pattern shared by all widgets.
func widget[T any](ctx context.Context, s *DashboardService, entity, orgID, params string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	key := cache.Key{Domain: cacheDashboard, Entity: entity, Org: orgID, Params: params}
	if cached, ok := s.cache.Get(key); ok {
		if items, ok := cached.([]T); ok {
			s.metrics.IncrCacheHit(cacheDashboard)
			return items, nil
		}
	}
	s.metrics.IncrCacheMiss(cacheDashboard)

	items, err := fetch(ctx)
	if err != nil {
		s.metrics.IncrExternalError("supabase/dashboard")
		return nil, err
	}
	s.cache.Set(key, items)
	return items, nil
}

func (s *DashboardService) FollowUps(ctx context.Context, orgID string) ([]domain.FollowUp, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.FollowUps")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	return widget(ctx, s, "follow_ups", orgID, "", func(ctx context.Context) ([]domain.FollowUp, error) {
		return s.store.FollowUps(ctx, orgID)
	})
}

func (s *DashboardService) StaleDeals(ctx context.Context, orgID string, thresholdDays int) ([]domain.StaleDeal, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.StaleDeals")
	defer span.End()
	span.SetAttributes(attribute.Int("threshold.days", thresholdDays))

	if thresholdDays <= 0 {
		thresholdDays = DefaultStaleDays
	}
	days := thresholdDays
	return widget(ctx, s, "stale_deals", orgID, fmt.Sprintf("days=%d", days), func(ctx context.Context) ([]domain.StaleDeal, error) {
		return s.store.StaleDeals(ctx, orgID, days)
	})
}

func (s *DashboardService) Pipeline(ctx context.Context, orgID string) ([]domain.PipelineStageCount, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Pipeline")
	defer span.End()

	return widget(ctx, s, "pipeline", orgID, "", func(ctx context.Context) ([]domain.PipelineStageCount, error) {
		return s.store.PipelineSnapshot(ctx, orgID)
	})
}

func (s *DashboardService) TopProducts(ctx context.Context, orgID string, limit int) ([]domain.RankedItem, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.TopProducts")
	defer span.End()

	if limit <= 0 {
		limit = DefaultTopN
	}
	n := limit
	return widget(ctx, s, "top_products", orgID, fmt.Sprintf("n=%d", n), func(ctx context.Context) ([]domain.RankedItem, error) {
		return s.store.TopProducts(ctx, orgID, n)
	})
}

func (s *DashboardService) TopCampaigns(ctx context.Context, orgID string, limit int) ([]domain.RankedItem, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.TopCampaigns")
	defer span.End()

	if limit <= 0 {
		limit = DefaultTopN
	}
	n := limit
	return widget(ctx, s, "top_campaigns", orgID, fmt.Sprintf("n=%d", n), func(ctx context.Context) ([]domain.RankedItem, error) {
		return s.store.TopCampaigns(ctx, orgID, n)
	})
}

// Overview fetches all widgets concurrently for the combined endpoint.
func (s *DashboardService) Overview(ctx context.Context, orgID string, staleDays, topN int) (*domain.DashboardOverview, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Overview")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	var ov domain.DashboardOverview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := s.FollowUps(gctx, orgID)
		ov.FollowUps = items
		return err
	})
	g.Go(func() error {
		items, err := s.StaleDeals(gctx, orgID, staleDays)
		ov.StaleDeals = items
		return err
	})
	g.Go(func() error {
		items, err := s.Pipeline(gctx, orgID)
		ov.Pipeline = items
		return err
	})
	g.Go(func() error {
		items, err := s.TopProducts(gctx, orgID, topN)
		ov.TopProducts = items
		return err
	})
	g.Go(func() error {
		items, err := s.TopCampaigns(gctx, orgID, topN)
		ov.TopCampaigns = items
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ov, nil
}
