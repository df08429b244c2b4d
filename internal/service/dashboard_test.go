package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

func newDashboardService(store *fakeDashboardStore) *service.DashboardService {
	return service.NewDashboardService(store, cache.New[any](5*time.Minute), observability.NewMetrics(), zap.NewNop())
}

func TestFollowUps_CacheAside(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := newDashboardService(store)
	ctx := context.Background()

	first, err := svc.FollowUps(ctx, "org-1")
	if err != nil {
		t.Fatalf("follow-ups: %v", err)
	}
	second, err := svc.FollowUps(ctx, "org-1")
	if err != nil {
		t.Fatalf("follow-ups: %v", err)
	}

	if store.followUpCalls != 1 {
		t.Errorf("expected one backend fetch, got %d", store.followUpCalls)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("unexpected widget payloads: %d / %d items", len(first), len(second))
	}
}

func TestStaleDeals_DefaultThreshold(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := newDashboardService(store)

	if _, err := svc.StaleDeals(context.Background(), "org-1", 0); err != nil {
		t.Fatalf("stale deals: %v", err)
	}
	if store.staleDays != service.DefaultStaleDays {
		t.Errorf("expected default threshold %d, got %d", service.DefaultStaleDays, store.staleDays)
	}
}

func TestStaleDeals_ThresholdIsPartOfCacheKey(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := newDashboardService(store)
	ctx := context.Background()

	if _, err := svc.StaleDeals(ctx, "org-1", 7); err != nil {
		t.Fatalf("stale deals: %v", err)
	}
	if _, err := svc.StaleDeals(ctx, "org-1", 30); err != nil {
		t.Fatalf("stale deals: %v", err)
	}
	if store.staleCalls != 2 {
		t.Errorf("different thresholds must not share a cache entry, got %d fetches", store.staleCalls)
	}
}

func TestTopProducts_DefaultLimit(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := newDashboardService(store)

	if _, err := svc.TopProducts(context.Background(), "org-1", -3); err != nil {
		t.Fatalf("top products: %v", err)
	}
	if store.topNSeen != service.DefaultTopN {
		t.Errorf("expected default limit %d, got %d", service.DefaultTopN, store.topNSeen)
	}
}

func TestOverview_FillsEveryWidget(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := newDashboardService(store)

	ov, err := svc.Overview(context.Background(), "org-1", 0, 0)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(ov.FollowUps) != 1 {
		t.Error("missing follow-ups")
	}
	if len(ov.StaleDeals) != 1 {
		t.Error("missing stale deals")
	}
	if len(ov.Pipeline) != 1 {
		t.Error("missing pipeline")
	}
	if len(ov.TopProducts) != 1 {
		t.Error("missing top products")
	}
	if len(ov.TopCampaigns) != 1 {
		t.Error("missing top campaigns")
	}
}

func TestOverview_WarmsWidgetCaches(t *testing.T) {
	store := &fakeDashboardStore{}
	svc := newDashboardService(store)
	ctx := context.Background()

	if _, err := svc.Overview(ctx, "org-1", 0, 0); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if _, err := svc.FollowUps(ctx, "org-1"); err != nil {
		t.Fatalf("follow-ups: %v", err)
	}
	if store.followUpCalls != 1 {
		t.Errorf("overview should have warmed the widget cache, got %d fetches", store.followUpCalls)
	}
}
