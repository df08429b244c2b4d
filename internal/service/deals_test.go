package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

func newDealsService(store *fakeDealsStore, c *cache.InMemory[any]) *service.DealsService {
	return service.NewDealsService(store, c, observability.NewMetrics(), zap.NewNop())
}

func TestMoveStage_ProvisionalUpdateVisibleWithoutRefetch(t *testing.T) {
	store := &fakeDealsStore{deals: []domain.Deal{
		{ID: "d-1", Stage: domain.StageProspect},
		{ID: "d-2", Stage: domain.StageProposal},
	}}
	c := cache.New[any](5 * time.Minute)
	svc := newDealsService(store, c)
	ctx := context.Background()

	// Prime the cached list.
	if _, err := svc.List(ctx, "org-1", domain.DealListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.listCalls != 1 {
		t.Fatalf("expected 1 list call, got %d", store.listCalls)
	}

	moved, err := svc.MoveStage(ctx, "org-1", "d-1", domain.StageCommitted)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Stage != domain.StageCommitted {
		t.Errorf("expected committed, got %s", moved.Stage)
	}

	// The cached list must already reflect the move, with no refetch.
	deals, err := svc.List(ctx, "org-1", domain.DealListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("expected the committed move to serve from cache, got %d fetches", store.listCalls)
	}
	if deals[0].Stage != domain.StageCommitted || deals[1].Stage != domain.StageProposal {
		t.Errorf("unexpected stages after move: %s / %s", deals[0].Stage, deals[1].Stage)
	}
}

func TestMoveStage_RollbackRestoresSnapshot(t *testing.T) {
	store := &fakeDealsStore{deals: []domain.Deal{{ID: "d-1", Stage: domain.StageProspect}}}
	c := cache.New[any](5 * time.Minute)
	svc := newDealsService(store, c)
	ctx := context.Background()

	if _, err := svc.List(ctx, "org-1", domain.DealListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}

	store.moveErr = errors.New("backend down")
	if _, err := svc.MoveStage(ctx, "org-1", "d-1", domain.StageWon); err == nil {
		t.Fatal("expected move error")
	}

	deals, err := svc.List(ctx, "org-1", domain.DealListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.listCalls != 1 {
		t.Errorf("rollback must restore the cached list, got %d fetches", store.listCalls)
	}
	if deals[0].Stage != domain.StageProspect {
		t.Errorf("expected original stage after rollback, got %s", deals[0].Stage)
	}
}

func TestMoveStage_RollbackLeavesOtherOrgsUntouched(t *testing.T) {
	store := &fakeDealsStore{deals: []domain.Deal{{ID: "d-1", Stage: domain.StageProspect}}}
	c := cache.New[any](5 * time.Minute)
	svc := newDealsService(store, c)
	ctx := context.Background()

	otherKey := cache.Key{Domain: "deals", Entity: "list", Org: "org-2", Params: "x"}
	c.Set(otherKey, []domain.Deal{{ID: "d-9", Stage: domain.StageWon}})

	if _, err := svc.List(ctx, "org-1", domain.DealListFilter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	store.moveErr = errors.New("backend down")
	_, _ = svc.MoveStage(ctx, "org-1", "d-1", domain.StageLost)

	cached, ok := c.Get(otherKey)
	if !ok {
		t.Fatal("other org's entry must survive the rollback")
	}
	if deals := cached.([]domain.Deal); deals[0].Stage != domain.StageWon {
		t.Errorf("other org's data mutated: %+v", deals)
	}
}

func TestMoveStage_RejectsUnknownStage(t *testing.T) {
	svc := newDealsService(&fakeDealsStore{}, cache.New[any](time.Minute))

	_, err := svc.MoveStage(context.Background(), "org-1", "d-1", "parked")
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDeal_Defaults(t *testing.T) {
	store := &fakeDealsStore{}
	svc := newDealsService(store, cache.New[any](time.Minute))

	deal, err := svc.Create(context.Background(), &domain.Deal{
		OrganizationID: "org-1",
		PersonID:       "p-1",
		ProductID:      "prod-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if deal.Currency != "USD" {
		t.Errorf("expected USD default, got %s", deal.Currency)
	}
}

func TestFindOpenDeal_RequiresIdentifiers(t *testing.T) {
	svc := newDealsService(&fakeDealsStore{}, cache.New[any](time.Minute))

	if _, err := svc.FindOpenDeal(context.Background(), "org-1", "", "prod-1"); err == nil {
		t.Error("expected error for missing person_id")
	}
	if _, err := svc.FindOpenDeal(context.Background(), "org-1", "p-1", ""); err == nil {
		t.Error("expected error for missing product_id")
	}
}
