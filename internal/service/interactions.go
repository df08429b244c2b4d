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

var interactionsTracer = otel.Tracer("service/interactions")

// Interaction types.
var knownInteractionTypes = []string{"call", "email", "meeting", "note"}

// InteractionsService orchestrates touchpoint logging.
type InteractionsService struct {
	store   port.InteractionsStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewInteractionsService creates a new interactions service.
func NewInteractionsService(store port.InteractionsStore, c port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *InteractionsService {
	return &InteractionsService{store: store, cache: c, metrics: metrics, logger: logger}
}

func (s *InteractionsService) List(ctx context.Context, orgID string, f domain.InteractionListFilter) ([]domain.Interaction, error) {
	ctx, span := interactionsTracer.Start(ctx, "InteractionsService.List")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	key := listKey(cacheInteractions, orgID,
		fmt.Sprintf("person=%s;deal=%s;campaign=%s", f.PersonID, f.DealID, f.CampaignID))
	if cached, ok := s.cache.Get(key); ok {
		if items, ok := cached.([]domain.Interaction); ok {
			s.metrics.IncrCacheHit(cacheInteractions)
			return items, nil
		}
	}
	s.metrics.IncrCacheMiss(cacheInteractions)

	items, err := s.store.ListInteractions(ctx, orgID, f)
	if err != nil {
		s.metrics.IncrExternalError("supabase/interactions")
		return nil, err
	}
	s.cache.Set(key, items)
	return items, nil
}

func (s *InteractionsService) Create(ctx context.Context, it *domain.Interaction) (*domain.Interaction, error) {
	ctx, span := interactionsTracer.Start(ctx, "InteractionsService.Create")
	defer span.End()

	if it.PersonID == "" {
		return nil, &domain.ErrValidation{Field: "person_id", Message: "required"}
	}
	if !knownInteractionType(it.Type) {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be call, email, meeting or note"}
	}
	if strings.TrimSpace(it.Summary) == "" {
		return nil, &domain.ErrValidation{Field: "summary", Message: "required"}
	}

	created, err := s.store.CreateInteraction(ctx, it)
	if err != nil {
		return nil, err
	}

	// A next step on an interaction feeds the follow-ups widget.
	invalidateScoped(s.cache, s.metrics, invalidateMutation, it.OrganizationID, cacheInteractions, cacheDashboard)
	return created, nil
}

func (s *InteractionsService) Delete(ctx context.Context, orgID, interactionID string) error {
	ctx, span := interactionsTracer.Start(ctx, "InteractionsService.Delete")
	defer span.End()

	if err := s.store.DeleteInteraction(ctx, orgID, interactionID); err != nil {
		return err
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheInteractions, cacheDashboard)
	return nil
}

func knownInteractionType(t string) bool {
	for _, known := range knownInteractionTypes {
		if t == known {
			return true
		}
	}
	return false
}
