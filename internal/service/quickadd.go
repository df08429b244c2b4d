package service

import (
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/port"

	"go.uber.org/zap"
)

// QuickAddService parks the cross-view creation intent: which creation
// affordance the destination view should open, and for which org. The
// intent lives in the cache (so it expires on its own), is scoped to
// one organization and is consumed by the first read.
type QuickAddService struct {
	cache  port.Cache[any]
	logger *zap.Logger
}

// NewQuickAddService creates a new quick-add service.
func NewQuickAddService(c port.Cache[any], logger *zap.Logger) *QuickAddService {
	return &QuickAddService{cache: c, logger: logger}
}

func quickAddKey(orgID string) cache.Key {
	return cache.Key{Domain: cacheQuickAdd, Entity: "intent", Org: orgID}
}

// Park stores the intent, replacing any previous one for the org.
func (s *QuickAddService) Park(orgID, kind string) (*domain.QuickAddIntent, error) {
	if !knownQuickAddKind(kind) {
		return nil, &domain.ErrValidation{Field: "kind", Message: "unknown quick-add kind"}
	}

	intent := &domain.QuickAddIntent{
		Kind:           kind,
		OrganizationID: orgID,
		CreatedAt:      time.Now().UTC(),
	}
	s.cache.Set(quickAddKey(orgID), intent)
	return intent, nil
}

// Collect returns the parked intent and consumes it; the second read
// finds nothing.
func (s *QuickAddService) Collect(orgID string) (*domain.QuickAddIntent, bool) {
	key := quickAddKey(orgID)
	cached, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	intent, ok := cached.(*domain.QuickAddIntent)
	if !ok {
		s.cache.Delete(key)
		return nil, false
	}

	s.cache.Delete(key)
	return intent, true
}

func knownQuickAddKind(kind string) bool {
	for _, known := range domain.QuickAddKinds {
		if kind == known {
			return true
		}
	}
	return false
}
