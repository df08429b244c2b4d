// Package service provides the business logic layer (use cases):
// org-scoped caching, optimistic updates, CSV import/export, Markdown
// template import, lead conversion and tenant management on top of the
// managed backend.
package service

import (
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/port"
)

// Cache domains, one per feature area. Every key carries exactly one
// of these plus the owning organization id.
const (
	cachePeople       = "people"
	cacheDeals        = "deals"
	cacheCampaigns    = "campaigns"
	cacheInteractions = "interactions"
	cacheLibrary      = "library"
	cacheDashboard    = "dashboard"
	cacheOrgs         = "orgs"
	cacheQuickAdd     = "quickadd"
)

// Invalidation reasons, used as the metric label.
const (
	invalidateMutation  = "mutation"
	invalidateOrgSwitch = "org_switch"
	invalidateSignOut   = "sign_out"
)

func listKey(domainName, org, params string) cache.Key {
	return cache.Key{Domain: domainName, Entity: "list", Org: org, Params: params}
}

// invalidateScoped drops every cached entry belonging to the given
// organization and domains, and records the count under reason.
// Other organizations' entries are never touched.
func invalidateScoped(c port.Cache[any], m *observability.Metrics, reason, org string, domains ...string) int {
	n := c.Invalidate(func(k cache.Key) bool {
		if k.Org != org {
			return false
		}
		for _, d := range domains {
			if k.Domain == d {
				return true
			}
		}
		return false
	})
	m.CountInvalidations(reason, n)
	return n
}

// invalidateAll drops the entire cache across organizations. Used on
// org switch and sign-out, where any retained entry would be a
// cross-tenant leak.
func invalidateAll(c port.Cache[any], m *observability.Metrics, reason string) int {
	n := c.Invalidate(func(cache.Key) bool { return true })
	m.CountInvalidations(reason, n)
	return n
}
