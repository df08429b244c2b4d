package handler

import (
	"net/http"
	"time"

	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router serves.
type Services struct {
	Auth         *service.AuthService
	Orgs         *service.OrganizationsService
	People       *service.PeopleService
	Deals        *service.DealsService
	Campaigns    *service.CampaignsService
	Interactions *service.InteractionsService
	Library      *service.LibraryService
	Dashboard    *service.DashboardService
	QuickAdd     *service.QuickAddService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(requestDurationMiddleware(metrics))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(svcs.Auth, logger))
			r.Post("/login", authLoginHandler(svcs.Auth, logger))
			r.Post("/refresh", authRefreshHandler(svcs.Auth, logger))
			r.Get("/session", authSessionHandler(svcs.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/logout", authLogoutHandler(svcs.Auth, logger))
				r.Post("/switch-org", authSwitchOrgHandler(svcs.Auth, logger))
			})
		})

		// Invitation validation is public: the invitee may not have an
		// account yet.
		r.Get("/invitations/{token}", invitationValidateHandler(svcs.Orgs, logger))

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			r.Post("/invitations/{token}/accept", invitationAcceptHandler(svcs.Orgs, logger))

			// People
			r.Route("/people", func(r chi.Router) {
				r.Get("/", listPeopleHandler(svcs.People, logger))
				r.Post("/", createPersonHandler(svcs.People, logger))
				r.Post("/import", importPeopleHandler(svcs.People, logger))
				r.Get("/export", exportPeopleHandler(svcs.People, logger))
				r.Get("/{personId}", getPersonHandler(svcs.People, logger))
				r.Patch("/{personId}", updatePersonHandler(svcs.People, logger))
				r.Delete("/{personId}", archivePersonHandler(svcs.People, logger))
			})

			// Deals
			r.Route("/deals", func(r chi.Router) {
				r.Get("/", listDealsHandler(svcs.Deals, logger))
				r.Post("/", createDealHandler(svcs.Deals, logger))
				r.Get("/open-check", openDealCheckHandler(svcs.Deals, logger))
				r.Get("/{dealId}", getDealHandler(svcs.Deals, logger))
				r.Patch("/{dealId}", updateDealHandler(svcs.Deals, logger))
				r.Delete("/{dealId}", archiveDealHandler(svcs.Deals, logger))
				r.Put("/{dealId}/stage", moveDealStageHandler(svcs.Deals, logger))
			})

			// Campaigns, members and leads
			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", listCampaignsHandler(svcs.Campaigns, logger))
				r.Post("/", createCampaignHandler(svcs.Campaigns, logger))
				r.Get("/{campaignId}", getCampaignHandler(svcs.Campaigns, logger))
				r.Patch("/{campaignId}", updateCampaignHandler(svcs.Campaigns, logger))
				r.Delete("/{campaignId}", archiveCampaignHandler(svcs.Campaigns, logger))

				r.Get("/{campaignId}/members", listCampaignMembersHandler(svcs.Campaigns, logger))
				r.Post("/{campaignId}/members", addCampaignMemberHandler(svcs.Campaigns, logger))
				r.Delete("/{campaignId}/members/{personId}", removeCampaignMemberHandler(svcs.Campaigns, logger))

				r.Get("/{campaignId}/leads", listCampaignLeadsHandler(svcs.Campaigns, logger))
				r.Post("/{campaignId}/leads", createCampaignLeadHandler(svcs.Campaigns, logger))
				r.Post("/{campaignId}/leads/bulk-convert", bulkConvertLeadsHandler(svcs.Campaigns, logger))
				r.Post("/{campaignId}/leads/{leadId}/convert", convertLeadHandler(svcs.Campaigns, logger))
				r.Post("/{campaignId}/convert-member", convertMemberHandler(svcs.Campaigns, logger))
			})

			// Interactions
			r.Route("/interactions", func(r chi.Router) {
				r.Get("/", listInteractionsHandler(svcs.Interactions, logger))
				r.Post("/", createInteractionHandler(svcs.Interactions, logger))
				r.Delete("/{interactionId}", deleteInteractionHandler(svcs.Interactions, logger))
			})

			// Library: products
			r.Route("/products", func(r chi.Router) {
				r.Get("/", listProductsHandler(svcs.Library, logger))
				r.Post("/", createProductHandler(svcs.Library, logger))
				r.Get("/{productId}", getProductHandler(svcs.Library, logger))
				r.Patch("/{productId}", updateProductHandler(svcs.Library, logger))
				r.Delete("/{productId}", archiveProductHandler(svcs.Library, logger))
			})

			// Library: templates
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", listTemplatesHandler(svcs.Library, logger))
				r.Post("/", createTemplateHandler(svcs.Library, logger))
				r.Post("/import/preview", previewTemplateImportHandler(svcs.Library, logger))
				r.Post("/import", commitTemplateImportHandler(svcs.Library, logger))
				r.Get("/{templateId}", getTemplateHandler(svcs.Library, logger))
				r.Patch("/{templateId}", updateTemplateHandler(svcs.Library, logger))
				r.Delete("/{templateId}", archiveTemplateHandler(svcs.Library, logger))
			})

			// Dashboard
			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", dashboardOverviewHandler(svcs.Dashboard, logger))
				r.Get("/follow-ups", followUpsHandler(svcs.Dashboard, logger))
				r.Get("/stale-deals", staleDealsHandler(svcs.Dashboard, logger))
				r.Get("/pipeline", pipelineHandler(svcs.Dashboard, logger))
				r.Get("/top-products", topProductsHandler(svcs.Dashboard, logger))
				r.Get("/top-campaigns", topCampaignsHandler(svcs.Dashboard, logger))
			})

			// Organizations
			r.Route("/organizations", func(r chi.Router) {
				r.Get("/", listOrganizationsHandler(svcs.Orgs, logger))
				r.Post("/", createOrganizationHandler(svcs.Orgs, logger))
				r.Get("/{orgId}", getOrganizationHandler(svcs.Orgs, logger))
				r.Patch("/{orgId}", updateOrganizationHandler(svcs.Orgs, logger))
				r.Delete("/{orgId}", deleteOrganizationHandler(svcs.Orgs, logger))

				r.Get("/{orgId}/members", listOrgMembersHandler(svcs.Orgs, logger))
				r.Patch("/{orgId}/members/{userId}", updateOrgMemberRoleHandler(svcs.Orgs, logger))
				r.Delete("/{orgId}/members/{userId}", removeOrgMemberHandler(svcs.Orgs, logger))

				r.Get("/{orgId}/invitations", listInvitationsHandler(svcs.Orgs, logger))
				r.Post("/{orgId}/invitations", createInvitationHandler(svcs.Orgs, logger))
				r.Delete("/{orgId}/invitations/{invitationId}", revokeInvitationHandler(svcs.Orgs, logger))
			})

			// Quick add handoff
			r.Post("/quick-add", parkQuickAddHandler(svcs.QuickAdd, logger))
			r.Get("/quick-add", collectQuickAddHandler(svcs.QuickAdd, logger))

			// Import counters
			r.Get("/metrics/imports", importMetricsHandler(metrics))
		})
	})

	return r
}

// requestDurationMiddleware records per-route latency against the
// matched chi pattern, not the raw path, to keep cardinality bounded.
func requestDurationMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			metrics.RecordRequestDuration(r.Method+" "+pattern, time.Since(start))
		})
	}
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func importMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetImportSnapshot())
	}
}
