package handler

import (
	"net/http"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard widgets
// ============================================================

func dashboardOverviewHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		staleDays := queryInt(r, "stale_days", service.DefaultStaleDays)
		topN := queryInt(r, "top_n", service.DefaultTopN)

		overview, err := svc.Overview(ctx, orgID, staleDays, topN)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, overview)
	}
}

func followUpsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/follow-ups")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		items, err := svc.FollowUps(ctx, orgID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.FollowUp{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"follow_ups": items})
	}
}

func staleDealsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/stale-deals")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		items, err := svc.StaleDeals(ctx, orgID, queryInt(r, "days", service.DefaultStaleDays))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.StaleDeal{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"stale_deals": items})
	}
}

func pipelineHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/pipeline")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		items, err := svc.Pipeline(ctx, orgID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.PipelineStageCount{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"pipeline": items})
	}
}

func topProductsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/top-products")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		items, err := svc.TopProducts(ctx, orgID, queryInt(r, "n", service.DefaultTopN))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.RankedItem{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"top_products": items})
	}
}

func topCampaignsHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard/top-campaigns")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		items, err := svc.TopCampaigns(ctx, orgID, queryInt(r, "n", service.DefaultTopN))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.RankedItem{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"top_campaigns": items})
	}
}
