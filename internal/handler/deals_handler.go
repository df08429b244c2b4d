package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Deals (Kanban pipeline)
// ============================================================

func listDealsHandler(svc *service.DealsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/deals")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		filter := domain.DealListFilter{
			Stage:     r.URL.Query().Get("stage"),
			PersonID:  r.URL.Query().Get("person_id"),
			ProductID: r.URL.Query().Get("product_id"),
			Archived:  queryBool(r, "archived"),
		}
		deals, err := svc.List(ctx, orgID, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if deals == nil {
			deals = []domain.Deal{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"deals": deals})
	}
}

type createDealRequest struct {
	PersonID   string  `json:"person_id" validate:"required"`
	ProductID  string  `json:"product_id" validate:"required"`
	CampaignID string  `json:"campaign_id"`
	Stage      string  `json:"stage"`
	Value      float64 `json:"value" validate:"gte=0"`
	Currency   string  `json:"currency"`
	NextStepAt string  `json:"next_step_at"`
	Notes      string  `json:"notes"`
}

func createDealHandler(svc *service.DealsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/deals")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req createDealRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		deal := &domain.Deal{
			OrganizationID: orgID,
			PersonID:       req.PersonID,
			ProductID:      req.ProductID,
			CampaignID:     req.CampaignID,
			Stage:          req.Stage,
			Value:          req.Value,
			Currency:       req.Currency,
			Notes:          req.Notes,
		}
		if req.NextStepAt != "" {
			t, err := time.Parse(time.RFC3339, req.NextStepAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "next_step_at must be RFC 3339")
				return
			}
			deal.NextStepAt = &t
		}

		created, err := svc.Create(ctx, deal)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getDealHandler(svc *service.DealsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/deals/{dealId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		deal, err := svc.Get(ctx, orgID, chi.URLParam(r, "dealId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, deal)
	}
}

func updateDealHandler(svc *service.DealsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/deals/{dealId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		deal, err := svc.Update(ctx, orgID, chi.URLParam(r, "dealId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, deal)
	}
}

func archiveDealHandler(svc *service.DealsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/deals/{dealId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		if err := svc.Archive(ctx, orgID, chi.URLParam(r, "dealId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type moveStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

func moveDealStageHandler(svc *service.DealsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/deals/{dealId}/stage")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req moveStageRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		deal, err := svc.MoveStage(ctx, orgID, chi.URLParam(r, "dealId"), req.Stage)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, deal)
	}
}

// openDealCheckHandler reports whether a person already has an open deal
// for a product. Advisory only; it never blocks creation.
func openDealCheckHandler(svc *service.DealsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/deals/open-check")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		deal, err := svc.FindOpenDeal(ctx, orgID, r.URL.Query().Get("person_id"), r.URL.Query().Get("product_id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"duplicate": deal != nil,
			"deal":      deal,
		})
	}
}
