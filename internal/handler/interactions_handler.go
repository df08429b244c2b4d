package handler

import (
	"net/http"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Interactions (activity timeline)
// ============================================================

func listInteractionsHandler(svc *service.InteractionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/interactions")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		filter := domain.InteractionListFilter{
			PersonID:   r.URL.Query().Get("person_id"),
			DealID:     r.URL.Query().Get("deal_id"),
			CampaignID: r.URL.Query().Get("campaign_id"),
		}
		items, err := svc.List(ctx, orgID, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if items == nil {
			items = []domain.Interaction{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"interactions": items})
	}
}

type createInteractionRequest struct {
	PersonID   string `json:"person_id" validate:"required"`
	DealID     string `json:"deal_id"`
	CampaignID string `json:"campaign_id"`
	TemplateID string `json:"template_id"`
	ProductID  string `json:"product_id"`
	Type       string `json:"type" validate:"required,oneof=call email meeting note"`
	Summary    string `json:"summary" validate:"required"`
	OccurredAt string `json:"occurred_at"`
	NextStepAt string `json:"next_step_at"`
}

func createInteractionHandler(svc *service.InteractionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/interactions")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req createInteractionRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		it := &domain.Interaction{
			OrganizationID: orgID,
			PersonID:       req.PersonID,
			DealID:         req.DealID,
			CampaignID:     req.CampaignID,
			TemplateID:     req.TemplateID,
			ProductID:      req.ProductID,
			Type:           req.Type,
			Summary:        req.Summary,
		}
		if req.OccurredAt != "" {
			t, err := time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "occurred_at must be RFC 3339")
				return
			}
			it.OccurredAt = t
		}
		if req.NextStepAt != "" {
			t, err := time.Parse(time.RFC3339, req.NextStepAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "next_step_at must be RFC 3339")
				return
			}
			it.NextStepAt = &t
		}

		created, err := svc.Create(ctx, it)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func deleteInteractionHandler(svc *service.InteractionsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/interactions/{interactionId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(ctx, orgID, chi.URLParam(r, "interactionId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
