package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Campaigns
// ============================================================

func listCampaignsHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/campaigns")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		campaigns, err := svc.List(ctx, orgID, queryBool(r, "archived"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if campaigns == nil {
			campaigns = []domain.Campaign{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
	}
}

type createCampaignRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=outreach content"`
}

func createCampaignHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/campaigns")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req createCampaignRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		campaign, err := svc.Create(ctx, &domain.Campaign{
			OrganizationID: orgID,
			Name:           req.Name,
			Type:           req.Type,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, campaign)
	}
}

func getCampaignHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/campaigns/{campaignId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		campaign, err := svc.Get(ctx, orgID, chi.URLParam(r, "campaignId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, campaign)
	}
}

func updateCampaignHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/campaigns/{campaignId}")
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

		campaign, err := svc.Update(ctx, orgID, chi.URLParam(r, "campaignId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, campaign)
	}
}

func archiveCampaignHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/campaigns/{campaignId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		if err := svc.Archive(ctx, orgID, chi.URLParam(r, "campaignId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Campaign members
// ============================================================

func listCampaignMembersHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/campaigns/{campaignId}/members")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		members, err := svc.ListMembers(ctx, orgID, chi.URLParam(r, "campaignId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if members == nil {
			members = []domain.CampaignMember{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	}
}

type addMemberRequest struct {
	PersonID string `json:"person_id" validate:"required"`
}

func addCampaignMemberHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/campaigns/{campaignId}/members")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req addMemberRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.AddMember(ctx, orgID, chi.URLParam(r, "campaignId"), req.PersonID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

func removeCampaignMemberHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/campaigns/{campaignId}/members/{personId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		if err := svc.RemoveMember(ctx, orgID, chi.URLParam(r, "campaignId"), chi.URLParam(r, "personId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Campaign leads & conversion
// ============================================================

func listCampaignLeadsHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/campaigns/{campaignId}/leads")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		leads, err := svc.ListLeads(ctx, orgID, chi.URLParam(r, "campaignId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if leads == nil {
			leads = []domain.CampaignLead{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
	}
}

type createLeadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

func createCampaignLeadHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/campaigns/{campaignId}/leads")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req createLeadRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		lead, err := svc.CreateLead(ctx, &domain.CampaignLead{
			OrganizationID: orgID,
			CampaignID:     chi.URLParam(r, "campaignId"),
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, lead)
	}
}

type convertLeadRequest struct {
	Mode           string  `json:"mode" validate:"omitempty,oneof=contact_deal contact_only deal_only"`
	ProductID      string  `json:"product_id"`
	DealValue      float64 `json:"deal_value" validate:"gte=0"`
	DealCurrency   string  `json:"deal_currency"`
	LogInteraction bool    `json:"log_interaction"`
}

func convertLeadHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/campaigns/{campaignId}/leads/{leadId}/convert")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}
		span.SetAttributes(attribute.String("lead.id", chi.URLParam(r, "leadId")))

		var req convertLeadRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.ConvertLead(ctx, &domain.ConvertLeadRequest{
			OrganizationID: orgID,
			CampaignID:     chi.URLParam(r, "campaignId"),
			LeadID:         chi.URLParam(r, "leadId"),
			Mode:           req.Mode,
			ProductID:      req.ProductID,
			DealValue:      req.DealValue,
			DealCurrency:   req.DealCurrency,
			LogInteraction: req.LogInteraction,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type convertMemberRequest struct {
	PersonID       string  `json:"person_id" validate:"required"`
	Mode           string  `json:"mode" validate:"omitempty,oneof=contact_deal contact_only deal_only"`
	ProductID      string  `json:"product_id"`
	DealValue      float64 `json:"deal_value" validate:"gte=0"`
	DealCurrency   string  `json:"deal_currency"`
	LogInteraction bool    `json:"log_interaction"`
}

// convertMemberHandler runs the deal_only flavor of conversion for a
// person who is already a campaign member.
func convertMemberHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/campaigns/{campaignId}/convert-member")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req convertMemberRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.ConvertLead(ctx, &domain.ConvertLeadRequest{
			OrganizationID: orgID,
			CampaignID:     chi.URLParam(r, "campaignId"),
			PersonID:       req.PersonID,
			Mode:           req.Mode,
			ProductID:      req.ProductID,
			DealValue:      req.DealValue,
			DealCurrency:   req.DealCurrency,
			LogInteraction: req.LogInteraction,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type bulkConvertRequest struct {
	LeadIDs           []string `json:"lead_ids" validate:"required,min=1"`
	Mode              string   `json:"mode" validate:"omitempty,oneof=contact_deal contact_only deal_only"`
	ProductID         string   `json:"product_id"`
	DuplicateStrategy string   `json:"duplicate_strategy" validate:"omitempty,oneof=skip create_anyway"`
}

func bulkConvertLeadsHandler(svc *service.CampaignsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/campaigns/{campaignId}/leads/bulk-convert")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req bulkConvertRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.BulkConvert(ctx, &domain.BulkConvertRequest{
			OrganizationID:    orgID,
			CampaignID:        chi.URLParam(r, "campaignId"),
			LeadIDs:           req.LeadIDs,
			Mode:              req.Mode,
			ProductID:         req.ProductID,
			DuplicateStrategy: req.DuplicateStrategy,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
