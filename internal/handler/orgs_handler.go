package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Organizations
// ============================================================

func listOrganizationsHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/organizations")
		defer span.End()

		orgs, err := svc.ListForUser(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if orgs == nil {
			orgs = []domain.Organization{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
	}
}

type createOrgRequest struct {
	Name string `json:"name" validate:"required"`
}

func createOrganizationHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/organizations")
		defer span.End()

		var req createOrgRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		org, err := svc.Create(ctx, req.Name, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, org)
	}
}

func getOrganizationHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/organizations/{orgId}")
		defer span.End()

		org, err := svc.Get(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, org)
	}
}

func updateOrganizationHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/organizations/{orgId}")
		defer span.End()

		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		org, err := svc.Update(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, org)
	}
}

type deleteOrgRequest struct {
	ConfirmName string `json:"confirm_name" validate:"required"`
}

func deleteOrganizationHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/organizations/{orgId}")
		defer span.End()

		var req deleteOrgRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.Delete(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx), req.ConfirmName); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Members
// ============================================================

func listOrgMembersHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/organizations/{orgId}/members")
		defer span.End()

		members, err := svc.ListMembers(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if members == nil {
			members = []domain.OrganizationMember{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	}
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner member"`
}

func updateOrgMemberRoleHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/organizations/{orgId}/members/{userId}")
		defer span.End()

		var req updateRoleRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		err := svc.UpdateMemberRole(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx), chi.URLParam(r, "userId"), req.Role)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func removeOrgMemberHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/organizations/{orgId}/members/{userId}")
		defer span.End()

		err := svc.RemoveMember(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx), chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Invitations
// ============================================================

func listInvitationsHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/organizations/{orgId}/invitations")
		defer span.End()

		invitations, err := svc.ListInvitations(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if invitations == nil {
			invitations = []domain.OrganizationInvitation{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"invitations": invitations})
	}
}

type createInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=owner member"`
}

func createInvitationHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/organizations/{orgId}/invitations")
		defer span.End()

		var req createInvitationRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		invitation, err := svc.CreateInvitation(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx), req.Email, req.Role)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, invitation)
	}
}

func revokeInvitationHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/organizations/{orgId}/invitations/{invitationId}")
		defer span.End()

		err := svc.RevokeInvitation(ctx, chi.URLParam(r, "orgId"), UserIDFromContext(ctx), chi.URLParam(r, "invitationId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func invitationValidateHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invitations/{token}")
		defer span.End()

		check, err := svc.ValidateInvitation(ctx, chi.URLParam(r, "token"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, check)
	}
}

func invitationAcceptHandler(svc *service.OrganizationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/invitations/{token}/accept")
		defer span.End()

		check, err := svc.AcceptInvitation(ctx, chi.URLParam(r, "token"), UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, check)
	}
}
