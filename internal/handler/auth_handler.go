package handler

import (
	"net/http"

	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Authentication
// ============================================================

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func authRegisterHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/register")
		defer span.End()

		var req registerRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		session, err := authSvc.Register(ctx, req.Name, req.Email, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, session)
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func authLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req loginRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		session, err := authSvc.Login(ctx, req.Email, req.Password)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, session)
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func authRefreshHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/refresh")
		defer span.End()

		var req refreshRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		session, err := authSvc.Refresh(ctx, req.RefreshToken)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, session)
	}
}

// authSessionHandler resolves the bearer token into a full session.
// An absent or stale token is not an error: the SPA boots either way.
func authSessionHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/auth/session")
		defer span.End()

		session, err := authSvc.Bootstrap(ctx, bearerToken(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": session != nil,
			"session":       session,
		})
	}
}

func authLogoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/logout")
		defer span.End()

		userID := UserIDFromContext(ctx)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := authSvc.Logout(ctx, userID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type switchOrgRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
}

func authSwitchOrgHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/switch-org")
		defer span.End()

		var req switchOrgRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		session, err := authSvc.SwitchOrganization(ctx, UserIDFromContext(ctx), req.OrganizationID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, session)
	}
}
