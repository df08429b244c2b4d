package handler

import (
	"net/http"

	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Quick add handoff
// ============================================================

type parkQuickAddRequest struct {
	Kind string `json:"kind" validate:"required,oneof=person interaction deal campaign template"`
}

func parkQuickAddHandler(svc *service.QuickAddService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/quick-add")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req parkQuickAddRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		intent, err := svc.Park(orgID, req.Kind)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, intent)
	}
}

func collectQuickAddHandler(svc *service.QuickAddService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/quick-add")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		intent, found := svc.Collect(orgID)
		writeJSON(w, http.StatusOK, map[string]any{
			"found":  found,
			"intent": intent,
		})
	}
}
