package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// People
// ============================================================

func listPeopleHandler(svc *service.PeopleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/people")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		filter := domain.PersonListFilter{
			Lifecycle: r.URL.Query().Get("lifecycle"),
			Archived:  queryBool(r, "archived"),
			Search:    r.URL.Query().Get("q"),
		}
		people, err := svc.List(ctx, orgID, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if people == nil {
			people = []domain.Person{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"people": people})
	}
}

type createPersonRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Lifecycle string `json:"lifecycle"`
	Notes     string `json:"notes"`
}

func createPersonHandler(svc *service.PeopleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/people")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req createPersonRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		person, err := svc.Create(ctx, &domain.Person{
			OrganizationID: orgID,
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Lifecycle:      req.Lifecycle,
			Notes:          req.Notes,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, person)
	}
}

func getPersonHandler(svc *service.PeopleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/people/{personId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		person, err := svc.Get(ctx, orgID, chi.URLParam(r, "personId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, person)
	}
}

func updatePersonHandler(svc *service.PeopleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/people/{personId}")
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

		person, err := svc.Update(ctx, orgID, chi.URLParam(r, "personId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, person)
	}
}

func archivePersonHandler(svc *service.PeopleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/people/{personId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		if err := svc.Archive(ctx, orgID, chi.URLParam(r, "personId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// importPeopleHandler ingests a CSV body. The import is best effort:
// a 200 with per-row errors is still a success at the transport level.
func importPeopleHandler(svc *service.PeopleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/people/import")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var body io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			// Multipart uploads carry the CSV in a "file" part.
			file, _, err := r.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "missing file part")
				return
			}
			defer file.Close()
			body = file
		}

		summary, err := svc.ImportCSV(ctx, orgID, body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func exportPeopleHandler(svc *service.PeopleService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/people/export")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		filter := domain.PersonListFilter{
			Lifecycle: r.URL.Query().Get("lifecycle"),
			Archived:  queryBool(r, "archived"),
			Search:    r.URL.Query().Get("q"),
		}
		data, err := svc.ExportCSV(ctx, orgID, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="people.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
