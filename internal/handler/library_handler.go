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
// Library: products
// ============================================================

func listProductsHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		products, err := svc.ListProducts(ctx, orgID, queryBool(r, "archived"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if products == nil {
			products = []domain.Product{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	}
}

type createProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency"`
}

func createProductHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/products")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req createProductRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		product, err := svc.CreateProduct(ctx, &domain.Product{
			OrganizationID: orgID,
			Name:           req.Name,
			Description:    req.Description,
			Price:          req.Price,
			Currency:       req.Currency,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

func getProductHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products/{productId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		product, err := svc.GetProduct(ctx, orgID, chi.URLParam(r, "productId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func updateProductHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/products/{productId}")
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

		product, err := svc.UpdateProduct(ctx, orgID, chi.URLParam(r, "productId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func archiveProductHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/products/{productId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		if err := svc.ArchiveProduct(ctx, orgID, chi.URLParam(r, "productId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Library: templates
// ============================================================

func listTemplatesHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/templates")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		templates, err := svc.ListTemplates(ctx, orgID, queryBool(r, "archived"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if templates == nil {
			templates = []domain.Template{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
	}
}

type createTemplateRequest struct {
	Name    string   `json:"name" validate:"required"`
	Channel string   `json:"channel" validate:"required,oneof=email linkedin sms"`
	Subject string   `json:"subject"`
	Body    string   `json:"body" validate:"required"`
	Tags    []string `json:"tags"`
}

func createTemplateHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/templates")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req createTemplateRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		template, err := svc.CreateTemplate(ctx, &domain.Template{
			OrganizationID: orgID,
			Name:           req.Name,
			Channel:        req.Channel,
			Subject:        req.Subject,
			Body:           req.Body,
			Tags:           req.Tags,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, template)
	}
}

func getTemplateHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/templates/{templateId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		template, err := svc.GetTemplate(ctx, orgID, chi.URLParam(r, "templateId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, template)
	}
}

func updateTemplateHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/templates/{templateId}")
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

		template, err := svc.UpdateTemplate(ctx, orgID, chi.URLParam(r, "templateId"), updates)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, template)
	}
}

func archiveTemplateHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/templates/{templateId}")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		if err := svc.ArchiveTemplate(ctx, orgID, chi.URLParam(r, "templateId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Template Markdown import
// ============================================================

type templateImportPreviewRequest struct {
	Content string `json:"content" validate:"required"`
}

func previewTemplateImportHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/templates/import/preview")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req templateImportPreviewRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		preview, err := svc.PreviewImport(ctx, orgID, req.Content)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, preview)
	}
}

type templateImportCommitRequest struct {
	Content string `json:"content" validate:"required"`
	Mode    string `json:"mode" validate:"required,oneof=partial abort_all"`
}

func commitTemplateImportHandler(svc *service.LibraryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/templates/import")
		defer span.End()

		orgID, ok := requireOrg(w, r)
		if !ok {
			return
		}

		var req templateImportCommitRequest
		if err := decodeValid(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.CommitImport(ctx, orgID, req.Mode, req.Content)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
