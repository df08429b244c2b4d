package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Markdown template import — preview (dry-run) and commit
//
// A batch file is a sequence of documents, each a `---` fenced YAML
// front matter (name, channel, subject, tags) followed by the Markdown
// body. Preview never mutates storage; commit delegates to the backend
// procedure so the partial/abort_all mode applies transactionally.
// ============================================================

// Front-matter keys dropped from the format. A document using one is
// rejected with a message naming the key, never silently ignored.
var deprecatedFrontMatterKeys = []string{"product_id", "product_ids"}

// ParseTemplatesMarkdown splits the batch into documents and validates
// each one. Parse failures mark the row invalid; they never abort the
// whole batch.
func ParseTemplatesMarkdown(content string) []domain.TemplateImportRow {
	var rows []domain.TemplateImportRow

	for i, doc := range splitDocuments(content) {
		row := domain.TemplateImportRow{Index: i + 1, Action: domain.ImportActionCreate}
		parseDocument(doc, &row)
		validateRow(&row)
		rows = append(rows, row)
	}
	return rows
}

type markdownDocument struct {
	frontMatter string
	body        string
}

// splitDocuments walks the batch line by line. A `---` line opens a
// front matter, the next one closes it; a later `---` starts the next
// document.
func splitDocuments(content string) []markdownDocument {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var docs []markdownDocument
	var fm, body []string
	inFrontMatter := false
	open := false

	flush := func() {
		if !open {
			return
		}
		docs = append(docs, markdownDocument{
			frontMatter: strings.Join(fm, "\n"),
			body:        strings.TrimSpace(strings.Join(body, "\n")),
		})
		fm, body = nil, nil
	}

	for _, line := range lines {
		if strings.TrimRight(line, " \t") == "---" {
			switch {
			case !open:
				open = true
				inFrontMatter = true
			case inFrontMatter:
				inFrontMatter = false
			default:
				// body ended, a new document begins
				flush()
				open = true
				inFrontMatter = true
			}
			continue
		}

		if !open {
			// prose before the first fence is ignored
			continue
		}
		if inFrontMatter {
			fm = append(fm, line)
		} else {
			body = append(body, line)
		}
	}
	flush()
	return docs
}

func parseDocument(doc markdownDocument, row *domain.TemplateImportRow) {
	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(doc.frontMatter), &raw); err != nil {
		row.Valid = false
		row.Messages = append(row.Messages, fmt.Sprintf("front matter is not valid YAML: %v", err))
		return
	}

	for _, key := range deprecatedFrontMatterKeys {
		if _, present := raw[key]; present {
			row.Messages = append(row.Messages, fmt.Sprintf("field %q is no longer supported; link products on the campaign instead", key))
		}
	}

	row.Name = stringField(raw, "name")
	row.Channel = stringField(raw, "channel")
	row.Subject = stringField(raw, "subject")
	row.Tags = tagsField(raw)
	row.Body = doc.body
}

func validateRow(row *domain.TemplateImportRow) {
	if strings.TrimSpace(row.Name) == "" {
		row.Messages = append(row.Messages, "name is required")
	}
	if !knownChannel(row.Channel) {
		row.Messages = append(row.Messages, "channel must be email, linkedin or sms")
	}
	if strings.TrimSpace(row.Body) == "" {
		row.Messages = append(row.Messages, "body is required")
	}
	row.Valid = len(row.Messages) == 0
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func tagsField(raw map[string]any) []string {
	switch v := raw["tags"].(type) {
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags
	case string:
		var tags []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}

// PreviewImport parses the batch and probes name conflicts without
// mutating storage.
func (s *LibraryService) PreviewImport(ctx context.Context, orgID, content string) (*domain.TemplateImportPreview, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.PreviewImport")
	defer span.End()

	rows := ParseTemplatesMarkdown(content)
	if len(rows) == 0 {
		return nil, &domain.ErrValidation{Field: "content", Message: "no template documents found"}
	}

	preview := &domain.TemplateImportPreview{Rows: rows}
	for i := range preview.Rows {
		row := &preview.Rows[i]
		if !row.Valid {
			preview.Invalid++
			continue
		}

		existing, err := s.store.FindTemplateByName(ctx, orgID, row.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			row.Action = domain.ImportActionWouldConflict
			row.Valid = false
			row.Messages = append(row.Messages, fmt.Sprintf("a template named %q already exists", row.Name))
			preview.Invalid++
			continue
		}
		preview.Valid++
	}
	return preview, nil
}

// CommitImport re-validates the batch (rows must still be valid at
// commit time) and applies it through the backend procedure under the
// chosen mode.
func (s *LibraryService) CommitImport(ctx context.Context, orgID, mode, content string) (*domain.TemplateImportResult, error) {
	ctx, span := libraryTracer.Start(ctx, "LibraryService.CommitImport")
	defer span.End()

	if mode != domain.ImportModePartial && mode != domain.ImportModeAbortAll {
		return nil, &domain.ErrValidation{Field: "mode", Message: "must be partial or abort_all"}
	}

	preview, err := s.PreviewImport(ctx, orgID, content)
	if err != nil {
		return nil, err
	}

	if mode == domain.ImportModeAbortAll && preview.Invalid > 0 {
		return &domain.TemplateImportResult{
			Applied: false,
			Failed:  preview.Invalid,
			Rows:    preview.Rows,
		}, nil
	}

	result, err := s.store.ImportTemplates(ctx, orgID, mode, preview.Rows)
	if err != nil {
		return nil, err
	}
	for i := 0; i < result.Created; i++ {
		s.metrics.CountImportRow("created")
	}
	for i := 0; i < result.Failed; i++ {
		s.metrics.CountImportRow("error")
	}

	if result.Applied {
		invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cacheLibrary)
	}

	s.logger.Info("template import committed",
		zap.String("org_id", orgID),
		zap.String("mode", mode),
		zap.Int("created", result.Created),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
