package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// CSV import — POST /v1/people/import
//
// Best effort, partial success: a backend failure on one row is
// recorded with the original row index and the batch continues.
// ============================================================

// importColumns maps header names to the fields an import understands.
var importColumns = []string{"name", "email", "phone", "lifecycle", "notes"}

// ImportCSV parses the uploaded CSV and applies the per-row dedupe
// policy: match by email when the row has one, else by phone, else
// create. A row with no email, no phone and no name is skipped.
func (s *PeopleService) ImportCSV(ctx context.Context, orgID string, r io.Reader) (*domain.ImportSummary, error) {
	ctx, span := peopleTracer.Start(ctx, "PeopleService.ImportCSV")
	defer span.End()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &domain.ErrValidation{Field: "file", Message: "empty or unreadable CSV"}
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		if _, ok := cols["email"]; !ok {
			return nil, &domain.ErrValidation{Field: "file", Message: "header must contain a name or email column"}
		}
	}

	summary := &domain.ImportSummary{}
	rowNum := 1 // header was row 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			s.recordRowError(summary, rowNum, fmt.Sprintf("malformed row: %v", err))
			continue
		}

		row := importRow{
			name:      field(record, cols, "name"),
			email:     field(record, cols, "email"),
			phone:     field(record, cols, "phone"),
			lifecycle: field(record, cols, "lifecycle"),
			notes:     field(record, cols, "notes"),
		}

		if row.email == "" && row.phone == "" && row.name == "" {
			summary.Skipped++
			s.metrics.CountImportRow("skipped")
			continue
		}

		if err := s.importRow(ctx, orgID, row, summary); err != nil {
			s.recordRowError(summary, rowNum, err.Error())
		}
	}

	invalidateScoped(s.cache, s.metrics, invalidateMutation, orgID, cachePeople, cacheDashboard)

	s.logger.Info("people import finished",
		zap.String("org_id", orgID),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

type importRow struct {
	name      string
	email     string
	phone     string
	lifecycle string
	notes     string
}

// importRow applies the dedupe policy to a single row. When the row
// carries an email, the email lookup alone decides match vs create;
// an unmatched email never falls back to the phone lookup.
func (s *PeopleService) importRow(ctx context.Context, orgID string, row importRow, summary *domain.ImportSummary) error {
	if row.lifecycle != "" && !knownLifecycle(row.lifecycle) {
		return fmt.Errorf("unknown lifecycle %q", row.lifecycle)
	}

	var match *domain.Person
	var err error
	switch {
	case row.email != "":
		match, err = s.store.FindPersonByEmail(ctx, orgID, row.email)
	case row.phone != "":
		match, err = s.store.FindPersonByPhone(ctx, orgID, row.phone)
	}
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	if match != nil {
		updates := map[string]any{}
		if row.name != "" {
			updates["name"] = row.name
		}
		if row.email != "" {
			updates["email"] = row.email
		}
		if row.phone != "" {
			updates["phone"] = row.phone
		}
		if row.lifecycle != "" {
			updates["lifecycle"] = row.lifecycle
		}
		if row.notes != "" {
			updates["notes"] = row.notes
		}

		if _, err := s.store.UpdatePerson(ctx, orgID, match.ID, updates); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		summary.Updated++
		s.metrics.CountImportRow("updated")
		return nil
	}

	p := &domain.Person{
		OrganizationID: orgID,
		Name:           row.name,
		Email:          row.email,
		Phone:          row.phone,
		Lifecycle:      row.lifecycle,
		Notes:          row.notes,
	}
	if _, err := s.store.CreatePerson(ctx, p); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	summary.Created++
	s.metrics.CountImportRow("created")
	return nil
}

func (s *PeopleService) recordRowError(summary *domain.ImportSummary, rowNum int, msg string) {
	summary.Errors++
	summary.RowErrors = append(summary.RowErrors, domain.ImportRowError{Row: rowNum, Message: msg})
	s.metrics.CountImportRow("error")
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
