package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

func newPeopleService(store *fakePeopleStore) *service.PeopleService {
	return service.NewPeopleService(store, cache.New[any](5*time.Minute), observability.NewMetrics(), zap.NewNop())
}

func TestImportCSV_CreatesWhenNoMatch(t *testing.T) {
	store := newFakePeopleStore()
	svc := newPeopleService(store)

	csvData := "name,email,phone\nAda,ada@example.com,555-0100\n"
	summary, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Created != 1 || summary.Updated != 0 || summary.Errors != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(store.created) != 1 || store.created[0].Email != "ada@example.com" {
		t.Errorf("expected one created person, got %+v", store.created)
	}
}

func TestImportCSV_UpdatesOnEmailMatch(t *testing.T) {
	store := newFakePeopleStore()
	store.byEmail["ada@example.com"] = &domain.Person{ID: "p-1", Email: "ada@example.com"}
	svc := newPeopleService(store)

	csvData := "name,email,phone,notes\nAda Lovelace,ada@example.com,,\n"
	summary, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", summary)
	}
	updates := store.updates["p-1"]
	if updates["name"] != "Ada Lovelace" {
		t.Errorf("expected name update, got %+v", updates)
	}
	// Empty CSV fields must never blank existing values.
	if _, ok := updates["phone"]; ok {
		t.Error("empty phone must not appear in updates")
	}
	if _, ok := updates["notes"]; ok {
		t.Error("empty notes must not appear in updates")
	}
}

func TestImportCSV_EmailMissDoesNotFallBackToPhone(t *testing.T) {
	store := newFakePeopleStore()
	// Same phone exists, but the row carries an email that matches nobody.
	store.byPhone["555-0100"] = &domain.Person{ID: "p-1", Phone: "555-0100"}
	svc := newPeopleService(store)

	csvData := "name,email,phone\nAda,new@example.com,555-0100\n"
	summary, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Created != 1 || summary.Updated != 0 {
		t.Errorf("expected create, not phone-match update: %+v", summary)
	}
}

func TestImportCSV_PhoneMatchWhenNoEmail(t *testing.T) {
	store := newFakePeopleStore()
	store.byPhone["555-0100"] = &domain.Person{ID: "p-1", Phone: "555-0100"}
	svc := newPeopleService(store)

	csvData := "name,email,phone\nAda,,555-0100\n"
	summary, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Updated != 1 {
		t.Errorf("expected phone-match update, got %+v", summary)
	}
}

func TestImportCSV_SkipsEmptyRows(t *testing.T) {
	store := newFakePeopleStore()
	svc := newPeopleService(store)

	csvData := "name,email,phone\n,,\nAda,ada@example.com,\n"
	summary, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Skipped != 1 || summary.Created != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestImportCSV_RowErrorsKeepOriginalIndex(t *testing.T) {
	store := newFakePeopleStore()
	svc := newPeopleService(store)

	// Row 3 has an unknown lifecycle; rows 2 and 4 are fine.
	csvData := "name,email,lifecycle\n" +
		"Ada,ada@example.com,customer\n" +
		"Bob,bob@example.com,vip\n" +
		"Cora,cora@example.com,new\n"
	summary, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Created != 2 || summary.Errors != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.RowErrors) != 1 || summary.RowErrors[0].Row != 3 {
		t.Errorf("expected error at row 3, got %+v", summary.RowErrors)
	}
	if !strings.Contains(summary.RowErrors[0].Message, "vip") {
		t.Errorf("expected message naming the bad value, got %q", summary.RowErrors[0].Message)
	}
}

func TestImportCSV_HeaderRequired(t *testing.T) {
	store := newFakePeopleStore()
	svc := newPeopleService(store)

	_, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader("phone,notes\n555,hi\n"))
	if err == nil {
		t.Fatal("expected error for header without name or email column")
	}
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %T", err)
	}
}

func TestImportCSV_BackendFailureIsPerRow(t *testing.T) {
	store := newFakePeopleStore()
	store.createErr = &domain.ErrExternalService{Service: "supabase", Err: context.DeadlineExceeded}
	svc := newPeopleService(store)

	csvData := "name,email\nAda,ada@example.com\nBob,bob@example.com\n"
	summary, err := svc.ImportCSV(context.Background(), "org-1", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("batch must continue past row failures, got %v", err)
	}
	if summary.Errors != 2 || len(summary.RowErrors) != 2 {
		t.Errorf("expected both rows recorded as errors: %+v", summary)
	}
	if summary.RowErrors[0].Row != 2 || summary.RowErrors[1].Row != 3 {
		t.Errorf("expected rows 2 and 3, got %+v", summary.RowErrors)
	}
}
