package service_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/service"
)

func TestBuildPeopleCSV_BOMAndCRLF(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	data, err := service.BuildPeopleCSV([]domain.Person{
		{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+44 20 7946 0958", Lifecycle: "customer", CreatedAt: created},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("expected UTF-8 BOM prefix")
	}
	if !bytes.Contains(data, []byte("\r\n")) {
		t.Error("expected CRLF line endings")
	}

	text := string(data[3:])
	lines := strings.Split(strings.TrimRight(text, "\r\n"), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one record, got %d lines", len(lines))
	}
	if lines[0] != "name,email,phone,lifecycle,notes,created_at" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "2026-03-01T09:30:00Z") {
		t.Errorf("expected RFC 3339 created_at, got %q", lines[1])
	}
}

func TestBuildPeopleCSV_QuotesFieldsWithSeparators(t *testing.T) {
	data, err := service.BuildPeopleCSV([]domain.Person{
		{Name: `Grace "Amazing" Hopper`, Notes: "met at conf, follow up\nnext week"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	text := string(data)
	if !strings.Contains(text, `"Grace ""Amazing"" Hopper"`) {
		t.Errorf("expected doubled quotes, got %q", text)
	}
	if !strings.Contains(text, `"met at conf, follow up`) {
		t.Errorf("expected quoted field containing comma, got %q", text)
	}
}

func TestBuildPeopleCSV_Empty(t *testing.T) {
	data, err := service.BuildPeopleCSV(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	text := string(data[3:])
	if strings.TrimRight(text, "\r\n") != "name,email,phone,lifecycle,notes,created_at" {
		t.Errorf("expected header only, got %q", text)
	}
}
